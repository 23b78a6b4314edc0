package config

import (
	"fmt"
	"strings"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
	"gqlsql/internal/gqlrequest"
	"gqlsql/internal/sqlutil"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (r *ValidationResult) addError(field, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Hint: hint})
}

func (r *ValidationResult) addWarning(field, message, hint string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Message: message, Hint: hint})
}

// Validate checks the configuration for errors and returns validation results.
// It returns both errors (fatal) and warnings (non-fatal issues).
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}
	c.Analysis.validate(result)
	c.Compiler.validate(result)
	c.Observability.validate(result)
	return result
}

func (a *AnalysisConfig) validate(result *ValidationResult) {
	if a.Preset != "" {
		if _, ok := gqlrequest.PresetConfig(a.Preset); !ok {
			result.addError("analysis.preset", fmt.Sprintf("unknown preset %q", a.Preset), "use permissive, standard or strict")
		}
	}

	if a.EnableDepthCheck && a.MaxDepth < 1 {
		result.addError("analysis.max_depth", "must be at least 1 when the depth check is enabled", "")
	}
	if a.EnableComplexityCheck && a.MaxComplexity < 1 {
		result.addError("analysis.max_complexity", "must be at least 1 when the complexity check is enabled", "")
	}
	if !a.EnableDepthCheck {
		result.addWarning("analysis.enable_depth_check", "depth check is disabled", "deeply nested queries will not be rejected")
	}
	if !a.EnableComplexityCheck {
		result.addWarning("analysis.enable_complexity_check", "complexity check is disabled", "expensive queries will not be rejected")
	}
	if a.MaxDepth > 50 {
		result.addWarning("analysis.max_depth", fmt.Sprintf("%d is unusually high", a.MaxDepth), "the permissive preset uses 20")
	}

	if a.MaxSizeBytes < 0 {
		result.addError("analysis.max_size_bytes", "must not be negative", "use 0 to disable the size check")
	}
	if a.MaxMultiplier < 1 {
		result.addError("analysis.max_multiplier", "must be at least 1", "")
	}
	if a.FragmentRecursionLimit < 1 {
		result.addError("analysis.fragment_recursion_limit", "must be at least 1", "")
	}
	for field, value := range map[string]int{
		"analysis.variable_penalty":      a.VariablePenalty,
		"analysis.fragment_penalty":      a.FragmentPenalty,
		"analysis.unknown_fragment_cost": a.UnknownFragmentCost,
	} {
		if value < 0 {
			result.addError(field, "must not be negative", "")
		}
	}
	for name, cost := range a.FieldCosts {
		if cost < 0 {
			result.addError("analysis.field_costs."+name, "must not be negative", "")
		}
	}
}

func (c *CompilerConfig) validate(result *ValidationResult) {
	if !c.Dialect.Valid() {
		result.addError("compiler.dialect", "unknown dialect", "use postgresql, mysql, sqlite or sqlserver")
	}

	switch c.Mode {
	case ModeParameterized:
	case ModeInline:
		if c.Dialect != dialect.PostgreSQL {
			result.addError("compiler.mode", fmt.Sprintf("inline mode emits PostgreSQL syntax and cannot target %s", c.Dialect), "use parameterized mode for other dialects")
		}
	default:
		result.addError("compiler.mode", fmt.Sprintf("unknown mode %q", c.Mode), "use parameterized or inline")
	}

	if strings.TrimSpace(c.JSONColumn) == "" {
		result.addError("compiler.json_column", "must not be empty", "")
	} else if !sqlutil.IsPlainIdentifier(c.JSONColumn) {
		result.addWarning("compiler.json_column", fmt.Sprintf("%q will be quoted", c.JSONColumn), "plain identifiers are used as-is")
	}

	for _, name := range c.DeniedOperators {
		if !filter.Operator(name).IsBuiltin() {
			result.addWarning("compiler.denied_operators", fmt.Sprintf("%q is not a built-in operator", name), "extended operators are matched by exact name")
		}
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	if (o.MetricsEnabled || o.TracingEnabled) && strings.TrimSpace(o.ServiceName) == "" {
		result.addError("observability.service_name", "required when metrics or tracing is enabled", "")
	}

	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		result.addError("observability.trace_sample_ratio", fmt.Sprintf("%g is outside [0, 1]", o.TraceSampleRatio), "")
	}
	if o.TracingEnabled && o.TraceSampleRatio == 0 {
		result.addWarning("observability.trace_sample_ratio", "tracing is enabled but no trace is sampled", "")
	}
	switch strings.ToLower(strings.TrimSpace(o.OTLP.Protocol)) {
	case "", "grpc", "http", "http/protobuf":
	default:
		result.addError("observability.otlp.protocol", fmt.Sprintf("unsupported protocol %q", o.OTLP.Protocol), "use grpc or http/protobuf")
	}
	switch o.OTLP.Compression {
	case "", "none", "gzip":
	default:
		result.addError("observability.otlp.compression", fmt.Sprintf("unsupported compression %q", o.OTLP.Compression), "use gzip or none")
	}
	if o.OTLP.Endpoint != "" && !o.TracingEnabled {
		result.addWarning("observability.otlp.endpoint", "endpoint is set but tracing is disabled", "set observability.tracing_enabled")
	}
	if o.OTLP.Insecure && o.OTLP.TLSCAFile != "" {
		result.addWarning("observability.otlp.tls_ca_file", "ignored when insecure is set", "")
	}

	switch strings.ToLower(o.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		result.addError("observability.logging.level", fmt.Sprintf("unknown level %q", o.Logging.Level), "use debug, info, warn or error")
	}
	switch strings.ToLower(o.Logging.Format) {
	case "text", "json":
	default:
		result.addError("observability.logging.format", fmt.Sprintf("unknown format %q", o.Logging.Format), "use text or json")
	}
}
