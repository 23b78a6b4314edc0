// Package config loads configuration from files, env vars, and flags, and validates it.
package config

import (
	"time"

	"gqlsql/internal/dialect"
	"gqlsql/internal/gqlrequest"
)

// Config holds the application configuration.
type Config struct {
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Compiler      CompilerConfig      `mapstructure:"compiler"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AnalysisConfig holds the GraphQL request budgets.
type AnalysisConfig struct {
	// Preset seeds max_depth, max_complexity and max_size_bytes from a named
	// profile (permissive, standard, strict). Explicit values still win.
	Preset                 string         `mapstructure:"preset"`
	MaxDepth               int            `mapstructure:"max_depth"`
	MaxComplexity          int            `mapstructure:"max_complexity"`
	EnableDepthCheck       bool           `mapstructure:"enable_depth_check"`
	EnableComplexityCheck  bool           `mapstructure:"enable_complexity_check"`
	MaxSizeBytes           int            `mapstructure:"max_size_bytes"`
	MaxMultiplier          int            `mapstructure:"max_multiplier"`
	VariablePenalty        int            `mapstructure:"variable_penalty"`
	FragmentPenalty        int            `mapstructure:"fragment_penalty"`
	UnknownFragmentCost    int            `mapstructure:"unknown_fragment_cost"`
	FragmentRecursionLimit int            `mapstructure:"fragment_recursion_limit"`
	FieldCosts             map[string]int `mapstructure:"field_costs"`
}

// ValidatorConfig converts the analysis settings for gqlrequest.NewValidator.
func (a AnalysisConfig) ValidatorConfig() gqlrequest.ValidatorConfig {
	costs := make(map[string]int, len(a.FieldCosts))
	for name, cost := range a.FieldCosts {
		costs[name] = cost
	}
	return gqlrequest.ValidatorConfig{
		MaxDepth:               a.MaxDepth,
		MaxComplexity:          a.MaxComplexity,
		EnableDepthCheck:       a.EnableDepthCheck,
		EnableComplexityCheck:  a.EnableComplexityCheck,
		FieldCostOverrides:     costs,
		MaxSizeBytes:           a.MaxSizeBytes,
		MaxMultiplier:          a.MaxMultiplier,
		VariablePenalty:        a.VariablePenalty,
		FragmentPenalty:        a.FragmentPenalty,
		UnknownFragmentCost:    a.UnknownFragmentCost,
		FragmentRecursionLimit: a.FragmentRecursionLimit,
	}
}

// Compiler modes.
const (
	ModeParameterized = "parameterized"
	ModeInline        = "inline"
)

// CompilerConfig selects the SQL target.
type CompilerConfig struct {
	Dialect    dialect.Dialect `mapstructure:"dialect"`
	Mode       string          `mapstructure:"mode"`
	JSONColumn string          `mapstructure:"json_column"`
	// DeniedOperators lists filter operators the pipeline refuses to compile.
	DeniedOperators []string `mapstructure:"denied_operators"`
}

// ObservabilityConfig holds logging, metrics and tracing settings.
type ObservabilityConfig struct {
	ServiceName      string        `mapstructure:"service_name"`
	MetricsEnabled   bool          `mapstructure:"metrics_enabled"`
	TracingEnabled   bool          `mapstructure:"tracing_enabled"`
	TraceSampleRatio float64       `mapstructure:"trace_sample_ratio"`
	OTLP             OTLPConfig    `mapstructure:"otlp"`
	Logging          LoggingConfig `mapstructure:"logging"`
}

// OTLPConfig holds the trace exporter settings. Spans stay in process when
// Endpoint is empty.
type OTLPConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Protocol    string        `mapstructure:"protocol"`
	Insecure    bool          `mapstructure:"insecure"`
	TLSCAFile   string        `mapstructure:"tls_ca_file"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Compression string        `mapstructure:"compression"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when no source sets a key.
func Default() Config {
	defaults := gqlrequest.DefaultValidatorConfig()
	return Config{
		Analysis: AnalysisConfig{
			MaxDepth:               defaults.MaxDepth,
			MaxComplexity:          defaults.MaxComplexity,
			EnableDepthCheck:       defaults.EnableDepthCheck,
			EnableComplexityCheck:  defaults.EnableComplexityCheck,
			MaxSizeBytes:           defaults.MaxSizeBytes,
			MaxMultiplier:          defaults.MaxMultiplier,
			VariablePenalty:        defaults.VariablePenalty,
			FragmentPenalty:        defaults.FragmentPenalty,
			UnknownFragmentCost:    defaults.UnknownFragmentCost,
			FragmentRecursionLimit: defaults.FragmentRecursionLimit,
			FieldCosts:             map[string]int{},
		},
		Compiler: CompilerConfig{
			Dialect:         dialect.PostgreSQL,
			Mode:            ModeParameterized,
			JSONColumn:      "data",
			DeniedOperators: []string{},
		},
		Observability: ObservabilityConfig{
			ServiceName:      "gqlsql",
			TraceSampleRatio: 1,
			OTLP: OTLPConfig{
				Protocol: "grpc",
				Timeout:  10 * time.Second,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}
