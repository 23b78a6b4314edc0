package gqlrequest

import "strings"

// ValidatorConfig holds the limits and weights used by a Validator.
type ValidatorConfig struct {
	MaxDepth              int
	MaxComplexity         int
	EnableDepthCheck      bool
	EnableComplexityCheck bool

	// FieldCostOverrides replaces the base cost of 1 for fields with the
	// given name.
	FieldCostOverrides map[string]int

	// MaxSizeBytes rejects larger query documents. Zero disables the check.
	MaxSizeBytes int

	MaxMultiplier          int
	VariablePenalty        int
	FragmentPenalty        int
	UnknownFragmentCost    int
	FragmentRecursionLimit int
}

// Defaults applied by DefaultValidatorConfig.
const (
	DefaultMaxDepth               = 10
	DefaultMaxComplexity          = 100
	DefaultMaxMultiplier          = 100
	DefaultVariablePenalty        = 10
	DefaultFragmentPenalty        = 5
	DefaultUnknownFragmentCost    = 10
	DefaultFragmentRecursionLimit = 32
)

// DefaultValidatorConfig returns the default limits with both checks
// enabled.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MaxDepth:               DefaultMaxDepth,
		MaxComplexity:          DefaultMaxComplexity,
		EnableDepthCheck:       true,
		EnableComplexityCheck:  true,
		MaxMultiplier:          DefaultMaxMultiplier,
		VariablePenalty:        DefaultVariablePenalty,
		FragmentPenalty:        DefaultFragmentPenalty,
		UnknownFragmentCost:    DefaultUnknownFragmentCost,
		FragmentRecursionLimit: DefaultFragmentRecursionLimit,
	}
}

// PermissiveConfig allows depth 20, complexity 5000 and 1 MB documents.
func PermissiveConfig() ValidatorConfig {
	cfg := DefaultValidatorConfig()
	cfg.MaxDepth = 20
	cfg.MaxComplexity = 5000
	cfg.MaxSizeBytes = 1_000_000
	return cfg
}

// StandardConfig allows depth 10, complexity 1000 and 256 KB documents.
func StandardConfig() ValidatorConfig {
	cfg := DefaultValidatorConfig()
	cfg.MaxDepth = 10
	cfg.MaxComplexity = 1000
	cfg.MaxSizeBytes = 256_000
	return cfg
}

// StrictConfig allows depth 5, complexity 500 and 64 KB documents.
func StrictConfig() ValidatorConfig {
	cfg := DefaultValidatorConfig()
	cfg.MaxDepth = 5
	cfg.MaxComplexity = 500
	cfg.MaxSizeBytes = 64_000
	return cfg
}

// PresetConfig returns the named preset: permissive, standard or strict.
func PresetConfig(name string) (ValidatorConfig, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "permissive":
		return PermissiveConfig(), true
	case "standard":
		return StandardConfig(), true
	case "strict":
		return StrictConfig(), true
	default:
		return ValidatorConfig{}, false
	}
}

// Validator checks GraphQL requests against depth, complexity and size
// budgets. It is immutable and safe for concurrent use.
type Validator struct {
	cfg ValidatorConfig
}

// NewValidator returns a validator for cfg. A multiplier ceiling or
// recursion limit below 1 is replaced by its default.
func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.MaxMultiplier < 1 {
		cfg.MaxMultiplier = DefaultMaxMultiplier
	}
	if cfg.FragmentRecursionLimit < 1 {
		cfg.FragmentRecursionLimit = DefaultFragmentRecursionLimit
	}
	overrides := make(map[string]int, len(cfg.FieldCostOverrides))
	for name, cost := range cfg.FieldCostOverrides {
		overrides[name] = cost
	}
	cfg.FieldCostOverrides = overrides
	return &Validator{cfg: cfg}
}

// Config returns a copy of the validator configuration.
func (v *Validator) Config() ValidatorConfig {
	cfg := v.cfg
	cfg.FieldCostOverrides = make(map[string]int, len(v.cfg.FieldCostOverrides))
	for name, cost := range v.cfg.FieldCostOverrides {
		cfg.FieldCostOverrides[name] = cost
	}
	return cfg
}

// Validate analyzes env and returns the analysis together with the first
// budget it violates, if any. Checks run in order: size, empty document,
// variables, syntax, fragment expansion, depth, complexity.
func (v *Validator) Validate(env Envelope) (*Analysis, error) {
	size := len(env.Query)
	if v.cfg.MaxSizeBytes > 0 && size > v.cfg.MaxSizeBytes {
		return newAnalysis(env), &QueryTooLargeError{MaxBytes: v.cfg.MaxSizeBytes, ActualBytes: size}
	}
	if strings.TrimSpace(env.Query) == "" {
		return newAnalysis(env), &MalformedQueryError{Reason: "query is empty"}
	}

	analysis := v.Analyze(env)
	switch {
	case analysis.VariablesError != nil:
		return analysis, &InvalidVariablesError{Reason: analysis.VariablesError.Error()}
	case analysis.ParseError != nil:
		return analysis, &MalformedQueryError{Reason: analysis.ParseError.Error()}
	case analysis.SelectionError != nil:
		return analysis, &MalformedQueryError{Reason: analysis.SelectionError.Error()}
	case analysis.CostError != nil:
		return analysis, analysis.CostError
	}

	if v.cfg.EnableDepthCheck && analysis.SelectionDepth > v.cfg.MaxDepth {
		return analysis, &QueryTooDeepError{MaxDepth: v.cfg.MaxDepth, ActualDepth: analysis.SelectionDepth}
	}
	if v.cfg.EnableComplexityCheck && analysis.Complexity > v.cfg.MaxComplexity {
		return analysis, &QueryTooComplexError{MaxComplexity: v.cfg.MaxComplexity, ActualComplexity: analysis.Complexity}
	}
	return analysis, nil
}

// ValidateQuery validates a bare query document with no variables.
func (v *Validator) ValidateQuery(query string) (*Analysis, error) {
	return v.Validate(Envelope{Query: query, DocumentSizeBytes: len(query)})
}
