package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gqlsql/internal/gqlrequest"
)

// EnvPrefix prefixes every environment variable, e.g.
// GQLSQL_ANALYSIS_MAX_DEPTH.
const EnvPrefix = "GQLSQL"

// Load loads configuration from multiple sources with the following precedence:
// 1. Command line flags (only those explicitly set on fs)
// 2. Environment variables
// 3. Config file (--config, or gqlsql.yaml on the search path)
// 4. Preset values (analysis.preset)
// 5. Default values
//
// fs may be nil when no flags are in play.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Defaults (lowest priority)
	setDefaults(v)

	// --- Config file ---
	cfgPath := ""
	if fs != nil {
		if flag := fs.Lookup("config"); flag != nil {
			cfgPath = flag.Value.String()
		}
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("gqlsql")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/gqlsql/")
		v.AddConfigPath("$HOME/.gqlsql")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// --- Environment variables ---
	// Canonical keys: dot + snake_case
	// Env vars: GQLSQL_ANALYSIS_MAX_DEPTH
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Flags binding (highest priority) ---
	if fs != nil {
		bindChangedFlagsToViper(v, fs)
	}

	// --- Preset (sits just above the defaults) ---
	if preset := strings.TrimSpace(v.GetString("analysis.preset")); preset != "" {
		if p, ok := gqlrequest.PresetConfig(preset); ok {
			v.SetDefault("analysis.max_depth", p.MaxDepth)
			v.SetDefault("analysis.max_complexity", p.MaxComplexity)
			v.SetDefault("analysis.max_size_bytes", p.MaxSizeBytes)
		}
	}

	// --- Unmarshal (strict) ---
	var cfg Config
	if err := v.UnmarshalExact(
		&cfg,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				stringToStringSliceHookFunc(","),
				stringToIntMapHookFunc(",", "="),
			),
		),
	); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefineFlags registers every configuration key on fs using the canonical
// snake_case key as the flag name. Flag defaults are zero values; only flags
// the user sets take part in loading.
func DefineFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to config file (yaml, json or toml)")

	fs.String("analysis.preset", "", "Analysis preset (permissive, standard, strict)")
	fs.Int("analysis.max_depth", 0, "Maximum GraphQL selection depth")
	fs.Int("analysis.max_complexity", 0, "Maximum GraphQL complexity score")
	fs.Bool("analysis.enable_depth_check", true, "Reject queries deeper than analysis.max_depth")
	fs.Bool("analysis.enable_complexity_check", true, "Reject queries above analysis.max_complexity")
	fs.Int("analysis.max_size_bytes", 0, "Maximum query document size in bytes (0 = unlimited)")
	fs.Int("analysis.max_multiplier", 0, "Ceiling for pagination multipliers")
	fs.Int("analysis.variable_penalty", 0, "Complexity added per variable definition")
	fs.Int("analysis.fragment_penalty", 0, "Complexity added per fragment definition")
	fs.Int("analysis.unknown_fragment_cost", 0, "Complexity of a spread whose fragment is not defined")
	fs.Int("analysis.fragment_recursion_limit", 0, "Maximum nested fragment spreads")
	fs.StringToInt("analysis.field_costs", nil, "Per-field base costs (name=cost,...)")

	fs.String("compiler.dialect", "", "SQL dialect (postgresql, mysql, sqlite, sqlserver)")
	fs.String("compiler.mode", "", "Filter output mode (parameterized, inline)")
	fs.String("compiler.json_column", "", "JSON document column")
	fs.StringSlice("compiler.denied_operators", nil, "Filter operators to refuse")

	fs.String("observability.service_name", "", "Service name for metrics and traces")
	fs.Bool("observability.metrics_enabled", false, "Record OpenTelemetry metrics")
	fs.Bool("observability.tracing_enabled", false, "Record OpenTelemetry spans")
	fs.Float64("observability.trace_sample_ratio", 0, "Fraction of traces sampled (0-1)")
	fs.String("observability.otlp.endpoint", "", "OTLP trace collector endpoint")
	fs.String("observability.otlp.protocol", "", "OTLP protocol (grpc, http/protobuf)")
	fs.Bool("observability.otlp.insecure", false, "Disable TLS for the OTLP exporter")
	fs.String("observability.otlp.tls_ca_file", "", "CA bundle for the OTLP collector")
	fs.Duration("observability.otlp.timeout", 0, "OTLP export timeout")
	fs.String("observability.otlp.compression", "", "OTLP compression (gzip or none)")
	fs.String("observability.logging.level", "", "Log level (debug, info, warn, error)")
	fs.String("observability.logging.format", "", "Log format (text, json)")
}

// bindChangedFlagsToViper copies only explicitly-set flags into Viper,
// preserving precedence: flags > env > file > defaults. Configuration keys
// are dotted; undotted flags belong to commands and are skipped.
func bindChangedFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		if !strings.Contains(f.Name, ".") {
			return
		}

		switch f.Value.Type() {
		case "string":
			val, _ := fs.GetString(f.Name)
			v.Set(f.Name, val)
		case "int":
			val, _ := fs.GetInt(f.Name)
			v.Set(f.Name, val)
		case "bool":
			val, _ := fs.GetBool(f.Name)
			v.Set(f.Name, val)
		case "float64":
			val, _ := fs.GetFloat64(f.Name)
			v.Set(f.Name, val)
		case "duration":
			val, _ := fs.GetDuration(f.Name)
			v.Set(f.Name, val)
		case "stringSlice":
			val, _ := fs.GetStringSlice(f.Name)
			v.Set(f.Name, val)
		case "stringToInt":
			val, _ := fs.GetStringToInt(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("analysis.preset", d.Analysis.Preset)
	v.SetDefault("analysis.max_depth", d.Analysis.MaxDepth)
	v.SetDefault("analysis.max_complexity", d.Analysis.MaxComplexity)
	v.SetDefault("analysis.enable_depth_check", d.Analysis.EnableDepthCheck)
	v.SetDefault("analysis.enable_complexity_check", d.Analysis.EnableComplexityCheck)
	v.SetDefault("analysis.max_size_bytes", d.Analysis.MaxSizeBytes)
	v.SetDefault("analysis.max_multiplier", d.Analysis.MaxMultiplier)
	v.SetDefault("analysis.variable_penalty", d.Analysis.VariablePenalty)
	v.SetDefault("analysis.fragment_penalty", d.Analysis.FragmentPenalty)
	v.SetDefault("analysis.unknown_fragment_cost", d.Analysis.UnknownFragmentCost)
	v.SetDefault("analysis.fragment_recursion_limit", d.Analysis.FragmentRecursionLimit)
	v.SetDefault("analysis.field_costs", d.Analysis.FieldCosts)

	v.SetDefault("compiler.dialect", d.Compiler.Dialect.String())
	v.SetDefault("compiler.mode", d.Compiler.Mode)
	v.SetDefault("compiler.json_column", d.Compiler.JSONColumn)
	v.SetDefault("compiler.denied_operators", d.Compiler.DeniedOperators)

	v.SetDefault("observability.service_name", d.Observability.ServiceName)
	v.SetDefault("observability.metrics_enabled", d.Observability.MetricsEnabled)
	v.SetDefault("observability.tracing_enabled", d.Observability.TracingEnabled)
	v.SetDefault("observability.trace_sample_ratio", d.Observability.TraceSampleRatio)
	v.SetDefault("observability.otlp.endpoint", d.Observability.OTLP.Endpoint)
	v.SetDefault("observability.otlp.protocol", d.Observability.OTLP.Protocol)
	v.SetDefault("observability.otlp.insecure", d.Observability.OTLP.Insecure)
	v.SetDefault("observability.otlp.tls_ca_file", d.Observability.OTLP.TLSCAFile)
	v.SetDefault("observability.otlp.timeout", d.Observability.OTLP.Timeout)
	v.SetDefault("observability.otlp.compression", d.Observability.OTLP.Compression)
	v.SetDefault("observability.logging.level", d.Observability.Logging.Level)
	v.SetDefault("observability.logging.format", d.Observability.Logging.Format)
}

func stringToStringSliceHookFunc(sep string) mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}

		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []string{}, nil
		}

		parts := strings.Split(raw, sep)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}

// stringToIntMapHookFunc decodes "a=1,b=2" into map[string]int.
func stringToIntMapHookFunc(sep, kv string) mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(map[string]int{}) {
			return data, nil
		}

		out := map[string]int{}
		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return out, nil
		}
		for _, pair := range strings.Split(raw, sep) {
			key, value, ok := strings.Cut(pair, kv)
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return nil, fmt.Errorf("invalid entry %q (expected name%svalue)", pair, kv)
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid cost for %q: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	}
}
