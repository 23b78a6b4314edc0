package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gqlsql/internal/config"
	"gqlsql/internal/dialect"
	"gqlsql/internal/logging"
	"gqlsql/internal/observability"
	"gqlsql/internal/pipeline"
)

// app holds the state shared by every command: configuration, the pipeline
// and the telemetry providers that must be flushed on exit.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	logger   *logging.Logger
	pipeline *pipeline.Pipeline
	meters   *observability.MeterProvider
	tracers  *observability.TracerProvider

	dumpMetrics bool
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: logging.NewNopLogger(),
	}
}

// overrides are command-level shortcuts for configuration keys.
type overrides struct {
	dialect string
	inline  bool
}

func (a *app) init(cfg *config.Config, o overrides) error {
	if o.dialect != "" {
		d, err := dialect.Parse(o.dialect)
		if err != nil {
			return err
		}
		cfg.Compiler.Dialect = d
	}
	if o.inline {
		cfg.Compiler.Mode = config.ModeInline
	}
	if a.dumpMetrics {
		cfg.Observability.MetricsEnabled = true
	}

	a.cfg = cfg
	a.logger = logging.NewLogger(logging.Config{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: a.stderr,
	})

	result := cfg.Validate()
	for _, warn := range result.Warnings {
		a.logger.Warn("configuration warning",
			slog.String("field", warn.Field),
			slog.String("message", warn.Message),
			slog.String("hint", warn.Hint),
		)
	}
	if result.HasErrors() {
		for _, err := range result.Errors {
			a.logger.Error("configuration error",
				slog.String("field", err.Field),
				slog.String("message", err.Message),
				slog.String("hint", err.Hint),
			)
		}
		return fmt.Errorf("configuration validation failed")
	}

	opts := []pipeline.Option{pipeline.WithLogger(a.logger)}
	telemetry := telemetryConfig(cfg.Observability)

	if cfg.Observability.MetricsEnabled {
		meters, err := observability.InitMeterProvider(telemetry)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		a.meters = meters
		metrics, err := observability.InitMetrics(meters, a.logger.Logger)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithMetrics(metrics))
	}

	if cfg.Observability.TracingEnabled {
		tracers, err := observability.InitTracerProvider(telemetry)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		a.tracers = tracers
		opts = append(opts, pipeline.WithTracer(tracers.Tracer(pipeline.TracerName)))
	}

	p, err := pipeline.New(*cfg, opts...)
	if err != nil {
		return err
	}
	a.pipeline = p
	return nil
}

func telemetryConfig(o config.ObservabilityConfig) observability.Config {
	return observability.Config{
		ServiceName:      o.ServiceName,
		ServiceVersion:   Version,
		TraceSampleRatio: o.TraceSampleRatio,
		OTLPConfig: observability.OTLPExporterConfig{
			Endpoint:    o.OTLP.Endpoint,
			Protocol:    o.OTLP.Protocol,
			Insecure:    o.OTLP.Insecure,
			TLSCertFile: o.OTLP.TLSCAFile,
			Timeout:     o.OTLP.Timeout,
			Compression: o.OTLP.Compression,
		},
	}
}

// close dumps metrics when requested and flushes the providers.
func (a *app) close(ctx context.Context) {
	if a.meters != nil {
		if a.dumpMetrics {
			if err := a.meters.WriteText(a.stderr); err != nil {
				a.logger.Error("failed to write metrics", slog.String("error", err.Error()))
			}
		}
		_ = a.meters.Shutdown(context.WithoutCancel(ctx), a.logger.Logger)
	}
	if a.tracers != nil {
		_ = a.tracers.Shutdown(context.WithoutCancel(ctx), a.logger.Logger)
	}
}
