package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for every gqlsql instrument.
const MeterName = "gqlsql"

// Compilation kinds recorded on the compile counters.
const (
	KindFilter = "filter"
	KindWhere  = "where_input"
	KindWindow = "window"
)

// Metrics holds the request analysis and SQL compilation instruments.
// A nil *Metrics records nothing.
type Metrics struct {
	validationCounter metric.Int64Counter
	queryDepth        metric.Int64Histogram
	queryComplexity   metric.Int64Histogram
	documentSize      metric.Int64Histogram
	compileCounter    metric.Int64Counter
	compileDuration   metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	validationCounter, err := meter.Int64Counter(
		"gqlsql.validation.total",
		metric.WithDescription("Total number of GraphQL documents validated"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation counter: %w", err)
	}

	queryDepth, err := meter.Int64Histogram(
		"gqlsql.query.depth",
		metric.WithDescription("Selection depth of analyzed GraphQL operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query depth histogram: %w", err)
	}

	queryComplexity, err := meter.Int64Histogram(
		"gqlsql.query.complexity",
		metric.WithDescription("Complexity score of analyzed GraphQL operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query complexity histogram: %w", err)
	}

	documentSize, err := meter.Int64Histogram(
		"gqlsql.document.size",
		metric.WithDescription("Size of GraphQL documents in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create document size histogram: %w", err)
	}

	compileCounter, err := meter.Int64Counter(
		"gqlsql.compile.total",
		metric.WithDescription("Total number of SQL compilations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compile counter: %w", err)
	}

	compileDuration, err := meter.Float64Histogram(
		"gqlsql.compile.duration",
		metric.WithDescription("Duration of SQL compilations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compile duration histogram: %w", err)
	}

	return &Metrics{
		validationCounter: validationCounter,
		queryDepth:        queryDepth,
		queryComplexity:   queryComplexity,
		documentSize:      documentSize,
		compileCounter:    compileCounter,
		compileDuration:   compileDuration,
	}, nil
}

// RecordValidation records one validation verdict. code is empty for
// accepted documents.
func (m *Metrics) RecordValidation(ctx context.Context, operationType, code string) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if code != "" {
		outcome = "rejected"
	}
	m.validationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("code", code),
		attribute.String("operation_type", operationType),
	))
}

// RecordQueryShape records the size, depth and complexity of a document.
func (m *Metrics) RecordQueryShape(ctx context.Context, sizeBytes, depth, complexity int, operationType string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation_type", operationType))
	m.documentSize.Record(ctx, int64(sizeBytes), attrs)
	m.queryDepth.Record(ctx, int64(depth), attrs)
	m.queryComplexity.Record(ctx, int64(complexity), attrs)
}

// RecordCompile records one compilation of kind for sqlDialect.
func (m *Metrics) RecordCompile(ctx context.Context, kind, sqlDialect string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("dialect", sqlDialect),
		attribute.String("outcome", outcome),
	}
	m.compileCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.compileDuration.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs[:2]...))
}

// InitMetrics creates the instruments on the provider's meter.
func InitMetrics(mp *MeterProvider, logger *slog.Logger) (*Metrics, error) {
	metrics, err := NewMetrics(mp.Meter(MeterName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Debug("metrics initialized")
	return metrics, nil
}
