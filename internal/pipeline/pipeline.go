// Package pipeline wires the request analyzer and the SQL compilers to the
// configuration, logging, metrics and tracing layers.
//
// A Pipeline is built once from a validated configuration and is safe for
// concurrent use. The compilation cores stay pure; everything observable
// (logs, counters, spans) happens here.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gqlsql/internal/config"
	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
	"gqlsql/internal/gqlrequest"
	"gqlsql/internal/logging"
	"gqlsql/internal/observability"
	"gqlsql/internal/wheresql"
	"gqlsql/internal/window"
)

// TracerName is the instrumentation scope of pipeline spans.
const TracerName = "gqlsql/pipeline"

// Pipeline validates GraphQL requests and compiles filters and window plans
// for one dialect.
type Pipeline struct {
	validator *gqlrequest.Validator
	generator wheresql.Generator
	windows   *window.Compiler
	dialect   dialect.Dialect
	mode      string

	denied   map[filter.Operator]bool
	extended []filter.Operator

	logger  *logging.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// Option configures a Pipeline.
type Option func(*pipelineOptions)

type pipelineOptions struct {
	logger     *logging.Logger
	metrics    *observability.Metrics
	tracer     trace.Tracer
	extensions map[filter.Operator]wheresql.ExtensionFunc
}

// WithLogger sets the logger used when a context carries none.
func WithLogger(logger *logging.Logger) Option {
	return func(o *pipelineOptions) {
		o.logger = logger
	}
}

// WithMetrics records validation and compilation metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(o *pipelineOptions) {
		o.metrics = metrics
	}
}

// WithTracer sets the tracer for pipeline spans. The global tracer provider
// is used otherwise.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *pipelineOptions) {
		o.tracer = tracer
	}
}

// WithExtension registers an extended filter operator with the placeholder
// generators. Inline mode rejects extensions.
func WithExtension(op filter.Operator, fn wheresql.ExtensionFunc) Option {
	return func(o *pipelineOptions) {
		if o.extensions == nil {
			o.extensions = map[filter.Operator]wheresql.ExtensionFunc{}
		}
		o.extensions[op] = fn
	}
}

// New builds a Pipeline from cfg. The configuration must validate.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if result := cfg.Validate(); result.HasErrors() {
		return nil, fmt.Errorf("invalid configuration: %s", result.Error())
	}

	o := pipelineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}

	filterOpts := []wheresql.Option{wheresql.WithColumn(cfg.Compiler.JSONColumn)}
	extended := make([]filter.Operator, 0, len(o.extensions))
	for op, fn := range o.extensions {
		filterOpts = append(filterOpts, wheresql.WithExtension(op, fn))
		extended = append(extended, op)
	}

	var (
		generator wheresql.Generator
		err       error
	)
	if cfg.Compiler.Mode == config.ModeInline {
		generator, err = wheresql.NewInline(filterOpts...)
	} else {
		generator, err = wheresql.New(cfg.Compiler.Dialect, filterOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create filter generator: %w", err)
	}

	windows, err := window.NewCompiler(cfg.Compiler.Dialect, window.WithFilterOptions(filterOpts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create window compiler: %w", err)
	}

	denied := make(map[filter.Operator]bool, len(cfg.Compiler.DeniedOperators))
	for _, name := range cfg.Compiler.DeniedOperators {
		denied[filter.Operator(name)] = true
	}

	return &Pipeline{
		validator: gqlrequest.NewValidator(cfg.Analysis.ValidatorConfig()),
		generator: generator,
		windows:   windows,
		dialect:   cfg.Compiler.Dialect,
		mode:      cfg.Compiler.Mode,
		denied:    denied,
		extended:  extended,
		logger:    o.logger,
		metrics:   o.metrics,
		tracer:    o.tracer,
	}, nil
}

// Dialect returns the target dialect.
func (p *Pipeline) Dialect() dialect.Dialect {
	return p.dialect
}

// RequestContext returns ctx with a request id and a request-scoped logger.
// A context that already carries a request id is returned unchanged.
func (p *Pipeline) RequestContext(ctx context.Context) context.Context {
	if logging.GetRequestID(ctx) != "" {
		return ctx
	}
	requestID := uuid.NewString()
	ctx = logging.WithRequestIDContext(ctx, requestID)
	return logging.WithLogger(ctx, p.logger.WithRequestID(requestID))
}

// ValidateRequest analyzes env against the configured budgets. The analysis
// is returned even when the request is rejected.
func (p *Pipeline) ValidateRequest(ctx context.Context, env gqlrequest.Envelope) (*gqlrequest.Analysis, error) {
	ctx = p.RequestContext(ctx)
	ctx, span := p.tracer.Start(ctx, "gqlsql.validate")
	defer span.End()

	analysis, err := p.validator.Validate(env)
	if span.IsRecording() {
		span.SetAttributes(observability.AnalysisSpanAttributes(analysis)...)
	}

	logger := logging.FromContext(ctx).WithFields(observability.AnalysisLogFields(analysis)...)
	code := ErrorCode(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		logger.WarnContext(ctx, "graphql request rejected",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	} else {
		logger.DebugContext(ctx, "graphql request accepted")
	}

	p.metrics.RecordValidation(ctx, analysis.OperationType, code)
	if analysis.Operation != nil {
		p.metrics.RecordQueryShape(ctx, len(env.Query), analysis.SelectionDepth, analysis.Complexity, analysis.OperationType)
	}
	return analysis, err
}

// CompileFilter compiles expr into a WHERE fragment. The fragment is
// Inline in inline mode and Parameterized otherwise.
func (p *Pipeline) CompileFilter(ctx context.Context, expr filter.Expression) (wheresql.Fragment, error) {
	ctx, span := p.startCompile(ctx, "gqlsql.compile_filter")
	defer span.End()

	start := time.Now()
	fragment, err := p.generate(expr)
	p.finishCompile(ctx, span, observability.KindFilter, start, err)
	return fragment, err
}

// CompileWhereInput decodes a GraphQL-style where argument and compiles it.
// Operators registered with WithExtension are recognized in the input.
func (p *Pipeline) CompileWhereInput(ctx context.Context, where map[string]any) (wheresql.Fragment, error) {
	ctx, span := p.startCompile(ctx, "gqlsql.compile_where_input")
	defer span.End()

	start := time.Now()
	var fragment wheresql.Fragment
	expr, err := filter.FromWhereInput(where, p.extended...)
	if err != nil {
		err = &InvalidWhereError{Err: err}
	} else {
		fragment, err = p.generate(expr)
	}
	p.finishCompile(ctx, span, observability.KindWhere, start, err)
	return fragment, err
}

// CompileWindow compiles a window plan into a SELECT statement.
func (p *Pipeline) CompileWindow(ctx context.Context, plan window.Plan) (window.SQL, error) {
	ctx, span := p.startCompile(ctx, "gqlsql.compile_window")
	defer span.End()
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("db.sql.table", plan.Table),
			attribute.Int("gqlsql.window.functions", len(plan.Windows)),
		)
	}

	start := time.Now()
	var (
		out window.SQL
		err error
	)
	if plan.Where != nil {
		err = p.checkDenied(plan.Where)
	}
	if err == nil {
		out, err = p.windows.Compile(plan)
	}
	p.finishCompile(ctx, span, observability.KindWindow, start, err)
	return out, err
}

func (p *Pipeline) generate(expr filter.Expression) (wheresql.Fragment, error) {
	if err := p.checkDenied(expr); err != nil {
		return nil, err
	}
	return p.generator.Generate(expr)
}

// checkDenied walks expr and returns the first denied operator found.
func (p *Pipeline) checkDenied(expr filter.Expression) error {
	if len(p.denied) == 0 {
		return nil
	}
	switch e := expr.(type) {
	case filter.Field:
		if p.denied[e.Operator] {
			return &DeniedOperatorError{Operator: e.Operator, Path: e.Path}
		}
	case filter.And:
		for _, child := range e.Exprs {
			if err := p.checkDenied(child); err != nil {
				return err
			}
		}
	case filter.Or:
		for _, child := range e.Exprs {
			if err := p.checkDenied(child); err != nil {
				return err
			}
		}
	case filter.Not:
		return p.checkDenied(e.Expr)
	}
	return nil
}

func (p *Pipeline) startCompile(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx = p.RequestContext(ctx)
	ctx, span := p.tracer.Start(ctx, name)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("db.system", p.dialect.String()),
			attribute.String("gqlsql.compiler.mode", p.mode),
		)
		if hash := gqlrequest.OperationHashFromContext(ctx); hash != "" {
			span.SetAttributes(attribute.String("graphql.operation.hash", hash))
		}
	}
	return ctx, span
}

func (p *Pipeline) finishCompile(ctx context.Context, span trace.Span, kind string, start time.Time, err error) {
	duration := time.Since(start)
	p.metrics.RecordCompile(ctx, kind, p.dialect.String(), duration, err)

	logger := logging.FromContext(ctx)
	if hash := gqlrequest.OperationHashFromContext(ctx); hash != "" {
		logger = logger.WithFields("operation_hash", hash)
	}
	if err != nil {
		code := ErrorCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		logger.WarnContext(ctx, "sql compilation failed",
			slog.String("kind", kind),
			slog.String("dialect", p.dialect.String()),
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.DebugContext(ctx, "sql compiled",
		slog.String("kind", kind),
		slog.String("dialect", p.dialect.String()),
		slog.Duration("duration", duration),
	)
}
