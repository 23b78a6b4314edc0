package observability

import (
	"log/slog"

	"gqlsql/internal/gqlrequest"

	"go.opentelemetry.io/otel/attribute"
)

// AnalysisSpanAttributes builds canonical span attributes from request analysis.
func AnalysisSpanAttributes(analysis *gqlrequest.Analysis) []attribute.KeyValue {
	if analysis == nil {
		return nil
	}
	attrs := make([]attribute.KeyValue, 0, 10)

	if analysis.RequestedOperationName != "" {
		attrs = append(attrs, attribute.String("graphql.operation.requested_name", analysis.RequestedOperationName))
	}
	if analysis.OperationName != "" {
		attrs = append(attrs, attribute.String("graphql.operation.name", analysis.OperationName))
	}
	if analysis.OperationType != "" {
		attrs = append(attrs, attribute.String("graphql.operation.type", analysis.OperationType))
	}
	if analysis.OperationHash != "" {
		attrs = append(attrs, attribute.String("graphql.operation.hash", analysis.OperationHash))
	}
	if analysis.Envelope.DocumentSizeBytes > 0 {
		attrs = append(attrs, attribute.Int("graphql.document.size_bytes", analysis.Envelope.DocumentSizeBytes))
	}
	if analysis.Operation != nil {
		attrs = append(attrs,
			attribute.Int("graphql.query.field_count", analysis.FieldCount),
			attribute.Int("graphql.query.depth", analysis.SelectionDepth),
			attribute.Int("graphql.query.complexity", analysis.Complexity),
			attribute.Int("graphql.query.variable_count", analysis.VariableCount),
			attribute.Int("graphql.document.fragment_count", analysis.FragmentCount),
		)
	}

	return attrs
}

// AnalysisLogFields builds canonical structured log fields from request analysis.
func AnalysisLogFields(analysis *gqlrequest.Analysis) []any {
	if analysis == nil {
		return nil
	}
	fields := make([]any, 0, 6)

	if analysis.OperationName != "" {
		fields = append(fields, slog.String("operation_name", analysis.OperationName))
	}
	if analysis.OperationType != "" {
		fields = append(fields, slog.String("operation_type", analysis.OperationType))
	}
	if analysis.OperationHash != "" {
		fields = append(fields, slog.String("operation_hash", analysis.OperationHash))
	}
	if analysis.Operation != nil {
		fields = append(fields,
			slog.Int("depth", analysis.SelectionDepth),
			slog.Int("complexity", analysis.Complexity),
			slog.Int("field_count", analysis.FieldCount),
		)
	}

	return fields
}
