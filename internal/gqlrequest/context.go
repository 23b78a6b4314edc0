package gqlrequest

import "context"

type analysisKey struct{}

// WithAnalysis attaches a validated request's analysis to ctx so later
// compile stages can correlate with it.
func WithAnalysis(ctx context.Context, analysis *Analysis) context.Context {
	return context.WithValue(ctx, analysisKey{}, analysis)
}

// AnalysisFromContext returns the analysis stored by WithAnalysis, or nil.
func AnalysisFromContext(ctx context.Context) *Analysis {
	analysis, _ := ctx.Value(analysisKey{}).(*Analysis)
	return analysis
}

// OperationHashFromContext returns the operation hash of the stored
// analysis, or "" when there is none.
func OperationHashFromContext(ctx context.Context) string {
	if analysis := AnalysisFromContext(ctx); analysis != nil {
		return analysis.OperationHash
	}
	return ""
}
