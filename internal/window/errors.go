package window

import (
	"fmt"

	"gqlsql/internal/dialect"
)

// UnsupportedFeatureError is returned when the plan asks for something the
// target dialect cannot express. No SQL is produced.
type UnsupportedFeatureError struct {
	Feature string
	Dialect dialect.Dialect
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Feature, e.Dialect)
}

// InvalidPlanError reports a plan that is malformed regardless of dialect.
type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return "invalid window plan: " + e.Reason
}

func invalidPlan(format string, args ...any) error {
	return &InvalidPlanError{Reason: fmt.Sprintf(format, args...)}
}
