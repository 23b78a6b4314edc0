package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"gqlsql/internal/filter"
	"gqlsql/internal/gqlrequest"
	"gqlsql/internal/wheresql"
	"gqlsql/internal/window"
)

// Error codes for compilation failures. Analysis rejections use the codes
// defined by gqlrequest.
const (
	CodeDeniedOperator      = "denied_operator"
	CodeUnsupportedOperator = "unsupported_operator"
	CodeInvalidValue        = "invalid_value"
	CodeInvalidPath         = "invalid_path"
	CodeUnsupportedFeature  = "unsupported_feature"
	CodeInvalidPlan         = "invalid_plan"
	CodeInvalidWhere        = "invalid_where"
	CodeInternal            = "internal"
)

// DeniedOperatorError reports a filter operator the configuration refuses
// to compile.
type DeniedOperatorError struct {
	Operator filter.Operator
	Path     []string
}

func (e *DeniedOperatorError) Error() string {
	return fmt.Sprintf("operator %q is denied by configuration (field %s)", e.Operator, strings.Join(e.Path, "."))
}

// Code returns the metrics label for the error.
func (e *DeniedOperatorError) Code() string { return CodeDeniedOperator }

// InvalidWhereError wraps a where input that could not be decoded.
type InvalidWhereError struct {
	Err error
}

func (e *InvalidWhereError) Error() string { return "invalid where input: " + e.Err.Error() }

func (e *InvalidWhereError) Unwrap() error { return e.Err }

// Code returns the metrics label for the error.
func (e *InvalidWhereError) Code() string { return CodeInvalidWhere }

// ErrorCode returns the label recorded for err. Unknown errors are
// "internal"; nil is "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var (
		coded       gqlrequest.Coded
		unsupported *wheresql.UnsupportedOperatorError
		invalid     *wheresql.InvalidValueError
		path        *filter.PathError
		feature     *window.UnsupportedFeatureError
		plan        *window.InvalidPlanError
	)
	switch {
	case errors.As(err, &coded):
		return coded.Code()
	case errors.As(err, &unsupported):
		return CodeUnsupportedOperator
	case errors.As(err, &invalid):
		return CodeInvalidValue
	case errors.As(err, &path):
		return CodeInvalidPath
	case errors.As(err, &feature):
		return CodeUnsupportedFeature
	case errors.As(err, &plan):
		return CodeInvalidPlan
	}
	return CodeInternal
}
