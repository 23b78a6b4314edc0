package wheresql

import (
	"fmt"
	"strings"

	"gqlsql/internal/filter"
)

// UnsupportedOperatorError is returned when a generator cannot compile an
// operator. The filter is rejected rather than dropped.
type UnsupportedOperatorError struct {
	Operator  filter.Operator
	Generator string
	Reason    string
}

func (e *UnsupportedOperatorError) Error() string {
	msg := fmt.Sprintf("operator %q is not supported by the %s generator", e.Operator, e.Generator)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// InvalidValueError is returned when a Field value does not have the shape
// its operator requires.
type InvalidValueError struct {
	Operator filter.Operator
	Path     []string
	Expected string
	Got      string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("operator %q on %q requires %s, got %s",
		e.Operator, strings.Join(e.Path, "."), e.Expected, e.Got)
}

func invalidValue(f filter.Field, expected string) error {
	return &InvalidValueError{
		Operator: f.Operator,
		Path:     f.Path,
		Expected: expected,
		Got:      filter.TypeName(f.Value),
	}
}

func unsupported(generator string, op filter.Operator, reason string) error {
	return &UnsupportedOperatorError{Operator: op, Generator: generator, Reason: reason}
}
