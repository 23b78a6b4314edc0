// Package filter defines the portable filter expression tree that the
// wheresql generators compile into dialect-specific WHERE predicates.
//
// Expressions are plain values built per request. Nothing in this package
// mutates an expression after construction.
package filter

import (
	"fmt"
	"strings"
)

// Expression is a node of a filter tree. The set of implementations is
// closed: Field, And, Or and Not.
type Expression interface {
	expression()
}

// Field compares the JSON value found at Path against Value using Operator.
type Field struct {
	Path     []string
	Operator Operator
	Value    any
}

// And matches when every child matches. An empty And matches everything.
type And struct {
	Exprs []Expression
}

// Or matches when any child matches. An empty Or matches nothing.
type Or struct {
	Exprs []Expression
}

// Not negates its child.
type Not struct {
	Expr Expression
}

func (Field) expression() {}
func (And) expression()   {}
func (Or) expression()    {}
func (Not) expression()   {}

// NewField builds a Field node.
func NewField(path []string, op Operator, value any) Field {
	return Field{Path: path, Operator: op, Value: value}
}

// Eq matches the value at path equal to v.
func Eq(path string, v any) Field {
	return NewField(Path(path), OpEq, v)
}

// In matches the value at path against any of values.
func In(path string, values ...any) Field {
	if values == nil {
		values = []any{}
	}
	return NewField(Path(path), OpIn, values)
}

// IsNull matches a missing or null value at path.
func IsNull(path string) Field {
	return NewField(Path(path), OpIsNull, true)
}

// AllOf is shorthand for And{Exprs: exprs}.
func AllOf(exprs ...Expression) And {
	return And{Exprs: exprs}
}

// AnyOf is shorthand for Or{Exprs: exprs}.
func AnyOf(exprs ...Expression) Or {
	return Or{Exprs: exprs}
}

// Negate is shorthand for Not{Expr: expr}.
func Negate(expr Expression) Not {
	return Not{Expr: expr}
}

// Path splits a dotted path ("user.role") into segments.
func Path(dotted string) []string {
	if dotted == "" {
		return nil
	}
	return strings.Split(dotted, ".")
}

// Validate checks the structural invariants of a tree: no nil nodes and a
// non-empty path made of non-empty segments on every Field.
func Validate(expr Expression) error {
	switch e := expr.(type) {
	case nil:
		return fmt.Errorf("filter expression is nil")
	case Field:
		return validatePath(e.Path)
	case And:
		for i, child := range e.Exprs {
			if err := Validate(child); err != nil {
				return fmt.Errorf("AND[%d]: %w", i, err)
			}
		}
		return nil
	case Or:
		for i, child := range e.Exprs {
			if err := Validate(child); err != nil {
				return fmt.Errorf("OR[%d]: %w", i, err)
			}
		}
		return nil
	case Not:
		if err := Validate(e.Expr); err != nil {
			return fmt.Errorf("NOT: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported filter expression %T", expr)
	}
}

func validatePath(path []string) error {
	if len(path) == 0 {
		return &PathError{Reason: "path is empty"}
	}
	for i, segment := range path {
		if segment == "" {
			return &PathError{Path: path, Reason: fmt.Sprintf("segment %d is empty", i)}
		}
	}
	return nil
}

// PathError reports a Field whose path cannot address a JSON value.
type PathError struct {
	Path   []string
	Reason string
}

func (e *PathError) Error() string {
	if len(e.Path) == 0 {
		return "invalid filter path: " + e.Reason
	}
	return fmt.Sprintf("invalid filter path %q: %s", strings.Join(e.Path, "."), e.Reason)
}
