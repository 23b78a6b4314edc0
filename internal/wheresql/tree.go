package wheresql

import (
	"fmt"
	"strings"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
)

type fieldFunc func(filter.Field) (string, error)

// compileTree walks the boolean structure of a filter and delegates leaves
// to field. Empty AND/OR collapse to the dialect TRUE/FALSE literal.
func compileTree(expr filter.Expression, caps dialect.Capabilities, field fieldFunc) (string, error) {
	switch e := expr.(type) {
	case filter.Field:
		return field(e)
	case filter.And:
		return compileJoin(e.Exprs, " AND ", caps.TrueLiteral, caps, field)
	case filter.Or:
		return compileJoin(e.Exprs, " OR ", caps.FalseLiteral, caps, field)
	case filter.Not:
		if e.Expr == nil {
			return "", fmt.Errorf("NOT requires an expression")
		}
		inner, err := compileTree(e.Expr, caps, field)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case nil:
		return "", fmt.Errorf("filter expression is nil")
	default:
		return "", fmt.Errorf("unsupported filter expression %T", expr)
	}
}

func compileJoin(exprs []filter.Expression, sep, empty string, caps dialect.Capabilities, field fieldFunc) (string, error) {
	if len(exprs) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(exprs))
	for _, child := range exprs {
		part, err := compileTree(child, caps, field)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// nullTest compiles isnull. A missing value means IS NULL.
func nullTest(f filter.Field, accessor string) (string, error) {
	isNull := true
	if f.Value != nil {
		b, ok := filter.AsBool(f.Value)
		if !ok {
			return "", invalidValue(f, "a boolean")
		}
		isNull = b
	}
	if isNull {
		return accessor + " IS NULL", nil
	}
	return accessor + " IS NOT NULL", nil
}

var comparisonOps = map[filter.Operator]string{
	filter.OpEq:  "=",
	filter.OpNeq: "!=",
	filter.OpGt:  ">",
	filter.OpGte: ">=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
}

var lengthOps = map[filter.Operator]string{
	filter.OpLenEq:  "=",
	filter.OpLenNeq: "!=",
	filter.OpLenGt:  ">",
	filter.OpLenGte: ">=",
	filter.OpLenLt:  "<",
	filter.OpLenLte: "<=",
}

var depthOps = map[filter.Operator]string{
	filter.OpDepthEq:  "=",
	filter.OpDepthNeq: "!=",
	filter.OpDepthGt:  ">",
	filter.OpDepthGte: ">=",
	filter.OpDepthLt:  "<",
	filter.OpDepthLte: "<=",
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	}
	return filter.IsNumber(v)
}
