package wheresql

import (
	"encoding/json"
	"fmt"
	"strings"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
	"gqlsql/internal/sqlutil"
)

const inlineName = "inline"

// inlineGenerator renders PostgreSQL JSONB predicates with every value
// embedded as an escaped literal.
type inlineGenerator struct {
	caps   dialect.Capabilities
	column string
}

func (g *inlineGenerator) Dialect() dialect.Dialect {
	return g.caps.Dialect
}

func (g *inlineGenerator) Generate(expr filter.Expression) (Fragment, error) {
	sql, err := compileTree(expr, g.caps, g.compileField)
	if err != nil {
		return nil, err
	}
	return Inline{SQL: sql}, nil
}

func (g *inlineGenerator) compileField(f filter.Field) (string, error) {
	if err := filter.Validate(f); err != nil {
		return "", err
	}

	acc := g.textAccessor(f.Path)
	switch f.Operator.Group() {
	case filter.GroupComparison:
		return g.comparison(f, acc)
	case filter.GroupContainment:
		return g.containment(f, acc)
	case filter.GroupString:
		return g.stringMatch(f, acc)
	case filter.GroupNull:
		return nullTest(f, acc)
	case filter.GroupArray:
		return g.array(f)
	}
	return "", unsupported(inlineName, f.Operator, "use a placeholder generator")
}

// textAccessor uses ->> for a single key and #> plus ->> for deeper paths.
func (g *inlineGenerator) textAccessor(path []string) string {
	last := g.caps.QuoteLiteral(path[len(path)-1])
	if len(path) == 1 {
		return g.column + "->>" + last
	}
	return g.column + "#>" + g.caps.QuoteLiteral(sqlutil.PostgresTextArray(path[:len(path)-1])) + "->>" + last
}

func (g *inlineGenerator) jsonAccessor(path []string) string {
	if len(path) == 1 {
		return g.column + "->" + g.caps.QuoteLiteral(path[0])
	}
	return g.column + "#>" + g.caps.QuoteLiteral(sqlutil.PostgresTextArray(path))
}

func (g *inlineGenerator) literal(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "NULL", true
	case string:
		return g.caps.QuoteLiteral(x), true
	case bool:
		if x {
			return "TRUE", true
		}
		return "FALSE", true
	}
	return filter.FormatNumber(v)
}

// textLiteral renders a scalar as the text ->> would produce for it.
func (g *inlineGenerator) textLiteral(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return g.caps.QuoteLiteral(x), true
	case bool:
		if x {
			return "'true'", true
		}
		return "'false'", true
	}
	n, ok := filter.FormatNumber(v)
	if !ok {
		return "", false
	}
	return g.caps.QuoteLiteral(n), true
}

func (g *inlineGenerator) comparison(f filter.Field, acc string) (string, error) {
	op := comparisonOps[f.Operator]
	switch v := f.Value.(type) {
	case nil:
		switch f.Operator {
		case filter.OpEq:
			return acc + " IS NULL", nil
		case filter.OpNeq:
			return acc + " IS NOT NULL", nil
		}
		return "", invalidValue(f, "a non-null value")
	case bool:
		if f.Operator != filter.OpEq && f.Operator != filter.OpNeq {
			return "", invalidValue(f, "a number or string")
		}
		lit, _ := g.literal(v)
		return "(" + acc + ")::boolean " + op + " " + lit, nil
	case string:
		return acc + " " + op + " " + g.caps.QuoteLiteral(v), nil
	}
	if n, ok := filter.FormatNumber(f.Value); ok {
		return "(" + acc + ")::numeric " + op + " " + n, nil
	}
	return "", invalidValue(f, "a scalar value")
}

func (g *inlineGenerator) containment(f filter.Field, acc string) (string, error) {
	items, ok := filter.AsArray(f.Value)
	if !ok {
		return "", invalidValue(f, "an array")
	}
	if len(items) == 0 {
		if f.Operator == filter.OpIn {
			return g.caps.FalseLiteral, nil
		}
		return "NOT (" + g.caps.FalseLiteral + ")", nil
	}
	lits := make([]string, len(items))
	for i, item := range items {
		lit, ok := g.textLiteral(item)
		if !ok {
			return "", invalidValue(f, "an array of scalars")
		}
		lits[i] = lit
	}
	in := acc + " IN (" + strings.Join(lits, ", ") + ")"
	if f.Operator == filter.OpNin {
		return "NOT (" + in + ")", nil
	}
	return in, nil
}

func (g *inlineGenerator) stringMatch(f filter.Field, acc string) (string, error) {
	v, ok := filter.AsString(f.Value)
	if !ok {
		return "", invalidValue(f, "a string")
	}
	var pattern string
	switch f.Operator {
	case filter.OpContains, filter.OpIContains:
		pattern = patternLiteral("%", v, "%")
	case filter.OpStartsWith, filter.OpIStartsWith:
		pattern = patternLiteral("", v, "%")
	case filter.OpEndsWith, filter.OpIEndsWith:
		pattern = patternLiteral("%", v, "")
	default:
		pattern = g.caps.QuoteLiteral(v)
	}
	return like(g.caps, acc, pattern, f.Operator.CaseInsensitive()), nil
}

// patternLiteral escapes v before adding the wildcards so they stay outside
// the escaped region.
func patternLiteral(prefix, v, suffix string) string {
	escaped := sqlutil.EscapeString(v)
	if strings.Contains(escaped, `\`) {
		return "E'" + prefix + strings.ReplaceAll(escaped, `\`, `\\`) + suffix + "'"
	}
	return "'" + prefix + escaped + suffix + "'"
}

func (g *inlineGenerator) array(f filter.Field) (string, error) {
	doc := g.jsonAccessor(f.Path)

	if op, ok := lengthOps[f.Operator]; ok {
		n, ok := filter.AsInt(f.Value)
		if !ok || n < 0 {
			return "", invalidValue(f, "a non-negative integer")
		}
		return fmt.Sprintf("jsonb_array_length(%s) %s %d", doc, op, n), nil
	}

	var value any = f.Value
	if f.Operator == filter.OpStrictlyContains {
		if f.Value == nil {
			return "", invalidValue(f, "a JSON value")
		}
	} else {
		items, ok := filter.AsArray(f.Value)
		if !ok {
			return "", invalidValue(f, "an array")
		}
		value = items
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", invalidValue(f, "a JSON value")
	}
	lit := g.caps.QuoteLiteral(string(encoded)) + "::jsonb"

	switch f.Operator {
	case filter.OpArrayContainedBy:
		return doc + " <@ " + lit, nil
	case filter.OpArrayOverlaps:
		return "EXISTS (SELECT 1 FROM jsonb_array_elements(" + doc + ") AS have(v) JOIN jsonb_array_elements(" +
			lit + ") AS want(v) ON have.v = want.v)", nil
	default:
		return doc + " @> " + lit, nil
	}
}
