package wheresql

import (
	"fmt"
	"strings"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
	"gqlsql/internal/sqlutil"
)

// placeholderGenerator builds SQL with anonymous ? markers, then lets the
// dialect's squirrel placeholder format number them.
type placeholderGenerator struct {
	caps       dialect.Capabilities
	column     string
	extensions map[filter.Operator]ExtensionFunc
}

// state collects the parameters of a single Generate call.
type state struct {
	params []any
}

func (s *state) bind(v any) string {
	s.params = append(s.params, v)
	return "?"
}

func (g *placeholderGenerator) Dialect() dialect.Dialect {
	return g.caps.Dialect
}

func (g *placeholderGenerator) Generate(expr filter.Expression) (Fragment, error) {
	s := &state{params: []any{}}
	marked, err := compileTree(expr, g.caps, func(f filter.Field) (string, error) {
		return g.compileField(s, f)
	})
	if err != nil {
		return nil, err
	}

	sql, err := g.caps.Placeholder.ReplacePlaceholders(marked)
	if err != nil {
		return nil, fmt.Errorf("failed to number placeholders: %w", err)
	}
	return Parameterized{SQL: sql, Params: s.params, marked: marked}, nil
}

func (g *placeholderGenerator) name() string {
	return g.caps.Dialect.String()
}

func (g *placeholderGenerator) compileField(s *state, f filter.Field) (string, error) {
	if err := filter.Validate(f); err != nil {
		return "", err
	}

	group := f.Operator.Group()
	if !g.caps.SupportsGroup(group) {
		return "", unsupported(g.name(), f.Operator, fmt.Sprintf("%s operators are not available", group))
	}

	acc := g.textAccessor(f.Path)
	switch group {
	case filter.GroupComparison:
		return g.comparison(s, f, acc)
	case filter.GroupContainment:
		return g.containment(s, f, acc)
	case filter.GroupString:
		return g.stringMatch(s, f, acc)
	case filter.GroupNull:
		return nullTest(f, acc)
	case filter.GroupArray:
		return g.array(s, f)
	case filter.GroupVector:
		return g.vector(s, f, acc)
	case filter.GroupFullText:
		return g.fullText(s, f, acc)
	case filter.GroupNetwork:
		return g.network(s, f, acc)
	case filter.GroupHierarchy:
		return g.hierarchy(s, f, acc)
	case filter.GroupExtended:
		fn, ok := g.extensions[f.Operator]
		if !ok {
			return "", unsupported(g.name(), f.Operator, "no extension is registered for it")
		}
		return fn(ExtensionContext{
			Capabilities: g.caps,
			Accessor:     acc,
			state:        s,
		}, f)
	}
	return "", unsupported(g.name(), f.Operator, "")
}

// textAccessor addresses the path as SQL text.
func (g *placeholderGenerator) textAccessor(path []string) string {
	switch g.caps.Dialect {
	case dialect.PostgreSQL:
		return postgresAccessor(g.caps, g.column, path, true)
	case dialect.MySQL:
		return "JSON_UNQUOTE(JSON_EXTRACT(" + g.column + ", " + g.pathLiteral(path) + "))"
	case dialect.SQLite:
		return "json_extract(" + g.column + ", " + g.pathLiteral(path) + ")"
	default:
		return "JSON_VALUE(" + g.column + ", " + g.pathLiteral(path) + ")"
	}
}

// pathLiteral renders the SQL/JSON path as an escaped string literal.
func (g *placeholderGenerator) pathLiteral(path []string) string {
	return g.caps.Text(g.caps.QuoteLiteral(sqlutil.JSONPath(path)))
}

// postgresAccessor chains -> operators; the final hop is ->> when text is
// wanted. Every segment goes through literal quoting.
func postgresAccessor(caps dialect.Capabilities, column string, path []string, text bool) string {
	var b strings.Builder
	b.WriteString(column)
	for i, segment := range path {
		if text && i == len(path)-1 {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		b.WriteString(caps.Text(caps.QuoteLiteral(segment)))
	}
	return b.String()
}

// concat joins SQL string expressions with the dialect's operator.
func concat(d dialect.Dialect, parts ...string) string {
	switch d {
	case dialect.MySQL:
		return "CONCAT(" + strings.Join(parts, ", ") + ")"
	case dialect.SQLServer:
		return strings.Join(parts, " + ")
	default:
		return strings.Join(parts, " || ")
	}
}

func (g *placeholderGenerator) notEqual() string {
	if g.caps.Dialect == dialect.SQLServer {
		return "<>"
	}
	return "!="
}

func (g *placeholderGenerator) comparison(s *state, f filter.Field, acc string) (string, error) {
	op := comparisonOps[f.Operator]
	if op == "!=" {
		op = g.notEqual()
	}

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
		return g.boolComparison(s, acc, op, v), nil
	case string:
		return acc + " " + op + " " + s.bind(v), nil
	}

	if filter.IsNumber(f.Value) {
		return g.numericComparison(s, acc, op, f.Value), nil
	}
	return "", invalidValue(f, "a scalar value")
}

// numericComparison casts the JSON text so numbers do not compare
// lexicographically.
func (g *placeholderGenerator) numericComparison(s *state, acc, op string, v any) string {
	marker := s.bind(v)
	switch g.caps.Dialect {
	case dialect.PostgreSQL:
		return "(" + acc + ")::numeric " + op + " (" + marker + "::text)::numeric"
	case dialect.MySQL:
		return "CAST(" + acc + " AS DECIMAL(65,30)) " + op + " " + marker
	case dialect.SQLite:
		return "CAST(" + acc + " AS REAL) " + op + " " + marker
	default:
		return "CAST(" + acc + " AS FLOAT) " + op + " " + marker
	}
}

// boolComparison compares against the JSON spelling of a boolean.
func (g *placeholderGenerator) boolComparison(s *state, acc, op string, v bool) string {
	marker := s.bind(v)
	switch g.caps.Dialect {
	case dialect.PostgreSQL:
		return "(" + acc + ")::boolean " + op + " " + marker
	case dialect.MySQL:
		return acc + " " + op + " (CASE WHEN " + marker + " THEN 'true' ELSE 'false' END)"
	case dialect.SQLite:
		// json_extract yields 1 or 0 for JSON booleans.
		return acc + " " + op + " " + marker
	default:
		return acc + " " + op + " (CASE WHEN " + marker + " = 1 THEN 'true' ELSE 'false' END)"
	}
}

func (g *placeholderGenerator) containment(s *state, f filter.Field, acc string) (string, error) {
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

	markers := make([]string, len(items))
	for i, item := range items {
		if !isScalar(item) {
			return "", invalidValue(f, "an array of scalars")
		}
		markers[i] = s.bind(item)
	}
	in := acc + " IN (" + strings.Join(markers, ", ") + ")"
	if f.Operator == filter.OpNin {
		return "NOT (" + in + ")", nil
	}
	return in, nil
}

func (g *placeholderGenerator) stringMatch(s *state, f filter.Field, acc string) (string, error) {
	v, ok := filter.AsString(f.Value)
	if !ok {
		return "", invalidValue(f, "a string")
	}
	insensitive := f.Operator.CaseInsensitive()

	// SQLite LIKE ignores ASCII case, so case-sensitive matching avoids it.
	if g.caps.Dialect == dialect.SQLite && !insensitive {
		switch f.Operator {
		case filter.OpContains:
			return "instr(" + acc + ", " + s.bind(v) + ") > 0", nil
		case filter.OpStartsWith:
			return "instr(" + acc + ", " + s.bind(v) + ") = 1", nil
		case filter.OpEndsWith:
			return "substr(" + acc + ", length(" + acc + ") - length(" + s.bind(v) + ") + 1) = " + s.bind(v), nil
		default:
			return "", unsupported(g.name(), f.Operator, "SQLite LIKE cannot match case-sensitively")
		}
	}

	var pattern string
	switch f.Operator {
	case filter.OpContains, filter.OpIContains:
		pattern = concat(g.caps.Dialect, "'%'", s.bind(v), "'%'")
	case filter.OpStartsWith, filter.OpIStartsWith:
		pattern = concat(g.caps.Dialect, s.bind(v), "'%'")
	case filter.OpEndsWith, filter.OpIEndsWith:
		pattern = concat(g.caps.Dialect, "'%'", s.bind(v))
	default:
		pattern = s.bind(v)
	}
	return like(g.caps, acc, pattern, insensitive), nil
}

// like applies the dialect's case-folding strategy.
func like(caps dialect.Capabilities, acc, pattern string, insensitive bool) string {
	switch caps.CaseFolding {
	case dialect.NativeILike:
		if insensitive {
			return acc + " ILIKE " + pattern
		}
		return acc + " LIKE " + pattern
	case dialect.LowerWrap:
		if insensitive {
			return "LOWER(" + acc + ") LIKE LOWER(" + pattern + ")"
		}
		return acc + " LIKE " + pattern
	default:
		collation := caps.CaseSensitiveCollation
		if insensitive {
			collation = caps.CaseInsensitiveCollation
		}
		return acc + " COLLATE " + collation + " LIKE " + pattern
	}
}
