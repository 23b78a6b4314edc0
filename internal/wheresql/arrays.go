package wheresql

import (
	"encoding/json"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
)

// array compiles operators over JSON arrays. Array operands are bound as
// JSON text; see Parameterized.Args.
func (g *placeholderGenerator) array(s *state, f filter.Field) (string, error) {
	if op, ok := lengthOps[f.Operator]; ok {
		n, ok := filter.AsInt(f.Value)
		if !ok || n < 0 {
			return "", invalidValue(f, "a non-negative integer")
		}
		if op == "!=" {
			op = g.notEqual()
		}
		return g.arrayLength(f.Path) + " " + op + " " + s.bind(n), nil
	}

	if f.Operator == filter.OpStrictlyContains {
		if g.caps.Dialect != dialect.PostgreSQL && g.caps.Dialect != dialect.MySQL {
			return "", unsupported(g.name(), f.Operator, "requires JSON containment")
		}
		if f.Value == nil {
			return "", invalidValue(f, "a JSON value")
		}
		// Scalars are wrapped as JSON documents here; Args only encodes
		// arrays and objects.
		encoded, err := json.Marshal(f.Value)
		if err != nil {
			return "", invalidValue(f, "a JSON value")
		}
		f.Value = string(encoded)
	} else if _, ok := filter.AsArray(f.Value); !ok {
		return "", invalidValue(f, "an array")
	}

	switch g.caps.Dialect {
	case dialect.PostgreSQL:
		return g.postgresArray(s, f), nil
	case dialect.MySQL:
		return g.mysqlArray(s, f), nil
	case dialect.SQLite:
		return g.setArray(s, f, "json_each", "json_type("+g.column+", "+g.pathLiteral(f.Path)+") = 'array'", "value"), nil
	default:
		return g.setArray(s, f, "OPENJSON", "JSON_QUERY("+g.column+", "+g.pathLiteral(f.Path)+") IS NOT NULL", "[value]"), nil
	}
}

func (g *placeholderGenerator) arrayLength(path []string) string {
	switch g.caps.Dialect {
	case dialect.PostgreSQL:
		return "jsonb_array_length(" + postgresAccessor(g.caps, g.column, path, false) + ")"
	case dialect.MySQL:
		return "JSON_LENGTH(JSON_EXTRACT(" + g.column + ", " + g.pathLiteral(path) + "))"
	case dialect.SQLite:
		return "json_array_length(" + g.column + ", " + g.pathLiteral(path) + ")"
	default:
		return "(SELECT COUNT(*) FROM OPENJSON(" + g.column + ", " + g.pathLiteral(path) + "))"
	}
}

func (g *placeholderGenerator) postgresArray(s *state, f filter.Field) string {
	doc := postgresAccessor(g.caps, g.column, f.Path, false)
	switch f.Operator {
	case filter.OpArrayContainedBy:
		return doc + " <@ " + s.bind(f.Value) + "::jsonb"
	case filter.OpArrayOverlaps:
		return "EXISTS (SELECT 1 FROM jsonb_array_elements(" + doc + ") AS have(v) JOIN jsonb_array_elements(" +
			s.bind(f.Value) + "::jsonb) AS want(v) ON have.v = want.v)"
	default:
		return doc + " @> " + s.bind(f.Value) + "::jsonb"
	}
}

func (g *placeholderGenerator) mysqlArray(s *state, f filter.Field) string {
	doc := "JSON_EXTRACT(" + g.column + ", " + g.pathLiteral(f.Path) + ")"
	switch f.Operator {
	case filter.OpArrayContainedBy:
		return "JSON_CONTAINS(" + s.bind(f.Value) + ", " + doc + ")"
	case filter.OpArrayOverlaps:
		return "JSON_OVERLAPS(" + doc + ", " + s.bind(f.Value) + ")"
	default:
		return "JSON_CONTAINS(" + doc + ", " + s.bind(f.Value) + ")"
	}
}

// setArray expresses containment as set subqueries over a table-valued JSON
// function. The guard keeps documents without an array at the path from
// matching vacuously.
func (g *placeholderGenerator) setArray(s *state, f filter.Field, each, guard, valueCol string) string {
	have := each + "(" + g.column + ", " + g.pathLiteral(f.Path) + ")"
	want := each + "(" + s.bind(f.Value) + ")"

	var body string
	switch f.Operator {
	case filter.OpArrayContainedBy:
		body = "NOT EXISTS (SELECT 1 FROM " + have + " AS have WHERE have." + valueCol +
			" NOT IN (SELECT want." + valueCol + " FROM " + want + " AS want))"
	case filter.OpArrayOverlaps:
		body = "EXISTS (SELECT 1 FROM " + have + " AS have WHERE have." + valueCol +
			" IN (SELECT want." + valueCol + " FROM " + want + " AS want))"
	default:
		body = "NOT EXISTS (SELECT 1 FROM " + want + " AS want WHERE want." + valueCol +
			" NOT IN (SELECT have." + valueCol + " FROM " + have + " AS have))"
	}
	return "(" + guard + " AND " + body + ")"
}
