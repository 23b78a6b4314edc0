package wheresql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
)

func generateInline(t *testing.T, expr filter.Expression) string {
	t.Helper()
	gen, err := NewInline()
	require.NoError(t, err)
	assert.Equal(t, dialect.PostgreSQL, gen.Dialect())
	frag, err := gen.Generate(expr)
	require.NoError(t, err)
	inline, ok := frag.(Inline)
	require.True(t, ok, "expected an inline fragment, got %T", frag)
	return inline.Text()
}

func TestInline_Equality(t *testing.T) {
	sql := generateInline(t, filter.NewField([]string{"email"}, filter.OpEq, "a@b.com"))
	assert.Equal(t, "data->>'email' = 'a@b.com'", sql)
}

func TestInline_NestedPath(t *testing.T) {
	sql := generateInline(t, filter.NewField(filter.Path("user.profile.role"), filter.OpEq, "admin"))
	assert.Equal(t, "data#>'{user,profile}'->>'role' = 'admin'", sql)
}

func TestInline_Literals(t *testing.T) {
	tests := []struct {
		name string
		expr filter.Field
		want string
	}{
		{"quote doubled", filter.NewField([]string{"name"}, filter.OpEq, "O'Brien"), "data->>'name' = 'O''Brien'"},
		{"backslash", filter.NewField([]string{"name"}, filter.OpEq, `a\b`), `data->>'name' = E'a\\b'`},
		{"number", filter.NewField([]string{"age"}, filter.OpLt, 30), "(data->>'age')::numeric < 30"},
		{"float", filter.NewField([]string{"score"}, filter.OpGt, 1.5), "(data->>'score')::numeric > 1.5"},
		{"bool", filter.NewField([]string{"active"}, filter.OpEq, true), "(data->>'active')::boolean = TRUE"},
		{"null", filter.NewField([]string{"x"}, filter.OpNeq, nil), "data->>'x' IS NOT NULL"},
		{"in mixed", filter.NewField([]string{"x"}, filter.OpIn, []any{"a", 2, false}), "data->>'x' IN ('a', '2', 'false')"},
		{"in empty", filter.NewField([]string{"x"}, filter.OpIn, []any{}), "FALSE"},
		{"nin", filter.NewField([]string{"x"}, filter.OpNin, []string{"a"}), "NOT (data->>'x' IN ('a'))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateInline(t, tt.expr))
		})
	}
}

func TestInline_Patterns(t *testing.T) {
	tests := []struct {
		name string
		expr filter.Field
		want string
	}{
		{"icontains", filter.NewField([]string{"name"}, filter.OpIContains, "John"), "data->>'name' ILIKE '%John%'"},
		{"startswith quote", filter.NewField([]string{"name"}, filter.OpStartsWith, "O'B"), "data->>'name' LIKE 'O''B%'"},
		{"iendswith backslash", filter.NewField([]string{"p"}, filter.OpIEndsWith, `x\`), `data->>'p' ILIKE E'%x\\'`},
		{"like raw", filter.NewField([]string{"p"}, filter.OpLike, "a_c%"), "data->>'p' LIKE 'a_c%'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateInline(t, tt.expr))
		})
	}
}

func TestInline_Arrays(t *testing.T) {
	sql := generateInline(t, filter.NewField([]string{"tags"}, filter.OpArrayContains, []any{"a", "it's"}))
	assert.Equal(t, `data->'tags' @> '["a","it''s"]'::jsonb`, sql)

	sql = generateInline(t, filter.NewField(filter.Path("meta.tags"), filter.OpLenGt, 2))
	assert.Equal(t, "jsonb_array_length(data#>'{meta,tags}') > 2", sql)
}

func TestInline_Structure(t *testing.T) {
	sql := generateInline(t, filter.AllOf(
		filter.NewField([]string{"a"}, filter.OpEq, "x"),
		filter.Negate(filter.AnyOf()),
	))
	assert.Equal(t, "(data->>'a' = 'x' AND NOT (FALSE))", sql)
}

func TestInline_Unsupported(t *testing.T) {
	gen, err := NewInline()
	require.NoError(t, err)

	for _, expr := range []filter.Field{
		filter.NewField([]string{"v"}, filter.OpCosineDistance, map[string]any{"vector": []any{1.0}, "threshold": 1}),
		filter.NewField([]string{"body"}, filter.OpMatches, "x"),
		filter.NewField([]string{"ip"}, filter.OpIsPrivate, true),
		filter.NewField([]string{"path"}, filter.OpLca, []any{"a"}),
		filter.NewField([]string{"email"}, filter.OpEmailDomainEq, "example.com"),
	} {
		_, err := gen.Generate(expr)
		var unsupportedErr *UnsupportedOperatorError
		require.True(t, errors.As(err, &unsupportedErr), "operator %s: %v", expr.Operator, err)
		assert.Equal(t, "inline", unsupportedErr.Generator)
	}
}

func TestInline_RejectsExtensions(t *testing.T) {
	_, err := NewInline(WithExtension("x", func(ExtensionContext, filter.Field) (string, error) { return "", nil }))
	assert.Error(t, err)
}
