package dialect

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gqlsql/internal/filter"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Dialect
	}{
		{"postgresql", PostgreSQL},
		{"Postgres", PostgreSQL},
		{" pg ", PostgreSQL},
		{"mysql", MySQL},
		{"tidb", MySQL},
		{"sqlite3", SQLite},
		{"MSSQL", SQLServer},
		{"sqlserver", SQLServer},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := Parse("oracle")
	assert.Error(t, err)
}

func TestTextRoundTrip(t *testing.T) {
	for _, d := range All() {
		text, err := d.MarshalText()
		require.NoError(t, err)

		var decoded Dialect
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, d, decoded)
	}

	_, err := Dialect(99).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "dialect(99)", Dialect(99).String())
}

func TestLookup(t *testing.T) {
	for _, d := range All() {
		caps, err := Lookup(d)
		require.NoError(t, err)
		assert.Equal(t, d, caps.Dialect)
	}

	_, err := Lookup(Dialect(0))
	assert.Error(t, err)
	assert.Panics(t, func() { MustLookup(Dialect(0)) })
}

func TestPlaceholderStyles(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{PostgreSQL, "a = $1 AND b = $2"},
		{MySQL, "a = ? AND b = ?"},
		{SQLite, "a = ? AND b = ?"},
		{SQLServer, "a = @p1 AND b = @p2"},
	}
	for _, tt := range tests {
		caps := MustLookup(tt.dialect)
		got, err := caps.Placeholder.ReplacePlaceholders("a = ? AND b = ?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.dialect.String())
	}
}

func TestTextEscapesQuestionMarks(t *testing.T) {
	pg := MustLookup(PostgreSQL)
	marked := pg.Text("'why?'") + " = ?"
	got, err := sq.Dollar.ReplacePlaceholders(marked)
	require.NoError(t, err)
	assert.Equal(t, "'why?' = $1", got)

	assert.Equal(t, "'why?'", MustLookup(MySQL).Text("'why?'"))
}

func TestSupportsGroup(t *testing.T) {
	base := []filter.Group{
		filter.GroupComparison,
		filter.GroupContainment,
		filter.GroupString,
		filter.GroupNull,
		filter.GroupArray,
		filter.GroupExtended,
	}
	postgresOnly := []filter.Group{
		filter.GroupVector,
		filter.GroupFullText,
		filter.GroupNetwork,
		filter.GroupHierarchy,
	}

	for _, d := range All() {
		caps := MustLookup(d)
		for _, g := range base {
			assert.True(t, caps.SupportsGroup(g), "%s should support %s", d, g)
		}
		for _, g := range postgresOnly {
			assert.Equal(t, d == PostgreSQL, caps.SupportsGroup(g), "%s / %s", d, g)
		}
	}
}

func TestQuoting(t *testing.T) {
	tests := []struct {
		dialect    Dialect
		identifier string
		literal    string
	}{
		{PostgreSQL, `"a""b"`, `E'it''s \\'`},
		{MySQL, "`a\"b`", `'it''s \\'`},
		{SQLite, `"a""b"`, `'it''s \'`},
		{SQLServer, `[a"b]`, `'it''s \'`},
	}
	for _, tt := range tests {
		caps := MustLookup(tt.dialect)
		assert.Equal(t, tt.identifier, caps.QuoteIdentifier(`a"b`), tt.dialect.String())
		assert.Equal(t, tt.literal, caps.QuoteLiteral(`it's \`), tt.dialect.String())
	}
}

func TestFunctions(t *testing.T) {
	mssql := MustLookup(SQLServer)
	assert.False(t, mssql.SupportsFunction("nth_value"))
	assert.Equal(t, "STDEV", mssql.FunctionName("STDDEV"))
	assert.Equal(t, "VAR", mssql.FunctionName("VARIANCE"))
	assert.Equal(t, "SUM", mssql.FunctionName("SUM"))

	pg := MustLookup(PostgreSQL)
	assert.True(t, pg.SupportsFunction("NTH_VALUE"))
	assert.Equal(t, "STDDEV", pg.FunctionName("STDDEV"))
}

func TestFrameAndLimitCapabilities(t *testing.T) {
	assert.True(t, MustLookup(PostgreSQL).GroupsFrame)
	assert.True(t, MustLookup(SQLite).FrameExclusion)
	assert.False(t, MustLookup(MySQL).GroupsFrame)
	assert.False(t, MustLookup(SQLServer).RangeOffsetFrame)

	assert.Equal(t, OffsetFetch, MustLookup(SQLServer).LimitStyle)
	assert.Equal(t, "18446744073709551615", MustLookup(MySQL).MaxLimit)
	assert.Equal(t, "-1", MustLookup(SQLite).MaxLimit)
	assert.Equal(t, "1=0", MustLookup(SQLServer).FalseLiteral)
}

func TestSQLiteLacksStatisticalAggregates(t *testing.T) {
	sqlite := MustLookup(SQLite)
	assert.False(t, sqlite.SupportsFunction("STDDEV"))
	assert.False(t, sqlite.SupportsFunction("variance"))
	assert.True(t, sqlite.SupportsFunction("AVG"))
}
