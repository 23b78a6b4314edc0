package wheresql

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
)

func TestParameterized_BindsThroughDatabaseSQL(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	p := generate(t, dialect.PostgreSQL, filter.AllOf(
		filter.NewField([]string{"email"}, filter.OpEq, "a@b.com"),
		filter.NewField([]string{"tags"}, filter.OpArrayContains, []any{"vip"}),
	))
	args, err := p.Args()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id FROM docs WHERE (data->>'email' = $1 AND data->'tags' @> $2::jsonb)").
		WithArgs("a@b.com", `["vip"]`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	rows, err := db.Query("SELECT id FROM docs WHERE "+p.Text(), args...)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var id int
	require.NoError(t, rows.Scan(&id))
	assert.Equal(t, 7, id)
	require.NoError(t, rows.Err())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func openSQLiteDocs(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE docs (id INTEGER PRIMARY KEY, data TEXT NOT NULL)")
	require.NoError(t, err)

	docs := []string{
		`{"name":"Alice","age":30,"role":"admin","tags":["a","b"],"email":"alice@example.com","active":true}`,
		`{"name":"bob","age":25,"role":"user","tags":["b"],"email":"bob@test.org","active":false}`,
		`{"name":"Carol","age":41,"tags":[],"email":"carol@example.com"}`,
	}
	for i, doc := range docs {
		_, err := db.Exec("INSERT INTO docs (id, data) VALUES (?, ?)", i+1, doc)
		require.NoError(t, err)
	}
	return db
}

func TestSQLite_ExecutesGeneratedPredicates(t *testing.T) {
	db := openSQLiteDocs(t)
	gen, err := New(dialect.SQLite)
	require.NoError(t, err)

	tests := []struct {
		name string
		expr filter.Expression
		want []int
	}{
		{"numeric gt", filter.NewField([]string{"age"}, filter.OpGt, 28), []int{1, 3}},
		{"icontains", filter.NewField([]string{"name"}, filter.OpIContains, "AL"), []int{1}},
		{"contains is case sensitive", filter.NewField([]string{"name"}, filter.OpContains, "al"), nil},
		{"endswith", filter.NewField([]string{"email"}, filter.OpEndsWith, ".org"), []int{2}},
		{"isnull", filter.NewField([]string{"role"}, filter.OpIsNull, true), []int{3}},
		{"bool eq", filter.NewField([]string{"active"}, filter.OpEq, true), []int{1}},
		{"in", filter.NewField([]string{"role"}, filter.OpIn, []any{"user", "owner"}), []int{2}},
		{"array contains", filter.NewField([]string{"tags"}, filter.OpArrayContains, []any{"b"}), []int{1, 2}},
		{"array contained by", filter.NewField([]string{"tags"}, filter.OpArrayContainedBy, []any{"b", "c"}), []int{2, 3}},
		{"array overlaps", filter.NewField([]string{"tags"}, filter.OpArrayOverlaps, []any{"a", "z"}), []int{1}},
		{"len eq", filter.NewField([]string{"tags"}, filter.OpLenEq, 0), []int{3}},
		{"email domain", filter.NewField([]string{"email"}, filter.OpEmailDomainEq, "example.com"), []int{1, 3}},
		{"or", filter.AnyOf(
			filter.NewField([]string{"role"}, filter.OpEq, "admin"),
			filter.NewField([]string{"age"}, filter.OpLt, 26),
		), []int{1, 2}},
		{"empty and", filter.AllOf(), []int{1, 2, 3}},
		{"empty or", filter.AnyOf(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := gen.Generate(tt.expr)
			require.NoError(t, err)
			p := frag.(Parameterized)
			args, err := p.Args()
			require.NoError(t, err)

			rows, err := db.Query("SELECT id FROM docs WHERE "+p.Text()+" ORDER BY id", args...)
			require.NoError(t, err, p.Text())
			defer rows.Close()

			var got []int
			for rows.Next() {
				var id int
				require.NoError(t, rows.Scan(&id))
				got = append(got, id)
			}
			require.NoError(t, rows.Err())
			assert.Equal(t, tt.want, got)
		})
	}
}
