package window

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
)

func uint64Ptr(v uint64) *uint64 { return &v }

func exclusionPtr(e Exclusion) *Exclusion { return &e }

func runningTotalPlan() Plan {
	return Plan{
		Table: "tf_sales",
		Select: []SelectColumn{
			{Expression: "occurred_at", Alias: "date"},
			{Expression: "revenue", Alias: "revenue"},
		},
		Windows: []FunctionSpec{{
			Function: Function{Kind: Sum, Field: "revenue"},
			Alias:    "running_total",
			OrderBy:  []OrderBy{{Field: "occurred_at", Direction: Asc}},
			Frame: &Frame{
				Type:  Rows,
				Start: Bound{Kind: UnboundedPreceding},
				End:   Bound{Kind: CurrentRow},
			},
		}},
		Where:   filter.Eq("category", "books"),
		OrderBy: []OrderBy{{Field: "occurred_at"}},
		Limit:   uint64Ptr(10),
		Offset:  uint64Ptr(20),
	}
}

func rankingPlan() Plan {
	return Plan{
		Table:  "tf_sales",
		Select: []SelectColumn{{Expression: "category", Alias: "category"}},
		Windows: []FunctionSpec{
			{
				Function:    Function{Kind: RowNumber},
				Alias:       "rn",
				PartitionBy: []string{"category"},
				OrderBy:     []OrderBy{{Field: "revenue", Direction: Desc}},
			},
			{
				Function: Function{Kind: Lag, Field: "revenue", Offset: 1, Default: 0},
				Alias:    "prev_revenue",
				OrderBy:  []OrderBy{{Field: "occurred_at"}},
			},
			{
				Function:    Function{Kind: Avg, Field: "revenue"},
				Alias:       "revenue_avg",
				PartitionBy: []string{"category"},
			},
		},
		Offset: uint64Ptr(5),
	}
}

func TestCompile_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	plans := map[string]Plan{
		"running_total": runningTotalPlan(),
		"ranking":       rankingPlan(),
	}
	for name, plan := range plans {
		for _, d := range dialect.All() {
			t.Run(name+"_"+d.String(), func(t *testing.T) {
				out, err := Generate(plan, d)
				require.NoError(t, err)
				g.Assert(t, name+"_"+d.String(), []byte(out.Text))
			})
		}
	}
}

func TestCompile_RunningTotalFrame(t *testing.T) {
	out, err := Generate(runningTotalPlan(), dialect.PostgreSQL)
	require.NoError(t, err)
	assert.Contains(t, out.Text, "SUM(revenue) OVER (")
	assert.Contains(t, out.Text, "ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)")
	assert.Equal(t, []any{"books"}, out.Params)
}

func TestCompile_ParamOrder(t *testing.T) {
	plan := rankingPlan()
	plan.Where = filter.AllOf(filter.Eq("region", "eu"), filter.In("tier", "gold", "silver"))

	out, err := Generate(plan, dialect.PostgreSQL)
	require.NoError(t, err)
	assert.Contains(t, out.Text, "LAG(revenue, 1, $1)")
	assert.Contains(t, out.Text, "WHERE (data->>'region' = $2 AND data->>'tier' IN ($3, $4))")
	assert.Equal(t, []any{0, "eu", "gold", "silver"}, out.Params)
}

func TestCompile_GroupsFrameUnsupported(t *testing.T) {
	plan := runningTotalPlan()
	plan.Windows[0].Frame.Type = Groups

	for _, d := range []dialect.Dialect{dialect.MySQL, dialect.SQLServer} {
		out, err := Generate(plan, d)
		var featureErr *UnsupportedFeatureError
		require.True(t, errors.As(err, &featureErr), "%s: %v", d, err)
		assert.Equal(t, "GROUPS frame", featureErr.Feature)
		assert.Equal(t, d, featureErr.Dialect)
		assert.Empty(t, out.Text)
	}
}

func TestCompile_GroupsFrameWithExclusion(t *testing.T) {
	plan := runningTotalPlan()
	plan.Windows[0].Frame = &Frame{
		Type:      Groups,
		Start:     Preceding(1),
		End:       Following(1),
		Exclusion: exclusionPtr(ExcludeTies),
	}

	for _, d := range []dialect.Dialect{dialect.PostgreSQL, dialect.SQLite} {
		out, err := Generate(plan, d)
		require.NoError(t, err)
		assert.Contains(t, out.Text, "GROUPS BETWEEN 1 PRECEDING AND 1 FOLLOWING EXCLUDE TIES)")
	}
}

func TestCompile_UnsupportedFrameFeatures(t *testing.T) {
	exclusion := runningTotalPlan()
	exclusion.Windows[0].Frame.Exclusion = exclusionPtr(ExcludeCurrentRow)
	_, err := Generate(exclusion, dialect.MySQL)
	var featureErr *UnsupportedFeatureError
	require.True(t, errors.As(err, &featureErr))
	assert.Equal(t, "frame exclusion", featureErr.Feature)

	rangeOffset := runningTotalPlan()
	rangeOffset.Windows[0].Frame = &Frame{Type: Range, Start: Preceding(7), End: Bound{Kind: CurrentRow}}
	_, err = Generate(rangeOffset, dialect.SQLServer)
	require.True(t, errors.As(err, &featureErr))

	out, err := Generate(rangeOffset, dialect.MySQL)
	require.NoError(t, err)
	assert.Contains(t, out.Text, "RANGE BETWEEN 7 PRECEDING AND CURRENT ROW")
}

func TestCompile_InvalidFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{"starts unbounded following", Frame{Type: Rows, Start: Bound{Kind: UnboundedFollowing}, End: Bound{Kind: UnboundedFollowing}}},
		{"ends unbounded preceding", Frame{Type: Rows, Start: Bound{Kind: UnboundedPreceding}, End: Bound{Kind: UnboundedPreceding}}},
		{"start after end", Frame{Type: Rows, Start: Bound{Kind: CurrentRow}, End: Preceding(1)}},
		{"preceding inverted", Frame{Type: Rows, Start: Preceding(1), End: Preceding(3)}},
		{"following inverted", Frame{Type: Rows, Start: Following(3), End: Following(1)}},
		{"unknown type", Frame{Type: "slices", Start: Bound{Kind: CurrentRow}, End: Bound{Kind: CurrentRow}}},
		{"unknown bound", Frame{Type: Rows, Start: Bound{Kind: "sometime"}, End: Bound{Kind: CurrentRow}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := runningTotalPlan()
			frame := tt.frame
			plan.Windows[0].Frame = &frame
			_, err := Generate(plan, dialect.PostgreSQL)
			var planErr *InvalidPlanError
			assert.True(t, errors.As(err, &planErr), "got %v", err)
		})
	}
}

func TestCompile_GroupsRequiresOrder(t *testing.T) {
	plan := runningTotalPlan()
	plan.Windows[0].OrderBy = nil
	plan.Windows[0].Frame.Type = Groups
	_, err := Generate(plan, dialect.PostgreSQL)
	var planErr *InvalidPlanError
	assert.True(t, errors.As(err, &planErr))
}

func TestFormatBound(t *testing.T) {
	assert.Equal(t, "UNBOUNDED PRECEDING", formatBound(Bound{Kind: UnboundedPreceding}))
	assert.Equal(t, "3 PRECEDING", formatBound(Preceding(3)))
	assert.Equal(t, "CURRENT ROW", formatBound(Bound{Kind: CurrentRow}))
	assert.Equal(t, "18446744073709551615 FOLLOWING", formatBound(Following(^uint64(0))))
	assert.Equal(t, "UNBOUNDED FOLLOWING", formatBound(Bound{Kind: UnboundedFollowing}))
}

func TestCompile_Functions(t *testing.T) {
	tests := []struct {
		name     string
		dialect  dialect.Dialect
		function Function
		want     string
	}{
		{"ntile", dialect.PostgreSQL, Function{Kind: Ntile, N: 4}, "NTILE(4) OVER ()"},
		{"lead default offset", dialect.MySQL, Function{Kind: Lead, Field: "price"}, "LEAD(price, 1) OVER ()"},
		{"first value", dialect.SQLite, Function{Kind: FirstValue, Field: "price"}, "FIRST_VALUE(price) OVER ()"},
		{"nth value", dialect.PostgreSQL, Function{Kind: NthValue, Field: "price", N: 2}, "NTH_VALUE(price, 2) OVER ()"},
		{"count star", dialect.PostgreSQL, Function{Kind: Count}, "COUNT(*) OVER ()"},
		{"count field", dialect.PostgreSQL, Function{Kind: Count, Field: "id"}, "COUNT(id) OVER ()"},
		{"stddev sqlserver", dialect.SQLServer, Function{Kind: Stddev, Field: "price"}, "STDEV(price) OVER ()"},
		{"variance sqlserver", dialect.SQLServer, Function{Kind: Variance, Field: "price"}, "VAR(price) OVER ()"},
		{"variance postgres", dialect.PostgreSQL, Function{Kind: Variance, Field: "price"}, "VARIANCE(price) OVER ()"},
		{"percent rank", dialect.SQLite, Function{Kind: PercentRank}, "PERCENT_RANK() OVER ()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Generate(Plan{
				Table:   "t",
				Windows: []FunctionSpec{{Function: tt.function, Alias: "w"}},
			}, tt.dialect)
			require.NoError(t, err)
			assert.Contains(t, out.Text, tt.want)
		})
	}
}

func TestCompile_FunctionErrors(t *testing.T) {
	tests := []struct {
		name     string
		dialect  dialect.Dialect
		function Function
		feature  bool
	}{
		{"nth value on sqlserver", dialect.SQLServer, Function{Kind: NthValue, Field: "p", N: 1}, true},
		{"stddev on sqlite", dialect.SQLite, Function{Kind: Stddev, Field: "p"}, true},
		{"ntile without n", dialect.PostgreSQL, Function{Kind: Ntile}, false},
		{"sum without field", dialect.PostgreSQL, Function{Kind: Sum}, false},
		{"negative lag offset", dialect.PostgreSQL, Function{Kind: Lag, Field: "p", Offset: -1}, false},
		{"unknown", dialect.PostgreSQL, Function{Kind: "median", Field: "p"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(Plan{
				Table:   "t",
				Windows: []FunctionSpec{{Function: tt.function, Alias: "w"}},
			}, tt.dialect)
			require.Error(t, err)
			var featureErr *UnsupportedFeatureError
			var planErr *InvalidPlanError
			if tt.feature {
				assert.True(t, errors.As(err, &featureErr), "got %v", err)
			} else {
				assert.True(t, errors.As(err, &planErr), "got %v", err)
			}
		})
	}
}

func TestCompile_PlanValidation(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
	}{
		{"no table", Plan{Select: []SelectColumn{{Expression: "a"}}}},
		{"no columns", Plan{Table: "t"}},
		{"empty expression", Plan{Table: "t", Select: []SelectColumn{{Expression: " "}}}},
		{"bad select alias", Plan{Table: "t", Select: []SelectColumn{{Expression: "a", Alias: "x; DROP TABLE t"}}}},
		{"missing window alias", Plan{Table: "t", Windows: []FunctionSpec{{Function: Function{Kind: Rank}}}}},
		{"bad direction", Plan{Table: "t", Select: []SelectColumn{{Expression: "a"}}, OrderBy: []OrderBy{{Field: "a", Direction: "sideways"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Generate(tt.plan, dialect.PostgreSQL)
			var planErr *InvalidPlanError
			assert.True(t, errors.As(err, &planErr), "got %v", err)
			assert.Empty(t, out.Text)
		})
	}
}

func TestCompile_QuestionMarksInExpressions(t *testing.T) {
	out, err := Generate(Plan{
		Table:  "docs",
		Select: []SelectColumn{{Expression: "data ? 'vip'", Alias: "is_vip"}},
		Where:  filter.Eq("tier", "gold"),
	}, dialect.PostgreSQL)
	require.NoError(t, err)
	assert.Equal(t, `SELECT data ? 'vip' AS "is_vip" FROM docs WHERE data->>'tier' = $1`, out.Text)
}

func TestCompile_LimitStyles(t *testing.T) {
	base := Plan{Table: "t", Select: []SelectColumn{{Expression: "a"}}}

	limitOnly := base
	limitOnly.Limit = uint64Ptr(3)

	out, err := Generate(limitOnly, dialect.SQLServer)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 3 ROWS ONLY", out.Text)

	out, err = Generate(limitOnly, dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t LIMIT 3", out.Text)

	ordered := limitOnly
	ordered.OrderBy = []OrderBy{{Field: "a", Direction: Desc}}
	out, err = Generate(ordered, dialect.SQLServer)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t ORDER BY a DESC OFFSET 0 ROWS FETCH NEXT 3 ROWS ONLY", out.Text)
	assert.Equal(t, []any{}, out.Params)
}

func TestCompiler_Reusable(t *testing.T) {
	c, err := NewCompiler(dialect.MySQL)
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, c.Dialect())

	first, err := c.Compile(runningTotalPlan())
	require.NoError(t, err)
	second, err := c.Compile(runningTotalPlan())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewCompiler_UnknownDialect(t *testing.T) {
	_, err := NewCompiler(dialect.Dialect(42))
	assert.Error(t, err)
}
