// Package window compiles window-function execution plans into complete
// SELECT statements for each supported dialect.
//
// Plan text fields (table, expressions, partition and order fields) are
// schema-derived and trusted; they are placed verbatim. Caller values reach
// the statement only through the optional Where filter and LAG/LEAD
// defaults, both of which are bound as parameters.
package window

import "gqlsql/internal/filter"

// Plan describes one window query.
type Plan struct {
	Table   string            `mapstructure:"table"`
	Select  []SelectColumn    `mapstructure:"select"`
	Windows []FunctionSpec    `mapstructure:"windows"`
	Where   filter.Expression `mapstructure:"-"`
	OrderBy []OrderBy         `mapstructure:"order_by"`
	Limit   *uint64           `mapstructure:"limit"`
	Offset  *uint64           `mapstructure:"offset"`
}

// SelectColumn is a plain projected expression.
type SelectColumn struct {
	Expression string `mapstructure:"expression"`
	Alias      string `mapstructure:"alias"`
}

// FunctionSpec is one windowed function call and its OVER clause.
type FunctionSpec struct {
	Function    Function  `mapstructure:"function"`
	Alias       string    `mapstructure:"alias"`
	PartitionBy []string  `mapstructure:"partition_by"`
	OrderBy     []OrderBy `mapstructure:"order_by"`
	Frame       *Frame    `mapstructure:"frame"`
}

// FunctionKind names a window function.
type FunctionKind string

const (
	RowNumber   FunctionKind = "row_number"
	Rank        FunctionKind = "rank"
	DenseRank   FunctionKind = "dense_rank"
	Ntile       FunctionKind = "ntile"
	PercentRank FunctionKind = "percent_rank"
	CumeDist    FunctionKind = "cume_dist"

	Lag  FunctionKind = "lag"
	Lead FunctionKind = "lead"

	FirstValue FunctionKind = "first_value"
	LastValue  FunctionKind = "last_value"
	NthValue   FunctionKind = "nth_value"

	Sum      FunctionKind = "sum"
	Avg      FunctionKind = "avg"
	Count    FunctionKind = "count"
	Min      FunctionKind = "min"
	Max      FunctionKind = "max"
	Stddev   FunctionKind = "stddev"
	Variance FunctionKind = "variance"
)

// Function is the call inside a FunctionSpec. Field is required for the
// offset, value and aggregate families except COUNT, where an empty field
// or "*" counts rows. Offset applies to LAG/LEAD (0 means 1); N to NTILE
// and NTH_VALUE. Default is the LAG/LEAD fallback value and is bound as a
// parameter.
type Function struct {
	Kind    FunctionKind `mapstructure:"kind"`
	Field   string       `mapstructure:"field"`
	Offset  int          `mapstructure:"offset"`
	Default any          `mapstructure:"default"`
	N       int          `mapstructure:"n"`
}

// Direction is a sort direction; the zero value sorts ascending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderBy is one sort key.
type OrderBy struct {
	Field     string    `mapstructure:"field"`
	Direction Direction `mapstructure:"direction"`
}

// FrameType selects how frame offsets are measured.
type FrameType string

const (
	Rows   FrameType = "rows"
	Range  FrameType = "range"
	Groups FrameType = "groups"
)

// BoundKind is one end of a frame.
type BoundKind string

const (
	UnboundedPreceding BoundKind = "unbounded_preceding"
	NPreceding         BoundKind = "n_preceding"
	CurrentRow         BoundKind = "current_row"
	NFollowing         BoundKind = "n_following"
	UnboundedFollowing BoundKind = "unbounded_following"
)

// Bound is a frame boundary. N is only used by NPreceding and NFollowing.
type Bound struct {
	Kind BoundKind `mapstructure:"kind"`
	N    uint64    `mapstructure:"n"`
}

// Exclusion is a frame exclusion clause.
type Exclusion string

const (
	ExcludeCurrentRow Exclusion = "current_row"
	ExcludeGroup      Exclusion = "group"
	ExcludeTies       Exclusion = "ties"
	ExcludeNoOthers   Exclusion = "no_others"
)

// Frame is the frame clause of an OVER clause.
type Frame struct {
	Type      FrameType  `mapstructure:"type"`
	Start     Bound      `mapstructure:"start"`
	End       Bound      `mapstructure:"end"`
	Exclusion *Exclusion `mapstructure:"exclusion"`
}

// Preceding returns an n PRECEDING bound.
func Preceding(n uint64) Bound { return Bound{Kind: NPreceding, N: n} }

// Following returns an n FOLLOWING bound.
func Following(n uint64) Bound { return Bound{Kind: NFollowing, N: n} }

// SQL is a compiled window query.
type SQL struct {
	Text   string
	Params []any
}
