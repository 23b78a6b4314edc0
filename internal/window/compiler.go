package window

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"gqlsql/internal/dialect"
	"gqlsql/internal/sqlutil"
	"gqlsql/internal/wheresql"
)

// Compiler builds window queries for one dialect. It is immutable and safe
// for concurrent use.
type Compiler struct {
	caps   dialect.Capabilities
	filter wheresql.Generator
}

// Option configures a Compiler.
type Option func(*compilerOptions)

type compilerOptions struct {
	filterOptions []wheresql.Option
}

// WithFilterOptions passes options to the generator that compiles
// Plan.Where.
func WithFilterOptions(opts ...wheresql.Option) Option {
	return func(o *compilerOptions) {
		o.filterOptions = append(o.filterOptions, opts...)
	}
}

// NewCompiler returns a compiler for d.
func NewCompiler(d dialect.Dialect, opts ...Option) (*Compiler, error) {
	caps, err := dialect.Lookup(d)
	if err != nil {
		return nil, err
	}
	var o compilerOptions
	for _, opt := range opts {
		opt(&o)
	}
	gen, err := wheresql.New(d, o.filterOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter generator: %w", err)
	}
	return &Compiler{caps: caps, filter: gen}, nil
}

// Generate compiles plan for d with default options.
func Generate(plan Plan, d dialect.Dialect) (SQL, error) {
	c, err := NewCompiler(d)
	if err != nil {
		return SQL{}, err
	}
	return c.Compile(plan)
}

// Dialect returns the target dialect.
func (c *Compiler) Dialect() dialect.Dialect {
	return c.caps.Dialect
}

// Compile builds the SELECT statement for plan.
func (c *Compiler) Compile(plan Plan) (SQL, error) {
	if strings.TrimSpace(plan.Table) == "" {
		return SQL{}, invalidPlan("table is required")
	}
	if len(plan.Select) == 0 && len(plan.Windows) == 0 {
		return SQL{}, invalidPlan("at least one select column or window function is required")
	}

	sb := sq.Select().PlaceholderFormat(c.caps.Placeholder)

	for i, col := range plan.Select {
		if strings.TrimSpace(col.Expression) == "" {
			return SQL{}, invalidPlan("select[%d]: expression is required", i)
		}
		expr := c.caps.Text(col.Expression)
		if col.Alias != "" {
			alias, err := c.alias(col.Alias)
			if err != nil {
				return SQL{}, fmt.Errorf("select[%d]: %w", i, err)
			}
			expr += " AS " + alias
		}
		sb = sb.Column(expr)
	}

	for i, spec := range plan.Windows {
		col, err := c.windowColumn(spec)
		if err != nil {
			return SQL{}, fmt.Errorf("windows[%d]: %w", i, err)
		}
		sb = sb.Column(col)
	}

	sb = sb.From(c.caps.Text(plan.Table))

	if plan.Where != nil {
		frag, err := c.filter.Generate(plan.Where)
		if err != nil {
			return SQL{}, fmt.Errorf("where: %w", err)
		}
		where, ok := frag.(wheresql.Parameterized)
		if !ok {
			return SQL{}, fmt.Errorf("where: unexpected fragment type %T", frag)
		}
		marked, _, err := where.ToSql()
		if err != nil {
			return SQL{}, fmt.Errorf("where: %w", err)
		}
		args, err := where.Args()
		if err != nil {
			return SQL{}, fmt.Errorf("where: %w", err)
		}
		sb = sb.Where(sq.Expr(marked, args...))
	}

	orderBy, err := c.orderBy(plan.OrderBy)
	if err != nil {
		return SQL{}, fmt.Errorf("order_by: %w", err)
	}
	if orderBy != "" {
		sb = sb.OrderBy(orderBy)
	}

	sb = c.limit(sb, plan, orderBy != "")

	text, args, err := sb.ToSql()
	if err != nil {
		return SQL{}, fmt.Errorf("failed to build window query: %w", err)
	}
	if args == nil {
		args = []any{}
	}
	return SQL{Text: text, Params: args}, nil
}

func (c *Compiler) alias(name string) (string, error) {
	if !sqlutil.IsPlainIdentifier(name) {
		return "", invalidPlan("alias %q must be a plain identifier", name)
	}
	return c.caps.Text(c.caps.QuoteIdentifier(name)), nil
}

func (c *Compiler) windowColumn(spec FunctionSpec) (sq.Sqlizer, error) {
	if spec.Alias == "" {
		return nil, invalidPlan("window function alias is required")
	}
	alias, err := c.alias(spec.Alias)
	if err != nil {
		return nil, err
	}

	call, args, err := c.functionCall(spec.Function)
	if err != nil {
		return nil, err
	}

	var over []string
	if len(spec.PartitionBy) > 0 {
		fields := make([]string, len(spec.PartitionBy))
		for i, field := range spec.PartitionBy {
			if strings.TrimSpace(field) == "" {
				return nil, invalidPlan("partition_by[%d] is empty", i)
			}
			fields[i] = c.caps.Text(field)
		}
		over = append(over, "PARTITION BY "+strings.Join(fields, ", "))
	}

	orderBy, err := c.orderBy(spec.OrderBy)
	if err != nil {
		return nil, err
	}
	if orderBy != "" {
		over = append(over, "ORDER BY "+orderBy)
	}

	if spec.Frame != nil {
		frame, err := frameClause(c.caps, *spec.Frame, len(spec.OrderBy))
		if err != nil {
			return nil, err
		}
		over = append(over, frame)
	}

	return sq.Expr(call+" OVER ("+strings.Join(over, " ")+") AS "+alias, args...), nil
}

var functionNames = map[FunctionKind]string{
	RowNumber:   "ROW_NUMBER",
	Rank:        "RANK",
	DenseRank:   "DENSE_RANK",
	Ntile:       "NTILE",
	PercentRank: "PERCENT_RANK",
	CumeDist:    "CUME_DIST",
	Lag:         "LAG",
	Lead:        "LEAD",
	FirstValue:  "FIRST_VALUE",
	LastValue:   "LAST_VALUE",
	NthValue:    "NTH_VALUE",
	Sum:         "SUM",
	Avg:         "AVG",
	Count:       "COUNT",
	Min:         "MIN",
	Max:         "MAX",
	Stddev:      "STDDEV",
	Variance:    "VARIANCE",
}

// functionCall renders the call and returns any bound arguments.
func (c *Compiler) functionCall(fn Function) (string, []any, error) {
	canonical, ok := functionNames[fn.Kind]
	if !ok {
		return "", nil, invalidPlan("unknown window function %q", fn.Kind)
	}
	if !c.caps.SupportsFunction(canonical) {
		return "", nil, &UnsupportedFeatureError{Feature: canonical, Dialect: c.caps.Dialect}
	}
	name := c.caps.FunctionName(canonical)
	field := c.caps.Text(fn.Field)

	requireField := func() error {
		if strings.TrimSpace(fn.Field) == "" {
			return invalidPlan("%s requires a field", canonical)
		}
		return nil
	}

	switch fn.Kind {
	case RowNumber, Rank, DenseRank, PercentRank, CumeDist:
		return name + "()", nil, nil

	case Ntile:
		if fn.N < 1 {
			return "", nil, invalidPlan("NTILE requires n >= 1")
		}
		return name + "(" + strconv.Itoa(fn.N) + ")", nil, nil

	case Lag, Lead:
		if err := requireField(); err != nil {
			return "", nil, err
		}
		if fn.Offset < 0 {
			return "", nil, invalidPlan("%s offset must not be negative", canonical)
		}
		offset := fn.Offset
		if offset == 0 {
			offset = 1
		}
		if fn.Default != nil {
			return name + "(" + field + ", " + strconv.Itoa(offset) + ", ?)", []any{fn.Default}, nil
		}
		return name + "(" + field + ", " + strconv.Itoa(offset) + ")", nil, nil

	case NthValue:
		if err := requireField(); err != nil {
			return "", nil, err
		}
		if fn.N < 1 {
			return "", nil, invalidPlan("NTH_VALUE requires n >= 1")
		}
		return name + "(" + field + ", " + strconv.Itoa(fn.N) + ")", nil, nil

	case Count:
		if strings.TrimSpace(fn.Field) == "" || fn.Field == "*" {
			return name + "(*)", nil, nil
		}
		return name + "(" + field + ")", nil, nil

	default:
		if err := requireField(); err != nil {
			return "", nil, err
		}
		return name + "(" + field + ")", nil, nil
	}
}

func (c *Compiler) orderBy(keys []OrderBy) (string, error) {
	parts := make([]string, 0, len(keys))
	for i, key := range keys {
		if strings.TrimSpace(key.Field) == "" {
			return "", invalidPlan("order_by[%d]: field is required", i)
		}
		var dir string
		switch key.Direction {
		case "", Asc:
			dir = "ASC"
		case Desc:
			dir = "DESC"
		default:
			return "", invalidPlan("order_by[%d]: unknown direction %q", i, key.Direction)
		}
		parts = append(parts, c.caps.Text(key.Field)+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// limit applies the outer LIMIT/OFFSET in the dialect's style.
func (c *Compiler) limit(sb sq.SelectBuilder, plan Plan, ordered bool) sq.SelectBuilder {
	if plan.Limit == nil && plan.Offset == nil {
		return sb
	}

	if c.caps.LimitStyle == dialect.OffsetFetch {
		if !ordered {
			sb = sb.OrderBy("(SELECT NULL)")
		}
		var offset uint64
		if plan.Offset != nil {
			offset = *plan.Offset
		}
		suffix := "OFFSET " + strconv.FormatUint(offset, 10) + " ROWS"
		if plan.Limit != nil {
			suffix += " FETCH NEXT " + strconv.FormatUint(*plan.Limit, 10) + " ROWS ONLY"
		}
		return sb.Suffix(suffix)
	}

	if plan.Limit == nil && c.caps.MaxLimit != "" {
		return sb.Suffix("LIMIT " + c.caps.MaxLimit + " OFFSET " + strconv.FormatUint(*plan.Offset, 10))
	}
	if plan.Limit != nil {
		sb = sb.Limit(*plan.Limit)
	}
	if plan.Offset != nil {
		sb = sb.Offset(*plan.Offset)
	}
	return sb
}
