package gqlrequest

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/graphql-go/graphql/language/ast"
)

// Cost holds the metrics computed for a selection tree after fragment
// expansion.
type Cost struct {
	Depth      int
	Complexity int
	Fields     int

	// chain is the longest run of nested fragment spreads below the node.
	chain int
}

var paginationArguments = map[string]bool{
	"first": true,
	"last":  true,
	"limit": true,
	"take":  true,
}

// costWalker evaluates one operation. Fragment results do not depend on
// where the spread appears, so they are computed once and reused.
type costWalker struct {
	cfg       ValidatorConfig
	fragments map[string]*ast.FragmentDefinition
	variables map[string]any
	defaults  map[string]ast.Value

	memo     map[string]Cost
	inFlight map[string]bool
}

func newCostWalker(cfg ValidatorConfig, op *ast.OperationDefinition, fragments map[string]*ast.FragmentDefinition, variables map[string]any) *costWalker {
	defaults := map[string]ast.Value{}
	for _, def := range op.VariableDefinitions {
		if def == nil || def.Variable == nil || def.Variable.Name == nil || def.DefaultValue == nil {
			continue
		}
		defaults[def.Variable.Name.Value] = def.DefaultValue
	}
	return &costWalker{
		cfg:       cfg,
		fragments: fragments,
		variables: variables,
		defaults:  defaults,
		memo:      map[string]Cost{},
		inFlight:  map[string]bool{},
	}
}

// selectionSet sums complexity and field counts and keeps the deepest
// branch. spreads is the number of fragment spreads entered above set.
func (w *costWalker) selectionSet(set *ast.SelectionSet, spreads int) (Cost, error) {
	var total Cost
	if set == nil {
		return total, nil
	}
	for _, selection := range set.Selections {
		var (
			c   Cost
			err error
		)
		switch sel := selection.(type) {
		case *ast.Field:
			if skipped(sel.Directives) {
				continue
			}
			c, err = w.field(sel, spreads)
		case *ast.InlineFragment:
			if skipped(sel.Directives) {
				continue
			}
			c, err = w.selectionSet(sel.SelectionSet, spreads)
		case *ast.FragmentSpread:
			if skipped(sel.Directives) {
				continue
			}
			c, err = w.spread(sel, spreads)
		}
		if err != nil {
			return Cost{}, err
		}
		total.Depth = max(total.Depth, c.Depth)
		total.chain = max(total.chain, c.chain)
		total.Complexity = saturatingAdd(total.Complexity, c.Complexity)
		total.Fields = saturatingAdd(total.Fields, c.Fields)
	}
	return total, nil
}

func (w *costWalker) field(f *ast.Field, spreads int) (Cost, error) {
	base := 1
	if f.Name != nil {
		if override, ok := w.cfg.FieldCostOverrides[f.Name.Value]; ok {
			base = override
		}
	}

	if f.SelectionSet == nil || len(f.SelectionSet.Selections) == 0 {
		return Cost{Depth: 1, Complexity: base, Fields: 1}, nil
	}

	nested, err := w.selectionSet(f.SelectionSet, spreads)
	if err != nil {
		return Cost{}, err
	}
	return Cost{
		Depth:      1 + nested.Depth,
		Complexity: saturatingAdd(base, saturatingMul(nested.Complexity, w.multiplier(f.Arguments))),
		Fields:     saturatingAdd(1, nested.Fields),
		chain:      nested.chain,
	}, nil
}

func (w *costWalker) spread(s *ast.FragmentSpread, spreads int) (Cost, error) {
	name := ""
	if s.Name != nil {
		name = s.Name.Value
	}
	fragment, ok := w.fragments[name]
	if !ok || fragment == nil {
		return Cost{Complexity: w.cfg.UnknownFragmentCost}, nil
	}

	limit := w.cfg.FragmentRecursionLimit
	if spreads+1 > limit || w.inFlight[name] {
		return Cost{}, &QueryTooDeepError{FragmentLimit: true, RecursionLimit: limit, Fragment: name}
	}

	c, ok := w.memo[name]
	if !ok {
		w.inFlight[name] = true
		inner, err := w.selectionSet(fragment.SelectionSet, spreads+1)
		delete(w.inFlight, name)
		if err != nil {
			return Cost{}, err
		}
		inner.chain++
		c = inner
		w.memo[name] = c
	}
	if spreads+c.chain > limit {
		return Cost{}, &QueryTooDeepError{FragmentLimit: true, RecursionLimit: limit, Fragment: name}
	}
	return c, nil
}

// multiplier reads pagination arguments and clamps the largest to
// [1, MaxMultiplier]. Values that cannot be resolved count as the ceiling.
func (w *costWalker) multiplier(args []*ast.Argument) int {
	ceiling := w.cfg.MaxMultiplier
	m := 1
	for _, arg := range args {
		if arg == nil || arg.Name == nil || !paginationArguments[arg.Name.Value] {
			continue
		}
		m = max(m, w.argumentValue(arg.Value, ceiling))
	}
	return min(max(m, 1), ceiling)
}

func (w *costWalker) argumentValue(value ast.Value, ceiling int) int {
	switch v := value.(type) {
	case *ast.IntValue:
		n, err := strconv.Atoi(v.Value)
		if err != nil {
			return ceiling
		}
		return n
	case *ast.Variable:
		if v.Name == nil {
			return ceiling
		}
		if raw, ok := w.variables[v.Name.Value]; ok {
			return numericValue(raw, ceiling)
		}
		if def, ok := w.defaults[v.Name.Value]; ok {
			if _, isVar := def.(*ast.Variable); !isVar {
				return w.argumentValue(def, ceiling)
			}
		}
		return ceiling
	default:
		return ceiling
	}
}

func numericValue(raw any, ceiling int) int {
	var f float64
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			f = float64(n)
			break
		}
		parsed, err := v.Float64()
		if err != nil {
			return ceiling
		}
		f = parsed
	case float64:
		f = v
	case int:
		return v
	case int64:
		f = float64(v)
	default:
		return ceiling
	}
	if math.IsNaN(f) || f > float64(math.MaxInt32) {
		return ceiling
	}
	return int(math.Ceil(f))
}

// skipped reports whether literal @skip or @include arguments remove the
// selection. Variable-driven directives keep it.
func skipped(directives []*ast.Directive) bool {
	for _, d := range directives {
		if d == nil || d.Name == nil {
			continue
		}
		cond, ok := literalIf(d.Arguments)
		if !ok {
			continue
		}
		switch d.Name.Value {
		case "skip":
			if cond {
				return true
			}
		case "include":
			if !cond {
				return true
			}
		}
	}
	return false
}

func literalIf(args []*ast.Argument) (bool, bool) {
	for _, arg := range args {
		if arg == nil || arg.Name == nil || arg.Name.Value != "if" {
			continue
		}
		b, ok := arg.Value.(*ast.BooleanValue)
		if !ok {
			return false, false
		}
		return b.Value, true
	}
	return false, false
}

func saturatingAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func saturatingMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}
