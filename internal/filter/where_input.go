package filter

import (
	"fmt"
	"sort"
)

// FromWhereInput converts a GraphQL-style where argument into an Expression.
//
// The accepted shape is:
//
//	{"AND": [...], "OR": [...], "NOT": {...}, "<field>": {"<op>": value} | {"<field>": ...}}
//
// A field object whose keys are all operator names is an operator map;
// otherwise it addresses a nested JSON field. Extra lists operator names,
// beyond the built-in set, that a caller's generator knows how to compile.
// Keys are visited in sorted order so equal inputs give equal trees.
func FromWhereInput(where map[string]any, extra ...Operator) (Expression, error) {
	known := make(map[Operator]bool, len(extra))
	for _, op := range extra {
		known[op] = true
	}
	return buildWhere(where, nil, known)
}

func buildWhere(where map[string]any, prefix []string, extra map[Operator]bool) (Expression, error) {
	keys := make([]string, 0, len(where))
	for key := range where {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	exprs := make([]Expression, 0, len(keys))
	for _, key := range keys {
		value := where[key]
		switch key {
		case "AND", "OR":
			items, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%s must be an array", key)
			}
			children := make([]Expression, 0, len(items))
			for _, item := range items {
				itemMap, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%s array items must be objects", key)
				}
				child, err := buildWhere(itemMap, prefix, extra)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			if key == "AND" {
				exprs = append(exprs, And{Exprs: children})
			} else {
				exprs = append(exprs, Or{Exprs: children})
			}

		case "NOT":
			itemMap, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("NOT must be an object")
			}
			child, err := buildWhere(itemMap, prefix, extra)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, Not{Expr: child})

		default:
			if key == "" {
				return nil, fmt.Errorf("field name must not be empty")
			}
			fieldMap, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("filter for %s must be an object", key)
			}
			path := appendPath(prefix, key)
			if isOperatorMap(fieldMap, extra) {
				exprs = append(exprs, fieldConditions(path, fieldMap)...)
				continue
			}
			nested, err := buildWhere(fieldMap, path, extra)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, nested)
		}
	}

	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return And{Exprs: exprs}, nil
}

func isOperatorMap(m map[string]any, extra map[Operator]bool) bool {
	if len(m) == 0 {
		return false
	}
	for key := range m {
		op := Operator(key)
		if !op.IsBuiltin() && !extra[op] {
			return false
		}
	}
	return true
}

func fieldConditions(path []string, ops map[string]any) []Expression {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Expression, 0, len(names))
	for _, name := range names {
		out = append(out, Field{Path: path, Operator: Operator(name), Value: ops[name]})
	}
	return out
}

func appendPath(prefix []string, segment string) []string {
	path := make([]string, len(prefix), len(prefix)+1)
	copy(path, prefix)
	return append(path, segment)
}
