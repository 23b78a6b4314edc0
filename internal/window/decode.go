package window

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"gqlsql/internal/filter"
)

// DecodePlan reads a plan from a YAML or JSON document. The optional
// "where" key uses the where-input shape accepted by filter.FromWhereInput.
//
// Enum values are case-insensitive. Bounds are written either as a kind
// ("current_row") or as a single-key object ({"n_preceding": 3}); a
// function may be written as a bare kind ("row_number").
func DecodePlan(data []byte) (Plan, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Plan{}, fmt.Errorf("failed to parse window plan: %w", err)
	}
	if raw == nil {
		return Plan{}, invalidPlan("document is empty")
	}

	var where filter.Expression
	if w, ok := raw["where"]; ok {
		delete(raw, "where")
		whereMap, ok := w.(map[string]any)
		if !ok {
			return Plan{}, invalidPlan("where must be an object")
		}
		expr, err := filter.FromWhereInput(whereMap)
		if err != nil {
			return Plan{}, fmt.Errorf("where: %w", err)
		}
		where = expr
	}

	var plan Plan
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &plan,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			functionHook,
			boundHook,
			enumHook,
		),
	})
	if err != nil {
		return Plan{}, fmt.Errorf("failed to create plan decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Plan{}, fmt.Errorf("failed to decode window plan: %w", err)
	}
	plan.Where = where
	return plan, nil
}

var (
	functionKindType = reflect.TypeOf(FunctionKind(""))
	directionType    = reflect.TypeOf(Direction(""))
	frameTypeType    = reflect.TypeOf(FrameType(""))
	boundKindType    = reflect.TypeOf(BoundKind(""))
	exclusionType    = reflect.TypeOf(Exclusion(""))
	functionType     = reflect.TypeOf(Function{})
	boundType        = reflect.TypeOf(Bound{})
)

var enumValues = map[reflect.Type][]string{
	functionKindType: keysOf(functionNames),
	directionType:    {string(Asc), string(Desc)},
	frameTypeType:    {string(Rows), string(Range), string(Groups)},
	boundKindType: {
		string(UnboundedPreceding), string(NPreceding), string(CurrentRow),
		string(NFollowing), string(UnboundedFollowing),
	},
	exclusionType: {
		string(ExcludeCurrentRow), string(ExcludeGroup), string(ExcludeTies), string(ExcludeNoOthers),
	},
}

var enumLabels = map[reflect.Type]string{
	functionKindType: "window function",
	directionType:    "sort direction",
	frameTypeType:    "frame type",
	boundKindType:    "frame bound",
	exclusionType:    "frame exclusion",
}

func keysOf(m map[FunctionKind]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	return keys
}

// enumHook normalizes and validates enum names.
func enumHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	allowed, ok := enumValues[to]
	if !ok {
		return data, nil
	}
	value := strings.ToLower(strings.TrimSpace(reflect.ValueOf(data).String()))
	for _, candidate := range allowed {
		if value == candidate {
			return value, nil
		}
	}
	return nil, fmt.Errorf("unknown %s %q", enumLabels[to], value)
}

// functionHook expands a bare function kind into an object.
func functionHook(from, to reflect.Type, data any) (any, error) {
	if to != functionType || from.Kind() != reflect.String {
		return data, nil
	}
	return map[string]any{"kind": data}, nil
}

// boundHook expands "current_row" and {"n_preceding": 3} into the Bound
// object shape.
func boundHook(from, to reflect.Type, data any) (any, error) {
	if to != boundType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return map[string]any{"kind": v}, nil
	case map[string]any:
		if _, ok := v["kind"]; ok || len(v) != 1 {
			return data, nil
		}
		for kind, n := range v {
			return map[string]any{"kind": kind, "n": n}, nil
		}
	}
	return data, nil
}
