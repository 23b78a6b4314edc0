package gqlrequest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

// Analysis stores parsed and derived GraphQL request metadata.
type Analysis struct {
	Envelope               Envelope
	RequestedOperationName string

	Document  *ast.Document
	Fragments map[string]*ast.FragmentDefinition
	Operation *ast.OperationDefinition
	Variables map[string]any

	OperationName string
	OperationType string

	FieldCount     int
	SelectionDepth int
	Complexity     int
	VariableCount  int
	FragmentCount  int

	CanonicalOperation string
	OperationHash      string

	DecodeError     error
	VariablesError  error
	ParseError      error
	SelectionError  error
	CostError       error
	CanonicalizeErr error
}

// AnalyzeRequest decodes and analyzes a GraphQL HTTP request with the
// default configuration.
func AnalyzeRequest(r *http.Request) *Analysis {
	envelope, err := DecodeEnvelope(r)
	analysis := AnalyzeEnvelope(envelope)
	if err != nil {
		analysis.DecodeError = err
	}
	return analysis
}

// AnalyzeEnvelope analyzes env with the default configuration.
func AnalyzeEnvelope(env Envelope) *Analysis {
	return NewValidator(DefaultValidatorConfig()).Analyze(env)
}

func newAnalysis(env Envelope) *Analysis {
	return &Analysis{
		Envelope:               env,
		RequestedOperationName: env.OperationName,
		Fragments:              map[string]*ast.FragmentDefinition{},
	}
}

// Analyze parses env and computes its metrics without enforcing any
// budget. Problems are recorded on the returned Analysis.
func (v *Validator) Analyze(env Envelope) *Analysis {
	analysis := newAnalysis(env)

	variables, err := decodeVariables(env.VariablesRaw)
	if err != nil {
		analysis.VariablesError = err
		return analysis
	}
	analysis.Variables = variables

	if strings.TrimSpace(env.Query) == "" {
		return analysis
	}

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{
			Body: []byte(env.Query),
			Name: "graphql",
		}),
	})
	if err != nil {
		analysis.ParseError = err
		return analysis
	}

	analysis.Document = doc
	analysis.Fragments = buildFragmentMap(doc)
	analysis.FragmentCount = countFragmentDefinitions(doc)

	op, selectionErr := selectOperation(doc, env.OperationName)
	if selectionErr != nil {
		analysis.SelectionError = selectionErr
		return analysis
	}
	if op == nil {
		analysis.SelectionError = fmt.Errorf("no operation selected")
		return analysis
	}

	analysis.Operation = op
	analysis.OperationName = effectiveOperationName(op)
	analysis.OperationType = string(op.Operation)
	analysis.VariableCount = len(op.VariableDefinitions)

	cost, err := newCostWalker(v.cfg, op, analysis.Fragments, variables).selectionSet(op.SelectionSet, 0)
	if err != nil {
		analysis.CostError = err
		return analysis
	}
	analysis.FieldCount = cost.Fields
	analysis.SelectionDepth = cost.Depth
	analysis.Complexity = saturatingAdd(
		cost.Complexity,
		saturatingAdd(
			saturatingMul(analysis.VariableCount, v.cfg.VariablePenalty),
			saturatingMul(analysis.FragmentCount, v.cfg.FragmentPenalty),
		),
	)

	canonical, hash, canonicalErr := canonicalOperationAndHash(op, analysis.Fragments)
	if canonicalErr != nil {
		analysis.CanonicalizeErr = canonicalErr
		return analysis
	}
	analysis.CanonicalOperation = canonical
	analysis.OperationHash = hash

	return analysis
}

func decodeVariables(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("variables must be a JSON object")
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var variables map[string]any
	if err := decoder.Decode(&variables); err != nil {
		return nil, fmt.Errorf("failed to decode variables: %w", err)
	}
	return variables, nil
}

func buildFragmentMap(doc *ast.Document) map[string]*ast.FragmentDefinition {
	fragments := map[string]*ast.FragmentDefinition{}
	if doc == nil {
		return fragments
	}
	for _, def := range doc.Definitions {
		fragment, ok := def.(*ast.FragmentDefinition)
		if !ok || fragment == nil || fragment.Name == nil || fragment.Name.Value == "" {
			continue
		}
		fragments[fragment.Name.Value] = fragment
	}
	return fragments
}

func countFragmentDefinitions(doc *ast.Document) int {
	count := 0
	for _, def := range doc.Definitions {
		if _, ok := def.(*ast.FragmentDefinition); ok {
			count++
		}
	}
	return count
}

func selectOperation(doc *ast.Document, operationName string) (*ast.OperationDefinition, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	operations := make([]*ast.OperationDefinition, 0)
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if ok && op != nil {
			operations = append(operations, op)
		}
	}

	if operationName != "" {
		for _, op := range operations {
			if op.Name != nil && op.Name.Value == operationName {
				return op, nil
			}
		}
		return nil, fmt.Errorf("unknown operation named %q", operationName)
	}

	if len(operations) == 1 {
		return operations[0], nil
	}
	if len(operations) == 0 {
		return nil, fmt.Errorf("request does not include an operation")
	}
	return nil, fmt.Errorf("operationName is required when request has multiple operations")
}
