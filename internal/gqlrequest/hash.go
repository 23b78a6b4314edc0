package gqlrequest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/printer"
)

const anonymousOperationName = "<anonymous>"

// canonicalOperationAndHash prints the selected operation followed by the
// fragments it reaches, sorted by name, and hashes the result together with
// the operation name. Whitespace, comments and unrelated definitions do not
// affect the hash.
func canonicalOperationAndHash(op *ast.OperationDefinition, fragments map[string]*ast.FragmentDefinition) (string, string, error) {
	if op == nil {
		return "", "", fmt.Errorf("operation is nil")
	}

	reached := map[string]bool{}
	reachableFragments(op.SelectionSet, fragments, reached)
	names := make([]string, 0, len(reached))
	for name := range reached {
		names = append(names, name)
	}
	sort.Strings(names)

	definitions := make([]ast.Node, 0, 1+len(names))
	definitions = append(definitions, op)
	for _, name := range names {
		definitions = append(definitions, fragments[name])
	}

	printed, ok := printer.Print(ast.NewDocument(&ast.Document{Definitions: definitions})).(string)
	if !ok {
		return "", "", fmt.Errorf("failed to print canonical operation")
	}
	return printed, framedSHA256(printed, effectiveOperationName(op)), nil
}

// reachableFragments records every defined fragment reachable from set.
// Undefined spreads are ignored; they are scored by the cost walker.
func reachableFragments(set *ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, reached map[string]bool) {
	if set == nil {
		return
	}
	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			reachableFragments(sel.SelectionSet, fragments, reached)
		case *ast.InlineFragment:
			reachableFragments(sel.SelectionSet, fragments, reached)
		case *ast.FragmentSpread:
			if sel.Name == nil || reached[sel.Name.Value] {
				continue
			}
			fragment, ok := fragments[sel.Name.Value]
			if !ok || fragment == nil {
				continue
			}
			reached[sel.Name.Value] = true
			reachableFragments(fragment.SelectionSet, fragments, reached)
		}
	}
}

func effectiveOperationName(op *ast.OperationDefinition) string {
	if op == nil || op.Name == nil || op.Name.Value == "" {
		return anonymousOperationName
	}
	return op.Name.Value
}

// framedSHA256 length-prefixes each part so ("ab","c") and ("a","bc")
// hash differently.
func framedSHA256(parts ...string) string {
	hash := sha256.New()
	for _, part := range parts {
		_, _ = fmt.Fprintf(hash, "%d:%s|", len(part), part)
	}
	return hex.EncodeToString(hash.Sum(nil))
}
