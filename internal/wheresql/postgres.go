package wheresql

import (
	"strings"

	"gqlsql/internal/filter"
)

// Operators below are only reachable on PostgreSQL; the capability table
// gates their groups.

var vectorOps = map[filter.Operator]string{
	filter.OpCosineDistance:  "<=>",
	filter.OpL2Distance:      "<->",
	filter.OpL1Distance:      "<+>",
	filter.OpInnerProduct:    "<#>",
	filter.OpHammingDistance: "<~>",
	filter.OpJaccardDistance: "<%>",
}

// vector compares a pgvector distance against a threshold. The value is
// {"vector": [...], "threshold": n}; hamming and jaccard take a bit string.
func (g *placeholderGenerator) vector(s *state, f filter.Field, acc string) (string, error) {
	obj, ok := filter.AsObject(f.Value)
	if !ok {
		return "", invalidValue(f, `an object with "vector" and "threshold"`)
	}
	threshold, ok := obj["threshold"]
	if !ok || !filter.IsNumber(threshold) {
		return "", invalidValue(f, "a numeric threshold")
	}

	cast := "vector"
	vec := obj["vector"]
	switch f.Operator {
	case filter.OpHammingDistance, filter.OpJaccardDistance:
		bits, ok := filter.AsString(vec)
		if !ok || strings.Trim(bits, "01") != "" {
			return "", invalidValue(f, "a bit string vector")
		}
		cast = "varbit"
	default:
		items, ok := filter.AsArray(vec)
		if !ok || len(items) == 0 {
			return "", invalidValue(f, "a non-empty numeric vector")
		}
		for _, item := range items {
			if !filter.IsNumber(item) {
				return "", invalidValue(f, "a non-empty numeric vector")
			}
		}
	}

	return "((" + acc + ")::" + cast + " " + vectorOps[f.Operator] + " (" + s.bind(vec) + ")::" + cast + ") < " +
		s.bind(threshold), nil
}

var tsqueryFuncs = map[filter.Operator]string{
	filter.OpMatches:        "to_tsquery",
	filter.OpPlainQuery:     "plainto_tsquery",
	filter.OpPhraseQuery:    "phraseto_tsquery",
	filter.OpWebsearchQuery: "websearch_to_tsquery",
}

func (g *placeholderGenerator) fullText(s *state, f filter.Field, acc string) (string, error) {
	query, ok := filter.AsString(f.Value)
	if !ok {
		return "", invalidValue(f, "a string")
	}
	return "to_tsvector(" + acc + ") @@ " + tsqueryFuncs[f.Operator] + "(" + s.bind(query) + ")", nil
}

var (
	privateNetworks  = []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "169.254.0.0/16", "fc00::/7", "fe80::/10"}
	loopbackNetworks = []string{"127.0.0.0/8", "::1/128"}
)

var networkOps = map[filter.Operator]string{
	filter.OpInSubnet:        "<<",
	filter.OpContainsSubnet:  ">>",
	filter.OpContainsIP:      ">>=",
	filter.OpIPRangeOverlaps: "&&",
}

func (g *placeholderGenerator) network(s *state, f filter.Field, acc string) (string, error) {
	inet := "(" + acc + ")::inet"

	if op, ok := networkOps[f.Operator]; ok {
		v, ok := filter.AsString(f.Value)
		if !ok || v == "" {
			return "", invalidValue(f, "an address or CIDR string")
		}
		return inet + " " + op + " (" + s.bind(v) + ")::inet", nil
	}

	want := true
	if f.Value != nil {
		b, ok := filter.AsBool(f.Value)
		if !ok {
			return "", invalidValue(f, "a boolean")
		}
		want = b
	}

	var pred string
	switch f.Operator {
	case filter.OpIsIPv4:
		pred = "family(" + inet + ") = 4"
	case filter.OpIsIPv6:
		pred = "family(" + inet + ") = 6"
	case filter.OpIsPrivate:
		pred = withinAny(inet, privateNetworks)
	case filter.OpIsPublic:
		pred = "NOT " + withinAny(inet, privateNetworks)
	case filter.OpIsLoopback:
		pred = withinAny(inet, loopbackNetworks)
	default:
		return "", unsupported(g.name(), f.Operator, "")
	}
	if !want {
		return "NOT (" + pred + ")", nil
	}
	return pred, nil
}

func withinAny(inet string, networks []string) string {
	parts := make([]string, len(networks))
	for i, network := range networks {
		parts[i] = inet + " <<= '" + network + "'::inet"
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// ltreeOps maps an operator to its SQL operator and operand type.
var ltreeOps = map[filter.Operator][2]string{
	filter.OpAncestorOf:       {"@>", "ltree"},
	filter.OpDescendantOf:     {"<@", "ltree"},
	filter.OpMatchesLquery:    {"~", "lquery"},
	filter.OpMatchesLtxtquery: {"@", "ltxtquery"},
}

func (g *placeholderGenerator) hierarchy(s *state, f filter.Field, acc string) (string, error) {
	ltree := "(" + acc + ")::ltree"

	if op, ok := depthOps[f.Operator]; ok {
		n, ok := filter.AsInt(f.Value)
		if !ok || n < 0 {
			return "", invalidValue(f, "a non-negative integer")
		}
		return "nlevel(" + ltree + ") " + op + " " + s.bind(n), nil
	}

	if op, ok := ltreeOps[f.Operator]; ok {
		v, ok := filter.AsString(f.Value)
		if !ok {
			return "", invalidValue(f, "a string")
		}
		return ltree + " " + op[0] + " (" + s.bind(v) + ")::" + op[1], nil
	}

	items, ok := filter.AsArray(f.Value)
	if !ok || len(items) == 0 {
		return "", invalidValue(f, "a non-empty array of strings")
	}
	for _, item := range items {
		if _, ok := filter.AsString(item); !ok {
			return "", invalidValue(f, "a non-empty array of strings")
		}
	}
	elements := "ARRAY(SELECT jsonb_array_elements_text((" + s.bind(items) + ")::jsonb))"

	switch f.Operator {
	case filter.OpMatchesAnyLquery:
		// ?? is the ltree "matches any lquery" operator once markers are numbered.
		return ltree + " ?? " + elements + "::lquery[]", nil
	case filter.OpLca:
		return ltree + " = lca(" + elements + "::ltree[])", nil
	}
	return "", unsupported(g.name(), f.Operator, "")
}
