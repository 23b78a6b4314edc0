package filter

import "sort"

// Operator names a predicate applied to a Field.
type Operator string

// Comparison operators.
const (
	OpEq  Operator = "eq"
	OpNeq Operator = "neq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// Containment operators.
const (
	OpIn  Operator = "in"
	OpNin Operator = "nin"
)

// String matching operators.
const (
	OpContains    Operator = "contains"
	OpIContains   Operator = "icontains"
	OpStartsWith  Operator = "startswith"
	OpIStartsWith Operator = "istartswith"
	OpEndsWith    Operator = "endswith"
	OpIEndsWith   Operator = "iendswith"
	OpLike        Operator = "like"
	OpILike       Operator = "ilike"
)

// OpIsNull selects IS NULL for true and IS NOT NULL for false.
const OpIsNull Operator = "isnull"

// Array operators.
const (
	OpArrayContains    Operator = "array_contains"
	OpArrayContainedBy Operator = "array_contained_by"
	OpArrayOverlaps    Operator = "array_overlaps"
	OpStrictlyContains Operator = "strictly_contains"
	OpLenEq            Operator = "len_eq"
	OpLenNeq           Operator = "len_neq"
	OpLenGt            Operator = "len_gt"
	OpLenGte           Operator = "len_gte"
	OpLenLt            Operator = "len_lt"
	OpLenLte           Operator = "len_lte"
)

// Vector distance operators.
const (
	OpCosineDistance  Operator = "cosine_distance"
	OpL1Distance      Operator = "l1_distance"
	OpL2Distance      Operator = "l2_distance"
	OpHammingDistance Operator = "hamming_distance"
	OpInnerProduct    Operator = "inner_product"
	OpJaccardDistance Operator = "jaccard_distance"
)

// Full-text operators.
const (
	OpMatches        Operator = "matches"
	OpPlainQuery     Operator = "plain_query"
	OpPhraseQuery    Operator = "phrase_query"
	OpWebsearchQuery Operator = "websearch_query"
)

// Network operators.
const (
	OpIsIPv4          Operator = "is_ipv4"
	OpIsIPv6          Operator = "is_ipv6"
	OpIsPrivate       Operator = "is_private"
	OpIsPublic        Operator = "is_public"
	OpIsLoopback      Operator = "is_loopback"
	OpInSubnet        Operator = "in_subnet"
	OpContainsSubnet  Operator = "contains_subnet"
	OpContainsIP      Operator = "contains_ip"
	OpIPRangeOverlaps Operator = "ip_overlaps"
)

// Hierarchical (ltree) operators.
const (
	OpAncestorOf       Operator = "ancestor_of"
	OpDescendantOf     Operator = "descendant_of"
	OpMatchesLquery    Operator = "matches_lquery"
	OpMatchesLtxtquery Operator = "matches_ltxtquery"
	OpMatchesAnyLquery Operator = "matches_any_lquery"
	OpDepthEq          Operator = "depth_eq"
	OpDepthNeq         Operator = "depth_neq"
	OpDepthGt          Operator = "depth_gt"
	OpDepthGte         Operator = "depth_gte"
	OpDepthLt          Operator = "depth_lt"
	OpDepthLte         Operator = "depth_lte"
	OpLca              Operator = "lca"
)

// Built-in extended operators. Generators may register more.
const (
	OpEmailDomainEq            Operator = "email_domain_eq"
	OpEmailDomainIn            Operator = "email_domain_in"
	OpEmailDomainEndsWith      Operator = "email_domain_endswith"
	OpEmailLocalPartStartsWith Operator = "email_local_part_startswith"
	OpVinWmiEq                 Operator = "vin_wmi_eq"
	OpIbanCountryEq            Operator = "iban_country_eq"
)

// Group classifies operators by the capability a generator needs to
// compile them.
type Group int

const (
	GroupComparison Group = iota + 1
	GroupContainment
	GroupString
	GroupNull
	GroupArray
	GroupVector
	GroupFullText
	GroupNetwork
	GroupHierarchy
	GroupExtended
)

var groupNames = map[Group]string{
	GroupComparison:  "comparison",
	GroupContainment: "containment",
	GroupString:      "string",
	GroupNull:        "null",
	GroupArray:       "array",
	GroupVector:      "vector",
	GroupFullText:    "fulltext",
	GroupNetwork:     "network",
	GroupHierarchy:   "hierarchy",
	GroupExtended:    "extended",
}

func (g Group) String() string {
	if name, ok := groupNames[g]; ok {
		return name
	}
	return "unknown"
}

var operatorGroups = map[Operator]Group{
	OpEq: GroupComparison, OpNeq: GroupComparison,
	OpGt: GroupComparison, OpGte: GroupComparison,
	OpLt: GroupComparison, OpLte: GroupComparison,

	OpIn: GroupContainment, OpNin: GroupContainment,

	OpContains: GroupString, OpIContains: GroupString,
	OpStartsWith: GroupString, OpIStartsWith: GroupString,
	OpEndsWith: GroupString, OpIEndsWith: GroupString,
	OpLike: GroupString, OpILike: GroupString,

	OpIsNull: GroupNull,

	OpArrayContains: GroupArray, OpArrayContainedBy: GroupArray,
	OpArrayOverlaps: GroupArray, OpStrictlyContains: GroupArray,
	OpLenEq: GroupArray, OpLenNeq: GroupArray,
	OpLenGt: GroupArray, OpLenGte: GroupArray,
	OpLenLt: GroupArray, OpLenLte: GroupArray,

	OpCosineDistance: GroupVector, OpL1Distance: GroupVector,
	OpL2Distance: GroupVector, OpHammingDistance: GroupVector,
	OpInnerProduct: GroupVector, OpJaccardDistance: GroupVector,

	OpMatches: GroupFullText, OpPlainQuery: GroupFullText,
	OpPhraseQuery: GroupFullText, OpWebsearchQuery: GroupFullText,

	OpIsIPv4: GroupNetwork, OpIsIPv6: GroupNetwork,
	OpIsPrivate: GroupNetwork, OpIsPublic: GroupNetwork,
	OpIsLoopback: GroupNetwork, OpInSubnet: GroupNetwork,
	OpContainsSubnet: GroupNetwork, OpContainsIP: GroupNetwork,
	OpIPRangeOverlaps: GroupNetwork,

	OpAncestorOf: GroupHierarchy, OpDescendantOf: GroupHierarchy,
	OpMatchesLquery: GroupHierarchy, OpMatchesLtxtquery: GroupHierarchy,
	OpMatchesAnyLquery: GroupHierarchy,
	OpDepthEq: GroupHierarchy, OpDepthNeq: GroupHierarchy,
	OpDepthGt: GroupHierarchy, OpDepthGte: GroupHierarchy,
	OpDepthLt: GroupHierarchy, OpDepthLte: GroupHierarchy,
	OpLca: GroupHierarchy,

	OpEmailDomainEq: GroupExtended, OpEmailDomainIn: GroupExtended,
	OpEmailDomainEndsWith: GroupExtended, OpEmailLocalPartStartsWith: GroupExtended,
	OpVinWmiEq: GroupExtended, OpIbanCountryEq: GroupExtended,
}

// Group reports the capability group of the operator. Names outside the
// built-in table are extended operators.
func (o Operator) Group() Group {
	if g, ok := operatorGroups[o]; ok {
		return g
	}
	return GroupExtended
}

// IsBuiltin reports whether the operator is one of the predefined names.
func (o Operator) IsBuiltin() bool {
	_, ok := operatorGroups[o]
	return ok
}

// CaseInsensitive reports whether the operator folds case before matching.
func (o Operator) CaseInsensitive() bool {
	switch o {
	case OpIContains, OpIStartsWith, OpIEndsWith, OpILike:
		return true
	}
	return false
}

// BuiltinOperators returns every predefined operator in sorted order.
func BuiltinOperators() []Operator {
	ops := make([]Operator, 0, len(operatorGroups))
	for op := range operatorGroups {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
