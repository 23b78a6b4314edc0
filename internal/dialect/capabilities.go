package dialect

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"gqlsql/internal/filter"
	"gqlsql/internal/sqlutil"
)

// CaseFolding is how a dialect implements case-insensitive matching.
type CaseFolding int

const (
	// NativeILike uses the ILIKE operator.
	NativeILike CaseFolding = iota + 1
	// LowerWrap wraps both operands in LOWER().
	LowerWrap
	// Collation applies an explicit case-insensitive collation.
	Collation
)

// LimitStyle is how a dialect limits the rows of a SELECT.
type LimitStyle int

const (
	// LimitOffset renders LIMIT n OFFSET m.
	LimitOffset LimitStyle = iota + 1
	// OffsetFetch renders OFFSET m ROWS FETCH NEXT n ROWS ONLY.
	OffsetFetch
)

// Capabilities describes one dialect. Values are shared read-only snapshots;
// the set-valued fields are only reachable through methods.
type Capabilities struct {
	Dialect Dialect

	// Placeholder rewrites anonymous ? markers into the dialect's bind syntax.
	Placeholder sq.PlaceholderFormat
	// NumberedPlaceholders is true when Placeholder rewrites markers, in which
	// case literal question marks must be written as "??".
	NumberedPlaceholders bool

	TrueLiteral  string
	FalseLiteral string

	CaseFolding              CaseFolding
	CaseInsensitiveCollation string
	CaseSensitiveCollation   string

	GroupsFrame      bool
	FrameExclusion   bool
	RangeOffsetFrame bool

	LimitStyle LimitStyle
	// MaxLimit is written as the LIMIT when only an OFFSET is requested and
	// the dialect cannot express OFFSET on its own. Empty means not needed.
	MaxLimit string

	filterGroups         map[filter.Group]bool
	unsupportedFunctions map[string]bool
	functionAliases      map[string]string
	quoteIdentifier      func(string) string
	quoteLiteral         func(string) string
}

var baseGroups = []filter.Group{
	filter.GroupComparison,
	filter.GroupContainment,
	filter.GroupString,
	filter.GroupNull,
	filter.GroupArray,
	filter.GroupExtended,
}

func groupSet(extra ...filter.Group) map[filter.Group]bool {
	set := make(map[filter.Group]bool, len(baseGroups)+len(extra))
	for _, g := range baseGroups {
		set[g] = true
	}
	for _, g := range extra {
		set[g] = true
	}
	return set
}

var table = map[Dialect]Capabilities{
	PostgreSQL: {
		Dialect:              PostgreSQL,
		Placeholder:          sq.Dollar,
		NumberedPlaceholders: true,
		TrueLiteral:          "TRUE",
		FalseLiteral:         "FALSE",
		CaseFolding:          NativeILike,
		GroupsFrame:          true,
		FrameExclusion:       true,
		RangeOffsetFrame:     true,
		LimitStyle:           LimitOffset,
		filterGroups: groupSet(
			filter.GroupVector,
			filter.GroupFullText,
			filter.GroupNetwork,
			filter.GroupHierarchy,
		),
		quoteIdentifier: pq.QuoteIdentifier,
		quoteLiteral:    quotePostgresLiteral,
	},
	MySQL: {
		Dialect:          MySQL,
		Placeholder:      sq.Question,
		TrueLiteral:      "TRUE",
		FalseLiteral:     "FALSE",
		CaseFolding:      LowerWrap,
		RangeOffsetFrame: true,
		LimitStyle:       LimitOffset,
		MaxLimit:         "18446744073709551615",
		filterGroups:     groupSet(),
		quoteIdentifier:  sqlutil.QuoteIdentifier,
		quoteLiteral:     sqlutil.QuoteStringBackslash,
	},
	SQLite: {
		Dialect:          SQLite,
		Placeholder:      sq.Question,
		TrueLiteral:      "TRUE",
		FalseLiteral:     "FALSE",
		CaseFolding:      LowerWrap,
		GroupsFrame:      true,
		FrameExclusion:   true,
		RangeOffsetFrame: true,
		LimitStyle:       LimitOffset,
		MaxLimit:         "-1",
		filterGroups:     groupSet(),
		unsupportedFunctions: map[string]bool{
			"STDDEV":   true,
			"VARIANCE": true,
		},
		quoteIdentifier: sqlutil.QuoteDoubleIdentifier,
		quoteLiteral:    sqlutil.QuoteString,
	},
	SQLServer: {
		Dialect:                  SQLServer,
		Placeholder:              sq.AtP,
		NumberedPlaceholders:     true,
		TrueLiteral:              "1=1",
		FalseLiteral:             "1=0",
		CaseFolding:              Collation,
		CaseInsensitiveCollation: "Latin1_General_CI_AI",
		CaseSensitiveCollation:   "Latin1_General_CS_AS",
		LimitStyle:               OffsetFetch,
		filterGroups:             groupSet(),
		unsupportedFunctions:     map[string]bool{"NTH_VALUE": true},
		functionAliases: map[string]string{
			"STDDEV":   "STDEV",
			"VARIANCE": "VAR",
		},
		quoteIdentifier: sqlutil.QuoteBracketIdentifier,
		quoteLiteral:    sqlutil.QuoteString,
	},
}

// Lookup returns the capability table entry for d.
func Lookup(d Dialect) (Capabilities, error) {
	caps, ok := table[d]
	if !ok {
		return Capabilities{}, fmt.Errorf("unknown dialect %d", int(d))
	}
	return caps, nil
}

// MustLookup is Lookup for dialects known to be valid.
func MustLookup(d Dialect) Capabilities {
	caps, err := Lookup(d)
	if err != nil {
		panic(err)
	}
	return caps
}

// SupportsGroup reports whether the dialect can compile operators of g.
func (c Capabilities) SupportsGroup(g filter.Group) bool {
	return c.filterGroups[g]
}

// SupportsFunction reports whether the window function name is available.
func (c Capabilities) SupportsFunction(name string) bool {
	return !c.unsupportedFunctions[strings.ToUpper(name)]
}

// FunctionName maps a canonical function name to the dialect's spelling.
func (c Capabilities) FunctionName(name string) string {
	if alias, ok := c.functionAliases[name]; ok {
		return alias
	}
	return name
}

// QuoteIdentifier quotes name with the dialect's identifier quote.
func (c Capabilities) QuoteIdentifier(name string) string {
	return c.quoteIdentifier(name)
}

// QuoteLiteral renders s as a string literal safe for direct interpolation.
func (c Capabilities) QuoteLiteral(s string) string {
	return c.quoteLiteral(s)
}

// Text prepares trusted SQL text (path literals, expressions) for a
// statement whose markers are rewritten by Placeholder.
func (c Capabilities) Text(s string) string {
	if c.NumberedPlaceholders {
		return sqlutil.EscapePlaceholderMarks(s)
	}
	return s
}

// quotePostgresLiteral uses lib/pq quoting, which switches to the E'' form
// when backslashes are present, without its leading space.
func quotePostgresLiteral(s string) string {
	return strings.TrimPrefix(pq.QuoteLiteral(s), " ")
}
