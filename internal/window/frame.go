package window

import (
	"strconv"

	"gqlsql/internal/dialect"
)

var frameTypeKeywords = map[FrameType]string{
	Rows:   "ROWS",
	Range:  "RANGE",
	Groups: "GROUPS",
}

var exclusionKeywords = map[Exclusion]string{
	ExcludeCurrentRow: "EXCLUDE CURRENT ROW",
	ExcludeGroup:      "EXCLUDE GROUP",
	ExcludeTies:       "EXCLUDE TIES",
	ExcludeNoOthers:   "EXCLUDE NO OTHERS",
}

// boundRank orders bound kinds from the start of a partition to its end.
var boundRank = map[BoundKind]int{
	UnboundedPreceding: 0,
	NPreceding:         1,
	CurrentRow:         2,
	NFollowing:         3,
	UnboundedFollowing: 4,
}

// formatBound renders a validated bound.
func formatBound(b Bound) string {
	switch b.Kind {
	case UnboundedPreceding:
		return "UNBOUNDED PRECEDING"
	case NPreceding:
		return strconv.FormatUint(b.N, 10) + " PRECEDING"
	case CurrentRow:
		return "CURRENT ROW"
	case NFollowing:
		return strconv.FormatUint(b.N, 10) + " FOLLOWING"
	default:
		return "UNBOUNDED FOLLOWING"
	}
}

// frameClause checks the frame against the dialect and renders it.
// orderKeys is the number of ORDER BY keys in the enclosing OVER clause.
func frameClause(caps dialect.Capabilities, f Frame, orderKeys int) (string, error) {
	keyword, ok := frameTypeKeywords[f.Type]
	if !ok {
		return "", invalidPlan("unknown frame type %q", f.Type)
	}
	for _, b := range []Bound{f.Start, f.End} {
		if _, ok := boundRank[b.Kind]; !ok {
			return "", invalidPlan("unknown frame bound %q", b.Kind)
		}
	}

	offsets := f.Start.Kind == NPreceding || f.Start.Kind == NFollowing ||
		f.End.Kind == NPreceding || f.End.Kind == NFollowing

	switch {
	case f.Type == Groups && !caps.GroupsFrame:
		return "", &UnsupportedFeatureError{Feature: "GROUPS frame", Dialect: caps.Dialect}
	case f.Type == Range && offsets && !caps.RangeOffsetFrame:
		return "", &UnsupportedFeatureError{Feature: "RANGE frame with offset bounds", Dialect: caps.Dialect}
	case f.Exclusion != nil && !caps.FrameExclusion:
		return "", &UnsupportedFeatureError{Feature: "frame exclusion", Dialect: caps.Dialect}
	}

	if err := checkBounds(f.Start, f.End); err != nil {
		return "", err
	}
	if f.Type == Groups && orderKeys == 0 {
		return "", invalidPlan("GROUPS frame requires ORDER BY")
	}
	if f.Type == Range && offsets && orderKeys != 1 {
		return "", invalidPlan("RANGE frame with offset bounds requires exactly one ORDER BY key")
	}

	clause := keyword + " BETWEEN " + formatBound(f.Start) + " AND " + formatBound(f.End)
	if f.Exclusion != nil {
		excl, ok := exclusionKeywords[*f.Exclusion]
		if !ok {
			return "", invalidPlan("unknown frame exclusion %q", *f.Exclusion)
		}
		clause += " " + excl
	}
	return clause, nil
}

func checkBounds(start, end Bound) error {
	if start.Kind == UnboundedFollowing {
		return invalidPlan("frame cannot start at UNBOUNDED FOLLOWING")
	}
	if end.Kind == UnboundedPreceding {
		return invalidPlan("frame cannot end at UNBOUNDED PRECEDING")
	}
	if boundRank[start.Kind] > boundRank[end.Kind] {
		return invalidPlan("frame starts after it ends (%s to %s)", formatBound(start), formatBound(end))
	}
	if start.Kind == end.Kind {
		if start.Kind == NPreceding && start.N < end.N {
			return invalidPlan("frame starts after it ends (%s to %s)", formatBound(start), formatBound(end))
		}
		if start.Kind == NFollowing && start.N > end.N {
			return invalidPlan("frame starts after it ends (%s to %s)", formatBound(start), formatBound(end))
		}
	}
	return nil
}
