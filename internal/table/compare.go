package table

import (
	"slices"
	"strings"

	"github.com/surveydesk/backoffice/internal/shared"
)

// Comparator orders two attribute values, returning a negative number, zero or
// a positive number.
type Comparator func(a, b any) int

// Compare is the default comparator. Missing values sort first, then values
// compare by kind: instants by time, booleans false before true, numbers
// numerically, everything else as case-folded text.
func Compare(a, b any) int {
	aNil, bNil := shared.IsNil(a), shared.IsNil(b)
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return -1
	case bNil:
		return 1
	}
	if ta, ok := shared.Instant(a); ok {
		if tb, ok := shared.Instant(b); ok {
			return ta.Compare(tb)
		}
	}
	if ba, ok := shared.Truth(a); ok {
		if bb, ok := shared.Truth(b); ok {
			return compareBool(ba, bb)
		}
	}
	if na, ok := shared.Number(a); ok {
		if nb, ok := shared.Number(b); ok {
			return na.Cmp(nb)
		}
	}
	return CompareText(a, b)
}

// CompareText orders values by their case-folded text.
func CompareText(a, b any) int {
	return strings.Compare(shared.Fold(shared.Text(a)), shared.Fold(shared.Text(b)))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

// Ranked orders values by their position in order (matched case-insensitively).
// Values outside order sort after every ranked value, by text.
func Ranked(order ...string) Comparator {
	folded := make([]string, len(order))
	for i, v := range order {
		folded[i] = shared.Fold(v)
	}
	rank := func(v any) int {
		idx := slices.Index(folded, shared.Fold(shared.Text(v)))
		if idx < 0 {
			return len(folded)
		}
		return idx
	}
	return func(a, b any) int {
		ra, rb := rank(a), rank(b)
		if ra != rb {
			return ra - rb
		}
		if ra == len(folded) {
			return CompareText(a, b)
		}
		return 0
	}
}
