package runtime

import (
	"strings"

	"github.com/specialistvlad/formulagrid/internal/numeric"
)

// MatchType selects the MATCH variant by the sign of its third argument.
type MatchType int

const (
	MatchDescending MatchType = -1
	MatchExact      MatchType = 0
	MatchAscending  MatchType = 1
)

// MatchTypeOf maps a spreadsheet match_type argument onto a MatchType.
func MatchTypeOf(v int) MatchType {
	switch {
	case v < 0:
		return MatchDescending
	case v > 0:
		return MatchAscending
	default:
		return MatchExact
	}
}

// sortedPosition returns the 0-based position of the last element not
// beyond x in a sorted list, or -1. after and before report how x sorts
// relative to the element at i.
func sortedPosition(n int, after, before func(i int) bool) int {
	last := n - 1
	left, right := 0, last
	for left < right {
		mid := left + (right-left)/2
		if after(mid) {
			left = mid + 1
		} else {
			right = mid
		}
	}
	if left > last || before(left) {
		left--
	}
	return left
}

// Match returns the 1-based position of x in xs.
func Match[N any](b numeric.Backend[N], x N, xs []N, typ MatchType) (int, error) {
	switch typ {
	case MatchExact:
		for i, v := range xs {
			if b.Cmp(x, v) == 0 {
				return i + 1, nil
			}
		}
		return 0, NotAvailable("because the value was not found in MATCH")
	case MatchAscending:
		return sortedResult(sortedPosition(len(xs),
			func(i int) bool { return b.Cmp(x, xs[i]) > 0 },
			func(i int) bool { return b.Cmp(x, xs[i]) < 0 }))
	default:
		return sortedResult(sortedPosition(len(xs),
			func(i int) bool { return b.Cmp(x, xs[i]) < 0 },
			func(i int) bool { return b.Cmp(x, xs[i]) > 0 }))
	}
}

func sortedResult(pos int) (int, error) {
	if pos < 0 {
		return 0, NotAvailable("because the value sorts before every candidate in MATCH")
	}
	return pos + 1, nil
}

// MatchText returns the 1-based position of x in xs. Exact matching ignores
// case and honors wildcards; sorted matching uses the locale's collation.
func (env *Environment) MatchText(x string, xs []string, typ MatchType) (int, error) {
	if typ == MatchExact {
		if HasWildcards(x) {
			re := wildcardPattern(x, true)
			for i, v := range xs {
				if re.MatchString(v) {
					return i + 1, nil
				}
			}
		} else {
			for i, v := range xs {
				if strings.EqualFold(x, v) {
					return i + 1, nil
				}
			}
		}
		return 0, NotAvailable("because %q was not found in MATCH", x)
	}
	c := env.Collator()
	sign := 1
	if typ == MatchDescending {
		sign = -1
	}
	compare := func(i int) int { return sign * c.CompareString(x, xs[i]) }
	return sortedResult(sortedPosition(len(xs),
		func(i int) bool { return compare(i) > 0 },
		func(i int) bool { return compare(i) < 0 }))
}
