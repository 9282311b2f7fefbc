package runtime

import (
	"regexp"
	"strings"
	"sync"
)

// HasWildcards reports whether s contains '*' or '?', escaped or not.
func HasWildcards(s string) bool {
	return strings.ContainsAny(s, "*?")
}

type patternKey struct {
	text     string
	anchored bool
}

var patternCache sync.Map // patternKey -> *regexp.Regexp

// wildcardPattern translates a spreadsheet wildcard pattern into a case
// insensitive regular expression: '*' matches any run, '?' any single
// character and '~' escapes the character after it.
func wildcardPattern(s string, anchored bool) *regexp.Regexp {
	key := patternKey{s, anchored}
	if re, ok := patternCache.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	var src strings.Builder
	src.WriteString("(?is)")
	if anchored {
		src.WriteByte('^')
	}
	r := []rune(s)
	for i := 0; i < len(r); i++ {
		switch c := r[i]; c {
		case '*':
			src.WriteString(".*")
		case '?':
			src.WriteByte('.')
		case '~':
			if i+1 < len(r) {
				i++
				c = r[i]
			}
			src.WriteString(regexp.QuoteMeta(string(c)))
		default:
			src.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	if anchored {
		src.WriteByte('$')
	}
	re := regexp.MustCompile(src.String())
	patternCache.Store(key, re)
	return re
}

// MatchesWildcard reports whether the whole of s matches pattern, ignoring
// case.
func MatchesWildcard(pattern, s string) bool {
	return wildcardPattern(pattern, true).MatchString(s)
}
