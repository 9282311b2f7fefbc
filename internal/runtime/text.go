package runtime

import (
	"strings"
	"unicode"
)

// Positions and lengths of the text functions count characters, not bytes,
// and are 1-based where the spreadsheet functions are.

func Len(s string) int { return len([]rune(s)) }

func Mid(s string, start, length int) (string, error) {
	r := []rune(s)
	from := start - 1
	if from < 0 {
		return "", Fail(CodeValue, "because start < 0 in MID")
	}
	if from >= len(r) {
		return "", nil
	}
	if length < 0 {
		return "", Fail(CodeValue, "because len < 0 in MID")
	}
	to := from + length
	if to >= len(r) {
		to = len(r)
	}
	return string(r[from:to]), nil
}

func Left(s string, length int) (string, error) {
	if length < 0 {
		return "", Fail(CodeValue, "because len < 0 in LEFT")
	}
	r := []rune(s)
	if length >= len(r) {
		return s, nil
	}
	return string(r[:length]), nil
}

func Right(s string, length int) (string, error) {
	if length < 0 {
		return "", Fail(CodeValue, "because len < 0 in RIGHT")
	}
	r := []rune(s)
	if length >= len(r) {
		return s, nil
	}
	return string(r[len(r)-length:]), nil
}

// Substitute replaces every occurrence of src in s by tgt.
func Substitute(s, src, tgt string) string {
	if s == "" || src == "" || src == tgt {
		return s
	}
	return strings.ReplaceAll(s, src, tgt)
}

// SubstituteNth replaces only the occurrence-th occurrence of src in s.
func SubstituteNth(s, src, tgt string, occurrence int) (string, error) {
	if occurrence <= 0 {
		return "", Fail(CodeValue, "because occurrence <= 0 in SUBSTITUTE")
	}
	if s == "" || src == "" || src == tgt {
		return s, nil
	}
	at, seen := 0, 0
	for at < len(s) {
		p := strings.Index(s[at:], src)
		if p < 0 {
			break
		}
		p += at
		seen++
		if seen == occurrence {
			return s[:p] + tgt + s[p+len(src):], nil
		}
		at = p + len(src)
	}
	return s, nil
}

func Replace(s string, at, length int, repl string) (string, error) {
	if at < 1 {
		return "", Fail(CodeValue, "because at <= 0 in REPLACE")
	}
	if length < 0 {
		return "", Fail(CodeValue, "because len < 0 in REPLACE")
	}
	if s == "" {
		return repl, nil
	}
	r := []rune(s)
	from := at - 1
	if from >= len(r) {
		return s + repl, nil
	}
	if from+length >= len(r) {
		return string(r[:from]) + repl, nil
	}
	return string(r[:from]) + repl + string(r[from+length:]), nil
}

func Exact(a, b string) bool { return a == b }

// Find returns the 1-based position of what in within, searching case
// sensitively from startingAt.
func Find(what, within string, startingAt int) (int, error) {
	if what == "" {
		return 1, nil
	}
	r := []rune(within)
	if len(r) == 0 {
		return 0, Fail(CodeValue, "because no result in FIND")
	}
	if startingAt > len(r) {
		return 0, Fail(CodeValue, "because start is past end in FIND")
	}
	if startingAt < 1 {
		startingAt = 1
	}
	tail := string(r[startingAt-1:])
	ix := strings.Index(tail, what)
	if ix < 0 {
		return 0, Fail(CodeValue, "because no result in FIND")
	}
	return startingAt + len([]rune(tail[:ix])), nil
}

// Search is the case insensitive, wildcard aware variant of Find.
func Search(what, within string, startingAt int) (int, error) {
	r := []rune(within)
	if len(r) == 0 {
		return 0, Fail(CodeValue, "because no result in SEARCH")
	}
	if what == "" {
		return 1, nil
	}
	if startingAt > len(r) {
		return 0, Fail(CodeValue, "because start is past end in SEARCH")
	}
	if startingAt < 1 {
		startingAt = 1
	}
	tail := string(r[startingAt-1:])
	loc := wildcardPattern(what, false).FindStringIndex(tail)
	if loc == nil {
		return 0, Fail(CodeValue, "because no result in SEARCH")
	}
	return startingAt + len([]rune(tail[:loc[0]])), nil
}

// Clean drops control characters.
func Clean(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if c >= 32 && c != 127 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Proper capitalizes the first letter of every word and lower cases the rest.
func (env *Environment) Proper(s string) string {
	var sb strings.Builder
	wordMiddle := false
	for _, c := range env.Lower(s) {
		switch {
		case !unicode.IsLetter(c):
			wordMiddle = false
		case !wordMiddle:
			c = unicode.ToUpper(c)
			wordMiddle = true
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func Rept(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}

// Trim strips leading and trailing blanks and collapses inner runs of blanks
// to one.
func Trim(s string) string {
	var sb strings.Builder
	pending, seenText := false, false
	for _, c := range s {
		if c == ' ' {
			if seenText {
				pending = true
			}
			continue
		}
		seenText = true
		if pending {
			sb.WriteByte(' ')
			pending = false
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// Concatenate joins its arguments.
func Concatenate(parts ...string) string { return strings.Join(parts, "") }

// TextEqual compares two strings the way spreadsheet comparison operators do:
// ignoring case.
func TextEqual(a, b string) bool { return strings.EqualFold(a, b) }

// CompareText orders strings ignoring case, by the environment's collation.
func (env *Environment) CompareText(a, b string) int {
	return env.Collator().CompareString(a, b)
}
