package runtime

import (
	"strconv"
	"strings"
	"time"
)

// ParseDateTime reads a date, a time, or a date followed by a time and returns
// its serial. ISO dates (yyyy-mm-dd or yyyy/mm/dd) are always accepted; other
// dates use the locale's field order and separator. Two digit years are
// completed into 1930..2029, single digit years into the 2000s.
func (env *Environment) ParseDateTime(text string) (float64, bool) {
	text = strings.TrimSpace(strings.ToUpper(text))
	if text == "" {
		return 0, false
	}
	datePart, timePart := text, ""
	if i := strings.IndexAny(text, " T"); i > 0 && strings.ContainsRune(text[i:], ':') {
		datePart, timePart = text[:i], strings.TrimSpace(text[i+1:])
	} else if strings.ContainsRune(text, ':') {
		datePart, timePart = "", text
	}

	var serial float64
	if datePart != "" {
		y, m, d, ok := env.parseDateFields(datePart)
		if !ok {
			return 0, false
		}
		serial = env.wallToSerial(time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC))
	}
	if timePart != "" {
		secs, ok := parseClock(timePart)
		if !ok {
			return 0, false
		}
		serial += float64(secs) / secondsPerDay
	}
	return serial, true
}

func isISODate(s string, sep byte) bool {
	if len(s) < 5 || s[4] != sep {
		return false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (env *Environment) parseDateFields(s string) (year, month, day int, ok bool) {
	for _, sep := range []byte{'-', '/'} {
		if isISODate(s, sep) {
			f, ok := splitInts(s, rune(sep), 3)
			if !ok {
				return 0, 0, 0, false
			}
			return f[0], f[1], f[2], true
		}
	}
	parts := strings.Split(s, string(env.dateSep))
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	f, ok := splitInts(s, env.dateSep, 3)
	if !ok {
		return 0, 0, 0, false
	}
	yearIdx := 2
	switch env.dateOrder {
	case MDY:
		month, day = f[0], f[1]
	case DMY:
		day, month = f[0], f[1]
	case YMD:
		yearIdx = 0
		month, day = f[1], f[2]
	}
	year = completeYear(f[yearIdx], strings.TrimSpace(parts[yearIdx]))
	return year, month, day, true
}

func completeYear(year int, digits string) int {
	switch {
	case len(digits) == 2:
		if year < 30 {
			return 2000 + year
		}
		return 1900 + year
	case year < 10 && !strings.Contains(digits, "000"):
		return 2000 + year
	default:
		return year
	}
}

func splitInts(s string, sep rune, n int) ([]int, bool) {
	parts := strings.Split(s, string(sep))
	if len(parts) != n {
		return nil, false
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// parseClock reads h:mm or h:mm:ss with an optional AM/PM marker and returns
// seconds since midnight.
func parseClock(s string) (int64, bool) {
	pm, am := strings.HasSuffix(s, "PM"), strings.HasSuffix(s, "AM")
	if pm || am {
		s = strings.TrimSpace(s[:len(s)-2])
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var f [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return 0, false
		}
		f[i] = v
	}
	hour := f[0]
	switch {
	case pm && hour < 12:
		hour += 12
	case am && hour == 12:
		hour = 0
	}
	return int64(hour)*secondsPerHour + int64(f[1])*60 + int64(f[2]+0.5), true
}
