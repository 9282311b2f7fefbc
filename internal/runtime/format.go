package runtime

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/number"
)

var minExpValue = decimal.New(1, -4)

// FormatDecimal renders a number the way a spreadsheet converts it to text:
// without grouping, without trailing zeros, with the locale's decimal
// separator.
func (env *Environment) FormatDecimal(v decimal.Decimal) string {
	if v.IsZero() {
		return "0"
	}
	return env.localizeSeparator(v.String())
}

// FormatFloat is FormatDecimal for doubles, using their shortest decimal
// representation.
func (env *Environment) FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return CodeNum
	}
	return env.FormatDecimal(decimal.NewFromFloat(v))
}

func (env *Environment) localizeSeparator(s string) string {
	if env.decimalSep == '.' {
		return s
	}
	return strings.Replace(s, ".", string(env.decimalSep), 1)
}

// Text implements TEXT(value, format). Only the "@" general format is
// supported; it limits the output to about ten significant digits and
// switches to scientific notation for very large and very small values.
func (env *Environment) Text(v decimal.Decimal, format string) (string, error) {
	if format != "@" {
		return "", Fail(CodeValue, "because format %q is not supported in TEXT", format)
	}
	return env.formatLimited(v, 10, 11), nil
}

func (env *Environment) formatLimited(v decimal.Decimal, fracLimit, intLimit int) string {
	if v.IsZero() {
		return "0"
	}
	scale, precision := strippedShape(v)
	intDigits := precision - scale
	if intDigits > intLimit {
		return env.formatExp(v)
	}
	if scale > 9 && intDigits <= 0 && v.Abs().LessThan(minExpValue) {
		return env.formatExp(v)
	}
	maxFrac := 0
	if frac := fracLimit - intDigits; frac > 0 {
		maxFrac = min(frac, fracLimit-1)
	}
	if scale > maxFrac {
		return env.formatLimited(v.Round(int32(maxFrac)), fracLimit, intLimit)
	}
	return env.FormatDecimal(v)
}

// strippedShape returns the scale and the number of significant digits of v
// after dropping trailing zeros.
func strippedShape(v decimal.Decimal) (scale, precision int) {
	coef := v.Coefficient()
	exp := int(v.Exponent())
	ten := decimal.NewFromInt(10)
	c := decimal.NewFromBigInt(coef, 0).Abs()
	for !c.IsZero() && c.Mod(ten).IsZero() {
		c = c.Div(ten)
		exp++
	}
	return -exp, len(c.String())
}

// formatExp renders v as d.dddddE+xx.
func (env *Environment) formatExp(v decimal.Decimal) string {
	scale, precision := strippedShape(v)
	exp := precision - scale - 1
	mantissa := v.Shift(int32(-exp)).Round(5)
	if mantissa.Abs().GreaterThanOrEqual(decimal.NewFromInt(10)) {
		exp++
		mantissa = v.Shift(int32(-exp)).Round(5)
	}
	sign := '+'
	if exp < 0 {
		sign = '-'
		exp = -exp
	}
	return fmt.Sprintf("%sE%c%02d", env.localizeSeparator(mantissa.String()), sign, exp)
}

// Fixed implements FIXED(value, decimals, noCommas): rounds half up to
// decimals places (negative values round to tens, hundreds, ...) and formats
// with the locale's separators.
func (env *Environment) Fixed(v float64, decimals int, noCommas bool) string {
	multiplier := 1.0
	if decimals != 0 {
		multiplier = math.Pow(10, float64(decimals))
	}
	digits := max(decimals, 0)
	v = math.Floor(v*multiplier+0.5) / multiplier
	opts := []number.Option{number.MinFractionDigits(digits), number.MaxFractionDigits(digits)}
	if noCommas {
		opts = append(opts, number.NoSeparator())
	}
	s := env.Printer().Sprint(number.Decimal(v, opts...))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}

// ParseDecimal converts text into a number. It accepts the locale's decimal
// and grouping separators (a blank also groups in locales that group with a
// space), a trailing percent sign, scientific notation and, failing all
// those, a date and/or time, which yields its serial.
func (env *Environment) ParseDecimal(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(env.Upper(text))
	if text == "" {
		return decimal.Zero, false
	}
	if d, ok := env.parsePlain(text); ok {
		return d, true
	}
	if serial, ok := env.ParseDateTime(text); ok {
		return decimal.NewFromFloat(serial), true
	}
	return decimal.Zero, false
}

func (env *Environment) parsePlain(text string) (decimal.Decimal, bool) {
	percent := false
	if strings.HasSuffix(text, "%") {
		percent = true
		text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	}
	var sb strings.Builder
	seenDecimal, seenExp, digits := false, false, 0
	for i, r := range text {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
			digits++
		case (r == '-' || r == '+') && (i == 0 || seenExp && strings.HasSuffix(sb.String(), "E")):
			sb.WriteRune(r)
		case r == env.decimalSep && !seenDecimal && !seenExp:
			sb.WriteByte('.')
			seenDecimal = true
		case env.isGrouping(r) && !seenDecimal && !seenExp && digits > 0:
		case r == 'E' && !seenExp && digits > 0:
			sb.WriteByte('E')
			seenExp = true
		default:
			return decimal.Zero, false
		}
	}
	if digits == 0 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(sb.String())
	if err != nil {
		return decimal.Zero, false
	}
	if percent {
		d = d.Shift(-2)
	}
	return d, true
}

func (env *Environment) isGrouping(r rune) bool {
	if env.groupingSep == 0 {
		return false
	}
	if r == env.groupingSep {
		return true
	}
	return unicode.IsSpace(env.groupingSep) && unicode.IsSpace(r)
}

// Value implements VALUE(text). Unparseable text is a #VALUE! error that the
// double engine reports as 0.
func (env *Environment) Value(text string) (decimal.Decimal, error) {
	d, ok := env.ParseDecimal(text)
	if !ok {
		return decimal.Zero, legacyValue("because %q is not a number in VALUE", text)
	}
	return d, nil
}

// DateValue implements DATEVALUE(text): the serial of the date part.
func (env *Environment) DateValue(text string) (float64, error) {
	serial, ok := env.ParseDateTime(strings.TrimSpace(text))
	if !ok {
		return 0, Fail(CodeValue, "because %q is not a date in DATEVALUE", text)
	}
	return math.Floor(serial), nil
}

// TimeValue implements TIMEVALUE(text): the day fraction of the time part.
func (env *Environment) TimeValue(text string) (float64, error) {
	serial, ok := env.ParseDateTime(strings.TrimSpace(text))
	if !ok {
		return 0, Fail(CodeValue, "because %q is not a time in TIMEVALUE", text)
	}
	return serial - math.Floor(serial), nil
}
