package numeric

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

var pow10Table = [...]float64{1e-10, 1e-9, 1e-8, 1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1,
	1, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10}

// Pow10 returns 10^exp, exact for small exponents.
func Pow10(exp int) float64 {
	if exp >= -10 && exp <= 10 {
		return pow10Table[exp+10]
	}
	return math.Pow(10, float64(exp))
}

type doubleBackend struct{}

// NewDouble returns the IEEE double backend.
func NewDouble() Backend[float64] {
	return doubleBackend{}
}

func (doubleBackend) Config() Config { return DoubleConfig() }
func (doubleBackend) Lenient() bool  { return true }

func (doubleBackend) Zero() float64               { return 0 }
func (doubleBackend) One() float64                { return 1 }
func (doubleBackend) FromInt(v int64) float64     { return float64(v) }
func (doubleBackend) FromFloat(v float64) float64 { return v }

func (doubleBackend) FromDecimal(v decimal.Decimal) float64 {
	return v.InexactFloat64()
}

func (doubleBackend) Parse(literal string) (float64, error) {
	return strconv.ParseFloat(literal, 64)
}

func (doubleBackend) FromScaled(v int64, scale int) float64 {
	return float64(v) / Pow10(scale)
}

func (doubleBackend) ToFloat(v float64) float64 { return v }

func (doubleBackend) ToDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		fail("to decimal", "value is not finite")
	}
	return decimal.NewFromFloat(v)
}

func (doubleBackend) ToInt(v float64) int { return int(v) }

// ToScaled truncates, matching the legacy conversion of doubles to scaled longs.
func (doubleBackend) ToScaled(v float64, scale int) int64 {
	return int64(v * Pow10(scale))
}

func (doubleBackend) Add(a, b float64) float64 { return a + b }
func (doubleBackend) Sub(a, b float64) float64 { return a - b }
func (doubleBackend) Mul(a, b float64) float64 { return a * b }
func (doubleBackend) Div(a, b float64) float64 { return a / b }
func (doubleBackend) Pow(a, b float64) float64 { return math.Pow(a, b) }
func (doubleBackend) Neg(v float64) float64    { return -v }
func (doubleBackend) Abs(v float64) float64    { return math.Abs(v) }
func (doubleBackend) Percent(v float64) float64 {
	return v / 100
}

func (doubleBackend) Min(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}

func (doubleBackend) Max(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func (doubleBackend) Cmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (doubleBackend) Sign(v float64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// Round shifts, adds one half and floors, the way spreadsheets round.
func (doubleBackend) Round(v float64, digits int) float64 {
	shift := Pow10(digits)
	if v < 0 {
		return math.Ceil(v*shift-0.5) / shift
	}
	return math.Floor(v*shift+0.5) / shift
}

func (doubleBackend) RoundUp(v float64, digits int) float64 {
	shift := Pow10(digits)
	return RoundAway(v*shift) / shift
}

func (doubleBackend) RoundDown(v float64, digits int) float64 {
	shift := Pow10(digits)
	return RoundToward(v*shift) / shift
}

func (doubleBackend) Int(v float64) float64 { return math.Floor(v) }

// RoundToward rounds toward zero.
func RoundToward(v float64) float64 {
	if v < 0 {
		return math.Ceil(v)
	}
	return math.Floor(v)
}

// RoundAway rounds away from zero.
func RoundAway(v float64) float64 {
	if v < 0 {
		return math.Floor(v)
	}
	return math.Ceil(v)
}
