package numeric

import (
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
)

// oneAtScale[s] is the representation of 1 at scale s; halfAtScale[s] of 0.5.
var (
	oneAtScale  [MaxFixedScale + 1]int64
	halfAtScale [MaxFixedScale + 1]int64
)

func init() {
	one := int64(1)
	for s := 0; s <= MaxFixedScale; s++ {
		oneAtScale[s] = one
		halfAtScale[s] = one / 2
		one *= 10
	}
}

// OneAt returns the fixed point unit at scale.
func OneAt(scale int) int64 { return oneAtScale[scale] }

// HalfAt returns half the fixed point unit at scale.
func HalfAt(scale int) int64 { return halfAtScale[scale] }

type fixedBackend struct {
	cfg     Config
	one     int64
	oneF    float64
	scale   int
	rounder Rounding
}

// NewFixed returns a fixed point backend for cfg, which must have Kind
// FixedPoint.
func NewFixed(cfg Config) (Backend[int64], error) {
	cfg.Kind = FixedPoint
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	one := oneAtScale[cfg.Scale]
	return &fixedBackend{cfg: cfg, one: one, oneF: float64(one), scale: cfg.Scale, rounder: cfg.Rounding}, nil
}

func (b *fixedBackend) Config() Config { return b.cfg }
func (b *fixedBackend) Lenient() bool  { return false }

func (b *fixedBackend) Zero() int64 { return 0 }
func (b *fixedBackend) One() int64  { return b.one }

func (b *fixedBackend) FromInt(v int64) int64 {
	return mulDiv(v, b.one, 1, Down)
}

func (b *fixedBackend) FromFloat(v float64) int64 {
	if v == 0 {
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		fail("from double", "value is not finite")
	}
	r := math.Floor(v*b.oneF + 0.5)
	if r >= math.MaxInt64 || r < math.MinInt64 {
		fail("from double", "value overflows the fixed point range")
	}
	return int64(r)
}

func (b *fixedBackend) FromDecimal(v decimal.Decimal) int64 {
	shifted := v.Round(int32(b.scale)).Shift(int32(b.scale))
	bi := shifted.BigInt()
	if !bi.IsInt64() {
		fail("from decimal", "value overflows the fixed point range")
	}
	return bi.Int64()
}

func (b *fixedBackend) Parse(literal string) (int64, error) {
	d, err := decimal.NewFromString(literal)
	if err != nil {
		return 0, err
	}
	return b.FromDecimal(d), nil
}

// FromScaled rescales v from scale to the engine's scale by an exact power
// of ten ratio.
func (b *fixedBackend) FromScaled(v int64, scale int) int64 {
	return rescale(v, scale, b.scale, b.rounder)
}

func (b *fixedBackend) ToScaled(v int64, scale int) int64 {
	return rescale(v, b.scale, scale, b.rounder)
}

func (b *fixedBackend) ToFloat(v int64) float64 {
	if v == 0 {
		return 0
	}
	if b.scale == 0 {
		return float64(v)
	}
	return float64(v) / b.oneF
}

func (b *fixedBackend) ToDecimal(v int64) decimal.Decimal {
	return decimal.New(v, -int32(b.scale))
}

func (b *fixedBackend) ToInt(v int64) int { return int(v / b.one) }

func (b *fixedBackend) Add(x, y int64) int64 {
	s, overflow := addChecked(x, y)
	if overflow {
		fail("addition", "fixed point overflow")
	}
	return s
}

func (b *fixedBackend) Sub(x, y int64) int64 {
	if y == math.MinInt64 {
		fail("subtraction", "fixed point overflow")
	}
	return b.Add(x, -y)
}

func (b *fixedBackend) Mul(x, y int64) int64 {
	return mulDiv(x, y, b.one, b.rounder)
}

func (b *fixedBackend) Div(x, y int64) int64 {
	if y == 0 {
		fail("division", "#DIV/0!")
	}
	return mulDiv(x, b.one, y, b.rounder)
}

func (b *fixedBackend) Pow(x, y int64) int64 {
	r := math.Pow(b.ToFloat(x), b.ToFloat(y))
	if math.IsNaN(r) || math.IsInf(r, 0) {
		fail("power", "#NUM!")
	}
	return b.FromFloat(r)
}

func (b *fixedBackend) Neg(v int64) int64 {
	if v == math.MinInt64 {
		fail("negation", "fixed point overflow")
	}
	return -v
}

func (b *fixedBackend) Abs(v int64) int64 {
	if v < 0 {
		return b.Neg(v)
	}
	return v
}

func (b *fixedBackend) Percent(v int64) int64 {
	return mulDiv(v, 1, 100, b.rounder)
}

func (b *fixedBackend) Min(x, y int64) int64 {
	if x <= y {
		return x
	}
	return y
}

func (b *fixedBackend) Max(x, y int64) int64 {
	if x >= y {
		return x
	}
	return y
}

func (b *fixedBackend) Cmp(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func (b *fixedBackend) Sign(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// Round drops scale-digits fractional digits, adding or subtracting half the
// dropped unit first.
func (b *fixedBackend) Round(v int64, digits int) int64 {
	if v == 0 || digits >= b.scale {
		return v
	}
	truncateAt := b.scale - digits
	if truncateAt > MaxFixedScale {
		return 0
	}
	shift := oneAtScale[truncateAt]
	correction := halfAtScale[truncateAt]
	if v >= 0 {
		return b.Add(v, correction) / shift * shift
	}
	return b.Sub(v, correction) / shift * shift
}

func (b *fixedBackend) RoundDown(v int64, digits int) int64 {
	if v == 0 || digits >= b.scale {
		return v
	}
	truncateAt := b.scale - digits
	if truncateAt > MaxFixedScale {
		return 0
	}
	shift := oneAtScale[truncateAt]
	return v / shift * shift
}

func (b *fixedBackend) RoundUp(v int64, digits int) int64 {
	if v == 0 || digits >= b.scale {
		return v
	}
	truncateAt := b.scale - digits
	if truncateAt > MaxFixedScale {
		fail("round up", "fixed point overflow")
	}
	shift := oneAtScale[truncateAt]
	truncated := v / shift * shift
	switch {
	case truncated == v:
		return truncated
	case v < 0:
		return b.Sub(truncated, shift)
	default:
		return b.Add(truncated, shift)
	}
}

func (b *fixedBackend) Int(v int64) int64 {
	if b.scale == 0 {
		return v
	}
	truncated := v / b.one * b.one
	if v < 0 && v != truncated {
		return b.Sub(truncated, b.one)
	}
	return truncated
}

func addChecked(x, y int64) (int64, bool) {
	s := x + y
	overflow := (x > 0 && y > 0 && s < 0) || (x < 0 && y < 0 && s >= 0)
	return s, overflow
}

func absU(v int64) uint64 {
	if v >= 0 {
		return uint64(v)
	}
	return uint64(-(v + 1)) + 1
}

// mulDiv computes x*y/z with a 128-bit intermediate product, rounding the
// remainder with mode. It fails instead of wrapping around.
func mulDiv(x, y, z int64, mode Rounding) int64 {
	if z == 0 {
		fail("division", "#DIV/0!")
	}
	sign := 1
	if (x < 0) != (y < 0) {
		sign = -sign
	}
	if z < 0 {
		sign = -sign
	}
	if x == 0 || y == 0 {
		return 0
	}
	uz := absU(z)
	hi, lo := bits.Mul64(absU(x), absU(y))
	if hi >= uz {
		fail("multiplication", "fixed point overflow")
	}
	q, r := bits.Div64(hi, lo, uz)
	if r != 0 && roundsAway(q, r, uz, sign, mode) {
		q++
	}
	if sign > 0 {
		if q > math.MaxInt64 {
			fail("multiplication", "fixed point overflow")
		}
		return int64(q)
	}
	if q > 1<<63 {
		fail("multiplication", "fixed point overflow")
	}
	return -int64(q-1) - 1
}

func roundsAway(q, r, divisor uint64, sign int, mode Rounding) bool {
	switch mode {
	case Up:
		return true
	case Down:
		return false
	case Ceiling:
		return sign > 0
	case Floor:
		return sign < 0
	case HalfEven:
		rest := divisor - r
		if r > rest {
			return true
		}
		return r == rest && q&1 == 1
	default:
		return r >= divisor-r
	}
}

func rescale(v int64, from, to int, mode Rounding) int64 {
	switch {
	case from == to:
		return v
	case to > from:
		if to-from > MaxFixedScale {
			fail("rescale", "scale difference too large")
		}
		return mulDiv(v, oneAtScale[to-from], 1, Down)
	default:
		if from-to > MaxFixedScale {
			return 0
		}
		return mulDiv(v, 1, oneAtScale[from-to], mode)
	}
}
