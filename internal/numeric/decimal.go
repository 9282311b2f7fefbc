package numeric

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

// UnscaledDivisionPrecision is the number of fractional digits kept by a
// division in a decimal engine without a configured scale.
const UnscaledDivisionPrecision = 34

// ConstPool deduplicates decimal constants by their literal text so a literal
// used by many formulas is parsed once.
type ConstPool struct {
	mu     sync.Mutex
	consts map[string]decimal.Decimal
}

// NewConstPool returns an empty pool.
func NewConstPool() *ConstPool {
	return &ConstPool{consts: make(map[string]decimal.Decimal)}
}

// Get returns the pooled value for literal, parsing it on first use.
func (p *ConstPool) Get(literal string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d, ok := p.consts[literal]; ok {
		return d, nil
	}
	d, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Zero, err
	}
	p.consts[literal] = d
	return d, nil
}

// Len returns the number of distinct constants in the pool.
func (p *ConstPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.consts)
}

type decimalBackend struct {
	cfg  Config
	pool *ConstPool
}

// NewDecimal returns a decimal backend for cfg, which must have Kind Decimal.
func NewDecimal(cfg Config) (Backend[decimal.Decimal], error) {
	cfg.Kind = Decimal
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &decimalBackend{cfg: cfg, pool: NewConstPool()}, nil
}

// Pool exposes the constant pool of a decimal backend, or nil for other
// backends.
func Pool[N any](b Backend[N]) *ConstPool {
	if db, ok := any(b).(*decimalBackend); ok {
		return db.pool
	}
	return nil
}

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalHundred = decimal.NewFromInt(100)
)

func (b *decimalBackend) Config() Config { return b.cfg }
func (b *decimalBackend) Lenient() bool  { return false }

func (b *decimalBackend) Zero() decimal.Decimal { return decimal.Zero }
func (b *decimalBackend) One() decimal.Decimal  { return decimalOne }

func (b *decimalBackend) FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func (b *decimalBackend) FromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		fail("from double", "value is not finite")
	}
	return b.adjust(decimal.NewFromFloat(v))
}

func (b *decimalBackend) FromDecimal(v decimal.Decimal) decimal.Decimal {
	return b.adjust(v)
}

func (b *decimalBackend) Parse(literal string) (decimal.Decimal, error) {
	d, err := b.pool.Get(literal)
	if err != nil {
		return decimal.Zero, err
	}
	return b.adjust(d), nil
}

func (b *decimalBackend) FromScaled(v int64, scale int) decimal.Decimal {
	return decimal.New(v, -int32(scale))
}

func (b *decimalBackend) ToFloat(v decimal.Decimal) float64 {
	return v.InexactFloat64()
}

func (b *decimalBackend) ToDecimal(v decimal.Decimal) decimal.Decimal { return v }

func (b *decimalBackend) ToInt(v decimal.Decimal) int {
	return int(v.IntPart())
}

func (b *decimalBackend) ToScaled(v decimal.Decimal, scale int) int64 {
	shifted := v.Round(int32(scale)).Shift(int32(scale))
	bi := shifted.BigInt()
	if !bi.IsInt64() {
		fail("to scaled", "value does not fit a 64-bit integer")
	}
	return bi.Int64()
}

func (b *decimalBackend) Add(x, y decimal.Decimal) decimal.Decimal { return x.Add(y) }
func (b *decimalBackend) Sub(x, y decimal.Decimal) decimal.Decimal { return x.Sub(y) }

func (b *decimalBackend) Mul(x, y decimal.Decimal) decimal.Decimal {
	return b.adjust(x.Mul(y))
}

func (b *decimalBackend) Div(x, y decimal.Decimal) decimal.Decimal {
	if y.IsZero() {
		fail("division", "#DIV/0!")
	}
	if b.cfg.Scale == Unscaled {
		return x.DivRound(y, UnscaledDivisionPrecision)
	}
	return Quotient(x, y, b.cfg.Scale, b.cfg.Rounding)
}

func (b *decimalBackend) Pow(x, y decimal.Decimal) decimal.Decimal {
	if y.Equal(y.Truncate(0)) && y.Abs().LessThanOrEqual(decimal.NewFromInt(999999999)) {
		if y.Sign() >= 0 {
			return b.adjust(powInt(x, y.IntPart()))
		}
		if x.IsZero() {
			fail("power", "#DIV/0!")
		}
		return b.Div(decimalOne, powInt(x, -y.IntPart()))
	}
	r := math.Pow(x.InexactFloat64(), y.InexactFloat64())
	if math.IsNaN(r) || math.IsInf(r, 0) {
		fail("power", "#NUM!")
	}
	return b.adjust(decimal.NewFromFloat(r))
}

// PowerPrecision is the number of significant digits kept by every step of
// an integer power in a decimal engine.
const PowerPrecision = 34

// maxPowerExponent bounds the decimal exponent of a power to the range of a
// double.
const maxPowerExponent = 308

// powInt raises x to n >= 0 by squaring, rounding each step to
// PowerPrecision significant digits.
func powInt(x decimal.Decimal, n int64) decimal.Decimal {
	result, base := decimalOne, x
	for n > 0 {
		if n&1 == 1 {
			result = significant(result.Mul(base))
		}
		n >>= 1
		if n > 0 {
			base = significant(base.Mul(base))
		}
	}
	return result
}

// significant rounds v to PowerPrecision significant digits and fails with
// #NUM! when v is beyond the range of a double. Vanishing values become zero.
func significant(v decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return v
	}
	// position of the leading digit
	lead := int64(v.NumDigits()) + int64(v.Exponent()) - 1
	if lead > maxPowerExponent {
		fail("power", "#NUM!")
	}
	if lead < -2*maxPowerExponent {
		return decimal.Zero
	}
	return v.Round(int32(PowerPrecision - 1 - lead))
}

func (b *decimalBackend) Neg(v decimal.Decimal) decimal.Decimal { return v.Neg() }
func (b *decimalBackend) Abs(v decimal.Decimal) decimal.Decimal { return v.Abs() }

func (b *decimalBackend) Percent(v decimal.Decimal) decimal.Decimal {
	return b.adjust(v.Div(decimalHundred))
}

func (b *decimalBackend) Min(x, y decimal.Decimal) decimal.Decimal {
	if x.Cmp(y) <= 0 {
		return x
	}
	return y
}

func (b *decimalBackend) Max(x, y decimal.Decimal) decimal.Decimal {
	if x.Cmp(y) >= 0 {
		return x
	}
	return y
}

func (b *decimalBackend) Cmp(x, y decimal.Decimal) int { return x.Cmp(y) }
func (b *decimalBackend) Sign(v decimal.Decimal) int   { return v.Sign() }

func (b *decimalBackend) Round(v decimal.Decimal, digits int) decimal.Decimal {
	return v.Round(int32(digits))
}

func (b *decimalBackend) RoundUp(v decimal.Decimal, digits int) decimal.Decimal {
	return v.RoundUp(int32(digits))
}

func (b *decimalBackend) RoundDown(v decimal.Decimal, digits int) decimal.Decimal {
	return v.RoundDown(int32(digits))
}

func (b *decimalBackend) Int(v decimal.Decimal) decimal.Decimal { return v.Floor() }

func (b *decimalBackend) adjust(v decimal.Decimal) decimal.Decimal {
	if b.cfg.Scale == Unscaled {
		return v
	}
	return RoundTo(v, b.cfg.Scale, b.cfg.Rounding)
}

// RoundTo rounds v to places fractional digits using mode.
func RoundTo(v decimal.Decimal, places int, mode Rounding) decimal.Decimal {
	p := int32(places)
	switch mode {
	case HalfEven:
		return v.RoundBank(p)
	case Up:
		return v.RoundUp(p)
	case Down:
		return v.RoundDown(p)
	case Ceiling:
		return v.RoundCeil(p)
	case Floor:
		return v.RoundFloor(p)
	default:
		return v.Round(p)
	}
}

// Quotient divides x by y to places fractional digits, rounding the discarded
// remainder with mode.
func Quotient(x, y decimal.Decimal, places int, mode Rounding) decimal.Decimal {
	q, r := x.QuoRem(y, int32(places))
	if r.IsZero() {
		return q
	}
	sign := x.Sign() * y.Sign()
	unit := decimal.New(1, -int32(places))
	// twice the remainder against the divisor scaled to one unit
	half := r.Abs().Mul(decimal.NewFromInt(2)).Cmp(y.Abs().Mul(unit))
	away := false
	switch mode {
	case Up:
		away = true
	case Down:
	case Ceiling:
		away = sign > 0
	case Floor:
		away = sign < 0
	case HalfEven:
		if half > 0 {
			away = true
		} else if half == 0 {
			away = q.Shift(int32(places)).BigInt().Bit(0) == 1
		}
	default:
		away = half >= 0
	}
	if !away {
		return q
	}
	if sign < 0 {
		return q.Sub(unit)
	}
	return q.Add(unit)
}
