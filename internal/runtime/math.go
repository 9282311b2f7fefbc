package runtime

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/specialistvlad/formulagrid/internal/numeric"
)

var factorials = [...]int64{1, 1, 2, 6, 24, 120, 720, 5040, 40320, 362880, 3628800, 39916800, 479001600}

// floorQuotient returns floor(n/s) as an integral value for s > 0. The
// backend's rounded division is corrected so the result is exact.
func floorQuotient[N any](b numeric.Backend[N], n, s N) N {
	one := b.One()
	t := b.Int(b.Div(n, s))
	if b.Cmp(b.Mul(t, s), n) > 0 {
		t = b.Sub(t, one)
	} else if b.Cmp(b.Mul(b.Add(t, one), s), n) <= 0 {
		t = b.Add(t, one)
	}
	return t
}

func ceilQuotient[N any](b numeric.Backend[N], n, s N) N {
	t := floorQuotient(b, n, s)
	if b.Cmp(b.Mul(t, s), n) != 0 {
		t = b.Add(t, b.One())
	}
	return t
}

// Ceiling rounds number away from zero to a multiple of significance. Excel
// requires both arguments to share a sign; OpenOffice rounds toward positive
// infinity in multiples of |significance|.
func Ceiling[N any](b numeric.Backend[N], mode Mode, number, significance N) (N, error) {
	return roundToMultiple(b, mode, number, significance, true)
}

// Floor rounds number toward zero to a multiple of significance, with the
// same sign rules as Ceiling.
func Floor[N any](b numeric.Backend[N], mode Mode, number, significance N) (N, error) {
	return roundToMultiple(b, mode, number, significance, false)
}

func roundToMultiple[N any](b numeric.Backend[N], mode Mode, number, significance N, up bool) (N, error) {
	if b.Sign(significance) == 0 || b.Sign(number) == 0 {
		return b.Zero(), nil
	}
	s := b.Abs(significance)
	if mode == OpenOfficeCalc {
		var q N
		if up {
			q = ceilQuotient(b, number, s)
		} else {
			q = floorQuotient(b, number, s)
		}
		return b.Mul(q, s), nil
	}
	if b.Sign(number) != b.Sign(significance) {
		name := "FLOOR"
		if up {
			name = "CEILING"
		}
		return b.Zero(), domain("because signum of args not equal in %s", name)
	}
	n := b.Abs(number)
	var q N
	if up {
		q = ceilQuotient(b, n, s)
	} else {
		q = floorQuotient(b, n, s)
	}
	r := b.Mul(q, s)
	if b.Sign(number) < 0 {
		r = b.Neg(r)
	}
	return r, nil
}

// Even rounds away from zero to the nearest even integer.
func Even[N any](b numeric.Backend[N], v N) N {
	t := b.RoundUp(v, 0)
	if b.ToInt(t)%2 != 0 {
		t = b.Add(t, b.FromInt(int64(b.Sign(v))))
	}
	return t
}

// Odd rounds away from zero to the nearest odd integer. Zero yields 1.
func Odd[N any](b numeric.Backend[N], v N) N {
	if b.Sign(v) == 0 {
		return b.One()
	}
	t := b.RoundUp(v, 0)
	if b.ToInt(t)%2 == 0 {
		t = b.Add(t, b.FromInt(int64(b.Sign(v))))
	}
	return t
}

// Mod returns the remainder of n/d carrying the sign of d.
func Mod[N any](b numeric.Backend[N], n, d N) (N, error) {
	if b.Sign(d) == 0 {
		return b.Zero(), &FormulaError{Code: CodeDiv0, Reason: "because divisor is 0 in MOD", legacy: true}
	}
	var r N
	if b.Config().Kind == numeric.Double {
		r = b.FromFloat(math.Mod(b.ToFloat(n), b.ToFloat(d)))
	} else {
		r = b.FromDecimal(b.ToDecimal(n).Mod(b.ToDecimal(d)))
	}
	if b.Sign(r) != 0 && b.Sign(r) != b.Sign(d) {
		r = b.Add(r, d)
	}
	return r, nil
}

// Fact returns n! for the integral part of n.
func Fact[N any](b numeric.Backend[N], n N) (N, error) {
	a := b.ToInt(n)
	if a < 0 {
		return b.Zero(), domain("because n < 0 in FACT")
	}
	if a < len(factorials) {
		return b.FromInt(factorials[a]), nil
	}
	r := b.FromInt(factorials[len(factorials)-1])
	for i := len(factorials); i <= a; i++ {
		r = b.Mul(r, b.FromInt(int64(i)))
	}
	return r, nil
}

// Sqrt returns the square root of n. Decimal engines refine the double
// estimate with Newton's method.
func Sqrt[N any](b numeric.Backend[N], n N) (N, error) {
	if b.Sign(n) < 0 {
		return b.Zero(), domain("because n < 0 in SQRT")
	}
	if b.Config().Kind != numeric.Decimal || b.Sign(n) == 0 {
		return b.FromFloat(math.Sqrt(b.ToFloat(n))), nil
	}
	d := b.ToDecimal(n)
	two := decimal.NewFromInt(2)
	x0 := decimal.Zero
	x1 := decimal.NewFromFloat(math.Sqrt(d.InexactFloat64()))
	for i := 0; i < 100 && !x0.Equal(x1); i++ {
		x0 = x1
		x1 = d.DivRound(x0, numeric.UnscaledDivisionPrecision).Add(x0).
			DivRound(two, numeric.UnscaledDivisionPrecision)
	}
	return b.FromDecimal(x1), nil
}

// Power raises n to p. Integral exponents of decimal engines are exact.
func Power[N any](b numeric.Backend[N], n, p N) (N, error) {
	if b.Config().Kind == numeric.Double {
		r := math.Pow(b.ToFloat(n), b.ToFloat(p))
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return b.Zero(), domain("because result is not finite in POWER")
		}
		return b.FromFloat(r), nil
	}
	if b.Sign(n) == 0 && b.Sign(p) < 0 {
		return b.Zero(), Fail(CodeDiv0, "because 0 is raised to a negative power in POWER")
	}
	return b.Pow(n, p), nil
}

// Trunc rounds toward zero to digits fractional digits.
func Trunc[N any](b numeric.Backend[N], v N, digits int) N {
	return b.RoundDown(v, digits)
}

func Sign[N any](b numeric.Backend[N], v N) N {
	return b.FromInt(int64(b.Sign(v)))
}
