package runtime

import (
	"math"
	"math/rand/v2"
)

// Functions computed in double precision by every engine.

func finite(v float64, name string) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain("because result is not finite in %s", name)
	}
	return v, nil
}

func Acos(a float64) (float64, error) {
	if a < -1 || a > 1 {
		return 0, domain("because arg is out of [-1,1] in ACOS")
	}
	return math.Acos(a), nil
}

func Asin(a float64) (float64, error) {
	if a < -1 || a > 1 {
		return 0, domain("because arg is out of [-1,1] in ASIN")
	}
	return math.Asin(a), nil
}

func Acosh(a float64) (float64, error) {
	if a < 1 {
		return 0, domain("because arg < 1 in ACOSH")
	}
	return math.Log(a + math.Sqrt(a*a-1)), nil
}

func Asinh(a float64) float64 { return math.Log(a + math.Sqrt(a*a+1)) }

func Atanh(a float64) (float64, error) {
	if a <= -1 || a >= 1 {
		return 0, domain("because arg is out of (-1,1) in ATANH")
	}
	return math.Log((1+a)/(1-a)) / 2, nil
}

// Sinh fails where Excel overflows.
func Sinh(a float64) (float64, error) {
	if a > 709 {
		return 0, domain("because arg > 709 in SINH")
	}
	return math.Sinh(a), nil
}

// Atan2 takes its arguments in spreadsheet order: x first.
func Atan2(x, y float64) (float64, error) {
	if x == 0 && y == 0 {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because both args are 0 in ATAN2", legacy: true}
	}
	return math.Atan2(y, x), nil
}

func Degrees(a float64) float64 { return a * 180 / math.Pi }
func Radians(a float64) float64 { return a * math.Pi / 180 }

func Exp(a float64) (float64, error) { return finite(math.Exp(a), "EXP") }
func Ln(a float64) (float64, error)  { return finite(math.Log(a), "LN") }

func Log10(a float64) (float64, error) { return finite(math.Log10(a), "LOG10") }

// Log returns the logarithm of n to base x.
func Log(n, x float64) (float64, error) {
	lnN, err := finite(math.Log(n), "LOG")
	if err != nil {
		return 0, err
	}
	lnX, err := finite(math.Log(x), "LOG")
	if err != nil {
		return 0, err
	}
	if lnX == 0 {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because base is 1 in LOG", legacy: true}
	}
	return lnN / lnX, nil
}

// Combin returns the number of combinations of k out of n items.
func Combin(n, k int) (float64, error) {
	if n < 0 || k < 0 || n < k {
		return 0, domain("because n < 0 or k < 0 or n < k in COMBIN")
	}
	if k > n-k {
		k = n - k
	}
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return math.Round(r), nil
}

// Permut returns the number of k-permutations of n items.
func Permut(n, k int) (float64, error) {
	if n < 0 || k < 0 || n < k {
		return 0, domain("because n < 0 or k < 0 or n < k in PERMUT")
	}
	return mulRange(n-k, n), nil
}

// mulRange returns (m+1)*(m+2)*...*n.
func mulRange(m, n int) float64 {
	r := 1.0
	for i := m + 1; i <= n; i++ {
		r *= float64(i)
	}
	return r
}

func Erf(z float64) float64  { return math.Erf(z) }
func Erfc(z float64) float64 { return math.Erfc(z) }

// NewRandom returns the pseudo random source of one computation. Equal seeds
// give equal sequences.
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
