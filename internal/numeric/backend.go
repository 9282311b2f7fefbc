package numeric

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Backend is the arithmetic of one numeric representation. All methods are
// pure; a Backend is immutable after construction and safe for concurrent use.
type Backend[N any] interface {
	Config() Config
	// Lenient reports whether domain errors yield zero instead of failing.
	Lenient() bool

	Zero() N
	One() N
	FromInt(v int64) N
	FromFloat(v float64) N
	FromDecimal(v decimal.Decimal) N
	// Parse converts a literal in plain decimal notation.
	Parse(literal string) (N, error)
	// FromScaled converts an integer carrying scale implied fractional digits.
	FromScaled(v int64, scale int) N

	ToFloat(v N) float64
	ToDecimal(v N) decimal.Decimal
	// ToInt truncates toward zero.
	ToInt(v N) int
	ToScaled(v N, scale int) int64

	Add(a, b N) N
	Sub(a, b N) N
	Mul(a, b N) N
	Div(a, b N) N
	Pow(a, b N) N
	Neg(v N) N
	Abs(v N) N
	Percent(v N) N
	Min(a, b N) N
	Max(a, b N) N

	Cmp(a, b N) int
	Sign(v N) int

	// Round rounds half away from zero to digits fractional digits.
	Round(v N, digits int) N
	RoundUp(v N, digits int) N
	RoundDown(v N, digits int) N
	// Int rounds toward negative infinity.
	Int(v N) N
}

// ArithmeticError is raised by backends for failures that have no value in
// the representation, such as a division by zero in a decimal engine or an
// overflow of a fixed point value.
type ArithmeticError struct {
	Op     string
	Reason string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// fail panics with an ArithmeticError. Compiled computations recover it at
// their outer boundary.
func fail(op, reason string) {
	panic(&ArithmeticError{Op: op, Reason: reason})
}
