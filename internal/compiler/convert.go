package compiler

import (
	"strings"

	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// must returns v, or raises err. Lenient backends report legacy domain
// errors as zero.
func must[N any](b numeric.Backend[N], v N, err error) N {
	if err == nil {
		return v
	}
	if b.Lenient() && runtime.IsLegacyZero(err) {
		return b.Zero()
	}
	panic(err)
}

// floatResult converts the result of a double precision runtime function.
func floatResult[N any](b numeric.Backend[N], v float64, err error) N {
	if err != nil {
		return must(b, b.Zero(), err)
	}
	return b.FromFloat(v)
}

// mustInt returns the result of a runtime function with an integer result.
func mustInt[N any](b numeric.Backend[N], v int, err error) N {
	if err != nil {
		return must(b, b.Zero(), err)
	}
	return b.FromInt(int64(v))
}

// mustText raises err or returns s.
func mustText(s string, err error) string {
	if err != nil {
		panic(err)
	}
	return s
}

func constant[N, T any](v T) eval[N, T] {
	return func(*frame[N]) T { return v }
}

func boolText(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (x *exprCompiler[N]) fromBool(v bool) N {
	if v {
		return x.b.One()
	}
	return x.b.Zero()
}

// numberOf converts text to a number. Empty text is a blank cell and counts
// as zero.
func (x *exprCompiler[N]) numberOf(s string) N {
	if s == "" {
		return x.b.Zero()
	}
	d, err := x.env.Value(s)
	if err != nil {
		return must(x.b, x.b.Zero(), err)
	}
	return x.b.FromDecimal(d)
}

func (x *exprCompiler[N]) textOf(v N) string {
	return x.env.FormatDecimal(x.b.ToDecimal(v))
}

func (x *exprCompiler[N]) truth(v N) bool { return x.b.Sign(v) != 0 }

// truthOfText accepts TRUE, FALSE and numbers.
func (x *exprCompiler[N]) truthOfText(s string) bool {
	switch {
	case strings.EqualFold(s, "TRUE"):
		return true
	case strings.EqualFold(s, "FALSE"), s == "":
		return false
	}
	d, err := x.env.Value(s)
	if err != nil {
		panic(runtime.Fail(runtime.CodeValue, "because %q is not a logical value", s))
	}
	return d.Sign() != 0
}

func (x *exprCompiler[N]) numberFromText(e model.Expr, s scope[N]) (eval[N, N], error) {
	t, err := x.text(e, s)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) N { return x.numberOf(t(f)) }, nil
}

func (x *exprCompiler[N]) numberFromTest(e model.Expr, s scope[N]) (eval[N, N], error) {
	t, err := x.test(e, s, false)
	if err != nil {
		return nil, err
	}
	one, zero := x.b.One(), x.b.Zero()
	return func(f *frame[N]) N {
		if t(f) {
			return one
		}
		return zero
	}, nil
}

// textFrom converts a numeric or boolean expression to text.
func (x *exprCompiler[N]) textFrom(e model.Expr, s scope[N]) (eval[N, string], error) {
	if s.typeOf(e) == model.Boolean {
		t, err := x.test(e, s, false)
		if err != nil {
			return nil, err
		}
		return func(f *frame[N]) string { return boolText(t(f)) }, nil
	}
	n, err := x.numeric(e, s)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) string { return x.textOf(n(f)) }, nil
}

// truthOf tests a value that is not shaped as a condition.
func (x *exprCompiler[N]) truthOf(e model.Expr, s scope[N]) (eval[N, bool], error) {
	if c, ok := e.(*model.Call); ok && !isPolymorphic(strings.ToUpper(c.Fn)) {
		r, err := x.call(c, s)
		if err != nil {
			return nil, err
		}
		return x.resultTest(r), nil
	}
	if s.typeOf(e) == model.Text {
		t, err := x.text(e, s)
		if err != nil {
			return nil, err
		}
		return func(f *frame[N]) bool { return x.truthOfText(t(f)) }, nil
	}
	n, err := x.numeric(e, s)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) bool { return x.truth(n(f)) }, nil
}

// result is compiled code of a function whose result type is known only
// after compilation. Exactly the member matching typ is set.
type result[N any] struct {
	typ  model.DataType
	num  eval[N, N]
	text eval[N, string]
	test eval[N, bool]
}

func numberResult[N any](fn eval[N, N]) result[N] {
	return result[N]{typ: model.Numeric, num: fn}
}

func textResult[N any](fn eval[N, string]) result[N] {
	return result[N]{typ: model.Text, text: fn}
}

func testResult[N any](fn eval[N, bool]) result[N] {
	return result[N]{typ: model.Boolean, test: fn}
}

func (x *exprCompiler[N]) resultNumber(r result[N]) eval[N, N] {
	switch r.typ {
	case model.Text:
		return func(f *frame[N]) N { return x.numberOf(r.text(f)) }
	case model.Boolean:
		return func(f *frame[N]) N { return x.fromBool(r.test(f)) }
	}
	return r.num
}

func (x *exprCompiler[N]) resultText(r result[N]) eval[N, string] {
	switch r.typ {
	case model.Numeric:
		return func(f *frame[N]) string { return x.textOf(r.num(f)) }
	case model.Boolean:
		return func(f *frame[N]) string { return boolText(r.test(f)) }
	}
	return r.text
}

func (x *exprCompiler[N]) resultTest(r result[N]) eval[N, bool] {
	switch r.typ {
	case model.Numeric:
		return func(f *frame[N]) bool { return x.truth(r.num(f)) }
	case model.Text:
		return func(f *frame[N]) bool { return x.truthOfText(r.text(f)) }
	}
	return r.test
}
