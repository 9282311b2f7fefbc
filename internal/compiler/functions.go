package compiler

import (
	"errors"
	"strings"

	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// call compiles a function call in the type of its result.
func (x *exprCompiler[N]) call(n *model.Call, s scope[N]) (result[N], error) {
	name := strings.ToUpper(n.Fn)
	sig, ok := model.Lookup(name)
	if !ok {
		return result[N]{}, compileErrorf("unknown function %s", n.Fn)
	}
	if !sig.Accepts(len(n.Args)) {
		return result[N]{}, compileErrorf("wrong number of arguments to %s: %d", name, len(n.Args))
	}
	r, err := x.function(name, sig, n, s)
	if err != nil {
		return result[N]{}, withContext(err, "%s", model.Describe(n))
	}
	return r, nil
}

func (x *exprCompiler[N]) function(name string, sig model.Signature, n *model.Call, s scope[N]) (result[N], error) {
	if isPolymorphic(name) {
		return x.polymorphicResult(name, n, s)
	}
	if ff, ok := floatFunctions[name]; ok {
		return x.floatCall(ff, sig, n, s)
	}
	if fn, ok := vectorStatistics[name]; ok {
		return x.vectorCall(fn, n, s)
	}
	if fn, ok := pairStatistics[name]; ok {
		return x.pairCall(fn, n, s)
	}
	if model.IsDatabase(name) {
		e, err := model.NewDatabaseFold(name, n.Args[0], n.Args[1], n.Args[2])
		if err != nil {
			return result[N]{}, err
		}
		fn, err := x.numeric(e, s)
		return numberResult(fn), err
	}
	if def := model.StandardFold(name); def != nil && len(def.Elements) > 1 {
		fn, err := x.foldVectors(&model.FoldVectors{Def: def, Vectors: n.Args}, s)
		return numberResult(fn), err
	}

	switch name {
	case "NPV", "IRR", "MIRR", "XIRR", "XNPV", "FORECAST":
		return x.financialCall(name, n, s)
	case "MATCH":
		return x.match(n, s)
	case "SUMIF", "COUNTIF":
		return x.conditional(name, n, s)
	case "NOT", "TRUE", "FALSE":
		fn, err := x.test(n, s, false)
		return testResult(fn), err
	case "ISERROR", "ISERR", "ISNA":
		return x.probe(name, n, s)
	case "NA":
		return numberResult(func(*frame[N]) N { panic(runtime.NotAvailable("because NA() was called")) }), nil
	case "ERROR":
		msg, err := x.text(n.Args[0], s)
		if err != nil {
			return result[N]{}, err
		}
		return numberResult(func(f *frame[N]) N { panic(runtime.UserError(msg(f))) }), nil
	}
	if sig.Result == model.Text || name == "EXACT" {
		return x.textFunction(name, n, s)
	}
	return x.exactFunction(name, n, s)
}

// numArg compiles the i-th argument as a number, or def when it is omitted.
func (x *exprCompiler[N]) numArg(n *model.Call, i int, s scope[N], def N) (eval[N, N], error) {
	if i >= len(n.Args) {
		return constant[N](def), nil
	}
	return x.numeric(n.Args[i], s)
}

// intArg compiles the i-th argument truncated to an integer.
func (x *exprCompiler[N]) intArg(n *model.Call, i int, s scope[N], def int) (eval[N, int], error) {
	if i >= len(n.Args) {
		return constant[N](def), nil
	}
	v, err := x.numeric(n.Args[i], s)
	if err != nil {
		return nil, err
	}
	b := x.b
	return func(f *frame[N]) int { return b.ToInt(v(f)) }, nil
}

func (x *exprCompiler[N]) textArg(n *model.Call, i int, s scope[N], def string) (eval[N, string], error) {
	if i >= len(n.Args) {
		return constant[N](def), nil
	}
	return x.text(n.Args[i], s)
}

func (x *exprCompiler[N]) testArg(n *model.Call, i int, s scope[N], def bool) (eval[N, bool], error) {
	if i >= len(n.Args) {
		return constant[N](def), nil
	}
	return x.test(n.Args[i], s, false)
}

// unary lifts a function of one number.
func unary[N any](a eval[N, N], fn func(N) N) eval[N, N] {
	return func(f *frame[N]) N { return fn(a(f)) }
}

// exactFunction compiles the numeric functions computed in the backend's own
// arithmetic.
func (x *exprCompiler[N]) exactFunction(name string, n *model.Call, s scope[N]) (result[N], error) {
	b := x.b
	switch name {
	case "RAND":
		return numberResult(func(f *frame[N]) N { return b.FromFloat(f.inst.run.rnd.Float64()) }), nil
	case "N":
		switch s.typeOf(n.Args[0]) {
		case model.Text:
			return numberResult(constant[N](b.Zero())), nil
		case model.Boolean:
			fn, err := x.numberFromTest(n.Args[0], s)
			return numberResult(fn), err
		}
		fn, err := x.numeric(n.Args[0], s)
		return numberResult(fn), err
	case "LEN", "CODE", "VALUE", "DATEVALUE", "TIMEVALUE":
		return x.textMeasure(name, n, s)
	case "FIND", "SEARCH":
		return x.find(name, n, s)
	case "MEDIAN", "LARGE", "SMALL", "RANK", "SUMPRODUCT":
		return x.orderStatistic(name, n, s)
	}

	a, err := x.numeric(n.Args[0], s)
	if err != nil {
		return result[N]{}, err
	}
	var fn eval[N, N]
	switch name {
	case "ABS":
		fn = unary(a, b.Abs)
	case "SIGN":
		fn = unary(a, func(v N) N { return runtime.Sign(b, v) })
	case "INT":
		fn = unary(a, b.Int)
	case "EVEN":
		fn = unary(a, func(v N) N { return runtime.Even(b, v) })
	case "ODD":
		fn = unary(a, func(v N) N { return runtime.Odd(b, v) })
	case "SQRT":
		fn = unary(a, func(v N) N { r, err := runtime.Sqrt(b, v); return must(b, r, err) })
	case "FACT":
		fn = unary(a, func(v N) N { r, err := runtime.Fact(b, v); return must(b, r, err) })
	case "ROUND", "ROUNDUP", "ROUNDDOWN", "TRUNC":
		digits, err := x.intArg(n, 1, s, 0)
		if err != nil {
			return result[N]{}, err
		}
		round := map[string]func(N, int) N{
			"ROUND":     b.Round,
			"ROUNDUP":   b.RoundUp,
			"ROUNDDOWN": b.RoundDown,
			"TRUNC":     func(v N, d int) N { return runtime.Trunc(b, v, d) },
		}[name]
		fn = func(f *frame[N]) N { return round(a(f), digits(f)) }
	case "MOD", "POWER":
		c, err := x.numeric(n.Args[1], s)
		if err != nil {
			return result[N]{}, err
		}
		op := runtime.Mod[N]
		if name == "POWER" {
			op = runtime.Power[N]
		}
		fn = func(f *frame[N]) N { r, err := op(b, a(f), c(f)); return must(b, r, err) }
	case "CEILING", "FLOOR":
		sig, err := x.numArg(n, 1, s, b.One())
		if err != nil {
			return result[N]{}, err
		}
		op := runtime.Ceiling[N]
		if name == "FLOOR" {
			op = runtime.Floor[N]
		}
		mode := x.env.Mode()
		fn = func(f *frame[N]) N { r, err := op(b, mode, a(f), sig(f)); return must(b, r, err) }
	default:
		return result[N]{}, compileErrorf("unsupported function %s", name)
	}
	return numberResult(fn), nil
}

// textMeasure compiles the numeric functions of one text.
func (x *exprCompiler[N]) textMeasure(name string, n *model.Call, s scope[N]) (result[N], error) {
	t, err := x.text(n.Args[0], s)
	if err != nil {
		return result[N]{}, err
	}
	b, env := x.b, x.env
	var fn eval[N, N]
	switch name {
	case "LEN":
		fn = func(f *frame[N]) N { return b.FromInt(int64(runtime.Len(t(f)))) }
	case "CODE":
		fn = func(f *frame[N]) N { c, err := env.Code(t(f)); return mustInt(b, c, err) }
	case "VALUE":
		fn = func(f *frame[N]) N {
			d, err := env.Value(t(f))
			if err != nil {
				return must(b, b.Zero(), err)
			}
			return b.FromDecimal(d)
		}
	case "DATEVALUE":
		fn = func(f *frame[N]) N { v, err := env.DateValue(t(f)); return floatResult(b, v, err) }
	case "TIMEVALUE":
		fn = func(f *frame[N]) N { v, err := env.TimeValue(t(f)); return floatResult(b, v, err) }
	}
	return numberResult(fn), nil
}

func (x *exprCompiler[N]) find(name string, n *model.Call, s scope[N]) (result[N], error) {
	what, err := x.text(n.Args[0], s)
	if err != nil {
		return result[N]{}, err
	}
	within, err := x.text(n.Args[1], s)
	if err != nil {
		return result[N]{}, err
	}
	start, err := x.intArg(n, 2, s, 1)
	if err != nil {
		return result[N]{}, err
	}
	op := runtime.Find
	if name == "SEARCH" {
		op = runtime.Search
	}
	b := x.b
	return numberResult(func(f *frame[N]) N {
		pos, err := op(what(f), within(f), start(f))
		return mustInt(b, pos, err)
	}), nil
}

// orderStatistic compiles functions over vectors kept in the backend's
// representation.
func (x *exprCompiler[N]) orderStatistic(name string, n *model.Call, s scope[N]) (result[N], error) {
	b := x.b
	switch name {
	case "MEDIAN":
		v, err := x.vector(n.Args, s)
		if err != nil {
			return result[N]{}, err
		}
		return numberResult(func(f *frame[N]) N { r, err := runtime.Median(b, v(f)); return must(b, r, err) }), nil
	case "LARGE", "SMALL":
		v, err := x.vector(n.Args[:1], s)
		if err != nil {
			return result[N]{}, err
		}
		k, err := x.intArg(n, 1, s, 1)
		if err != nil {
			return result[N]{}, err
		}
		op := runtime.Large[N]
		if name == "SMALL" {
			op = runtime.Small[N]
		}
		return numberResult(func(f *frame[N]) N { r, err := op(b, v(f), k(f)); return must(b, r, err) }), nil
	case "RANK":
		at, err := x.numeric(n.Args[0], s)
		if err != nil {
			return result[N]{}, err
		}
		v, err := x.vector(n.Args[1:2], s)
		if err != nil {
			return result[N]{}, err
		}
		order, err := x.intArg(n, 2, s, 0)
		if err != nil {
			return result[N]{}, err
		}
		return numberResult(func(f *frame[N]) N {
			r, err := runtime.Rank(b, at(f), v(f), order(f) != 0)
			return mustInt(b, r, err)
		}), nil
	case "SUMPRODUCT":
		vs := make([]eval[N, []N], len(n.Args))
		for i := range n.Args {
			var err error
			if vs[i], err = x.vector(n.Args[i:i+1], s); err != nil {
				return result[N]{}, err
			}
		}
		return numberResult(func(f *frame[N]) N {
			vals := make([][]N, len(vs))
			for i, v := range vs {
				vals[i] = v(f)
			}
			r, err := runtime.SumProduct(b, vals...)
			return must(b, r, err)
		}), nil
	}
	return result[N]{}, compileErrorf("unsupported function %s", name)
}

// textFunction compiles the functions producing text, and EXACT.
func (x *exprCompiler[N]) textFunction(name string, n *model.Call, s scope[N]) (result[N], error) {
	env := x.env
	switch name {
	case "CONCATENATE":
		parts := make([]eval[N, string], len(n.Args))
		for i, a := range n.Args {
			var err error
			if parts[i], err = x.text(a, s); err != nil {
				return result[N]{}, err
			}
		}
		return textResult(func(f *frame[N]) string {
			var sb strings.Builder
			for _, p := range parts {
				sb.WriteString(p(f))
			}
			return sb.String()
		}), nil
	case "T":
		if s.typeOf(n.Args[0]) != model.Text {
			return textResult(constant[N]("")), nil
		}
		fn, err := x.text(n.Args[0], s)
		return textResult(fn), err
	case "CHAR", "ROMAN", "FIXED", "ADDRESS":
		return x.numberText(name, n, s)
	case "TEXT":
		format, err := x.text(n.Args[1], s)
		if err != nil {
			return result[N]{}, err
		}
		if s.typeOf(n.Args[0]) == model.Text {
			t, err := x.text(n.Args[0], s)
			if err != nil {
				return result[N]{}, err
			}
			return textResult(func(f *frame[N]) string {
				v, fm := t(f), format(f)
				if fm != "@" {
					return mustText(env.Text(x.b.ToDecimal(x.numberOf(v)), fm))
				}
				return v
			}), nil
		}
		v, err := x.numeric(n.Args[0], s)
		if err != nil {
			return result[N]{}, err
		}
		b := x.b
		return textResult(func(f *frame[N]) string { return mustText(env.Text(b.ToDecimal(v(f)), format(f))) }), nil
	}

	t, err := x.text(n.Args[0], s)
	if err != nil {
		return result[N]{}, err
	}
	switch name {
	case "LOWER":
		return textResult(func(f *frame[N]) string { return env.Lower(t(f)) }), nil
	case "UPPER":
		return textResult(func(f *frame[N]) string { return env.Upper(t(f)) }), nil
	case "PROPER":
		return textResult(func(f *frame[N]) string { return env.Proper(t(f)) }), nil
	case "TRIM":
		return textResult(func(f *frame[N]) string { return runtime.Trim(t(f)) }), nil
	case "CLEAN":
		return textResult(func(f *frame[N]) string { return runtime.Clean(t(f)) }), nil
	case "EXACT":
		u, err := x.text(n.Args[1], s)
		if err != nil {
			return result[N]{}, err
		}
		return testResult(func(f *frame[N]) bool { return runtime.Exact(t(f), u(f)) }), nil
	case "REPT":
		count, err := x.intArg(n, 1, s, 0)
		if err != nil {
			return result[N]{}, err
		}
		return textResult(func(f *frame[N]) string { return runtime.Rept(t(f), count(f)) }), nil
	case "LEFT", "RIGHT":
		count, err := x.intArg(n, 1, s, 1)
		if err != nil {
			return result[N]{}, err
		}
		op := runtime.Left
		if name == "RIGHT" {
			op = runtime.Right
		}
		return textResult(func(f *frame[N]) string { return mustText(op(t(f), count(f))) }), nil
	case "MID":
		start, err := x.intArg(n, 1, s, 1)
		if err != nil {
			return result[N]{}, err
		}
		count, err := x.intArg(n, 2, s, 0)
		if err != nil {
			return result[N]{}, err
		}
		return textResult(func(f *frame[N]) string { return mustText(runtime.Mid(t(f), start(f), count(f))) }), nil
	case "SUBSTITUTE":
		src, err := x.text(n.Args[1], s)
		if err != nil {
			return result[N]{}, err
		}
		tgt, err := x.text(n.Args[2], s)
		if err != nil {
			return result[N]{}, err
		}
		if len(n.Args) < 4 {
			return textResult(func(f *frame[N]) string { return runtime.Substitute(t(f), src(f), tgt(f)) }), nil
		}
		nth, err := x.intArg(n, 3, s, 1)
		if err != nil {
			return result[N]{}, err
		}
		return textResult(func(f *frame[N]) string {
			return mustText(runtime.SubstituteNth(t(f), src(f), tgt(f), nth(f)))
		}), nil
	case "REPLACE":
		at, err := x.intArg(n, 1, s, 1)
		if err != nil {
			return result[N]{}, err
		}
		count, err := x.intArg(n, 2, s, 0)
		if err != nil {
			return result[N]{}, err
		}
		repl, err := x.text(n.Args[3], s)
		if err != nil {
			return result[N]{}, err
		}
		return textResult(func(f *frame[N]) string {
			return mustText(runtime.Replace(t(f), at(f), count(f), repl(f)))
		}), nil
	}
	return result[N]{}, compileErrorf("unsupported function %s", name)
}

// numberText compiles the text functions of a number.
func (x *exprCompiler[N]) numberText(name string, n *model.Call, s scope[N]) (result[N], error) {
	env, b := x.env, x.b
	v, err := x.numeric(n.Args[0], s)
	if err != nil {
		return result[N]{}, err
	}
	switch name {
	case "CHAR":
		return textResult(func(f *frame[N]) string { return mustText(env.Char(b.ToInt(v(f)))) }), nil
	case "ROMAN":
		mode, err := x.intArg(n, 1, s, 0)
		if err != nil {
			return result[N]{}, err
		}
		return textResult(func(f *frame[N]) string { return mustText(runtime.Roman(b.ToInt(v(f)), mode(f))) }), nil
	case "FIXED":
		decimals, err := x.intArg(n, 1, s, 2)
		if err != nil {
			return result[N]{}, err
		}
		noCommas, err := x.testArg(n, 2, s, false)
		if err != nil {
			return result[N]{}, err
		}
		return textResult(func(f *frame[N]) string { return env.Fixed(b.ToFloat(v(f)), decimals(f), noCommas(f)) }), nil
	case "ADDRESS":
		col, err := x.intArg(n, 1, s, 1)
		if err != nil {
			return result[N]{}, err
		}
		abs, err := x.intArg(n, 2, s, 1)
		if err != nil {
			return result[N]{}, err
		}
		a1, err := x.testArg(n, 3, s, true)
		if err != nil {
			return result[N]{}, err
		}
		sheet, err := x.textArg(n, 4, s, "")
		if err != nil {
			return result[N]{}, err
		}
		return textResult(func(f *frame[N]) string {
			return mustText(runtime.Address(b.ToInt(v(f)), col(f), abs(f), a1(f), sheet(f)))
		}), nil
	}
	return result[N]{}, compileErrorf("unsupported function %s", name)
}

// value compiles e in its own type.
func (x *exprCompiler[N]) value(e model.Expr, s scope[N]) (result[N], error) {
	switch s.typeOf(e) {
	case model.Text:
		fn, err := x.text(e, s)
		return textResult(fn), err
	case model.Boolean:
		fn, err := x.test(e, s, false)
		return testResult(fn), err
	}
	fn, err := x.numeric(e, s)
	return numberResult(fn), err
}

// formulaFailure reports whether err is a failure a spreadsheet formula can
// test for. Host input errors are not.
func formulaFailure(err error) bool {
	var ae *numeric.ArithmeticError
	return runtime.IsFormulaError(err) || errors.As(err, &ae)
}

// probe compiles ISERROR, ISERR and ISNA. The argument is evaluated and the
// failure it raises, if any, is classified.
func (x *exprCompiler[N]) probe(name string, n *model.Call, s scope[N]) (result[N], error) {
	r, err := x.value(n.Args[0], s)
	if err != nil {
		return result[N]{}, err
	}
	var run func(f *frame[N])
	switch r.typ {
	case model.Text:
		run = func(f *frame[N]) { r.text(f) }
	case model.Boolean:
		run = func(f *frame[N]) { r.test(f) }
	default:
		run = func(f *frame[N]) { r.num(f) }
	}
	matches := map[string]func(error) bool{
		"ISERROR": func(error) bool { return true },
		"ISERR":   func(err error) bool { return !runtime.IsNotAvailable(err) },
		"ISNA":    runtime.IsNotAvailable,
	}[name]
	return testResult(func(f *frame[N]) (failed bool) {
		inst := f.inst
		defer func() {
			f.inst = inst
			if p := recover(); p != nil {
				err, ok := p.(error)
				if !ok || !formulaFailure(err) {
					panic(p)
				}
				failed = matches(err)
			}
		}()
		run(f)
		return false
	}), nil
}
