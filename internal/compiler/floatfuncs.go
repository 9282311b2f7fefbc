package compiler

import (
	"math"

	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// floatFunction is a runtime function computed in double precision whatever
// the backend. defaults replace omitted trailing arguments.
type floatFunction struct {
	fn       func(env *runtime.Environment, a []float64) (float64, error)
	defaults []float64
}

func f0(fn func(env *runtime.Environment) float64) floatFunction {
	return floatFunction{fn: func(env *runtime.Environment, _ []float64) (float64, error) { return fn(env), nil }}
}

func f1(fn func(float64) float64) floatFunction {
	return floatFunction{fn: func(_ *runtime.Environment, a []float64) (float64, error) { return fn(a[0]), nil }}
}

func f1e(fn func(float64) (float64, error)) floatFunction {
	return floatFunction{fn: func(_ *runtime.Environment, a []float64) (float64, error) { return fn(a[0]) }}
}

func f2e(fn func(a, b float64) (float64, error)) floatFunction {
	return floatFunction{fn: func(_ *runtime.Environment, a []float64) (float64, error) { return fn(a[0], a[1]) }}
}

func f3e(fn func(a, b, c float64) (float64, error)) floatFunction {
	return floatFunction{fn: func(_ *runtime.Environment, a []float64) (float64, error) { return fn(a[0], a[1], a[2]) }}
}

func fenv(fn func(env *runtime.Environment, a []float64) (float64, error), defaults ...float64) floatFunction {
	return floatFunction{fn: fn, defaults: defaults}
}

// part returns a date or time component as a function of the serial.
func part(fn func(env *runtime.Environment, serial float64) int) floatFunction {
	return fenv(func(env *runtime.Environment, a []float64) (float64, error) { return float64(fn(env, a[0])), nil })
}

func flag(v float64) bool { return v != 0 }

var floatFunctions = map[string]floatFunction{
	"PI":    f0(func(*runtime.Environment) float64 { return math.Pi }),
	"NOW":   f0((*runtime.Environment).NowSerial),
	"TODAY": f0((*runtime.Environment).Today),

	"SIN":       f1(math.Sin),
	"COS":       f1(math.Cos),
	"TAN":       f1(math.Tan),
	"ATAN":      f1(math.Atan),
	"COSH":      f1(math.Cosh),
	"TANH":      f1(math.Tanh),
	"ASINH":     f1(runtime.Asinh),
	"DEGREES":   f1(runtime.Degrees),
	"RADIANS":   f1(runtime.Radians),
	"ERF":       f1(runtime.Erf),
	"ERFC":      f1(runtime.Erfc),
	"NORMSDIST": f1(runtime.NormSDist),
	"FISHERINV": f1(runtime.FisherInv),
	"ASIN":      f1e(runtime.Asin),
	"ACOS":      f1e(runtime.Acos),
	"ACOSH":     f1e(runtime.Acosh),
	"ATANH":     f1e(runtime.Atanh),
	"SINH":      f1e(runtime.Sinh),
	"EXP":       f1e(runtime.Exp),
	"LN":        f1e(runtime.Ln),
	"LOG10":     f1e(runtime.Log10),
	"GAMMALN":   f1e(runtime.GammaLn),
	"NORMSINV":  f1e(runtime.NormSInv),
	"FISHER":    f1e(runtime.Fisher),
	"ATAN2":     f2e(runtime.Atan2),
	"CHIDIST":   f2e(runtime.ChiDist),
	"CHIINV":    f2e(runtime.ChiInv),
	"TINV":      f2e(runtime.TInv),
	"LOG":       fenv(func(_ *runtime.Environment, a []float64) (float64, error) { return runtime.Log(a[0], a[1]) }, 10),
	"COMBIN": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.Combin(int(a[0]), int(a[1]))
	}),
	"PERMUT": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.Permut(int(a[0]), int(a[1]))
	}),

	"DAY":    part((*runtime.Environment).Day),
	"MONTH":  part((*runtime.Environment).Month),
	"YEAR":   part((*runtime.Environment).Year),
	"HOUR":   part(func(_ *runtime.Environment, v float64) int { return runtime.Hour(v) }),
	"MINUTE": part(func(_ *runtime.Environment, v float64) int { return runtime.Minute(v) }),
	"SECOND": part(func(_ *runtime.Environment, v float64) int { return runtime.Second(v) }),
	"WEEKDAY": fenv(func(env *runtime.Environment, a []float64) (float64, error) {
		d, err := env.Weekday(a[0], int(a[1]))
		return float64(d), err
	}, 1),
	"DATE": fenv(func(env *runtime.Environment, a []float64) (float64, error) {
		return env.Date(int(a[0]), int(a[1]), int(a[2])), nil
	}),
	"TIME": fenv(func(env *runtime.Environment, a []float64) (float64, error) {
		return env.Time(a[0], a[1], a[2]), nil
	}),
	"DAYS360": fenv(func(env *runtime.Environment, a []float64) (float64, error) {
		return env.Days360(a[0], a[1], flag(a[2])), nil
	}, 0),

	"BETADIST": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		x, lo, hi := a[0], a[3], a[4]
		if hi <= lo {
			return 0, runtime.Fail(runtime.CodeNum, "because the upper bound %g is not above the lower bound %g in BETADIST", hi, lo)
		}
		return runtime.BetaDist((x-lo)/(hi-lo), a[1], a[2])
	}, 0, 1),
	"BETAINV": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.BetaInv(a[0], a[1], a[2])
	}),
	"BINOMDIST": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.BinomDist(a[0], a[1], a[2], flag(a[3]))
	}),
	"CRITBINOM": f3e(runtime.CritBinom),
	"EXPONDIST": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.ExponDist(a[0], a[1], flag(a[2]))
	}),
	"FDIST":    f3e(runtime.FDist),
	"FINV":     f3e(runtime.FInv),
	"GAMMAINV": f3e(runtime.GammaInv),
	"GAMMADIST": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.GammaDist(a[0], a[1], a[2], flag(a[3]))
	}),
	"HYPGEOMDIST": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.HypGeomDist(int(a[0]), int(a[1]), int(a[2]), int(a[3]))
	}),
	"LOGNORMDIST": f3e(runtime.LogNormDist),
	"LOGINV":      f3e(runtime.LogInv),
	"NORMDIST": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.NormDist(a[0], a[1], a[2], flag(a[3]))
	}),
	"NORMINV": f3e(runtime.NormInv),
	"POISSON": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.Poisson(a[0], a[1], flag(a[2]))
	}),
	"TDIST": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.TDist(a[0], a[1], int(a[2]))
	}),
	"WEIBULL": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.Weibull(a[0], a[1], a[2], flag(a[3]))
	}),
	"STANDARDIZE": f3e(runtime.Standardize),
	"CONFIDENCE":  f3e(runtime.Confidence),

	"PV": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.PV(a[0], a[1], a[2], a[3], a[4]), nil
	}, 0, 0),
	"FV": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.FV(a[0], a[1], a[2], a[3], a[4]), nil
	}, 0, 0),
	"PMT": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.PMT(a[0], a[1], a[2], a[3], a[4])
	}, 0, 0),
	"NPER": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.NPER(a[0], a[1], a[2], a[3], a[4])
	}, 0, 0),
	"RATE": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.RATE(a[0], a[1], a[2], a[3], a[4], a[5])
	}, 0, 0, 0.1),
	"SLN": f3e(runtime.SLN),
	"SYD": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.SYD(a[0], a[1], a[2], a[3])
	}),
	"DB": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.DB(a[0], a[1], a[2], a[3], a[4])
	}, 12),
	"DDB": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.DDB(a[0], a[1], a[2], a[3], a[4])
	}, 2),
	"VDB": fenv(func(_ *runtime.Environment, a []float64) (float64, error) {
		return runtime.VDB(a[0], a[1], a[2], a[3], a[4], a[5], flag(a[6]))
	}, 2, 0),
}

// floatCall compiles a call of a double precision function. Logical
// arguments are passed as 1 and 0.
func (x *exprCompiler[N]) floatCall(ff floatFunction, sig model.Signature, n *model.Call, s scope[N]) (result[N], error) {
	total := len(sig.Params)
	if len(n.Args) > total {
		total = len(n.Args)
	}
	firstDefault := len(sig.Params) - len(ff.defaults)
	args := make([]eval[N, float64], total)
	b := x.b
	for i := range args {
		if i >= len(n.Args) {
			args[i] = constant[N](ff.defaults[i-firstDefault])
			continue
		}
		v, err := x.numeric(n.Args[i], s)
		if err != nil {
			return result[N]{}, err
		}
		args[i] = func(f *frame[N]) float64 { return b.ToFloat(v(f)) }
	}
	env, fn := x.env, ff.fn
	return numberResult(func(f *frame[N]) N {
		a := make([]float64, len(args))
		for i, arg := range args {
			a[i] = arg(f)
		}
		v, err := fn(env, a)
		return floatResult(b, v, err)
	}), nil
}

// vectorStatistics are functions of all numeric elements of their
// arguments.
var vectorStatistics = map[string]func([]float64) (float64, error){
	"VAR":     runtime.Var,
	"VARP":    runtime.VarP,
	"STDEV":   runtime.StDev,
	"STDEVP":  runtime.StDevP,
	"AVEDEV":  runtime.AveDev,
	"GEOMEAN": runtime.GeoMean,
	"HARMEAN": runtime.HarMean,
	"KURT":    runtime.Kurt,
	"SKEW":    runtime.Skew,
	"DEVSQ":   func(v []float64) (float64, error) { return runtime.DevSq(v), nil },
}

// pairStatistics are functions of two vectors, in argument order.
var pairStatistics = map[string]func(a, b []float64) (float64, error){
	"CORREL":    runtime.Correl,
	"PEARSON":   runtime.Correl,
	"COVAR":     runtime.Covar,
	"SLOPE":     runtime.Slope,
	"INTERCEPT": runtime.Intercept,
	"RSQ":       runtime.RSq,
}

func (x *exprCompiler[N]) vectorCall(fn func([]float64) (float64, error), n *model.Call, s scope[N]) (result[N], error) {
	v, err := x.floatVector(n.Args, s)
	if err != nil {
		return result[N]{}, err
	}
	b := x.b
	return numberResult(func(f *frame[N]) N {
		r, err := fn(v(f))
		return floatResult(b, r, err)
	}), nil
}

func (x *exprCompiler[N]) pairCall(fn func(a, b []float64) (float64, error), n *model.Call, s scope[N]) (result[N], error) {
	v0, err := x.floatVector(n.Args[:1], s)
	if err != nil {
		return result[N]{}, err
	}
	v1, err := x.floatVector(n.Args[1:2], s)
	if err != nil {
		return result[N]{}, err
	}
	b := x.b
	return numberResult(func(f *frame[N]) N {
		r, err := fn(v0(f), v1(f))
		return floatResult(b, r, err)
	}), nil
}

// financialCall compiles the cash flow functions, whose vectors are folded
// in double precision.
func (x *exprCompiler[N]) financialCall(name string, n *model.Call, s scope[N]) (result[N], error) {
	num := func(i int, def float64) (eval[N, float64], error) {
		if i >= len(n.Args) {
			return constant[N](def), nil
		}
		v, err := x.numeric(n.Args[i], s)
		if err != nil {
			return nil, err
		}
		b := x.b
		return func(f *frame[N]) float64 { return b.ToFloat(v(f)) }, nil
	}
	vec := func(args ...model.Expr) (eval[N, []float64], error) { return x.floatVector(args, s) }

	var fn func(f *frame[N]) (float64, error)
	switch name {
	case "NPV":
		rate, err := num(0, 0)
		if err != nil {
			return result[N]{}, err
		}
		values, err := vec(n.Args[1:]...)
		if err != nil {
			return result[N]{}, err
		}
		fn = func(f *frame[N]) (float64, error) { return runtime.NPV(rate(f), values(f)) }
	case "IRR":
		values, err := vec(n.Args[0])
		if err != nil {
			return result[N]{}, err
		}
		guess, err := num(1, 0.1)
		if err != nil {
			return result[N]{}, err
		}
		fn = func(f *frame[N]) (float64, error) { return runtime.IRR(values(f), guess(f)) }
	case "MIRR":
		values, err := vec(n.Args[0])
		if err != nil {
			return result[N]{}, err
		}
		finance, err := num(1, 0)
		if err != nil {
			return result[N]{}, err
		}
		reinvest, err := num(2, 0)
		if err != nil {
			return result[N]{}, err
		}
		fn = func(f *frame[N]) (float64, error) { return runtime.MIRR(values(f), finance(f), reinvest(f)) }
	case "XIRR":
		values, err := vec(n.Args[0])
		if err != nil {
			return result[N]{}, err
		}
		dates, err := vec(n.Args[1])
		if err != nil {
			return result[N]{}, err
		}
		guess, err := num(2, 0.1)
		if err != nil {
			return result[N]{}, err
		}
		fn = func(f *frame[N]) (float64, error) { return runtime.XIRR(values(f), dates(f), guess(f)) }
	case "XNPV":
		rate, err := num(0, 0)
		if err != nil {
			return result[N]{}, err
		}
		values, err := vec(n.Args[1])
		if err != nil {
			return result[N]{}, err
		}
		dates, err := vec(n.Args[2])
		if err != nil {
			return result[N]{}, err
		}
		fn = func(f *frame[N]) (float64, error) { return runtime.XNPV(rate(f), values(f), dates(f)) }
	case "FORECAST":
		at, err := num(0, 0)
		if err != nil {
			return result[N]{}, err
		}
		ys, err := vec(n.Args[1])
		if err != nil {
			return result[N]{}, err
		}
		xs, err := vec(n.Args[2])
		if err != nil {
			return result[N]{}, err
		}
		fn = func(f *frame[N]) (float64, error) { return runtime.Forecast(at(f), ys(f), xs(f)) }
	default:
		return result[N]{}, compileErrorf("%s is not a cash flow function", name)
	}
	b := x.b
	return numberResult(func(f *frame[N]) N {
		v, err := fn(f)
		return floatResult(b, v, err)
	}), nil
}
