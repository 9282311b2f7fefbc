package model

import "strings"

// Param is the kind of a function parameter.
type Param int

const (
	PNum Param = iota
	PText
	// PTest is a condition; numbers test as true when not zero.
	PTest
	// PAny is a scalar of any type.
	PAny
	// PVector is a list of numbers: scalars, arrays and repeating sections.
	PVector
	// PArray is an array or repeating section of any element type.
	PArray
)

// Signature describes a built-in function.
type Signature struct {
	Result DataType
	// ResultArg, if not negative, is the argument whose type is the result
	// type.
	ResultArg int
	Params    []Param
	// Optional is the number of trailing parameters that may be omitted.
	Optional int
	// Variadic repeats the last parameter.
	Variadic bool
}

// Accepts reports whether n arguments fit the signature.
func (s Signature) Accepts(n int) bool {
	min := len(s.Params) - s.Optional
	if s.Variadic {
		return n >= min
	}
	return n >= min && n <= len(s.Params)
}

// Param returns the kind of the i-th argument.
func (s Signature) Param(i int) Param {
	if i >= len(s.Params) {
		return s.Params[len(s.Params)-1]
	}
	return s.Params[i]
}

func sig(result DataType, params ...Param) Signature {
	return Signature{Result: result, ResultArg: -1, Params: params}
}

func (s Signature) opt(n int) Signature {
	s.Optional = n
	return s
}

func (s Signature) variadic() Signature {
	s.Variadic = true
	return s
}

func (s Signature) like(arg int) Signature {
	s.ResultArg = arg
	return s
}

func nums(n int) []Param {
	p := make([]Param, n)
	for i := range p {
		p[i] = PNum
	}
	return p
}

var functions = map[string]Signature{}

func register(sig Signature, names ...string) {
	for _, n := range names {
		functions[n] = sig
	}
}

func init() {
	register(sig(Numeric, PNum),
		"ABS", "SIGN", "INT", "EVEN", "ODD", "SQRT", "EXP", "LN", "LOG10", "FACT",
		"DEGREES", "RADIANS", "SIN", "COS", "TAN", "ASIN", "ACOS", "ATAN",
		"SINH", "COSH", "TANH", "ASINH", "ACOSH", "ATANH",
		"DAY", "MONTH", "YEAR", "HOUR", "MINUTE", "SECOND",
		"GAMMALN", "NORMSDIST", "NORMSINV", "ERF", "ERFC", "FISHER", "FISHERINV")
	register(sig(Numeric, nums(2)...),
		"ROUND", "ROUNDUP", "ROUNDDOWN", "MOD", "POWER", "COMBIN", "PERMUT", "ATAN2",
		"CHIDIST", "CHIINV", "TINV")
	register(sig(Numeric, nums(2)...).opt(1), "TRUNC", "LOG", "WEEKDAY", "CEILING", "FLOOR")
	register(sig(Numeric), "PI", "RAND", "NOW", "TODAY")
	register(sig(Numeric, nums(3)...),
		"DATE", "TIME", "BETAINV", "CRITBINOM", "FDIST", "FINV", "GAMMAINV",
		"LOGNORMDIST", "LOGINV", "NORMINV", "STANDARDIZE", "CONFIDENCE", "TDIST",
		"SLN")
	register(sig(Numeric, PNum, PNum, PTest).opt(1), "DAYS360")
	register(sig(Numeric, nums(5)...).opt(2), "BETADIST")
	register(sig(Numeric, PNum, PNum, PNum, PTest), "BINOMDIST")
	register(sig(Numeric, PNum, PNum, PTest), "EXPONDIST", "POISSON")
	register(sig(Numeric, PNum, PNum, PNum, PTest), "GAMMADIST", "NORMDIST", "WEIBULL")
	register(sig(Numeric, nums(4)...), "HYPGEOMDIST", "SYD")
	register(sig(Numeric, nums(5)...).opt(1), "DB", "DDB")
	register(sig(Numeric, PNum, PNum, PNum, PNum, PNum, PNum, PTest).opt(2), "VDB")

	register(sig(Numeric, nums(5)...).opt(2), "PV", "FV", "PMT", "NPER")
	register(sig(Numeric, nums(6)...).opt(3), "RATE")
	register(sig(Numeric, PNum, PVector).variadic(), "NPV")
	register(sig(Numeric, PVector, PNum).opt(1), "IRR")
	register(sig(Numeric, PVector, PNum, PNum), "MIRR")
	register(sig(Numeric, PVector, PVector, PNum).opt(1), "XIRR")
	register(sig(Numeric, PNum, PVector, PVector), "XNPV")

	register(sig(Numeric, PVector).variadic(),
		"VAR", "VARP", "STDEV", "STDEVP", "AVEDEV", "DEVSQ", "MEDIAN",
		"GEOMEAN", "HARMEAN", "KURT", "SKEW", "SUMPRODUCT")
	register(sig(Numeric, PVector, PNum), "LARGE", "SMALL")
	register(sig(Numeric, PNum, PVector, PNum).opt(1), "RANK")
	register(sig(Numeric, PVector, PVector),
		"CORREL", "PEARSON", "COVAR", "SLOPE", "INTERCEPT", "RSQ",
		"SUMX2MY2", "SUMX2PY2", "SUMXMY2")
	register(sig(Numeric, PNum, PVector, PVector), "FORECAST")

	register(sig(Numeric, PText), "LEN", "CODE", "VALUE", "DATEVALUE", "TIMEVALUE")
	register(sig(Numeric, PText, PText, PNum).opt(1), "FIND", "SEARCH")
	register(sig(Numeric, PAny), "N")
	register(sig(Boolean, PText, PText), "EXACT")
	register(sig(Text, PText, PNum, PNum), "MID")
	register(sig(Text, PText, PNum).opt(1), "LEFT", "RIGHT")
	register(sig(Text, PText, PText, PText, PNum).opt(1), "SUBSTITUTE")
	register(sig(Text, PText, PNum, PNum, PText), "REPLACE")
	register(sig(Text, PText), "LOWER", "UPPER", "PROPER", "TRIM", "CLEAN")
	register(sig(Text, PText, PNum), "REPT")
	register(sig(Text, PNum, PNum).opt(1), "ROMAN")
	register(sig(Text, PText).variadic(), "CONCATENATE")
	register(sig(Text, PNum), "CHAR")
	register(sig(Text, PAny, PText), "TEXT")
	register(sig(Text, PNum, PNum, PTest).opt(2), "FIXED")
	register(sig(Text, PAny), "T")
	register(sig(Text, PNum, PNum, PNum, PTest, PText).opt(3), "ADDRESS")

	register(sig(Numeric, PAny, PArray, PNum).opt(1), "MATCH")
	register(sig(Numeric, PArray, PNum, PNum).opt(1).like(0), "INDEX")
	register(sig(Numeric, PAny, PArray, PArray).opt(1).like(1), "LOOKUP")
	register(sig(Numeric, PAny, PArray, PNum, PTest).opt(1).like(1), "VLOOKUP", "HLOOKUP")
	register(sig(Numeric, PNum, PAny).variadic().like(1), "CHOOSE")
	register(sig(Numeric, PArray, PAny, PVector).opt(1), "SUMIF")
	register(sig(Numeric, PArray, PAny), "COUNTIF")
	register(sig(Numeric, PArray, PAny, PArray),
		"DSUM", "DPRODUCT", "DCOUNT", "DCOUNTA", "DMIN", "DMAX", "DAVERAGE",
		"DVAR", "DVARP", "DSTDEV", "DSTDEVP", "DGET")

	register(sig(Numeric, PTest, PAny, PAny).opt(1).like(1), "IF")
	register(sig(Boolean, PTest), "NOT")
	register(sig(Boolean), "TRUE", "FALSE")
	register(sig(Boolean, PAny), "ISERROR", "ISERR", "ISNA")
	register(sig(Numeric), "NA")
	register(sig(Numeric, PText), "ERROR")
}

// Lookup returns the signature of a built-in function.
func Lookup(name string) (Signature, bool) {
	s, ok := functions[strings.ToUpper(name)]
	return s, ok
}

// IsAggregate reports whether name is a folding aggregation.
func IsAggregate(name string) bool {
	switch name {
	case "SUM", "PRODUCT", "SUMSQ", "COUNT", "COUNTA", "AVERAGE", "MIN", "MAX", "AND", "OR":
		return true
	}
	return false
}

// IsDatabase reports whether name is a database function.
func IsDatabase(name string) bool {
	return strings.HasPrefix(name, "D") && StandardFold(name) != nil
}
