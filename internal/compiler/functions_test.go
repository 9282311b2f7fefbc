package compiler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/specialistvlad/formulagrid/internal/compiler"
	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

func TestFunctions_Dates(t *testing.T) {
	t.Parallel()

	date := func(y, m, d int) model.Expr { return model.Fn("DATE", model.Int(y), model.Int(m), model.Int(d)) }
	excel := runtime.DefaultEnvironment()
	ooo := runtime.NewEnvironment(language.AmericanEnglish, time.UTC, runtime.OpenOfficeCalc)

	tests := []struct {
		name string
		env  *runtime.Environment
		expr model.Expr
		want float64
	}{
		{"first day in Excel", excel, date(1900, 1, 1), 1},
		{"first day in OpenOffice", ooo, date(1900, 1, 1), 2},
		{"after the phantom leap day", excel, date(1900, 3, 1), 61},
		{"phantom leap day", excel, model.Fn("DAY", model.Int(60)), 1},
		{"year", excel, model.Fn("YEAR", date(2008, 1, 1)), 2008},
		{"weekday", excel, model.Fn("WEEKDAY", date(2008, 2, 14)), 5},
		{"days360", excel, model.Fn("DAYS360", date(2008, 1, 30), date(2008, 2, 1)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := compile(t, single(tt.expr), compiler.Options{Environment: tt.env})
			got, err := e.NewComputation(nil).Float("r")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFunctions_IRRAgreesAcrossBackends(t *testing.T) {
	t.Parallel()

	flows := model.Row(ints(-100, 39, 59, 55, 20)...)
	m := single(model.Fn("IRR", flows))
	require.NoError(t, m.Analyze())

	for name, cfg := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := compile(t, m, compiler.Options{Numeric: cfg}).NewComputation(nil).Float("r")
			require.NoError(t, err)
			assert.InDelta(t, 0.2809484211599611, got, 1e-4)
		})
	}
}

func TestFunctions_FinancialAndStatistical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr model.Expr
		want float64
	}{
		{"PMT", model.Fn("PMT", model.Num("0.005"), model.Int(360), model.Int(100000)), -599.5505251527569},
		{"FV", model.Fn("FV", model.Num("0.005"), model.Int(10), model.Int(-200), model.Int(-500), model.Int(1)), 2581.4033740601185},
		{"NPV", model.Fn("NPV", model.Num("0.1"), model.Row(ints(-10000, 3000, 4200, 6800)...)), 1188.4434123352207},
		{"SLN", model.Fn("SLN", model.Int(30000), model.Int(7500), model.Int(10)), 2250},
		{"NORMSDIST", model.Fn("NORMSDIST", model.Int(0)), 0.5},
		{"COMBIN", model.Fn("COMBIN", model.Int(8), model.Int(2)), 28},
		{"CORREL", model.Fn("CORREL", model.Row(ints(1, 2, 3)...), model.Row(ints(2, 4, 6)...)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evaluate(t, tt.expr).Float("r")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestFunctions_Numeric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr model.Expr
		want string
	}{
		{"ROUND half away from zero", model.Fn("ROUND", model.Num("-2.5"), model.Int(0)), "-3"},
		{"ROUNDDOWN", model.Fn("ROUNDDOWN", model.Num("3.14159"), model.Int(3)), "3.141"},
		{"TRUNC default digits", model.Fn("TRUNC", model.Num("8.9")), "8"},
		{"INT floors", model.Fn("INT", model.Num("-8.9")), "-9"},
		{"MOD takes the divisor's sign", model.Fn("MOD", model.Int(-3), model.Int(2)), "1"},
		{"CEILING", model.Fn("CEILING", model.Num("2.5"), model.Int(1)), "3"},
		{"FLOOR", model.Fn("FLOOR", model.Num("2.5"), model.Int(1)), "2"},
		{"ODD", model.Fn("ODD", model.Num("1.5")), "3"},
		{"FACT", model.Fn("FACT", model.Int(5)), "120"},
		{"LEN", model.Fn("LEN", model.Str("hello")), "5"},
		{"FIND", model.Fn("FIND", model.Str("l"), model.Str("hello")), "3"},
		{"VALUE", model.Fn("VALUE", model.Str("1,234.5")), "1234.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := compile(t, single(tt.expr), compiler.Options{Numeric: backends["decimal"]})
			got, err := e.NewComputation(nil).Decimal("r")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFunctions_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr model.Expr
		want string
	}{
		{"CONCATENATE", model.Fn("CONCATENATE", model.Str("a"), model.Int(1), model.Bool(true)), "a1TRUE"},
		{"concat operator", model.Binary(model.OpConcat, model.Str("x"), model.Num("2.50")), "x2.5"},
		{"UPPER", model.Fn("UPPER", model.Str("straße")), "STRASSE"},
		{"PROPER", model.Fn("PROPER", model.Str("hello wORLD")), "Hello World"},
		{"LEFT default", model.Fn("LEFT", model.Str("abc")), "a"},
		{"MID", model.Fn("MID", model.Str("spreadsheet"), model.Int(7), model.Int(5)), "sheet"},
		{"SUBSTITUTE", model.Fn("SUBSTITUTE", model.Str("a-b-c"), model.Str("-"), model.Str("+")), "a+b+c"},
		{"SUBSTITUTE nth", model.Fn("SUBSTITUTE", model.Str("a-b-c"), model.Str("-"), model.Str("+"), model.Int(2)), "a-b+c"},
		{"REPT", model.Fn("REPT", model.Str("ab"), model.Int(3)), "ababab"},
		{"TRIM", model.Fn("TRIM", model.Str("  a   b ")), "a b"},
		{"FIXED", model.Fn("FIXED", model.Num("1234.567"), model.Int(1)), "1,234.6"},
		{"ROMAN", model.Fn("ROMAN", model.Int(1999)), "MCMXCIX"},
		{"T of a number", model.Fn("T", model.Int(5)), ""},
		{"number as text", model.Fn("IF", model.Bool(true), model.Num("0.5")), "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evaluate(t, tt.expr).Text("r")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFunctions_ComparisonsMixTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr model.Expr
		want bool
	}{
		{"text equality ignores case", model.Binary(model.OpEQ, model.Str("Abc"), model.Str("aBC")), true},
		{"EXACT respects case", model.Fn("EXACT", model.Str("Abc"), model.Str("aBC")), false},
		{"numbers", model.Binary(model.OpLT, model.Int(2), model.Int(10)), true},
		{"NOT", model.Fn("NOT", model.Binary(model.OpGE, model.Int(1), model.Int(2))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evaluate(t, tt.expr).Get("r")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
