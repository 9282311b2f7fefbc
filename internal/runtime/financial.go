package runtime

import (
	"math"
)

// Epsilon is the convergence threshold of the iterative solvers.
const Epsilon = 1e-7

const (
	irrMaxIterations  = 20
	rateMaxIterations = 50
	xirrMaxIterations = 100
)

// NPV discounts values at rate, the first value one period from now.
func NPV(rate float64, values []float64) (float64, error) {
	if rate == -1 {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because rate is -1 in NPV", legacy: true}
	}
	var r float64
	f := 1 + rate
	d := f
	for _, v := range values {
		r += v / d
		d *= f
	}
	return r, nil
}

// PV returns the present value of an annuity. typ 0 pays at the end of each
// period, any other value at the beginning.
func PV(rate, nper, pmt, fv, typ float64) float64 {
	if rate == 0 {
		return -fv - pmt*nper
	}
	a := math.Pow(1+rate, nper)
	t := 0.0
	if typ != 0 {
		t = 1
	}
	return -(fv + pmt*(1+rate*t)*(a-1)/rate) / a
}

// FV returns the future value of an annuity.
func FV(rate, nper, pmt, pv, typ float64) float64 {
	if rate == 0 {
		return -pv - pmt*nper
	}
	a := math.Pow(1+rate, nper)
	t := 0.0
	if typ != 0 {
		t = 1
	}
	return -pv*a - pmt*(1+rate*t)*(a-1)/rate
}

// PMT returns the payment per period of an annuity.
func PMT(rate, nper, pv, fv, typ float64) (float64, error) {
	if nper == 0 {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because nper is 0 in PMT", legacy: true}
	}
	if rate == 0 {
		return -(pv + fv) / nper, nil
	}
	a := math.Pow(1+rate, nper)
	t := 0.0
	if typ != 0 {
		t = 1
	}
	return -rate * (fv + pv*a) / ((1 + rate*t) * (a - 1)), nil
}

// NPER returns the number of periods of an annuity.
func NPER(rate, pmt, pv, fv, typ float64) (float64, error) {
	if rate == 0 {
		if pmt == 0 {
			return 0, &FormulaError{Code: CodeDiv0, Reason: "because pmt is 0 in NPER", legacy: true}
		}
		return -(pv + fv) / pmt, nil
	}
	t := 0.0
	if typ != 0 {
		t = 1
	}
	k := pmt * (1 + rate*t)
	return finite(math.Log((k-fv*rate)/(k+pv*rate))/math.Log(1+rate), "NPER")
}

// IRR solves NPV(x, values) = 0 with Newton's method starting at guess.
func IRR(values []float64, guess float64) (float64, error) {
	x := guess
	for iter := 0; iter < irrMaxIterations; iter++ {
		x1 := 1 + x
		var fx, dfx float64
		for i, v := range values {
			x1i := math.Pow(x1, float64(i))
			fx += v / x1i
			dfx += -float64(i) * v / (x1i * x1)
		}
		next := x - fx/dfx
		if math.Abs(next-x) <= Epsilon {
			if guess == 0 && math.Abs(next) <= Epsilon {
				return 0, nil
			}
			return next, nil
		}
		x = next
	}
	return 0, Fail(CodeNum, "because IRR does not converge")
}

// RATE solves the annuity equation for the interest rate.
func RATE(nper, pmt, pv, fv, typ, guess float64) (float64, error) {
	t := typ != 0
	eps := 1.0
	rate0 := guess
	for count := 0; eps > Epsilon && count < rateMaxIterations; count++ {
		var rate1 float64
		if rate0 == 0 {
			a := pmt * nper
			b := a - pmt
			if t {
				b = a + pmt
			}
			rate1 = rate0 - (pv+fv+a)/(nper*(pv+b/2))
		} else {
			a := 1 + rate0
			b := math.Pow(a, nper-1)
			c := b * a
			d := pmt
			if t {
				d = pmt * (1 + rate0)
			}
			e := rate0 * nper * b
			f := c - 1
			g := rate0 * pv
			rate1 = rate0 * (1 - (g*c+d*f+rate0*fv)/(g*e-pmt*f+d*e))
		}
		eps = math.Abs(rate1 - rate0)
		rate0 = rate1
	}
	if !(eps < Epsilon) {
		return 0, Fail(CodeNum, "because RATE does not converge")
	}
	return rate0, nil
}

// MIRR returns the modified internal rate of return.
func MIRR(values []float64, financeRate, reinvestRate float64) (float64, error) {
	n := len(values)
	var npvPos, npvNeg float64
	for i, v := range values {
		if v > 0 {
			npvPos += v / math.Pow(1+reinvestRate, float64(i))
		} else {
			npvNeg += v / math.Pow(1+financeRate, float64(i))
		}
	}
	if npvPos == 0 || npvNeg == 0 || n < 2 {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because values lack a positive or a negative entry in MIRR", legacy: true}
	}
	r := math.Pow(-npvPos*math.Pow(1+reinvestRate, float64(n))/(npvNeg*(1+financeRate)), 1/float64(n-1)) - 1
	return finite(r, "MIRR")
}

// XNPV discounts values paid at the given serial dates on an actual/365 basis.
func XNPV(rate float64, values, dates []float64) (float64, error) {
	if len(values) != len(dates) || len(values) == 0 {
		return 0, Fail(CodeNum, "because values and dates differ in length in XNPV")
	}
	var r float64
	for i, v := range values {
		r += v / math.Pow(1+rate, (dates[i]-dates[0])/365)
	}
	return finite(r, "XNPV")
}

// XIRR solves XNPV(x, values, dates) = 0 with Newton's method. The values
// must contain both a negative and a positive amount.
func XIRR(values, dates []float64, guess float64) (float64, error) {
	if len(values) != len(dates) || len(values) < 2 {
		return 0, Fail(CodeNum, "because values and dates differ in length in XIRR")
	}
	var hasPos, hasNeg bool
	for _, v := range values {
		hasPos = hasPos || v > 0
		hasNeg = hasNeg || v < 0
	}
	if !hasPos || !hasNeg {
		return 0, Fail(CodeNum, "because values lack a positive or a negative entry in XIRR")
	}
	x := guess
	for iter := 0; iter < xirrMaxIterations; iter++ {
		var fx, dfx float64
		for i, v := range values {
			e := (dates[i] - dates[0]) / 365
			p := math.Pow(1+x, e)
			fx += v / p
			dfx -= e * v / (p * (1 + x))
		}
		next := x - fx/dfx
		if math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-x) <= Epsilon {
			return next, nil
		}
		x = next
	}
	return 0, Fail(CodeNum, "because XIRR does not converge")
}

// SLN returns straight line depreciation.
func SLN(cost, salvage, life float64) (float64, error) {
	if life == 0 {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because life is 0 in SLN", legacy: true}
	}
	return (cost - salvage) / life, nil
}

// SYD returns sum-of-years' digits depreciation for period per.
func SYD(cost, salvage, life, per float64) (float64, error) {
	if life <= 0 || per <= 0 || per > life {
		return 0, domain("because not 0 < per <= life in SYD")
	}
	return (cost - salvage) * (life - per + 1) * 2 / (life * (life + 1)), nil
}

// DB returns fixed declining balance depreciation. The rate is rounded to
// three places and the first and last periods are prorated by month.
func DB(cost, salvage, life, period, month float64) (float64, error) {
	if cost < 0 || salvage < 0 || life <= 0 || period <= 0 || month < 1 || month > 12 || period > life+1 {
		return 0, domain("because of illegal arguments in DB")
	}
	month = math.Floor(month)
	rate := roundHalfUp(1-math.Pow(salvage/cost, 1/life), 3)
	dep1 := cost * rate * month / 12
	dep := dep1
	if int(period) > 1 {
		total := dep1
		maxPeriod := int(math.Min(life, period))
		for i := 2; i <= maxPeriod; i++ {
			dep = (cost - total) * rate
			total += dep
		}
		if period > life {
			dep = (cost - total) * rate * (12 - month) / 12
		}
	}
	return dep, nil
}

func roundHalfUp(v float64, digits int) float64 {
	shift := math.Pow(10, float64(digits))
	if v < 0 {
		return math.Ceil(v*shift-0.5) / shift
	}
	return math.Floor(v*shift+0.5) / shift
}

// DDB returns double (or factor) declining balance depreciation.
func DDB(cost, salvage, life, period, factor float64) (float64, error) {
	if cost < 0 || salvage < 0 || life <= 0 || period <= 0 || period > life || factor <= 0 {
		return 0, domain("because of illegal arguments in DDB")
	}
	return ddb(cost, salvage, life, period, factor), nil
}

func ddb(cost, salvage, life, period, factor float64) float64 {
	var remaining, next float64
	k := 1 - factor/life
	if k <= 0 {
		if period == 1 {
			remaining = cost
		}
		if period == 0 {
			next = cost
		}
	} else {
		kp1 := math.Pow(k, period-1)
		remaining = cost * kp1
		next = remaining * k
	}
	dep := remaining - math.Max(next, salvage)
	if dep < 0 {
		dep = 0
	}
	return dep
}

// VDB returns declining balance depreciation between two possibly fractional
// periods. Unless noSwitch is set it switches to straight line once that
// yields more.
func VDB(cost, salvage, life, start, end, factor float64, noSwitch bool) (float64, error) {
	if start < 0 || end < start || end > life || cost < 0 || salvage > cost || factor <= 0 {
		return 0, domain("because of illegal arguments in VDB")
	}
	loopStart := int(math.Floor(start))
	loopEnd := int(math.Ceil(end))
	if noSwitch {
		var r float64
		for i := loopStart + 1; i <= loopEnd; i++ {
			d := ddb(cost, salvage, life, float64(i), factor)
			if i == loopStart+1 {
				d *= math.Min(end, float64(loopStart+1)) - start
			} else if i == loopEnd {
				d *= end + 1 - float64(loopEnd)
			}
			r += d
		}
		return r, nil
	}
	life2 := life
	if start != math.Floor(start) && factor > 1 && start >= life/2 {
		part := start - life/2
		start = life / 2
		end -= part
		life2++
	}
	remaining := cost - interVDB(cost, salvage, life, life2, start, factor)
	return interVDB(remaining, salvage, life, life-start, end-start, factor), nil
}

func interVDB(cost, salvage, life, life2, period, factor float64) float64 {
	var r, sln float64
	loopEnd := int(math.Ceil(period))
	salvageCost := cost - salvage
	switched := false
	for i := 1; i <= loopEnd; i++ {
		var part float64
		if !switched {
			d := ddb(cost, salvage, life, float64(i), factor)
			sln = salvageCost / (life2 - float64(i) + 1)
			if sln > d {
				part = sln
				switched = true
			} else {
				part = d
				salvageCost -= d
			}
		} else {
			part = sln
		}
		if i == loopEnd {
			part *= period + 1 - float64(loopEnd)
		}
		r += part
	}
	return r
}
