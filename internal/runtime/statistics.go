package runtime

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	inverseMaxExpansions = 1000
	inverseMaxBisections = 100
)

// iterateInverse finds x with f(x) = 0 for a monotone f. The root is first
// enclosed by expanding [x0, x1], then narrowed by bisection with one regula
// falsi step per iteration.
func iterateInverse(f func(float64) float64, x0, x1 float64, name string) (float64, error) {
	if x0 < 0 {
		x0 = 0
	}
	if x0 >= x1 {
		return 0, Fail(CodeNum, "because the start interval is empty in %s", name)
	}
	f0, f1 := f(x0), f(x1)
	for i := 0; i < inverseMaxExpansions && f0*f1 > 0; i++ {
		if math.Abs(f0) <= math.Abs(f1) {
			t := x0
			x0 += 2 * (x0 - x1)
			if x0 < 0 {
				x0 = 0
			}
			x1 = t
			f1 = f0
			f0 = f(x0)
		} else {
			t := x1
			x1 += 2 * (x1 - x0)
			x0 = t
			f0 = f1
			f1 = f(x1)
		}
	}
	if f0 == 0 {
		return x0, nil
	}
	if f1 == 0 {
		return x1, nil
	}
	if f0*f1 > 0 {
		return 0, Fail(CodeNum, "because no root could be enclosed in %s", name)
	}
	converged := func() bool {
		return math.Abs(f1-f0) < Epsilon || math.Abs(x1-x0) <= 1e-15*math.Max(1, math.Abs(x0))
	}
	for i := 0; i < inverseMaxBisections && !converged(); i++ {
		// Regula falsi, falling back to bisection when the secant leaves
		// the interval.
		x := x0 - f0*(x1-x0)/(f1-f0)
		if !(x > math.Min(x0, x1) && x < math.Max(x0, x1)) {
			x = (x0 + x1) / 2
		}
		fx := f(x)
		if fx == 0 {
			return x, nil
		}
		if f0*fx < 0 {
			x1, f1 = x, fx
		} else {
			x0, f0 = x, fx
		}
		m := (x0 + x1) / 2
		fm := f(m)
		if fm == 0 {
			return m, nil
		}
		if f0*fm < 0 {
			x1, f1 = m, fm
		} else {
			x0, f0 = m, fm
		}
	}
	if !converged() {
		return 0, Fail(CodeNum, "because %s does not converge", name)
	}
	return (x0 + x1) / 2, nil
}

// BetaDist is the cumulative beta distribution on [0,1].
func BetaDist(x, alpha, beta float64) (float64, error) {
	if alpha <= 0 || beta <= 0 || x < 0 || x > 1 {
		return 0, domain("because of illegal arguments in BETADIST")
	}
	return mathext.RegIncBeta(alpha, beta, x), nil
}

// BetaInv inverts BetaDist.
func BetaInv(p, alpha, beta float64) (float64, error) {
	if p < 0 || p >= 1 || alpha <= 0 || beta <= 0 {
		return 0, domain("because of illegal arguments in BETAINV")
	}
	if p == 0 {
		return 0, nil
	}
	return iterateInverse(func(x float64) float64 {
		return p - mathext.RegIncBeta(alpha, beta, x)
	}, 0, 1, "BETAINV")
}

// BinomDist is the binomial probability of k successes in n trials.
func BinomDist(k, n, p float64, cumulative bool) (float64, error) {
	k, n = math.Floor(k), math.Floor(n)
	if k < 0 || k > n || p < 0 || p > 1 {
		return 0, domain("because of illegal arguments in BINOMDIST")
	}
	d := distuv.Binomial{N: n, P: p}
	if cumulative {
		if k == n {
			return 1, nil
		}
		return mathext.RegIncBeta(n-k, k+1, 1-p), nil
	}
	return d.Prob(k), nil
}

// CritBinom returns the smallest k for which the cumulative binomial
// distribution is at least alpha. The forward scan starts from q^n, the
// backward scan from p^n when q^n underflows.
func CritBinom(n, p, alpha float64) (float64, error) {
	// p <= 0 is rejected although Excel documents p < 0.
	if n < 0 || p <= 0 || p >= 1 || alpha <= 0 || alpha >= 1 {
		return 0, domain("because of illegal arguments in CRITBINOM")
	}
	n = math.Floor(n)
	q := 1 - p
	factor := math.Pow(q, n)
	if factor == 0 {
		factor = math.Pow(p, n)
		if factor == 0 {
			return 0, Fail(CodeNum, "because both tails underflow in CRITBINOM")
		}
		sum := 1 - factor
		i := 0.0
		for ; i < n && sum >= alpha; i++ {
			factor *= (n - i) / (i + 1) * q / p
			sum -= factor
		}
		return n - i, nil
	}
	sum := factor
	i := 0.0
	for ; i < n && sum < alpha; i++ {
		factor *= (n - i) / (i + 1) * p / q
		sum += factor
	}
	return i, nil
}

// ChiDist is the right tail of the chi-squared distribution.
func ChiDist(x, df float64) (float64, error) {
	if x < 0 || df < 1 {
		return 0, domain("because of illegal arguments in CHIDIST")
	}
	return distuv.ChiSquared{K: math.Floor(df)}.Survival(x), nil
}

// ChiInv inverts ChiDist.
func ChiInv(p, df float64) (float64, error) {
	if p <= 0 || p > 1 || df < 1 || df > 1e10 {
		return 0, domain("because of illegal arguments in CHIINV")
	}
	d := distuv.ChiSquared{K: math.Floor(df)}
	return iterateInverse(func(x float64) float64 {
		return p - d.Survival(x)
	}, df/2, df, "CHIINV")
}

// ExponDist is the exponential distribution with rate lambda.
func ExponDist(x, lambda float64, cumulative bool) (float64, error) {
	if x < 0 || lambda <= 0 {
		return 0, domain("because of illegal arguments in EXPONDIST")
	}
	d := distuv.Exponential{Rate: lambda}
	if cumulative {
		return d.CDF(x), nil
	}
	return d.Prob(x), nil
}

func fDist(x, f1, f2 float64) float64 {
	return mathext.RegIncBeta(f2/2, f1/2, f2/(f2+f1*x))
}

// FDist is the right tail of the F distribution.
func FDist(x, f1, f2 float64) (float64, error) {
	f1, f2 = math.Floor(f1), math.Floor(f2)
	if x < 0 || f1 < 1 || f2 < 1 || f1 >= 1e10 || f2 >= 1e10 {
		return 0, domain("because of illegal arguments in FDIST")
	}
	return distuv.F{D1: f1, D2: f2}.Survival(x), nil
}

// FInv inverts FDist.
func FInv(p, f1, f2 float64) (float64, error) {
	if p < 0 || p > 1 || f1 < 1 || f2 < 1 || f1 >= 1e10 || f2 >= 1e10 {
		return 0, domain("because of illegal arguments in FINV")
	}
	if p == 0 {
		return 1e9, nil
	}
	f1, f2 = math.Floor(f1), math.Floor(f2)
	return iterateInverse(func(x float64) float64 {
		return p - fDist(x, f1, f2)
	}, f1/2, f1, "FINV")
}

// GammaDist is the gamma distribution with shape alpha and scale beta.
func GammaDist(x, alpha, beta float64, cumulative bool) (float64, error) {
	if x < 0 || alpha <= 0 || beta <= 0 {
		return 0, domain("because of illegal arguments in GAMMADIST")
	}
	if cumulative {
		return mathext.GammaIncReg(alpha, x/beta), nil
	}
	return distuv.Gamma{Alpha: alpha, Beta: 1 / beta}.Prob(x), nil
}

// GammaInv inverts the cumulative GammaDist.
func GammaInv(p, alpha, beta float64) (float64, error) {
	if p < 0 || p >= 1 || alpha <= 0 || beta <= 0 {
		return 0, domain("because of illegal arguments in GAMMAINV")
	}
	if p == 0 {
		return 0, nil
	}
	start := alpha * beta
	return iterateInverse(func(x float64) float64 {
		return p - mathext.GammaIncReg(alpha, x/beta)
	}, start/2, start, "GAMMAINV")
}

var lanczos = [...]float64{76.18009173, -86.50532033, 24.01409822, -1.231739516, 0.120858003e-2, -0.536382e-5}

// GammaLn is the natural logarithm of the gamma function, using the six term
// Lanczos series and reflection below 1.
func GammaLn(x float64) (float64, error) {
	if x <= 0 {
		return 0, domain("because x <= 0 in GAMMALN")
	}
	reflect := x < 1
	if reflect {
		x = 1 - x
	} else {
		x--
	}
	g := 1.0
	for i, c := range lanczos {
		g += c / (x + float64(i) + 1)
	}
	g *= 2.506628275
	g = (x+0.5)*math.Log(x+5.5) + math.Log(g) - (x + 5.5)
	if reflect {
		g = math.Log(math.Pi*x) - g - math.Log(math.Sin(math.Pi*x))
	}
	return g, nil
}

// HypGeomDist is the probability of x successes in a sample of n drawn from a
// population of size N holding M successes.
func HypGeomDist(x, n, M, N int) (float64, error) {
	if x < 0 || n < x || M < x || N < n || N < M || x < n-N+M {
		return 0, domain("because of illegal arguments in HYPGEOMDIST")
	}
	if N < 100 {
		r := mulRange(M-x, M) * mulRange(n-x, n) / mulRange(N-M, N)
		r *= mulRange(N-n-M+x, N-n) / mulRange(0, x)
		return r, nil
	}
	return math.Exp(lnCombin(M, x) + lnCombin(N-M, n-x) - lnCombin(N, n)), nil
}

func lnCombin(n, k int) float64 {
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}

// LogNormDist is the cumulative log-normal distribution.
func LogNormDist(x, mean, sd float64) (float64, error) {
	if x <= 0 || sd <= 0 {
		return 0, domain("because of illegal arguments in LOGNORMDIST")
	}
	return distuv.LogNormal{Mu: mean, Sigma: sd}.CDF(x), nil
}

// LogInv inverts LogNormDist.
func LogInv(p, mean, sd float64) (float64, error) {
	if p <= 0 || p >= 1 || sd <= 0 {
		return 0, domain("because of illegal arguments in LOGINV")
	}
	return distuv.LogNormal{Mu: mean, Sigma: sd}.Quantile(p), nil
}

// NormDist is the normal distribution.
func NormDist(x, mean, sd float64, cumulative bool) (float64, error) {
	if sd <= 0 {
		return 0, domain("because sd <= 0 in NORMDIST")
	}
	d := distuv.Normal{Mu: mean, Sigma: sd}
	if cumulative {
		return d.CDF(x), nil
	}
	return d.Prob(x), nil
}

// NormSDist is the cumulative standard normal distribution.
func NormSDist(z float64) float64 { return distuv.UnitNormal.CDF(z) }

// NormInv inverts the cumulative NormDist.
func NormInv(p, mean, sd float64) (float64, error) {
	if p <= 0 || p >= 1 || sd <= 0 {
		return 0, domain("because of illegal arguments in NORMINV")
	}
	return distuv.Normal{Mu: mean, Sigma: sd}.Quantile(p), nil
}

// NormSInv inverts NormSDist.
func NormSInv(p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, domain("because p is out of (0,1) in NORMSINV")
	}
	return distuv.UnitNormal.Quantile(p), nil
}

// Poisson is the Poisson distribution with the given mean.
func Poisson(x, mean float64, cumulative bool) (float64, error) {
	x = math.Floor(x)
	if x < 0 || mean < 0 {
		return 0, domain("because of illegal arguments in POISSON")
	}
	if mean == 0 {
		return 1, nil
	}
	d := distuv.Poisson{Lambda: mean}
	if cumulative {
		return d.CDF(x), nil
	}
	return d.Prob(x), nil
}

func tDist(t, df float64) float64 {
	return 0.5 * mathext.RegIncBeta(df/2, 0.5, df/(df+t*t))
}

// TDist is the one or two tailed Student t distribution.
func TDist(x, df float64, tails int) (float64, error) {
	if x < 0 || df < 1 || (tails != 1 && tails != 2) {
		return 0, domain("because of illegal arguments in TDIST")
	}
	d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: math.Floor(df)}
	return d.Survival(x) * float64(tails), nil
}

// TInv inverts the two tailed TDist.
func TInv(p, df float64) (float64, error) {
	if df < 1 || df >= 1e5 || p <= 0 || p > 1 {
		return 0, domain("because of illegal arguments in TINV")
	}
	df = math.Floor(df)
	return iterateInverse(func(x float64) float64 {
		return p - 2*tDist(x, df)
	}, df/2, df, "TINV")
}

// Weibull is the Weibull distribution with shape alpha and scale beta.
func Weibull(x, alpha, beta float64, cumulative bool) (float64, error) {
	if x < 0 || alpha <= 0 || beta <= 0 {
		return 0, domain("because of illegal arguments in WEIBULL")
	}
	d := distuv.Weibull{K: alpha, Lambda: beta}
	if cumulative {
		return d.CDF(x), nil
	}
	return d.Prob(x), nil
}

// Fisher is the Fisher transformation.
func Fisher(x float64) (float64, error) {
	if x <= -1 || x >= 1 {
		return 0, domain("because x is out of (-1,1) in FISHER")
	}
	return 0.5 * math.Log((1+x)/(1-x)), nil
}

func FisherInv(y float64) float64 { return math.Tanh(y) }

// Standardize returns the z-score of x.
func Standardize(x, mean, sd float64) (float64, error) {
	if sd <= 0 {
		return 0, domain("because sd <= 0 in STANDARDIZE")
	}
	return (x - mean) / sd, nil
}

// Confidence returns the half width of the confidence interval of a mean.
func Confidence(alpha, sd, n float64) (float64, error) {
	n = math.Floor(n)
	if alpha <= 0 || alpha >= 1 || sd <= 0 || n < 1 {
		return 0, domain("because of illegal arguments in CONFIDENCE")
	}
	return distuv.UnitNormal.Quantile(1-alpha/2) * sd / math.Sqrt(n), nil
}
