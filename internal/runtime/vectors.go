package runtime

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/specialistvlad/formulagrid/internal/numeric"
)

// Statistics over one or two value vectors. Sums and products that must be
// exact in scaled engines are generic; the rest is computed in double.

func needAtLeast(name string, values []float64, n int) error {
	if len(values) < n {
		return &FormulaError{Code: CodeDiv0, Reason: "because there are too few values in " + name, legacy: true}
	}
	return nil
}

func samePairs(name string, xs, ys []float64, n int) error {
	if len(xs) != len(ys) {
		return Fail(CodeNA, "because the vectors differ in length in %s", name)
	}
	return needAtLeast(name, xs, n)
}

// Var is the sample variance.
func Var(values []float64) (float64, error) {
	if err := needAtLeast("VAR", values, 2); err != nil {
		return 0, err
	}
	return stat.Variance(values, nil), nil
}

// VarP is the population variance.
func VarP(values []float64) (float64, error) {
	if err := needAtLeast("VARP", values, 1); err != nil {
		return 0, err
	}
	return stat.PopVariance(values, nil), nil
}

func StDev(values []float64) (float64, error) {
	if err := needAtLeast("STDEV", values, 2); err != nil {
		return 0, err
	}
	return stat.StdDev(values, nil), nil
}

func StDevP(values []float64) (float64, error) {
	if err := needAtLeast("STDEVP", values, 1); err != nil {
		return 0, err
	}
	return stat.PopStdDev(values, nil), nil
}

// AveDev is the mean absolute deviation from the mean.
func AveDev(values []float64) (float64, error) {
	if err := needAtLeast("AVEDEV", values, 1); err != nil {
		return 0, err
	}
	m := stat.Mean(values, nil)
	var s float64
	for _, v := range values {
		s += math.Abs(v - m)
	}
	return s / float64(len(values)), nil
}

// DevSq is the sum of squared deviations from the mean.
func DevSq(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := stat.Mean(values, nil)
	var s float64
	for _, v := range values {
		s += (v - m) * (v - m)
	}
	return s
}

// Median averages the two middle values of an even count.
func Median[N any](b numeric.Backend[N], values []N) (N, error) {
	if len(values) == 0 {
		return b.Zero(), domain("because there are no values in MEDIAN")
	}
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, b.Cmp)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return b.Div(b.Add(sorted[mid-1], sorted[mid]), b.FromInt(2)), nil
}

// Large returns the k-th largest value.
func Large[N any](b numeric.Backend[N], values []N, k int) (N, error) {
	if k < 1 || k > len(values) {
		return b.Zero(), domain("because k is out of range in LARGE")
	}
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(x, y N) int { return b.Cmp(y, x) })
	return sorted[k-1], nil
}

// Small returns the k-th smallest value.
func Small[N any](b numeric.Backend[N], values []N, k int) (N, error) {
	if k < 1 || k > len(values) {
		return b.Zero(), domain("because k is out of range in SMALL")
	}
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, b.Cmp)
	return sorted[k-1], nil
}

// Rank returns the 1-based rank of x among values, descending unless
// ascending is set. Equal values share the best rank.
func Rank[N any](b numeric.Backend[N], x N, values []N, ascending bool) (int, error) {
	rank, found := 1, false
	for _, v := range values {
		c := b.Cmp(v, x)
		switch {
		case c == 0:
			found = true
		case ascending && c < 0, !ascending && c > 0:
			rank++
		}
	}
	if !found {
		return 0, NotAvailable("because the value is not in the list in RANK")
	}
	return rank, nil
}

// GeoMean is the geometric mean of positive values.
func GeoMean(values []float64) (float64, error) {
	if err := needAtLeast("GEOMEAN", values, 1); err != nil {
		return 0, err
	}
	for _, v := range values {
		if v <= 0 {
			return 0, domain("because a value is not positive in GEOMEAN")
		}
	}
	return stat.GeometricMean(values, nil), nil
}

// HarMean is the harmonic mean of positive values.
func HarMean(values []float64) (float64, error) {
	if err := needAtLeast("HARMEAN", values, 1); err != nil {
		return 0, err
	}
	for _, v := range values {
		if v <= 0 {
			return 0, domain("because a value is not positive in HARMEAN")
		}
	}
	return stat.HarmonicMean(values, nil), nil
}

// Kurt is the sample excess kurtosis.
func Kurt(values []float64) (float64, error) {
	if err := needAtLeast("KURT", values, 4); err != nil {
		return 0, err
	}
	if stat.StdDev(values, nil) == 0 {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because the deviation is 0 in KURT", legacy: true}
	}
	return stat.ExKurtosis(values, nil), nil
}

// Skew is the sample skewness.
func Skew(values []float64) (float64, error) {
	if err := needAtLeast("SKEW", values, 3); err != nil {
		return 0, err
	}
	if stat.StdDev(values, nil) == 0 {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because the deviation is 0 in SKEW", legacy: true}
	}
	return stat.Skew(values, nil), nil
}

// Correl is the Pearson correlation coefficient. PEARSON is the same function.
func Correl(xs, ys []float64) (float64, error) {
	if err := samePairs("CORREL", xs, ys, 2); err != nil {
		return 0, err
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0, &FormulaError{Code: CodeDiv0, Reason: "because a deviation is 0 in CORREL", legacy: true}
	}
	return r, nil
}

// Covar is the population covariance.
func Covar(xs, ys []float64) (float64, error) {
	if err := samePairs("COVAR", xs, ys, 1); err != nil {
		return 0, err
	}
	if len(xs) == 1 {
		return 0, nil
	}
	n := float64(len(xs))
	return stat.Covariance(xs, ys, nil) * (n - 1) / n, nil
}

func regression(name string, xs, ys []float64) (alpha, beta float64, err error) {
	if err := samePairs(name, xs, ys, 1); err != nil {
		return 0, 0, err
	}
	if stat.Variance(xs, nil) == 0 || len(xs) < 2 {
		return 0, 0, &FormulaError{Code: CodeDiv0, Reason: "because the x values do not vary in " + name, legacy: true}
	}
	alpha, beta = stat.LinearRegression(xs, ys, nil, false)
	return alpha, beta, nil
}

// Slope is the slope of the least squares line through (xs, ys). The known
// y values come first, as in the spreadsheet signature.
func Slope(ys, xs []float64) (float64, error) {
	_, beta, err := regression("SLOPE", xs, ys)
	return beta, err
}

func Intercept(ys, xs []float64) (float64, error) {
	alpha, _, err := regression("INTERCEPT", xs, ys)
	return alpha, err
}

// Forecast evaluates the least squares line at x.
func Forecast(x float64, ys, xs []float64) (float64, error) {
	alpha, beta, err := regression("FORECAST", xs, ys)
	return alpha + beta*x, err
}

// RSq is the square of the correlation coefficient.
func RSq(ys, xs []float64) (float64, error) {
	r, err := Correl(xs, ys)
	return r * r, err
}

// SumProduct multiplies the vectors element-wise and sums the products.
func SumProduct[N any](b numeric.Backend[N], vectors ...[]N) (N, error) {
	if len(vectors) == 0 {
		return b.Zero(), nil
	}
	n := len(vectors[0])
	for _, v := range vectors[1:] {
		if len(v) != n {
			return b.Zero(), legacyValue("because the vectors differ in length in SUMPRODUCT")
		}
	}
	sum := b.Zero()
	for i := 0; i < n; i++ {
		p := vectors[0][i]
		for _, v := range vectors[1:] {
			p = b.Mul(p, v[i])
		}
		sum = b.Add(sum, p)
	}
	return sum, nil
}
