package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/formulagrid/internal/numeric"
)

// must returns a function that fails the test on error and passes the value
// through.
func must(t *testing.T) func(float64, error) float64 {
	t.Helper()
	return func(v float64, err error) float64 {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func TestDistributions_KnownValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		got   func() (float64, error)
		want  float64
		delta float64
	}{
		{"NORMDIST cumulative", func() (float64, error) { return NormDist(42, 40, 1.5, true) }, 0.9087888, 1e-6},
		{"NORMDIST density", func() (float64, error) { return NormDist(42, 40, 1.5, false) }, 0.10934005, 1e-7},
		{"NORMINV", func() (float64, error) { return NormInv(0.908789, 40, 1.5) }, 42.000002, 1e-5},
		{"NORMSINV", func() (float64, error) { return NormSInv(0.908789) }, 1.3333347, 1e-5},
		{"BINOMDIST density", func() (float64, error) { return BinomDist(6, 10, 0.5, false) }, 0.205078125, 1e-9},
		{"BINOMDIST cumulative", func() (float64, error) { return BinomDist(6, 10, 0.5, true) }, 0.828125, 1e-9},
		{"CRITBINOM", func() (float64, error) { return CritBinom(6, 0.5, 0.75) }, 4, 0},
		{"CHIDIST", func() (float64, error) { return ChiDist(18.307, 10) }, 0.0500006, 1e-6},
		{"CHIINV", func() (float64, error) { return ChiInv(0.050001, 10) }, 18.306973, 1e-4},
		{"FDIST", func() (float64, error) { return FDist(15.20686486, 6, 4) }, 0.01, 1e-7},
		{"FINV", func() (float64, error) { return FInv(0.01, 6, 4) }, 15.206865, 1e-3},
		{"GAMMADIST density", func() (float64, error) { return GammaDist(10, 9, 2, false) }, 0.032639, 1e-6},
		{"GAMMADIST cumulative", func() (float64, error) { return GammaDist(10, 9, 2, true) }, 0.068094, 1e-6},
		{"GAMMAINV", func() (float64, error) { return GammaInv(0.068094, 9, 2) }, 10, 1e-3},
		{"GAMMALN", func() (float64, error) { return GammaLn(4) }, 1.791759469, 1e-7},
		{"GAMMALN below one", func() (float64, error) { return GammaLn(0.5) }, 0.5723649429, 1e-7},
		{"HYPGEOMDIST", func() (float64, error) { return HypGeomDist(1, 4, 8, 20) }, 0.363261094, 1e-8},
		{"POISSON density", func() (float64, error) { return Poisson(2, 5, false) }, 0.084224, 1e-6},
		{"POISSON cumulative", func() (float64, error) { return Poisson(2, 5, true) }, 0.124652, 1e-6},
		{"TDIST", func() (float64, error) { return TDist(1.96, 60, 2) }, 0.054645, 1e-6},
		{"TINV", func() (float64, error) { return TInv(0.054645, 60) }, 1.96, 1e-3},
		{"WEIBULL cumulative", func() (float64, error) { return Weibull(105, 20, 100, true) }, 0.929581, 1e-6},
		{"WEIBULL density", func() (float64, error) { return Weibull(105, 20, 100, false) }, 0.035589, 1e-6},
		{"BETADIST", func() (float64, error) { return BetaDist(0.5, 8, 10) }, 0.685470581, 1e-8},
		{"BETAINV", func() (float64, error) { return BetaInv(0.685470581, 8, 10) }, 0.5, 1e-5},
		{"EXPONDIST cumulative", func() (float64, error) { return ExponDist(0.2, 10, true) }, 0.864664717, 1e-8},
		{"EXPONDIST density", func() (float64, error) { return ExponDist(0.2, 10, false) }, 1.353352832, 1e-8},
		{"LOGNORMDIST", func() (float64, error) { return LogNormDist(4, 3.5, 1.2) }, 0.0390836, 1e-7},
		{"LOGINV", func() (float64, error) { return LogInv(0.039084, 3.5, 1.2) }, 4.0000252, 1e-5},
		{"FISHER", func() (float64, error) { return Fisher(0.75) }, 0.972955075, 1e-8},
		{"STANDARDIZE", func() (float64, error) { return Standardize(42, 40, 1.5) }, 1.333333333, 1e-8},
		{"CONFIDENCE", func() (float64, error) { return Confidence(0.05, 2.5, 50) }, 0.692951912, 1e-8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, must(t)(tc.got()), tc.delta)
		})
	}
}

func TestDistributions_DomainErrorsAreLegacy(t *testing.T) {
	t.Parallel()

	errs := []error{}
	_, err := BetaDist(-1, 8, 10)
	errs = append(errs, err)
	_, err = GammaLn(0)
	errs = append(errs, err)
	_, err = TDist(1, 10, 3)
	errs = append(errs, err)
	_, err = HypGeomDist(5, 4, 8, 20)
	errs = append(errs, err)
	_, err = CritBinom(10, 0, 0.5)
	errs = append(errs, err)

	for i, err := range errs {
		require.Error(t, err, "case %d", i)
		assert.True(t, IsLegacyZero(err), "case %d", i)
	}
}

func TestVectorStatistics(t *testing.T) {
	t.Parallel()

	strength := []float64{1345, 1301, 1368, 1322, 1310, 1370, 1318, 1350, 1303, 1299}
	assert.InDelta(t, 754.2666667, must(t)(Var(strength)), 1e-6)
	assert.InDelta(t, 678.84, must(t)(VarP(strength)), 1e-9)
	assert.InDelta(t, 27.46391572, must(t)(StDev(strength)), 1e-7)
	assert.InDelta(t, 26.05455814, must(t)(StDevP(strength)), 1e-7)

	shape := []float64{3, 4, 5, 2, 3, 4, 5, 6, 4, 7}
	assert.InDelta(t, -0.151799637, must(t)(Kurt(shape)), 1e-8)
	assert.InDelta(t, 0.359543071, must(t)(Skew(shape)), 1e-8)

	devs := []float64{4, 5, 6, 7, 5, 4, 3}
	assert.InDelta(t, 1.020408163, must(t)(AveDev(devs)), 1e-8)
	assert.InDelta(t, 10.857142857, DevSq(devs), 1e-8)

	means := []float64{4, 5, 8, 7, 11, 4, 3}
	assert.InDelta(t, 5.476986970, must(t)(GeoMean(means)), 1e-8)
	assert.InDelta(t, 5.028375962, must(t)(HarMean(means)), 1e-8)

	_, err := Var([]float64{1})
	assert.True(t, IsLegacyZero(err))
}

func TestPairStatistics(t *testing.T) {
	t.Parallel()

	xs := []float64{3, 2, 4, 5, 6}
	ys := []float64{9, 7, 12, 15, 17}
	assert.InDelta(t, 0.997054486, must(t)(Correl(xs, ys)), 1e-8)
	assert.InDelta(t, 5.2, must(t)(Covar(xs, ys)), 1e-9)

	knownY := []float64{2, 3, 9, 1, 8, 7, 5}
	knownX := []float64{6, 5, 11, 7, 5, 4, 4}
	assert.InDelta(t, 0.305555556, must(t)(Slope(knownY, knownX)), 1e-8)
	assert.InDelta(t, 0.057950192, must(t)(RSq(knownY, knownX)), 1e-8)
	assert.InDelta(t, 0.048387097, must(t)(Intercept([]float64{2, 3, 9, 1, 8}, []float64{6, 5, 11, 7, 5})), 1e-8)
	assert.InDelta(t, 10.607253086, must(t)(Forecast(30, []float64{6, 7, 9, 15, 21}, []float64{20, 28, 31, 38, 40})), 1e-8)

	_, err := Correl(xs, ys[:2])
	require.Error(t, err)
}

func TestOrderStatistics_Generic(t *testing.T) {
	t.Parallel()

	b, err := numeric.NewFixed(numeric.FixedConfig(2, numeric.HalfUp))
	require.NoError(t, err)
	vals := []int64{b.FromInt(3), b.FromInt(1), b.FromInt(4), b.FromInt(2)}

	m, err := Median(b, vals)
	require.NoError(t, err)
	assert.Equal(t, "2.5", b.ToDecimal(m).String())

	l, err := Large(b, vals, 1)
	require.NoError(t, err)
	assert.Equal(t, b.FromInt(4), l)

	s, err := Small(b, vals, 2)
	require.NoError(t, err)
	assert.Equal(t, b.FromInt(2), s)

	r, err := Rank(b, b.FromInt(3), vals, false)
	require.NoError(t, err)
	assert.Equal(t, 2, r)

	_, err = Rank(b, b.FromInt(9), vals, false)
	assert.True(t, IsNotAvailable(err))

	_, err = Large(b, vals, 5)
	assert.True(t, IsLegacyZero(err))
}

func TestSumProduct(t *testing.T) {
	t.Parallel()

	b := numeric.NewDouble()
	v, err := SumProduct(b, []float64{3, 4, 8, 6, 1, 9}, []float64{2, 7, 6, 7, 5, 3})
	require.NoError(t, err)
	assert.Equal(t, 156.0, v)
}
