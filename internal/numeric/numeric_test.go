package numeric

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestParseKindAndRounding(t *testing.T) {
	k, err := ParseKind("Decimal")
	require.NoError(t, err)
	assert.Equal(t, Decimal, k)

	_, err = ParseKind("complex")
	require.Error(t, err)

	r, err := ParseRounding("HALF_EVEN")
	require.NoError(t, err)
	assert.Equal(t, HalfEven, r)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DoubleConfig().Validate())
	require.NoError(t, DecimalConfig(Unscaled, HalfUp).Validate())
	require.NoError(t, FixedConfig(4, HalfUp).Validate())
	require.Error(t, FixedConfig(19, HalfUp).Validate())
	require.Error(t, FixedConfig(-1, HalfUp).Validate())
	require.Error(t, Config{Kind: Kind(7)}.Validate())
}

func TestDouble_Round(t *testing.T) {
	b := NewDouble()
	assert.Equal(t, 2.5, b.Round(2.45, 1))
	assert.Equal(t, -2.5, b.Round(-2.45, 1))
	assert.Equal(t, 1200.0, b.Round(1234, -2))
	assert.Equal(t, 2.4, b.RoundDown(2.49, 1))
	assert.Equal(t, -2.5, b.RoundUp(-2.41, 1))
	assert.Equal(t, -3.0, b.Int(-2.5))
	assert.True(t, b.Lenient())
}

func TestFixed_Arithmetic(t *testing.T) {
	b, err := NewFixed(FixedConfig(4, HalfUp))
	require.NoError(t, err)

	two := b.FromInt(2)
	three := b.FromInt(3)
	assert.Equal(t, int64(20000), two)
	assert.Equal(t, int64(60000), b.Mul(two, three))
	assert.Equal(t, int64(6667), b.Div(two, three))
	assert.Equal(t, int64(-6667), b.Div(b.Neg(two), three))
	assert.Equal(t, int64(200), b.Percent(two))
	assert.Equal(t, 0.6667, b.ToFloat(b.Div(two, three)))
}

func TestFixed_RoundingModes(t *testing.T) {
	cases := []struct {
		mode Rounding
		want int64
	}{
		{HalfUp, 3},
		{HalfEven, 2},
		{Up, 3},
		{Down, 2},
		{Ceiling, 3},
		{Floor, 2},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			b, err := NewFixed(FixedConfig(0, tc.mode))
			require.NoError(t, err)
			// 5 / 2 = 2.5
			assert.Equal(t, tc.want, b.Div(5, 2))
		})
	}
}

func TestFixed_OverflowFails(t *testing.T) {
	b, err := NewFixed(FixedConfig(6, HalfUp))
	require.NoError(t, err)

	big := b.FromInt(math.MaxInt64 / 1_000_000)
	require.PanicsWithError(t, "multiplication: fixed point overflow", func() {
		b.Mul(big, b.FromInt(10))
	})
	require.PanicsWithError(t, "addition: fixed point overflow", func() {
		b.Add(math.MaxInt64, 1)
	})
	require.PanicsWithError(t, "division: #DIV/0!", func() {
		b.Div(b.One(), 0)
	})
}

func TestFixed_RoundTables(t *testing.T) {
	assert.Equal(t, int64(1000), OneAt(3))
	assert.Equal(t, int64(500), HalfAt(3))

	b, err := NewFixed(FixedConfig(3, HalfUp))
	require.NoError(t, err)
	assert.Equal(t, int64(123500), b.Round(123456, 1))
	assert.Equal(t, int64(-123500), b.Round(-123456, 1))
	assert.Equal(t, int64(123400), b.RoundDown(123456, 1))
	assert.Equal(t, int64(123500), b.RoundUp(123401, 1))
	assert.Equal(t, int64(-2000), b.Int(-1500))
}

func TestFixed_Rescale(t *testing.T) {
	b, err := NewFixed(FixedConfig(4, HalfUp))
	require.NoError(t, err)
	assert.Equal(t, int64(12300), b.FromScaled(123, 2))
	assert.Equal(t, int64(124), b.ToScaled(12350, 2))
	assert.Equal(t, int64(1235), b.FromScaled(123456, 6))
}

func TestFixed_DoubleRoundTrip(t *testing.T) {
	b, err := NewFixed(FixedConfig(4, HalfUp))
	require.NoError(t, err)
	for _, v := range []int64{0, 1, -1, 12345, -98765, 1_000_000_000, 42_4242_4242} {
		assert.Equal(t, v, b.FromFloat(b.ToFloat(v)), "value %d", v)
	}
}

func TestDecimal_RescalesProducts(t *testing.T) {
	b, err := NewDecimal(DecimalConfig(2, HalfUp))
	require.NoError(t, err)

	x := dec(t, "1.005")
	y := dec(t, "3")
	assert.True(t, dec(t, "1.01").Equal(b.FromDecimal(x)))
	assert.True(t, dec(t, "3.02").Equal(b.Mul(x, y)), "got %s", b.Mul(x, y))
	assert.True(t, dec(t, "0.33").Equal(b.Div(b.One(), y)))
	assert.True(t, dec(t, "4.005").Equal(b.Add(x, y)), "additions keep full precision")
	assert.False(t, b.Lenient())
}

func TestDecimal_Unscaled(t *testing.T) {
	b, err := NewDecimal(DecimalConfig(Unscaled, HalfUp))
	require.NoError(t, err)

	third := b.Div(b.One(), b.FromInt(3))
	assert.Equal(t, int32(-UnscaledDivisionPrecision), third.Exponent())
	require.PanicsWithError(t, "division: #DIV/0!", func() {
		b.Div(b.One(), b.Zero())
	})
}

func TestDecimal_PowerLargeExponents(t *testing.T) {
	t.Parallel()

	b, err := NewDecimal(DecimalConfig(4, HalfUp))
	require.NoError(t, err)

	tests := []struct {
		name string
		x, y string
		want string
	}{
		{"square", "1.5", "2", "2.25"},
		{"negative exponent", "2", "-3", "0.125"},
		{"zero exponent", "7", "0", "1"},
		{"compound growth", "1.0000001", "99999999", "22026.4524"},
		{"decay to zero", "0.5", "999999999", "0"},
		{"fractional exponent", "4", "0.5", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := b.Pow(dec(t, tt.x), dec(t, tt.y))
			want := dec(t, tt.want)
			assert.True(t, want.Sub(got).Abs().LessThanOrEqual(dec(t, "0.01")), "got %s, want %s", got, want)
		})
	}

	require.PanicsWithError(t, "power: #NUM!", func() {
		b.Pow(dec(t, "10"), dec(t, "400"))
	})
	require.PanicsWithError(t, "power: #DIV/0!", func() {
		b.Pow(b.Zero(), dec(t, "-2"))
	})
}

func TestQuotient_Modes(t *testing.T) {
	x, y := dec(t, "-5"), dec(t, "2")
	assert.True(t, dec(t, "-3").Equal(Quotient(x, y, 0, HalfUp)))
	assert.True(t, dec(t, "-2").Equal(Quotient(x, y, 0, HalfEven)))
	assert.True(t, dec(t, "-2").Equal(Quotient(x, y, 0, Ceiling)))
	assert.True(t, dec(t, "-3").Equal(Quotient(x, y, 0, Floor)))
	assert.True(t, dec(t, "0.667").Equal(Quotient(dec(t, "2"), dec(t, "3"), 3, HalfUp)))
}

func TestDecimal_RoundTripAtScale(t *testing.T) {
	b, err := NewDecimal(DecimalConfig(4, HalfEven))
	require.NoError(t, err)
	for _, s := range []string{"0", "1.2345", "-7.5", "123456789.0001"} {
		d := dec(t, s)
		assert.True(t, d.Equal(b.ToDecimal(b.FromDecimal(d))), "value %s", s)
	}
	assert.Equal(t, int64(12345), b.ToScaled(dec(t, "1.2345"), 4))
	assert.True(t, dec(t, "1.2345").Equal(b.FromScaled(12345, 4)))
}

func TestConstPool_Deduplicates(t *testing.T) {
	b, err := NewDecimal(DecimalConfig(Unscaled, HalfUp))
	require.NoError(t, err)
	pool := Pool(b)
	require.NotNil(t, pool)

	for i := 0; i < 3; i++ {
		_, err := b.Parse("0.1")
		require.NoError(t, err)
	}
	_, err = b.Parse("2")
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Len())

	assert.Nil(t, Pool(NewDouble()))
}
