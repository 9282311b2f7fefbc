package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnuities(t *testing.T) {
	t.Parallel()

	pmt, err := PMT(0.08/12, 10, 10000, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1037.0320893591625, pmt, 1e-9)

	assert.InDelta(t, 2581.40337406, FV(0.06/12, 10, -200, -500, 1), 1e-6)
	assert.InDelta(t, -59777.14585118, PV(0.08/12, 12*20, 500, 0, 0), 1e-6)
	assert.InDelta(t, -1500.0, PV(0, 10, 100, 500, 0), 1e-12)

	nper, err := NPER(0.12/12, -100, -1000, 10000, 1)
	require.NoError(t, err)
	assert.InDelta(t, 59.6738656742946, nper, 1e-9)
}

func TestNPV(t *testing.T) {
	t.Parallel()

	v, err := NPV(0.1, []float64{-10000, 3000, 4200, 6800})
	require.NoError(t, err)
	assert.InDelta(t, 1188.4434123352216, v, 1e-9)

	_, err = NPV(-1, []float64{1})
	assert.True(t, IsLegacyZero(err))
}

func TestIRR(t *testing.T) {
	t.Parallel()

	v, err := IRR([]float64{-100, 30, 30, 30, 30}, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.07713847295208347, v, 1e-7)

	_, err = IRR([]float64{100, 30, 30}, 0.1)
	require.Error(t, err)
	assert.False(t, IsLegacyZero(err), "non-convergence must not be masked as 0")
}

func TestRATE(t *testing.T) {
	t.Parallel()

	v, err := RATE(48, -200, 8000, 0, 0, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.00770147248823, v, 1e-9)
}

func TestXIRR_RequiresMixedSigns(t *testing.T) {
	t.Parallel()

	dates := []float64{39448, 39508, 39751, 39859, 39904}
	v, err := XIRR([]float64{-10000, 2750, 4250, 3250, 2750}, dates, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.373362535, v, 1e-6)

	x, err := XNPV(0.09, []float64{-10000, 2750, 4250, 3250, 2750}, dates)
	require.NoError(t, err)
	assert.InDelta(t, 2086.6476, x, 1e-3)

	_, err = XIRR([]float64{10, 20}, dates[:2], 0.1)
	require.Error(t, err)
	assert.False(t, IsLegacyZero(err))
}

func TestDepreciation(t *testing.T) {
	t.Parallel()

	sln, err := SLN(30000, 7500, 10)
	require.NoError(t, err)
	assert.InDelta(t, 2250.0, sln, 1e-12)

	syd, err := SYD(30000, 7500, 10, 1)
	require.NoError(t, err)
	assert.InDelta(t, 4090.909090909, syd, 1e-6)

	db, err := DB(1000000, 100000, 6, 1, 7)
	require.NoError(t, err)
	assert.InDelta(t, 186083.3333333, db, 1e-6)

	db, err = DB(1000000, 100000, 6, 7, 7)
	require.NoError(t, err)
	assert.InDelta(t, 15845.09847385, db, 1e-4)

	ddb, err := DDB(2400, 300, 10, 1, 2)
	require.NoError(t, err)
	assert.InDelta(t, 480.0, ddb, 1e-9)

	ddb, err = DDB(2400, 300, 10, 10, 2)
	require.NoError(t, err)
	assert.InDelta(t, 22.1225472, ddb, 1e-6)
}

func TestVDB(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                string
		cost, salvage, life float64
		start, end, factor  float64
		noSwitch            bool
		want                float64
	}{
		{"first day", 2400, 300, 3650, 0, 1, 2, false, 1.315068493},
		{"first month", 2400, 300, 120, 0, 1, 2, false, 40},
		{"first year", 2400, 300, 10, 0, 1, 2, false, 480},
		{"months six to eighteen", 2400, 300, 120, 6, 18, 2, false, 396.3060533},
		{"fractional factor", 2400, 300, 120, 6, 18, 1.5, false, 311.8089367},
		{"partial first year", 2400, 300, 10, 0, 0.875, 1.5, false, 315},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, err := VDB(tc.cost, tc.salvage, tc.life, tc.start, tc.end, tc.factor, tc.noSwitch)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, v, 1e-6)
		})
	}

	_, err := VDB(2400, 300, 10, 5, 2, 2, false)
	assert.True(t, IsLegacyZero(err))
}
