package sdm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Typical 60-cell module around STC.
const (
	testIph    = 5.0
	testIo     = 2e-9
	testRs     = 0.3
	testRsh    = 300.0
	testNNsVth = 1.1 * 60 * 0.02569
)

func TestVFromIIFromVRoundTrip(t *testing.T) {
	for _, i := range []float64{0, 1.5, 3.0, 4.5, 4.95} {
		v := VFromI(i, testIph, testIo, testRs, testRsh, testNNsVth)
		require.False(t, math.IsNaN(v), "i=%v", i)
		back := IFromV(v, testIph, testIo, testRs, testRsh, testNNsVth)
		assert.InDelta(t, i, back, 1e-8, "i=%v", i)
	}
}

func TestVFromI_SatisfiesDiodeEquation(t *testing.T) {
	i := 2.0
	v := VFromI(i, testIph, testIo, testRs, testRsh, testNNsVth)

	// Residual of the implicit single diode equation at (v, i).
	resid := testIph - testIo*math.Expm1((v+i*testRs)/testNNsVth) -
		(v+i*testRs)/testRsh - i
	assert.InDelta(t, 0, resid, 1e-9)
}

func TestVFromI_UnphysicalParams(t *testing.T) {
	assert.True(t, math.IsNaN(VFromI(0, testIph, -1e-9, testRs, testRsh, testNNsVth)))
	assert.True(t, math.IsNaN(VFromI(0, testIph, testIo, testRs, -5, testNNsVth)))
	assert.True(t, math.IsNaN(IFromV(0, testIph, 0, testRs, testRsh, testNNsVth)))
}

func TestSingleDiode_CharacteristicPoints(t *testing.T) {
	out, err := SingleDiode(
		[]float64{testIph}, []float64{testIo}, []float64{testRs},
		[]float64{testRsh}, []float64{testNNsVth})
	require.NoError(t, err)

	voc := out.VOc[0]
	isc := out.ISc[0]
	assert.Greater(t, voc, 30.0)
	assert.Less(t, voc, 45.0)
	assert.InDelta(t, testIph, isc, 0.05, "Isc is close to Iph for small Rs")

	// The MPP sits strictly inside the curve and dominates nearby points.
	assert.Greater(t, out.VMp[0], 0.0)
	assert.Less(t, out.VMp[0], voc)
	assert.InDelta(t, out.PMp[0], out.VMp[0]*out.IMp[0], 1e-9)
	for _, dv := range []float64{-1.0, 1.0} {
		v := out.VMp[0] + dv
		p := v * IFromV(v, testIph, testIo, testRs, testRsh, testNNsVth)
		assert.Less(t, p, out.PMp[0], "P(Vmp%+.0f) must not exceed Pmp", dv)
	}
}

func TestSingleDiode_BadCurveYieldsNaN(t *testing.T) {
	out, err := SingleDiode(
		[]float64{testIph, testIph}, []float64{testIo, -1}, []float64{testRs, testRs},
		[]float64{testRsh, testRsh}, []float64{testNNsVth, testNNsVth})
	require.NoError(t, err)

	assert.False(t, math.IsNaN(out.PMp[0]))
	assert.True(t, math.IsNaN(out.VOc[1]))
	assert.True(t, math.IsNaN(out.PMp[1]))
}

func TestSingleDiode_LengthMismatch(t *testing.T) {
	_, err := SingleDiode([]float64{1}, []float64{1, 2}, []float64{1}, []float64{1}, []float64{1})
	assert.Error(t, err)
}

func TestLambertWLog(t *testing.T) {
	// W(1)·e^{W(1)} = 1, the omega constant.
	assert.InDelta(t, 0.5671432904097838, lambertWLog(0), 1e-12)
	// W(e) = 1.
	assert.InDelta(t, 1.0, lambertWLog(1), 1e-12)
	// Large arguments: w + ln w = y must hold.
	for _, y := range []float64{10, 100, 1e4} {
		w := lambertWLog(y)
		assert.InDelta(t, y, w+math.Log(w), 1e-8*y, "y=%v", y)
	}
	// Tiny arguments: W(z) ≈ z.
	w := lambertWLog(-30)
	assert.InEpsilon(t, math.Exp(-30), w, 1e-6)
	assert.Equal(t, 0.0, lambertWLog(math.Inf(-1)))
}
