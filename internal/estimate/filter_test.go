package estimate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterParamsAcceptsPlausibleCurves(t *testing.T) {
	io := []float64{1e-9, 2e-9, 3e-9}
	rsh := []float64{300, 500, 900}
	rs := []float64{0.3, 0.3, 0.3}
	ee := []float64{1000, 600, 200}
	isc := []float64{5.0, 3.0, 1.0}

	u := FilterParams(io, rsh, rs, ee, isc)

	assert.Equal(t, []bool{true, true, true}, u)
}

func TestFilterParamsRejectsUnphysicalParameters(t *testing.T) {
	ee := []float64{1000, 1000, 1000, 1000, 1000}
	isc := []float64{5, 5, 5, 5, 5}

	io := []float64{1e-9, 1e-9, 1e-9, 0, math.NaN()}
	rsh := []float64{-10, 300, 300, 300, 300}
	rs := []float64{0.3, math.NaN(), 400, 0.3, 0.3}

	u := FilterParams(io, rsh, rs, ee, isc)

	// negative Rsh, NaN Rs, Rs > Rsh, non-positive Io, NaN Io
	assert.Equal(t, []bool{false, false, false, false, false}, u)
}

func TestFilterParamsRejectsIscOutlier(t *testing.T) {
	n := 8
	io := make([]float64, n)
	rsh := make([]float64, n)
	rs := make([]float64, n)
	ee := []float64{1000, 900, 800, 700, 600, 500, 400, 1000}
	isc := make([]float64, n)
	for j := 0; j < n; j++ {
		io[j] = 1e-9
		rsh[j] = 300
		rs[j] = 0.3
		isc[j] = 5 * ee[j] / 1000
	}
	// last curve reports an Isc 15% above the linear trend
	isc[n-1] = 5.75

	u := FilterParams(io, rsh, rs, ee, isc)

	for j := 0; j < n-1; j++ {
		assert.True(t, u[j], "curve %d", j)
	}
	assert.False(t, u[n-1])
}
