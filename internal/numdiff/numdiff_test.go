package numdiff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivatives_Quadratic(t *testing.T) {
	// f(x) = x² on a uniform grid: df = 2x, df2 = 2 exactly (the 5-point
	// formula is exact for polynomials up to degree 4).
	x := []float64{0, 1, 2, 3, 4, 5, 6}
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = v * v
	}

	df, df2, err := Derivatives(x, f)
	require.NoError(t, err)
	require.Len(t, df, len(x))
	require.Len(t, df2, len(x))

	for i := 2; i < len(x)-2; i++ {
		assert.InDelta(t, 2*x[i], df[i], 1e-9, "df at x=%v", x[i])
		assert.InDelta(t, 2.0, df2[i], 1e-9, "df2 at x=%v", x[i])
	}
}

func TestDerivatives_NonUniformGrid(t *testing.T) {
	// Exactness for quadratics holds on unevenly spaced points too.
	x := []float64{0, 0.3, 1.1, 1.9, 3.2, 4.0, 6.5}
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = 3*v*v - 2*v + 1
	}

	df, df2, err := Derivatives(x, f)
	require.NoError(t, err)

	for i := 2; i < len(x)-2; i++ {
		assert.InDelta(t, 6*x[i]-2, df[i], 1e-9, "df at x=%v", x[i])
		assert.InDelta(t, 6.0, df2[i], 1e-9, "df2 at x=%v", x[i])
	}
}

func TestDerivatives_EdgesAreNaN(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5}
	f := []float64{0, 1, 4, 9, 16, 25}

	df, df2, err := Derivatives(x, f)
	require.NoError(t, err)

	n := len(x)
	for _, i := range []int{0, 1, n - 2, n - 1} {
		assert.True(t, math.IsNaN(df[i]), "df[%d]", i)
		assert.True(t, math.IsNaN(df2[i]), "df2[%d]", i)
	}
}

func TestDerivatives_TooFewPoints(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	f := []float64{0, 1, 4, 9}

	df, df2, err := Derivatives(x, f)
	require.NoError(t, err)

	for i := range df {
		assert.True(t, math.IsNaN(df[i]), "df[%d]", i)
		assert.True(t, math.IsNaN(df2[i]), "df2[%d]", i)
	}
}

func TestDerivatives_LengthMismatch(t *testing.T) {
	_, _, err := Derivatives([]float64{0, 1, 2}, []float64{0, 1})
	assert.Error(t, err)
}

func TestDerivatives_DuplicatePointsPropagateNaN(t *testing.T) {
	// Coincident x values are a signal, not an error.
	x := []float64{0, 1, 1, 2, 3, 4}
	f := []float64{0, 1, 1, 4, 9, 16}

	df, _, err := Derivatives(x, f)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(df[2]) || math.IsInf(df[2], 0))
}
