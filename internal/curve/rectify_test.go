package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectify_AveragesDuplicates(t *testing.T) {
	current := []float64{5, 5, 3, 0}
	voltage := []float64{0, 0, 5, 10}

	i, v, err := Rectify(current, voltage, 10, 5)
	require.NoError(t, err)

	// Three unique voltages; the duplicate at v=0 (two measured points
	// plus the injected (0, Isc)) averages to 5.
	assert.Equal(t, []float64{0, 5, 10}, v)
	assert.Equal(t, []float64{5, 3, 0}, i)
}

func TestRectify_InjectsDefiningPoints(t *testing.T) {
	current := []float64{4.5, 3.2, 1.1}
	voltage := []float64{5, 20, 35}

	i, v, err := Rectify(current, voltage, 40, 5)
	require.NoError(t, err)
	require.Len(t, v, 5)

	assert.Equal(t, 0.0, v[0])
	assert.Equal(t, 5.0, i[0], "first point is (0, Isc)")
	assert.Equal(t, 40.0, v[len(v)-1])
	assert.Equal(t, 0.0, i[len(i)-1], "last point is (Voc, 0)")
}

func TestRectify_DropsOutOfBoundsPoints(t *testing.T) {
	current := []float64{5.2, -0.3, 4.0, 2.0, 1.0}
	voltage := []float64{-1, 12, 10, 25, 45}

	i, v, err := Rectify(current, voltage, 40, 5)
	require.NoError(t, err)

	// Negative voltage, negative current and v > Voc points are gone.
	assert.Equal(t, []float64{0, 10, 25, 40}, v)
	assert.Equal(t, []float64{5, 4, 2, 0}, i)
}

func TestRectify_MonotonicVoltageNonNegativeCurrent(t *testing.T) {
	current := []float64{1.5, 4.8, 0.2, 3.1}
	voltage := []float64{30, 3, 38, 18}

	i, v, err := Rectify(current, voltage, 40, 5)
	require.NoError(t, err)

	for j := 1; j < len(v); j++ {
		assert.Greater(t, v[j], v[j-1], "voltage must be strictly increasing")
	}
	for j := range i {
		assert.GreaterOrEqual(t, i[j], 0.0)
	}
}

func TestRectify_LengthMismatch(t *testing.T) {
	_, _, err := Rectify([]float64{1, 2}, []float64{1}, 10, 5)
	assert.Error(t, err)
}
