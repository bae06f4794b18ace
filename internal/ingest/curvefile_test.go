package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveParser_Parse(t *testing.T) {
	input := `ee,tc,isc,voc,imp,vmp
1000,25,5.033,37.82,4.712,30.91
v,i
0.0,5.033
15.5,4.98
30.91,4.712
37.82,0.0`

	parser := NewCurveParser()
	curve, err := parser.Parse(strings.NewReader(input))

	require.NoError(t, err)
	assert.InDelta(t, 1000, curve.Ee, 1e-9)
	assert.InDelta(t, 25, curve.Tc, 1e-9)
	assert.InDelta(t, 5.033, curve.Isc, 1e-9)
	assert.InDelta(t, 37.82, curve.Voc, 1e-9)
	assert.InDelta(t, 4.712, curve.Imp, 1e-9)
	assert.InDelta(t, 30.91, curve.Vmp, 1e-9)

	require.Len(t, curve.V, 4)
	require.Len(t, curve.I, 4)
	assert.InDelta(t, 15.5, curve.V[1], 1e-9)
	assert.InDelta(t, 4.98, curve.I[1], 1e-9)
	assert.InDelta(t, 0.0, curve.I[3], 1e-9)
}

func TestCurveParser_InvalidHeader(t *testing.T) {
	input := `irradiance,tc,isc,voc,imp,vmp
1000,25,5.033,37.82,4.712,30.91
v,i
0.0,5.033`

	parser := NewCurveParser()
	_, err := parser.Parse(strings.NewReader(input))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ee")
}

func TestCurveParser_BadScalarValue(t *testing.T) {
	input := `ee,tc,isc,voc,imp,vmp
1000,25,not-a-number,37.82,4.712,30.91
v,i
0.0,5.033`

	parser := NewCurveParser()
	_, err := parser.Parse(strings.NewReader(input))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "isc")
}

func TestCurveParser_BadSampleRow(t *testing.T) {
	input := `ee,tc,isc,voc,imp,vmp
1000,25,5.033,37.82,4.712,30.91
v,i
0.0,5.033
oops,4.98`

	parser := NewCurveParser()
	_, err := parser.Parse(strings.NewReader(input))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "line 5")
}

func TestCurveParser_NoSamples(t *testing.T) {
	input := `ee,tc,isc,voc,imp,vmp
1000,25,5.033,37.82,4.712,30.91
v,i`

	parser := NewCurveParser()
	_, err := parser.Parse(strings.NewReader(input))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no voltage/current samples")
}
