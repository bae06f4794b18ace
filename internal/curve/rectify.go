// Package curve cleans measured IV traces before parameter extraction.
package curve

import (
	"fmt"
	"sort"
)

// Rectify cleans one measured IV curve so that downstream fitting sees a
// well-formed trace:
//
//   - points with negative current, negative voltage or voltage above voc
//     are dropped silently
//   - the defining points (0, isc) and (voc, 0) are always present
//   - duplicate voltages collapse to a single point whose current is the
//     arithmetic mean of the duplicates
//   - the result is ordered by strictly increasing voltage
//
// The returned slices are freshly allocated and paired by index.
func Rectify(current, voltage []float64, voc, isc float64) (i, v []float64, err error) {
	if len(current) != len(voltage) {
		return nil, nil, fmt.Errorf("curve: current has %d points, voltage has %d", len(current), len(voltage))
	}

	// Keep in-bounds measured points, then inject the two defining
	// points. The dedup pass below resolves any duplication with
	// measured samples.
	vs := []float64{0, voc}
	is := []float64{isc, 0}
	for j := range current {
		if current[j] < 0 || voltage[j] < 0 || voltage[j] > voc {
			continue
		}
		vs = append(vs, voltage[j])
		is = append(is, current[j])
	}

	sum := make(map[float64]float64, len(vs))
	count := make(map[float64]int, len(vs))
	for j, vv := range vs {
		sum[vv] += is[j]
		count[vv]++
	}

	v = make([]float64, 0, len(sum))
	for vv := range sum {
		v = append(v, vv)
	}
	sort.Float64s(v)

	i = make([]float64, len(v))
	for j, vv := range v {
		i[j] = sum[vv] / float64(count[vv])
	}
	return i, v, nil
}
