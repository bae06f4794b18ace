// Package numdiff computes finite-difference derivatives on possibly
// unequally spaced grids.
package numdiff

import (
	"fmt"
	"math"
)

// Derivatives computes first and second derivatives of f sampled at x using
// a centered 5-point formula for unequally spaced points (Bowen & Smith,
// Proc. Royal Society A 461, 2005).
//
// The first two and last two entries of both outputs are NaN because the
// centered window does not fit there. Inputs shorter than 5 points produce
// all-NaN outputs. Coincident x values make the Lagrange denominators
// vanish and propagate NaN/Inf into the affected window; callers are
// expected to de-duplicate points first.
func Derivatives(x, f []float64) (df, df2 []float64, err error) {
	if len(x) != len(f) {
		return nil, nil, fmt.Errorf("numdiff: x has %d points, f has %d", len(x), len(f))
	}

	n := len(f)
	df = make([]float64, n)
	df2 = make([]float64, n)
	for i := range df {
		df[i] = math.NaN()
		df2[i] = math.NaN()
	}

	// Displacements of the 5-point window relative to its center point.
	var a, w [5]float64
	for i := 2; i < n-2; i++ {
		for k := 0; k < 5; k++ {
			a[k] = x[i-2+k] - x[i]
			w[k] = f[i-2+k]
		}

		var d1, d2 float64
		for k := 0; k < 5; k++ {
			// e3: sum of triple products of the four displacements
			// other than a[k]; e2: sum of their pair products;
			// l: product of (a[k] - a[j]) over j != k.
			e3 := 0.0
			e2 := 0.0
			l := 1.0
			for p := 0; p < 5; p++ {
				if p == k {
					continue
				}
				l *= a[k] - a[p]
				for q := p + 1; q < 5; q++ {
					if q == k {
						continue
					}
					e2 += a[p] * a[q]
					for r := q + 1; r < 5; r++ {
						if r == k {
							continue
						}
						e3 += a[p] * a[q] * a[r]
					}
				}
			}
			d1 += -e3 / l * w[k]
			d2 += 2.0 * e2 / l * w[k]
		}
		df[i] = d1
		df2[i] = d2
	}
	return df, df2, nil
}
