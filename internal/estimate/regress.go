package estimate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// lstsq solves the least-squares problem a·x ≈ b by QR factorization.
func lstsq(a *mat.Dense, b []float64) ([]float64, error) {
	_, cols := a.Dims()
	x := mat.NewVecDense(cols, nil)

	qr := new(mat.QR)
	qr.Factorize(a)
	if err := qr.SolveVecTo(x, false, mat.NewVecDense(len(b), b)); err != nil {
		return nil, fmt.Errorf("could not solve QR: %v", err)
	}

	out := make([]float64, cols)
	for j := range out {
		out[j] = x.AtVec(j)
	}
	return out, nil
}

// robustFit fits y = intercept + slope·x by iteratively reweighted least
// squares with Huber weights, downweighting outliers. This is the one
// robust fit the estimation needs (log Io against inverse temperature);
// it is not a general-purpose regression.
func robustFit(x, y []float64) (intercept, slope float64) {
	const (
		huberC  = 1.345
		maxIter = 50
	)

	n := len(x)
	w := make([]float64, n)
	for j := range w {
		w[j] = 1
	}

	resid := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		b0, b1 := weightedLinFit(x, y, w)
		for j := range resid {
			resid[j] = y[j] - b0 - b1*x[j]
		}
		scale := madScale(resid)
		if scale == 0 || math.IsNaN(scale) {
			return b0, b1
		}

		changed := false
		for j := range w {
			t := math.Abs(resid[j]) / scale
			nw := 1.0
			if t > huberC {
				nw = huberC / t
			}
			if math.Abs(nw-w[j]) > 1e-8 {
				changed = true
			}
			w[j] = nw
		}
		intercept, slope = b0, b1
		if !changed {
			break
		}
	}
	return intercept, slope
}

// weightedLinFit solves the 2-parameter weighted normal equations.
func weightedLinFit(x, y, w []float64) (intercept, slope float64) {
	var sw, swx, swy, swxx, swxy float64
	for j := range x {
		sw += w[j]
		swx += w[j] * x[j]
		swy += w[j] * y[j]
		swxx += w[j] * x[j] * x[j]
		swxy += w[j] * x[j] * y[j]
	}
	det := sw*swxx - swx*swx
	slope = (sw*swxy - swx*swy) / det
	intercept = (swy - slope*swx) / sw
	return intercept, slope
}

// madScale is the median absolute deviation scaled to be consistent with
// the standard deviation under normality.
func madScale(resid []float64) float64 {
	abs := make([]float64, len(resid))
	for j, r := range resid {
		abs[j] = math.Abs(r)
	}
	sort.Float64s(abs)
	var med float64
	m := len(abs)
	if m%2 == 1 {
		med = abs[m/2]
	} else {
		med = 0.5 * (abs[m/2-1] + abs[m/2])
	}
	return med / 0.6745
}
