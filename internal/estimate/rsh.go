package estimate

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Bounds of the PVsyst shunt-resistance parameters during fitting.
const (
	rsh0Min   = 1.0
	rsh0Max   = 1e7
	rshrefMin = 1.0
	rshrefMax = 1e6
)

// EstRsh evaluates the PVsyst shunt-resistance irradiance model at each
// effective irradiance in ee: an exponential decay from rsh0 at zero
// irradiance towards rshref at the reference irradiance e0, with curvature
// set by rshexp.
func EstRsh(rsh0, rshref, rshexp float64, ee []float64, e0 float64) []float64 {
	out := make([]float64, len(ee))
	for j, e := range ee {
		out[j] = estRshAt(rsh0, rshref, rshexp, e, e0)
	}
	return out
}

func estRshAt(rsh0, rshref, rshexp, ee, e0 float64) float64 {
	rshb := math.Max(0, (rshref-rsh0*math.Exp(-rshexp))/(1-math.Exp(-rshexp)))
	return rshb + (rsh0-rshb)*math.Exp(-rshexp*ee/e0)
}

// rshResidual is the log-scale objective of the shunt-resistance fit:
// log10 of the modeled Rsh minus log10 of the extracted Rsh, per curve.
// Rsh spans orders of magnitude, so the fit is multiplicative.
func rshResidual(rsh0, rshref, rshexp float64, ee, rsh []float64, e0 float64) []float64 {
	out := make([]float64, len(ee))
	for j := range ee {
		out[j] = math.Log10(estRshAt(rsh0, rshref, rshexp, ee[j], e0)) - math.Log10(rsh[j])
	}
	return out
}

// fitRshParams refines (rsh0, rshref) by bounded nonlinear least squares
// on the log residual, holding rshexp fixed. Nelder-Mead does the
// minimizing; the bounds are enforced by clamping inside the objective and
// on the returned solution. On solver failure the initial guesses are
// returned unchanged.
func fitRshParams(rsh0, rshref, rshexp float64, ee, rsh []float64, e0 float64) (float64, float64) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			r0 := clamp(x[0], rsh0Min, rsh0Max)
			rr := clamp(x[1], rshrefMin, rshrefMax)
			var sum float64
			for _, r := range rshResidual(r0, rr, rshexp, ee, rsh, e0) {
				if math.IsNaN(r) {
					return math.Inf(1)
				}
				sum += r * r
			}
			return sum
		},
	}

	settings := &optimize.Settings{
		MajorIterations: 1000,
		FuncEvaluations: 2000,
	}
	result, err := optimize.Minimize(problem, []float64{rsh0, rshref}, settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		return rsh0, rshref
	}
	return clamp(result.X[0], rsh0Min, rsh0Max), clamp(result.X[1], rshrefMin, rshrefMax)
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
