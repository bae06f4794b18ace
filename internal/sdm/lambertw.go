package sdm

import "math"

// lambertWLog evaluates the principal branch of the Lambert W function at
// exp(y), i.e. it solves w·e^w = e^y for w > 0. Working from the log of the
// argument keeps the diode-equation exponentials, which routinely exceed
// float range, representable.
//
// The solve runs Newton on t = ln w, where e^t + t = y. That function is
// convex and increasing, and both starting points used here sit above the
// root, so the iteration decreases monotonically onto it.
func lambertWLog(y float64) float64 {
	if math.IsNaN(y) {
		return math.NaN()
	}
	if math.IsInf(y, -1) {
		return 0
	}

	t := y
	if y > 0 {
		t = math.Log1p(y)
	}
	for k := 0; k < 100; k++ {
		et := math.Exp(t)
		dt := (et + t - y) / (et + 1)
		t -= dt
		if math.Abs(dt) <= 1e-14*(1+math.Abs(t)) {
			break
		}
	}
	return math.Exp(t)
}
