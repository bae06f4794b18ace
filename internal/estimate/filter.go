package estimate

import "math"

// FilterParams marks which curves currently carry a physically plausible
// parameter set. A curve is unusable when any of Rsh, Rs or Io is negative,
// NaN or out of order (Rs > Rsh, Io ≤ 0), or when its Isc departs by more
// than 5% from a through-origin linear fit of Isc against Ee/1000.
//
// The linear fit deliberately uses all curves, including ones failing the
// other checks; only the residual test is per-curve.
func FilterParams(io, rsh, rs, ee, isc []float64) []bool {
	n := len(io)

	// Slope of Isc vs Ee/1000 through the origin.
	var sxy, sxx float64
	for j := 0; j < n; j++ {
		x := ee[j] / 1000
		sxy += x * isc[j]
		sxx += x * x
	}
	eff := sxy / sxx

	u := make([]bool, n)
	for j := 0; j < n; j++ {
		switch {
		case math.IsNaN(rsh[j]) || rsh[j] < 0:
		case math.IsNaN(rs[j]) || rs[j] < 0 || rs[j] > rsh[j]:
		case !(io[j] > 0): // rejects non-positive and NaN
		default:
			pisc := eff * ee[j] / 1000
			u[j] = math.Abs(pisc-isc[j])/isc[j] <= 0.05
		}
	}
	return u
}
