package sdm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// EstSingleDiodeParams extracts initial single-diode parameters from one
// rectified IV curve using the co-content integral method.
//
// The co-content C(V) = ∫₀ᵛ (Isc − I) dV' of an exact single-diode curve
// is a quadratic form in V and y = Isc − I. Regressing the trapezoid
// estimate of C onto {V, y, V·y, V², y²} therefore recovers the model
// parameters in closed form from the five coefficients:
//
//	1/Rsh = 2·b4
//	Rs(1 + Rs/Rsh)/2 = b5
//	nNsVth = b2 + Rs·b1
//
// with Io and Iph then fixed by the curve's intercepts. nsvth is the
// thermal voltage already scaled by the series cell count; the returned n
// is the ideality factor relative to it.
//
// The curve must be rectified first: ordered by voltage, starting at
// (0, Isc) and ending at (Voc, 0). Curves with fewer than five points, or
// degenerate ones that defeat the regression, yield NaN parameters.
func EstSingleDiodeParams(current, voltage []float64, nsvth float64) (io, iph, rs, rsh, n float64, err error) {
	if len(current) != len(voltage) {
		nan := math.NaN()
		return nan, nan, nan, nan, nan, fmt.Errorf("sdm: current has %d points, voltage has %d", len(current), len(voltage))
	}

	m := len(current)
	nan := math.NaN()
	if m < 5 {
		return nan, nan, nan, nan, nan, nil
	}

	isc := current[0]
	voc := voltage[m-1]

	// Trapezoid estimate of the co-content integral.
	y := make([]float64, m)
	cc := make([]float64, m)
	for j := 0; j < m; j++ {
		y[j] = isc - current[j]
		if j > 0 {
			cc[j] = cc[j-1] + 0.5*(y[j]+y[j-1])*(voltage[j]-voltage[j-1])
		}
	}

	a := mat.NewDense(m, 5, nil)
	for j := 0; j < m; j++ {
		v := voltage[j]
		a.Set(j, 0, v)
		a.Set(j, 1, y[j])
		a.Set(j, 2, v*y[j])
		a.Set(j, 3, v*v)
		a.Set(j, 4, y[j]*y[j])
	}
	b, lerr := lstsq(a, cc)
	if lerr != nil {
		return nan, nan, nan, nan, nan, nil
	}

	gsh := 2 * b[3]
	if gsh > 1e-12 {
		rs = (math.Sqrt(1+8*gsh*b[4]) - 1) / (2 * gsh)
	} else {
		rs = 2 * b[4]
	}
	gamma := b[1] + rs*b[0]
	n = gamma / nsvth
	rsh = 1 / gsh

	// Iph + Io from the linear coefficients, then split via the diode
	// equation at (Voc, 0) where the series-resistance term vanishes.
	s := isc - gamma*gsh + rs*gsh*isc - b[0]
	io = (s - voc*gsh) * math.Exp(-voc/gamma)
	iph = s - io
	return io, iph, rs, rsh, n, nil
}

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
