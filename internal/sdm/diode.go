// Package sdm evaluates and solves the single-diode model of a PV module:
//
//	I = Iph - Io·(exp((V + I·Rs)/nNsVth) - 1) - (V + I·Rs)/Rsh
//
// All solvers use the exact Lambert-W form of the equation, evaluated in
// log space so large exponents do not overflow. Unphysical parameters
// (Io ≤ 0, Rsh ≤ 0, nNsVth ≤ 0) yield NaN rather than errors; the
// estimation layer filters those curves out.
package sdm

import (
	"fmt"
	"math"
)

// Output holds vectorized single-diode evaluations, index-aligned with the
// parameter vectors that produced them.
type Output struct {
	ISc []float64
	VOc []float64
	IMp []float64
	VMp []float64
	PMp []float64
}

// VFromI returns the voltage at which the model carries current i.
func VFromI(i, iph, io, rs, rsh, nnsvth float64) float64 {
	if io <= 0 || rsh <= 0 || nnsvth <= 0 || rs < 0 {
		return math.NaN()
	}
	logArg := math.Log(rsh*io/nnsvth) + rsh*(iph+io-i)/nnsvth
	w := lambertWLog(logArg)
	return (iph+io-i)*rsh - i*rs - nnsvth*w
}

// IFromV returns the current delivered by the model at terminal voltage v.
func IFromV(v, iph, io, rs, rsh, nnsvth float64) float64 {
	if io <= 0 || rsh <= 0 || nnsvth <= 0 || rs < 0 {
		return math.NaN()
	}
	if rs == 0 {
		return iph - io*math.Expm1(v/nnsvth) - v/rsh
	}
	t := rsh / (rs + rsh)
	logArg := math.Log(rs*io*t/nnsvth) + t*(rs*(iph+io)+v)/nnsvth
	w := lambertWLog(logArg)
	return (iph+io-v/rsh)*t - nnsvth/rs*w
}

// SingleDiode evaluates the model for each curve's parameter set and
// returns the characteristic points: Isc, Voc and the maximum-power point.
// Curves whose parameters do not describe a valid IV curve come back NaN.
func SingleDiode(iph, io, rs, rsh, nnsvth []float64) (Output, error) {
	n := len(iph)
	if err := sameLen(n, len(io), len(rs), len(rsh), len(nnsvth)); err != nil {
		return Output{}, err
	}

	out := Output{
		ISc: make([]float64, n),
		VOc: make([]float64, n),
		IMp: make([]float64, n),
		VMp: make([]float64, n),
		PMp: make([]float64, n),
	}
	for j := 0; j < n; j++ {
		voc := VFromI(0, iph[j], io[j], rs[j], rsh[j], nnsvth[j])
		isc := IFromV(0, iph[j], io[j], rs[j], rsh[j], nnsvth[j])
		out.VOc[j] = voc
		out.ISc[j] = isc
		if !(voc > 0) {
			out.IMp[j] = math.NaN()
			out.VMp[j] = math.NaN()
			out.PMp[j] = math.NaN()
			continue
		}
		vmp, pmp := maxPower(iph[j], io[j], rs[j], rsh[j], nnsvth[j], voc)
		out.VMp[j] = vmp
		out.PMp[j] = pmp
		out.IMp[j] = pmp / vmp
	}
	return out, nil
}

// maxPower locates the maximum of P(V) = V·I(V) on [0, voc] by
// golden-section search. P is unimodal there for physical parameters.
func maxPower(iph, io, rs, rsh, nnsvth, voc float64) (vmp, pmp float64) {
	const invPhi = 0.6180339887498949

	a, b := 0.0, voc
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc := c * IFromV(c, iph, io, rs, rsh, nnsvth)
	fd := d * IFromV(d, iph, io, rs, rsh, nnsvth)

	for k := 0; k < 200 && b-a > 1e-12*voc; k++ {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = c * IFromV(c, iph, io, rs, rsh, nnsvth)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = d * IFromV(d, iph, io, rs, rsh, nnsvth)
		}
	}
	vmp = (a + b) / 2
	pmp = vmp * IFromV(vmp, iph, io, rs, rsh, nnsvth)
	return vmp, pmp
}

func sameLen(n int, rest ...int) error {
	for _, m := range rest {
		if m != n {
			return fmt.Errorf("sdm: parameter vectors have mismatched lengths (%d vs %d)", n, m)
		}
	}
	return nil
}
