// Package estimate recovers PVsyst single-diode model parameters from a
// batch of measured IV curves taken under varying irradiance and
// temperature.
//
// The method follows Hansen's Sandia procedure: per-curve initial
// parameters from the co-content integral, a diode-factor regression over
// the Isc-Voc data, then an iterative loop that alternates per-curve
// parameter refinement against the measured maximum-power points with
// filtering of implausible curves, and finally a set of closing
// regressions that map the per-curve parameters onto the module-level
// PVsyst coefficients.
package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"pvfit/internal/curve"
	"pvfit/internal/model"
	"pvfit/internal/numdiff"
	"pvfit/internal/sdm"
)

// Rshexp is the PVsyst default curvature of the shunt-resistance
// irradiance model. It is fixed, not fitted.
const Rshexp = 5.5

// Options tunes the estimation. The zero value selects the defaults.
type Options struct {
	// MaxIter caps the refine loop. Default 5.
	MaxIter int
	// Eps1 is the stopping tolerance: the loop ends once all nine
	// convergence metrics change by less than this between iterations.
	// Default 1e-3.
	Eps1 float64
	// Constants overrides the physical constants and reference
	// conditions. Zero value means model.DefaultConstants().
	Constants model.Constants
	// Solver overrides the single-diode computations. Nil means
	// sdm.Solver{}.
	Solver SingleDiodeSolver
}

func (o Options) withDefaults() Options {
	if o.MaxIter == 0 {
		o.MaxIter = 5
	}
	if o.Eps1 == 0 {
		o.Eps1 = 1e-3
	}
	if o.Constants == (model.Constants{}) {
		o.Constants = model.DefaultConstants()
	}
	if o.Solver == nil {
		o.Solver = sdm.Solver{}
	}
	return o
}

// Result holds the recovered PVsyst parameter set.
//
// When Success is false (the diode-factor regression failed) every scalar
// is NaN and the per-curve vectors are NaN-filled with length N, so the
// result keeps its shape either way.
type Result struct {
	// Module-level PVsyst coefficients at STC.
	ILRef    float64 // light current (A)
	IoRef    float64 // dark current (A)
	EG       float64 // effective band gap (eV)
	RsRef    float64 // series resistance (ohm)
	RshRef   float64 // shunt resistance (ohm) at reference irradiance
	Rsh0     float64 // shunt resistance (ohm) at zero irradiance
	Rshexp   float64 // shunt-resistance curvature, fixed at 5.5
	GammaRef float64 // diode ideality factor
	MuGamma  float64 // temperature coefficient of the ideality factor (1/°C)
	Ns       int     // series cell count, copied from the specs

	// Final per-curve parameter estimates, index-aligned with the input
	// curves. Unusable curves keep their last values (possibly NaN).
	Iph []float64
	Io  []float64
	Rs  []float64
	Rsh []float64
	// U marks the curves whose parameters passed every plausibility
	// check in the last filtering pass.
	U []bool

	// Success is false when the diode-factor regression produced an
	// unusable gamma; the rest of the result is NaN then. Callers must
	// check it.
	Success bool

	// History carries the convergence diagnostics of each refine-loop
	// iteration for external reporting.
	History []ConvergeStats
}

// Estimate fits the PVsyst single-diode model to the measured curves.
//
// An error reports structural problems only (no curves, mismatched sample
// lengths); algorithmic failure is reported through Result.Success, and
// numerical edge cases propagate as NaN into the per-curve vectors where
// the filtering excludes them.
func Estimate(curves []model.IVCurve, specs model.ModuleSpecs, opts Options) (Result, error) {
	n := len(curves)
	if n == 0 {
		return Result{}, fmt.Errorf("estimate: no IV curves")
	}
	for j, c := range curves {
		if len(c.I) != len(c.V) {
			return Result{}, fmt.Errorf("estimate: curve %d has %d current and %d voltage samples", j, len(c.I), len(c.V))
		}
		if len(c.I) == 0 {
			return Result{}, fmt.Errorf("estimate: curve %d has no samples", j)
		}
	}
	opts = opts.withDefaults()
	cst := opts.Constants
	solver := opts.Solver

	ee := make([]float64, n)
	tc := make([]float64, n)
	tck := make([]float64, n)
	isc := make([]float64, n)
	voc := make([]float64, n)
	imp := make([]float64, n)
	vmp := make([]float64, n)
	vth := make([]float64, n)
	for j, c := range curves {
		ee[j] = c.Ee
		tc[j] = c.Tc
		tck[j] = c.Tc + 273.15
		isc[j] = c.Isc
		voc[j] = c.Voc
		imp[j] = c.Imp
		vmp[j] = c.Vmp
		vth[j] = cst.Vth(c.Tc)
	}
	ns := float64(specs.Ns)

	// Rectify every curve once and keep the cleaned traces; both the
	// initial estimates and the series-resistance slopes reuse them.
	rectI := make([][]float64, n)
	rectV := make([][]float64, n)
	for j, c := range curves {
		ci, cv, err := curve.Rectify(c.I, c.V, voc[j], isc[j])
		if err != nil {
			return Result{}, fmt.Errorf("estimate: curve %d: %w", j, err)
		}
		rectI[j], rectV[j] = ci, cv
	}

	// Initial per-curve estimates from the co-content integral. Only the
	// shunt resistance feeds the diode-factor regression; the rest is
	// re-derived once gamma is known.
	rsh := make([]float64, n)
	for j := 0; j < n; j++ {
		_, _, _, prsh, _, err := solver.EstSingleDiodeParams(rectI[j], rectV[j], vth[j]*ns)
		if err != nil {
			return Result{}, fmt.Errorf("estimate: curve %d: %w", j, err)
		}
		rsh[j] = prsh
	}

	// Diode factor gamma and its temperature coefficient from the
	// Isc-Voc data across all curves, via the regression model of the
	// dark current's temperature dependence.
	gammaRef, muGamma := fitGamma(isc, voc, rsh, tck, vth, ns, cst)
	if !isFinite(gammaRef) || !isFinite(muGamma) {
		return failedResult(n, specs), nil
	}

	gamma := make([]float64, n)
	nnsvth := make([]float64, n)
	for j := 0; j < n; j++ {
		gamma[j] = gammaRef + muGamma*(tc[j]-cst.T0)
		nnsvth[j] = gamma[j] * vth[j] * ns
	}

	// Sequential initial values for Io, Rs and Iph per curve.
	io := make([]float64, n)
	iph := make([]float64, n)
	rs := make([]float64, n)
	for j := 0; j < n; j++ {
		if !(rsh[j] > 0) {
			io[j] = math.NaN()
			rs[j] = math.NaN()
			iph[j] = math.NaN()
			continue
		}
		// Diode equation at Voc with Iph + Io ≈ Isc.
		io[j] = (isc[j] - voc[j]/rsh[j]) * math.Exp(-voc[j]/nnsvth[j])
		rs[j] = initialRs(rectI[j], rectV[j], voc[j], isc[j], rsh[j], io[j], nnsvth[j])
		// Diode equation at Isc.
		iph[j] = isc[j] - io[j] + io[j]*math.Exp(rs[j]*isc[j]/nnsvth[j]) + isc[j]*rs[j]/rsh[j]
	}

	u := FilterParams(io, rsh, rs, ee, isc)

	// Refine Io against the measured Voc, then make Iph consistent with
	// Isc for every curve, usable or not.
	tmpio, err := solver.UpdateIoKnownN(pick(rsh, u), pick(rs, u), pick(nnsvth, u), pick(io, u), pick(iph, u), pick(voc, u))
	if err != nil {
		return Result{}, err
	}
	scatter(io, u, tmpio)
	recomputeIph(iph, isc, io, rs, rsh, nnsvth)

	// Refine Rsh, Rs, Io and Iph in that order until the modeled
	// maximum-power points stop moving against the measured ones.
	var history []ConvergeStats
	var prev *ConvergeStats
	for counter := 1; counter <= opts.MaxIter; counter++ {
		tmprsh, err := solver.UpdateRshFixedPoint(pick(rsh, u), pick(rs, u), pick(io, u), pick(iph, u), pick(nnsvth, u), pick(imp, u), pick(vmp, u))
		if err != nil {
			return Result{}, err
		}
		scatter(rsh, u, tmprsh)

		// Rs from the closed-form consistency relation at the measured
		// maximum-power point.
		_, phi, err := solver.CalcThetaPhiExact(pick(imp, u), pick(iph, u), pick(vmp, u), pick(io, u), pick(nnsvth, u), pick(rs, u), pick(rsh, u))
		if err != nil {
			return Result{}, err
		}
		k := 0
		for j := 0; j < n; j++ {
			if !u[j] {
				continue
			}
			rs[j] = (iph[j]+io[j]-imp[j])*rsh[j]/imp[j] - nnsvth[j]*phi[k]/imp[j] - vmp[j]/imp[j]
			k++
		}

		// Parameter updates can change which curves are usable both
		// before and after the Io refinement, hence the double pass.
		u = FilterParams(io, rsh, rs, ee, isc)
		tmpio, err := solver.UpdateIoKnownN(pick(rsh, u), pick(rs, u), pick(nnsvth, u), pick(io, u), pick(iph, u), pick(voc, u))
		if err != nil {
			return Result{}, err
		}
		scatter(io, u, tmpio)
		recomputeIph(iph, isc, io, rs, rsh, nnsvth)
		u = FilterParams(io, rsh, rs, ee, isc)

		out, err := solver.SingleDiode(pick(iph, u), pick(io, u), pick(rs, u), pick(rsh, u), pick(nnsvth, u))
		if err != nil {
			return Result{}, err
		}
		stats := CheckConverge(prev, out.IMp, out.VMp, out.PMp, pick(imp, u), pick(vmp, u))
		history = append(history, stats)
		prev = &history[len(history)-1]
		if stats.MaxChange() < opts.Eps1 {
			break
		}
	}

	// Closing regressions on the usable curves.
	io0, eg := fitIoRef(io, tck, gamma, u, cst)
	iph0 := fitIphRef(iph, ee, tc, u, specs.Aisc, cst)
	rsh0, rshref := fitRshFamily(rsh, ee, u, cst)
	rs0 := meanWhere(rs, func(j int) bool { return u[j] && ee[j] > 400 })

	return Result{
		ILRef:    iph0,
		IoRef:    io0,
		EG:       eg,
		RsRef:    rs0,
		RshRef:   rshref,
		Rsh0:     rsh0,
		Rshexp:   Rshexp,
		GammaRef: gammaRef,
		MuGamma:  muGamma,
		Ns:       specs.Ns,
		Iph:      iph,
		Io:       io,
		Rs:       rs,
		Rsh:      rsh,
		U:        u,
		Success:  true,
		History:  history,
	}, nil
}

// fitGamma regresses the Isc-Voc data across all curves onto the
// five-coefficient model that embeds the temperature dependence of the
// dark current, and extracts gamma at STC and its temperature
// coefficient. Rows with NaN inputs are excluded.
func fitGamma(isc, voc, rsh, tck, vth []float64, ns float64, cst model.Constants) (gammaRef, muGamma float64) {
	t0k := cst.T0K()

	var rows [][5]float64
	var ys []float64
	for j := range isc {
		y := math.Log(isc[j]-voc[j]/rsh[j]) - 3*math.Log(tck[j]/t0k)
		x1 := cst.Q / cst.K * (1/t0k - 1/tck[j])
		x2 := voc[j] / (vth[j] * ns)
		if math.IsNaN(y) || math.IsNaN(x1) || math.IsNaN(x2) {
			continue
		}
		dt := tck[j] - t0k
		rows = append(rows, [5]float64{1, x1, -x1 * dt, x2, -x2 * dt})
		ys = append(ys, y)
	}
	if len(rows) < 5 {
		return math.NaN(), math.NaN()
	}

	a := mat.NewDense(len(rows), 5, nil)
	for r, row := range rows {
		a.SetRow(r, row[:])
	}
	alpha, err := lstsq(a, ys)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	gammaRef = 1 / alpha[3]
	muGamma = alpha[4] / (alpha[3] * alpha[3])
	return gammaRef, muGamma
}

// initialRs estimates the series resistance from the IV slope between
// 0.5·Voc and 0.9·Voc, keeping only windows where the shunt-corrected
// slope is physical and the resulting candidate is positive. No valid
// window means Rs starts at zero.
func initialRs(current, voltage []float64, voc, isc, rsh, io, nnsvth float64) float64 {
	didv, _, err := numdiff.Derivatives(voltage, current)
	if err != nil {
		return math.NaN()
	}

	sawWindow := false
	var sum float64
	var cnt int
	for j := range voltage {
		v := voltage[j]
		if v <= 0.5*voc || v >= 0.9*voc {
			continue
		}
		tmp := -rsh*didv[j] - 1
		if !(tmp > 0) {
			continue
		}
		sawWindow = true
		cand := nnsvth / isc * (math.Log(tmp*nnsvth/(rsh*io)) - v/nnsvth)
		if cand > 0 {
			sum += cand
			cnt++
		}
	}
	if !sawWindow {
		return 0
	}
	if cnt == 0 {
		return math.NaN()
	}
	return sum / float64(cnt)
}

// fitIoRef robustly regresses log(Io), corrected for the T³ prefactor,
// against the band-gap temperature term, yielding the reference dark
// current and the effective band gap.
func fitIoRef(io, tck, gamma []float64, u []bool, cst model.Constants) (io0, eg float64) {
	t0k := cst.T0K()
	var xs, ys []float64
	for j := range io {
		if !u[j] {
			continue
		}
		x := cst.Q / cst.K * (1/t0k - 1/tck[j]) / gamma[j]
		y := math.Log(io[j]) - 3*math.Log(tck[j]/t0k)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return math.NaN(), math.NaN()
	}
	b0, b1 := robustFit(xs, ys)
	return math.Exp(b0), b1
}

// fitIphRef is a bias-corrected average, not a regression: each usable
// curve's Iph scaled to reference irradiance, with the Isc temperature
// coefficient removed.
func fitIphRef(iph, ee, tc []float64, u []bool, aisc float64, cst model.Constants) float64 {
	var sum float64
	var cnt int
	for j := range iph {
		if !u[j] {
			continue
		}
		v := iph[j]*(cst.E0/ee[j]) - aisc*(tc[j]-cst.T0)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		cnt++
	}
	if cnt == 0 {
		return math.NaN()
	}
	return sum / float64(cnt)
}

// fitRshFamily refines the PVsyst shunt-resistance parameters. Initial
// guesses come from splitting the extracted Rsh values at 400 W/m²; the
// bounded nonlinear fit then minimizes the log residual over the usable
// curves.
func fitRshFamily(rsh, ee []float64, u []bool, cst model.Constants) (rsh0, rshref float64) {
	low := meanWhere(rsh, func(j int) bool { return !math.IsNaN(rsh[j]) && ee[j] < 400 })
	if !anyWhere(ee, func(e float64) bool { return e < 400 }) {
		low = maxOf(rsh)
	}
	high := meanWhere(rsh, func(j int) bool { return !math.IsNaN(rsh[j]) && ee[j] > 400 })
	if !anyWhere(ee, func(e float64) bool { return e > 400 }) {
		high = minOf(rsh)
	}

	return fitRshParams(low, high, Rshexp, pick(ee, u), pick(rsh, u), cst.E0)
}

// failedResult is the hard-stop shape: NaN scalars and NaN-filled
// per-curve vectors of the input length, with the success flag down.
func failedResult(n int, specs model.ModuleSpecs) Result {
	nan := math.NaN()
	nans := func() []float64 {
		v := make([]float64, n)
		for j := range v {
			v[j] = nan
		}
		return v
	}
	return Result{
		ILRef: nan, IoRef: nan, EG: nan, RsRef: nan, RshRef: nan,
		Rsh0: nan, Rshexp: nan, GammaRef: nan, MuGamma: nan,
		Ns:  specs.Ns,
		Iph: nans(), Io: nans(), Rs: nans(), Rsh: nans(),
		U:       make([]bool, n),
		Success: false,
	}
}

func recomputeIph(iph, isc, io, rs, rsh, nnsvth []float64) {
	for j := range iph {
		iph[j] = isc[j] - io[j] + io[j]*math.Exp(rs[j]*isc[j]/nnsvth[j]) + isc[j]*rs[j]/rsh[j]
	}
}

// pick returns the elements of a selected by the mask.
func pick(a []float64, u []bool) []float64 {
	out := make([]float64, 0, len(a))
	for j := range a {
		if u[j] {
			out = append(out, a[j])
		}
	}
	return out
}

// scatter writes vals back into the masked positions of a.
func scatter(a []float64, u []bool, vals []float64) {
	k := 0
	for j := range a {
		if u[j] {
			a[j] = vals[k]
			k++
		}
	}
}

func meanWhere(a []float64, keep func(j int) bool) float64 {
	var sum float64
	var cnt int
	for j := range a {
		if keep(j) {
			sum += a[j]
			cnt++
		}
	}
	if cnt == 0 {
		return math.NaN()
	}
	return sum / float64(cnt)
}

func anyWhere(a []float64, pred func(float64) bool) bool {
	for _, v := range a {
		if pred(v) {
			return true
		}
	}
	return false
}

// maxOf and minOf propagate NaN like the filtering expects.
func maxOf(a []float64) float64 {
	m := math.Inf(-1)
	for _, v := range a {
		if math.IsNaN(v) {
			return v
		}
		m = math.Max(m, v)
	}
	return m
}

func minOf(a []float64) float64 {
	m := math.Inf(1)
	for _, v := range a {
		if math.IsNaN(v) {
			return v
		}
		m = math.Min(m, v)
	}
	return m
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
