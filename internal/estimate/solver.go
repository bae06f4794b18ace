package estimate

import "pvfit/internal/sdm"

// SingleDiodeSolver is the set of single-diode computations the estimation
// driver delegates. The default implementation is sdm.Solver; tests and
// callers with their own diode-equation machinery can substitute it.
type SingleDiodeSolver interface {
	// SingleDiode evaluates the model for each parameter set and returns
	// its characteristic points, index-aligned with the inputs.
	SingleDiode(iph, io, rs, rsh, nnsvth []float64) (sdm.Output, error)

	// EstSingleDiodeParams extracts initial per-curve parameters from one
	// rectified IV curve via the co-content integral method.
	EstSingleDiodeParams(current, voltage []float64, nsvth float64) (io, iph, rs, rsh, n float64, err error)

	// UpdateIoKnownN refines the dark current to match the measured Voc
	// with the ideality factor held fixed.
	UpdateIoKnownN(rsh, rs, nnsvth, io, iph, voc []float64) ([]float64, error)

	// UpdateRshFixedPoint refines the shunt resistance to match the
	// measured maximum-power point.
	UpdateRshFixedPoint(rsh, rs, io, iph, nnsvth, imp, vmp []float64) ([]float64, error)

	// CalcThetaPhiExact returns the Lambert-W auxiliary variables of the
	// exact diode solution at the measured maximum-power point.
	CalcThetaPhiExact(imp, iph, vmp, io, nnsvth, rs, rsh []float64) (theta, phi []float64, err error)
}
