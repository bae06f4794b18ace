package sdm

// Solver adapts the package functions to the method set the estimation
// driver depends on. The zero value is ready to use.
type Solver struct{}

func (Solver) SingleDiode(iph, io, rs, rsh, nnsvth []float64) (Output, error) {
	return SingleDiode(iph, io, rs, rsh, nnsvth)
}

func (Solver) EstSingleDiodeParams(current, voltage []float64, nsvth float64) (io, iph, rs, rsh, n float64, err error) {
	return EstSingleDiodeParams(current, voltage, nsvth)
}

func (Solver) UpdateIoKnownN(rsh, rs, nnsvth, io, iph, voc []float64) ([]float64, error) {
	return UpdateIoKnownN(rsh, rs, nnsvth, io, iph, voc)
}

func (Solver) UpdateRshFixedPoint(rsh, rs, io, iph, nnsvth, imp, vmp []float64) ([]float64, error) {
	return UpdateRshFixedPoint(rsh, rs, io, iph, nnsvth, imp, vmp)
}

func (Solver) CalcThetaPhiExact(imp, iph, vmp, io, nnsvth, rs, rsh []float64) (theta, phi []float64, err error) {
	return CalcThetaPhiExact(imp, iph, vmp, io, nnsvth, rs, rsh)
}
