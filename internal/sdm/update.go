package sdm

import "math"

// UpdateIoKnownN refines the dark current of each curve so the modeled
// open-circuit voltage matches the measured voc, with the ideality factor
// held fixed. Each element runs a damped multiplicative fixed point on the
// Voc residual; ten steps are plenty at the accuracy the outer loop needs.
func UpdateIoKnownN(rsh, rs, nnsvth, io, iph, voc []float64) ([]float64, error) {
	if err := sameLen(len(rsh), len(rs), len(nnsvth), len(io), len(iph), len(voc)); err != nil {
		return nil, err
	}

	out := make([]float64, len(io))
	for j := range io {
		tio := io[j]
		for k := 0; k < 10; k++ {
			pvoc := VFromI(0, iph[j], tio, rs[j], rsh[j], nnsvth[j])
			dvoc := pvoc - voc[j]
			next := tio * (1 + 2*dvoc/(2*nnsvth[j]-dvoc))
			if math.IsNaN(next) {
				tio = next
				break
			}
			done := math.Abs(next-tio) <= 1e-12*math.Abs(tio)
			tio = next
			if done {
				break
			}
		}
		out[j] = tio
	}
	return out, nil
}

// UpdateRshFixedPoint refines the shunt resistance of each curve so the
// modeled maximum-power point lands on the measured (vmp, imp). The update
// iterates the stationarity condition of P(V) at the measured point, with
// the Lambert-W term re-evaluated each step.
func UpdateRshFixedPoint(rsh, rs, io, iph, nnsvth, imp, vmp []float64) ([]float64, error) {
	if err := sameLen(len(rsh), len(rs), len(io), len(iph), len(nnsvth), len(imp), len(vmp)); err != nil {
		return nil, err
	}

	out := make([]float64, len(rsh))
	for j := range rsh {
		x := rsh[j]
		for k := 0; k < 500; k++ {
			z := mppPhi(imp[j], iph[j], io[j], nnsvth[j], x)
			if math.IsNaN(z) || z == 0 {
				break
			}
			next := (1 + z) / z * ((iph[j]+io[j])*x/imp[j] - nnsvth[j]*z/imp[j] - 2*vmp[j]/imp[j])
			if math.IsNaN(next) {
				x = next
				break
			}
			done := math.Abs(next-x) <= 1e-9*math.Abs(x)
			x = next
			if done {
				break
			}
		}
		out[j] = x
	}
	return out, nil
}

// CalcThetaPhiExact returns the Lambert-W auxiliary variables of the exact
// diode-equation solution at the measured maximum-power point. phi solves
// the voltage-explicit form at I = Imp; theta solves the current-explicit
// form at V = Vmp. A closed-form series-resistance update follows from phi:
//
//	Rs = ((Iph+Io-Imp)·Rsh - nNsVth·phi - Vmp) / Imp
func CalcThetaPhiExact(imp, iph, vmp, io, nnsvth, rs, rsh []float64) (theta, phi []float64, err error) {
	if err := sameLen(len(imp), len(iph), len(vmp), len(io), len(nnsvth), len(rs), len(rsh)); err != nil {
		return nil, nil, err
	}

	n := len(imp)
	theta = make([]float64, n)
	phi = make([]float64, n)
	for j := 0; j < n; j++ {
		phi[j] = mppPhi(imp[j], iph[j], io[j], nnsvth[j], rsh[j])

		if io[j] <= 0 || rsh[j] <= 0 || nnsvth[j] <= 0 || rs[j] < 0 {
			theta[j] = math.NaN()
			continue
		}
		t := rsh[j] / (rs[j] + rsh[j])
		// rs == 0 gives log(0) = -Inf, hence theta = W(0) = 0.
		logArg := math.Log(rs[j]*io[j]*t/nnsvth[j]) + t*(rs[j]*(iph[j]+io[j])+vmp[j])/nnsvth[j]
		theta[j] = lambertWLog(logArg)
	}
	return theta, phi, nil
}

// mppPhi is the W term of the voltage-explicit diode solution at current
// imp for the given shunt resistance.
func mppPhi(imp, iph, io, nnsvth, rsh float64) float64 {
	if io <= 0 || rsh <= 0 || nnsvth <= 0 {
		return math.NaN()
	}
	logArg := math.Log(rsh*io/nnsvth) + rsh*(iph+io-imp)/nnsvth
	return lambertWLog(logArg)
}
