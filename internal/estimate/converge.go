package estimate

import "math"

// ErrStats summarizes the percent error between modeled and measured
// values of one quantity across the usable curves.
type ErrStats struct {
	Max    float64
	Min    float64
	AbsMax float64
	Mean   float64
	// Std is the sample standard deviation (n-1 denominator).
	Std float64
}

// ErrChange holds the absolute relative change of the three spread
// statistics versus the previous iteration.
type ErrChange struct {
	Std    float64
	Mean   float64
	AbsMax float64
}

// ConvergeStats carries the per-iteration convergence diagnostics of the
// refine loop: error statistics for Imp, Vmp and Pmp plus their change
// relative to the previous iteration.
type ConvergeStats struct {
	Imp ErrStats
	Vmp ErrStats
	Pmp ErrStats

	ImpChange ErrChange
	VmpChange ErrChange
	PmpChange ErrChange
}

// MaxChange returns the largest of the nine relative-change metrics; the
// refine loop stops once it drops below the tolerance.
func (c ConvergeStats) MaxChange() float64 {
	m := math.Inf(-1)
	for _, ch := range []ErrChange{c.ImpChange, c.VmpChange, c.PmpChange} {
		m = math.Max(m, math.Max(ch.Std, math.Max(ch.Mean, ch.AbsMax)))
	}
	return m
}

// CheckConverge computes convergence diagnostics for one refine-loop
// iteration. impPred/vmpPred/pmpPred are the model's predictions and
// imp/vmp the measured values, all restricted to the usable curves and
// aligned by index. prev is the previous iteration's record; pass nil on
// the first iteration, which defines every change metric as +Inf so the
// stopping test cannot trigger prematurely.
func CheckConverge(prev *ConvergeStats, impPred, vmpPred, pmpPred, imp, vmp []float64) ConvergeStats {
	n := len(imp)
	impErr := make([]float64, n)
	vmpErr := make([]float64, n)
	pmpErr := make([]float64, n)
	for j := 0; j < n; j++ {
		pmp := imp[j] * vmp[j]
		impErr[j] = (impPred[j] - imp[j]) / imp[j] * 100
		vmpErr[j] = (vmpPred[j] - vmp[j]) / vmp[j] * 100
		pmpErr[j] = (pmpPred[j] - pmp) / pmp * 100
	}

	cur := ConvergeStats{
		Imp: errStats(impErr),
		Vmp: errStats(vmpErr),
		Pmp: errStats(pmpErr),
	}
	if prev == nil {
		inf := math.Inf(1)
		cur.ImpChange = ErrChange{Std: inf, Mean: inf, AbsMax: inf}
		cur.VmpChange = cur.ImpChange
		cur.PmpChange = cur.ImpChange
	} else {
		cur.ImpChange = errChange(cur.Imp, prev.Imp)
		cur.VmpChange = errChange(cur.Vmp, prev.Vmp)
		cur.PmpChange = errChange(cur.Pmp, prev.Pmp)
	}
	return cur
}

func errStats(e []float64) ErrStats {
	s := ErrStats{Max: math.Inf(-1), Min: math.Inf(1)}
	var sum float64
	for _, x := range e {
		s.Max = math.Max(s.Max, x)
		s.Min = math.Min(s.Min, x)
		s.AbsMax = math.Max(s.AbsMax, math.Abs(x))
		sum += x
	}
	s.Mean = sum / float64(len(e))

	var ss float64
	for _, x := range e {
		d := x - s.Mean
		ss += d * d
	}
	s.Std = math.Sqrt(ss / float64(len(e)-1))
	return s
}

func errChange(cur, prev ErrStats) ErrChange {
	rel := func(c, p float64) float64 { return math.Abs((c - p) / p) }
	return ErrChange{
		Std:    rel(cur.Std, prev.Std),
		Mean:   rel(cur.Mean, prev.Mean),
		AbsMax: rel(cur.AbsMax, prev.AbsMax),
	}
}
