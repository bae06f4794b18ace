package model

// IVCurve holds one measured current-voltage trace together with the
// conditions it was taken under and its characteristic points.
type IVCurve struct {
	// I and V are the raw sampled current (A) and voltage (V) sequences,
	// paired by index. Same length.
	I []float64
	V []float64

	// Isc is the short-circuit current (A).
	Isc float64
	// Voc is the open-circuit voltage (V).
	Voc float64
	// Imp and Vmp are the current (A) and voltage (V) at the measured
	// maximum-power point.
	Imp float64
	Vmp float64

	// Ee is the effective irradiance (W/m²) during the measurement.
	Ee float64
	// Tc is the cell temperature (°C) during the measurement.
	Tc float64
}

// ModuleSpecs holds datasheet values that are constant across all curves
// of one module.
type ModuleSpecs struct {
	// Ns is the number of cells in series.
	Ns int
	// Aisc is the temperature coefficient of Isc (A/°C).
	Aisc float64
}

// Constants holds the physical constants and reference conditions used by
// the estimation. Pass by value; callers that need non-standard reference
// conditions supply their own copy.
type Constants struct {
	// E0 is the reference irradiance (W/m²), normally 1000.
	E0 float64
	// T0 is the reference cell temperature (°C), normally 25.
	T0 float64
	// K is Boltzmann's constant (J/K).
	K float64
	// Q is the elementary charge (C).
	Q float64
}

// DefaultConstants returns STC reference conditions and CODATA-style
// physical constants.
func DefaultConstants() Constants {
	return Constants{
		E0: 1000.0,
		T0: 25.0,
		K:  1.38066e-23,
		Q:  1.60218e-19,
	}
}

// Vth returns the cell thermal voltage kT/q (V) for a cell temperature
// in °C.
func (c Constants) Vth(tc float64) float64 {
	return c.K / c.Q * (tc + 273.15)
}

// T0K returns the reference cell temperature in kelvin.
func (c Constants) T0K() float64 {
	return c.T0 + 273.15
}
