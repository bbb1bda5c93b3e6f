package rates

// State is the thermodynamic snapshot a rate expression is evaluated at.
// It is a plain value so derivative code can evaluate perturbed copies
// without touching the owning phase.
type State struct {
	T            float64 // temperature [K]
	P            float64 // pressure [Pa]
	MolarDensity float64 // total molar concentration [kmol/m^3]
}

// PerturbTemperature returns a copy with T scaled by (1 + rtol).
func (s State) PerturbTemperature(rtol float64) State {
	s.T *= 1 + rtol
	return s
}

// PerturbPressure returns a copy with P scaled by (1 + rtol).
func (s State) PerturbPressure(rtol float64) State {
	s.P *= 1 + rtol
	return s
}

// Rate is the mandatory contract of a rate expression.
type Rate interface {
	// Type identifies the rate law; reactions with equal types are batched
	// into one evaluator group.
	Type() string

	// Eval returns the rate constant at the given state. Units depend on
	// the reaction's stoichiometry.
	Eval(s State) float64
}

// TemperatureDerivative is implemented by rate expressions that supply an
// exact d(ln k)/dT. Rates without it are differentiated numerically.
type TemperatureDerivative interface {
	DlnRateDT(s State) float64
}

// PressureDependent is implemented by rate expressions whose value varies
// with pressure at fixed temperature. Rates without it have zero pressure
// derivative.
type PressureDependent interface {
	PressureDependent() bool
}
