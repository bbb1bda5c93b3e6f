package thermo

// Physical constants, SI kmol-based units.
const (
	// GasConstant is the universal gas constant [J/kmol/K].
	GasConstant = 8314.462618

	// OneAtm is the reference pressure [Pa].
	OneAtm = 101325.0

	// RefTemperature is the reference temperature for species thermo [K].
	RefTemperature = 298.15
)

// Phase is the read-only view of a thermodynamic phase consumed by the
// kinetics manager. All bulk getters fill caller-provided slices of length
// NSpecies.
type Phase interface {
	Name() string
	NSpecies() int
	SpeciesNames() []string

	// SpeciesIndex returns the in-phase index of a species, or -1 if the
	// phase does not contain it.
	SpeciesIndex(name string) int

	Temperature() float64 // K
	Pressure() float64    // Pa

	// MolarDensity is the total molar concentration [kmol/m^3].
	MolarDensity() float64

	// GetActivityConcentrations fills c with the concentrations that enter
	// rate-of-progress expressions [kmol/m^3].
	GetActivityConcentrations(c []float64)

	GetMoleFractions(x []float64)

	// GetGibbsRT fills g with standard-state Gibbs energies divided by RT.
	GetGibbsRT(g []float64)

	// GetEnthalpyRT fills h with standard-state enthalpies divided by RT.
	GetEnthalpyRT(h []float64)

	// GetEntropyR fills s with standard-state entropies divided by R.
	GetEntropyR(s []float64)

	// StateStamp increments every time the phase state (temperature,
	// pressure or composition) changes. Callers may use it to detect
	// staleness of values derived from the phase state.
	StateStamp() int64
}
