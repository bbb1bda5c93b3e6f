package thermo

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for phase state changes.
var (
	// ErrBadComposition indicates mole fractions that are negative or sum to zero.
	ErrBadComposition = errors.New("thermo: invalid mole fractions")

	// ErrStateBounds indicates a non-positive temperature or pressure.
	ErrStateBounds = errors.New("thermo: temperature and pressure must be positive")
)

// Species holds the constant-cp thermodynamic parameters of one species.
// Enthalpy and entropy are linearized around the reference temperature:
//
//	h(T) = H298 + Cp (T - 298.15)
//	s(T) = S298 + Cp ln(T / 298.15)
type Species struct {
	Name string
	H298 float64 // J/kmol
	S298 float64 // J/kmol/K
	Cp   float64 // J/kmol/K
}

// IdealGas is a minimal ideal gas phase with constant-cp species thermo.
// It implements [Phase].
type IdealGas struct {
	name    string
	species []Species
	index   map[string]int

	temp  float64
	pres  float64
	moleX []float64
	stamp int64
}

// NewIdealGas creates a phase at 300 K, 1 atm with an equimolar composition.
func NewIdealGas(name string, species []Species) *IdealGas {
	p := &IdealGas{
		name:    name,
		species: species,
		index:   make(map[string]int, len(species)),
		temp:    300.0,
		pres:    OneAtm,
		moleX:   make([]float64, len(species)),
	}
	for i, s := range species {
		p.index[s.Name] = i
	}
	for i := range p.moleX {
		p.moleX[i] = 1.0 / float64(len(species))
	}
	return p
}

func (p *IdealGas) Name() string { return p.name }

func (p *IdealGas) NSpecies() int { return len(p.species) }

func (p *IdealGas) SpeciesNames() []string {
	names := make([]string, len(p.species))
	for i, s := range p.species {
		names[i] = s.Name
	}
	return names
}

func (p *IdealGas) SpeciesIndex(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	return -1
}

func (p *IdealGas) Temperature() float64 { return p.temp }

func (p *IdealGas) Pressure() float64 { return p.pres }


func (p *IdealGas) MolarDensity() float64 {
	return p.pres / (GasConstant * p.temp)
}

// SetState sets temperature, pressure and mole fractions in one call.
// Mole fractions are normalized to sum to one.
func (p *IdealGas) SetState(temp, pres float64, x []float64) error {
	if temp <= 0 || pres <= 0 {
		return fmt.Errorf("%w: T=%g K, P=%g Pa", ErrStateBounds, temp, pres)
	}
	if len(x) != len(p.species) {
		return fmt.Errorf("%w: got %d mole fractions for %d species",
			ErrBadComposition, len(x), len(p.species))
	}
	sum := 0.0
	for _, v := range x {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative or NaN entry", ErrBadComposition)
		}
		sum += v
	}
	if sum <= 0 {
		return fmt.Errorf("%w: mole fractions sum to zero", ErrBadComposition)
	}
	p.temp = temp
	p.pres = pres
	for i, v := range x {
		p.moleX[i] = v / sum
	}
	p.stamp++
	return nil
}

// SetTemperature changes the temperature, holding pressure and composition.
func (p *IdealGas) SetTemperature(temp float64) error {
	if temp <= 0 {
		return fmt.Errorf("%w: T=%g K", ErrStateBounds, temp)
	}
	p.temp = temp
	p.stamp++
	return nil
}

// SetPressure changes the pressure, holding temperature and composition.
func (p *IdealGas) SetPressure(pres float64) error {
	if pres <= 0 {
		return fmt.Errorf("%w: P=%g Pa", ErrStateBounds, pres)
	}
	p.pres = pres
	p.stamp++
	return nil
}

func (p *IdealGas) GetActivityConcentrations(c []float64) {
	ctot := p.MolarDensity()
	for i, x := range p.moleX {
		c[i] = x * ctot
	}
}

func (p *IdealGas) GetMoleFractions(x []float64) {
	copy(x, p.moleX)
}

func (p *IdealGas) GetEnthalpyRT(h []float64) {
	rt := GasConstant * p.temp
	for i, s := range p.species {
		h[i] = (s.H298 + s.Cp*(p.temp-RefTemperature)) / rt
	}
}

func (p *IdealGas) GetEntropyR(sr []float64) {
	for i, s := range p.species {
		sr[i] = (s.S298 + s.Cp*math.Log(p.temp/RefTemperature)) / GasConstant
	}
}

func (p *IdealGas) GetGibbsRT(g []float64) {
	rt := GasConstant * p.temp
	for i, s := range p.species {
		h := s.H298 + s.Cp*(p.temp-RefTemperature)
		sv := s.S298 + s.Cp*math.Log(p.temp/RefTemperature)
		g[i] = (h - p.temp*sv) / rt
	}
}

func (p *IdealGas) StateStamp() int64 { return p.stamp }
