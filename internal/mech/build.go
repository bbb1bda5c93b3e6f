package mech

import (
	"fmt"

	"github.com/ischoegl/cantera/internal/kinetics"
	"github.com/ischoegl/cantera/internal/rates"
	"github.com/ischoegl/cantera/internal/thermo"
)

// Build assembles a kinetics manager and its phases from the mechanism.
// Rate expressions are constructed through the given registry, so callers can
// register additional rate types before building.
func Build(m *Mechanism, reg *rates.Registry) (*kinetics.Kinetics, []*thermo.IdealGas, error) {
	k := kinetics.New()
	k.SetSkipUndeclaredSpecies(m.Settings.SkipUndeclaredSpecies)
	k.SetSkipUndeclaredThirdBodies(m.Settings.SkipUndeclaredThirdBodies)
	if m.Settings.ThirdBodyDuplicates != "" {
		if err := k.SetThirdBodyDuplicateHandling(m.Settings.ThirdBodyDuplicates); err != nil {
			return nil, nil, err
		}
	}

	phases := make([]*thermo.IdealGas, 0, len(m.Phases))
	for _, pc := range m.Phases {
		p, err := buildPhase(pc)
		if err != nil {
			return nil, nil, fmt.Errorf("mech: phase %q: %w", pc.Name, err)
		}
		if err := k.AddPhase(p); err != nil {
			return nil, nil, err
		}
		phases = append(phases, p)
	}

	for n, rc := range m.Reactions {
		r, err := buildReaction(rc, reg)
		if err != nil {
			return nil, nil, fmt.Errorf("mech: reaction %d: %w", n, err)
		}
		if _, err := k.AddReaction(r, false); err != nil {
			return nil, nil, fmt.Errorf("mech: reaction %d: %w", n, err)
		}
	}
	k.ResizeReactions()
	return k, phases, nil
}

func buildPhase(pc Phase) (*thermo.IdealGas, error) {
	species := make([]thermo.Species, len(pc.Species))
	for i, sc := range pc.Species {
		species[i] = thermo.Species{Name: sc.Name, H298: sc.H298, S298: sc.S298, Cp: sc.Cp}
	}
	p := thermo.NewIdealGas(pc.Name, species)

	temp := pc.State.T
	if temp == 0 {
		temp = DefaultTemperature
	}
	pres := pc.State.P
	if pres == 0 {
		pres = DefaultPressure
	}
	x := make([]float64, len(species))
	if len(pc.State.X) == 0 {
		for i := range x {
			x[i] = 1
		}
	} else {
		for name, v := range pc.State.X {
			i := p.SpeciesIndex(name)
			if i < 0 {
				return nil, fmt.Errorf("composition names unknown species %q", name)
			}
			x[i] = v
		}
	}
	if err := p.SetState(temp, pres, x); err != nil {
		return nil, err
	}
	return p, nil
}

func buildReaction(rc Reaction, reg *rates.Registry) (*kinetics.Reaction, error) {
	rate, err := reg.Create(rc.Type, rc.Rate)
	if err != nil {
		return nil, err
	}
	r := &kinetics.Reaction{
		Reactants:  rc.Reactants,
		Products:   rc.Products,
		Rate:       rate,
		Reversible: rc.Reversible,
		Duplicate:  rc.Duplicate,
	}
	if rc.ThirdBody != nil {
		tb := kinetics.NewThirdBody()
		if rc.ThirdBody.Collider != "" {
			tb.Name = rc.ThirdBody.Collider
		}
		if rc.ThirdBody.Default != nil {
			tb.Default = *rc.ThirdBody.Default
		}
		for name, eff := range rc.ThirdBody.Efficiencies {
			tb.Efficiencies[name] = eff
		}
		r.ThirdBody = tb
	}
	return r, nil
}
