package kinetics

import "github.com/ischoegl/cantera/internal/rates"

// rateGroup batches all reactions sharing one rate-expression type. Groups
// are created lazily when the first reaction of a type is added and are never
// destroyed; reactions are referenced by global index, so group membership
// must stay stable.
type rateGroup struct {
	rtype   string
	indices []int
	rates   []rates.Rate
}

func newRateGroup(rtype string) *rateGroup {
	return &rateGroup{rtype: rtype}
}

// add appends a reaction to the group and returns its slot.
func (g *rateGroup) add(rxn int, r rates.Rate) int {
	g.indices = append(g.indices, rxn)
	g.rates = append(g.rates, r)
	return len(g.rates) - 1
}

// replace swaps the rate expression in an existing slot.
func (g *rateGroup) replace(slot int, r rates.Rate) {
	g.rates[slot] = r
}

// evalRateConstants fills kf[i] for every member reaction i.
func (g *rateGroup) evalRateConstants(s rates.State, kf []float64) {
	for n, r := range g.rates {
		kf[g.indices[n]] = r.Eval(s)
	}
}

// dlnKdT fills out[i] with d(ln k_i)/dT for every member. Members with an
// exact derivative use it; the rest share a single perturbed state, so the
// perturbation cost is paid once per group.
func (g *rateGroup) dlnKdT(s rates.State, rtol float64, out []float64) {
	var sp rates.State
	perturbed := false
	for n, r := range g.rates {
		i := g.indices[n]
		if d, ok := r.(rates.TemperatureDerivative); ok {
			out[i] = d.DlnRateDT(s)
			continue
		}
		if !perturbed {
			sp = s.PerturbTemperature(rtol)
			perturbed = true
		}
		k0 := r.Eval(s)
		if k0 == 0 {
			out[i] = 0
			continue
		}
		k1 := r.Eval(sp)
		out[i] = (k1 - k0) / (k0 * (sp.T - s.T))
	}
}

// dlnKdP fills out[i] with d(ln k_i)/dP. Rates not marked pressure-dependent
// contribute zero; the rest are perturbed numerically.
func (g *rateGroup) dlnKdP(s rates.State, rtol float64, out []float64) {
	var sp rates.State
	perturbed := false
	for n, r := range g.rates {
		i := g.indices[n]
		pd, ok := r.(rates.PressureDependent)
		if !ok || !pd.PressureDependent() {
			out[i] = 0
			continue
		}
		if !perturbed {
			sp = s.PerturbPressure(rtol)
			perturbed = true
		}
		k0 := r.Eval(s)
		if k0 == 0 {
			out[i] = 0
			continue
		}
		k1 := r.Eval(sp)
		out[i] = (k1 - k0) / (k0 * (sp.P - s.P))
	}
}
