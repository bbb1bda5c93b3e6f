package kinetics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ischoegl/cantera/internal/rates"
	"github.com/ischoegl/cantera/internal/thermo"
)

// expCap bounds exponent arguments so extreme Gibbs deltas saturate instead
// of overflowing to +Inf.
const expCap = 700.0

const tiny = 1e-300

// updateRateConstants refreshes the forward rate constants, one batched pass
// per rate-evaluator group.
func (k *Kinetics) updateRateConstants(s rates.State) {
	if k.cache.validate("rate-constants", k.stateStamp()) {
		return
	}
	for _, g := range k.groups {
		g.evalRateConstants(s, k.rfn)
	}
}

// updateEquilibrium refreshes standard-state reaction Gibbs energies and the
// reciprocal equilibrium constants 1/Kc (zero for irreversible reactions).
func (k *Kinetics) updateEquilibrium(s rates.State) {
	if k.cache.validate("equilibrium", k.stateStamp()) {
		return
	}
	for n, p := range k.phases {
		lo := k.start[n]
		p.GetGibbsRT(k.sbufA[lo : lo+p.NSpecies()])
	}
	for i := range k.dG0RT {
		k.dG0RT[i] = 0
	}
	k.netMultiply(k.sbufA, k.dG0RT)

	lnC0 := math.Log(thermo.OneAtm / (thermo.GasConstant * s.T))
	for i := range k.rkcn {
		if !k.isRev[i] {
			k.rkcn[i] = 0
			continue
		}
		arg := k.dG0RT[i] - k.deltaN[i]*lnC0
		k.rkcn[i] = math.Exp(math.Min(arg, expCap))
	}
}

// updateROP refreshes forward, reverse and net rates of progress. The result
// is memoized against the combined manager/phase state stamp.
func (k *Kinetics) updateROP() {
	if k.cache.validate("rop", k.stateStamp()) {
		return
	}
	k.gatherSpeciesState()
	s := k.reactionState()
	k.updateRateConstants(s)
	k.updateEquilibrium(s)

	ctotAll := floats.Sum(k.conc)
	for i := range k.tbConc {
		k.tbConc[i] = math.NaN()
	}
	for _, tb := range k.tbSpecs {
		c := tb.def * ctotAll
		for j, spc := range tb.spc {
			c += tb.delta[j] * k.conc[spc]
		}
		k.tbConc[tb.rxn] = c
	}

	for i := range k.prodF {
		k.prodF[i] = 1
		k.prodR[i] = 1
	}
	k.reactantStoich.multiplyPow(k.conc, k.prodF)
	k.revProductStoich.multiplyPow(k.conc, k.prodR)

	for i := range k.reactions {
		kf := k.rfn[i] * k.perturb[i]
		tbf := 1.0
		if k.hasTB[i] {
			tbf = k.tbConc[i]
		}
		k.ropf[i] = kf * k.prodF[i] * tbf
		if k.isRev[i] {
			k.ropr[i] = kf * k.rkcn[i] * k.prodR[i] * tbf
		} else {
			k.ropr[i] = 0
		}
	}
	floats.SubTo(k.ropnet, k.ropf, k.ropr)
}

// netMultiply accumulates out[i] += sum_k nu_net(k,i) * prop[k].
func (k *Kinetics) netMultiply(prop, out []float64) {
	for _, e := range k.netEntries {
		out[e.rxn] += e.coeff * prop[e.spc]
	}
}

// GetFwdRatesOfProgress writes the forward rates of progress.
func (k *Kinetics) GetFwdRatesOfProgress(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	copy(out, k.ropf)
	return nil
}

// GetRevRatesOfProgress writes the reverse rates of progress; irreversible
// reactions contribute zero.
func (k *Kinetics) GetRevRatesOfProgress(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	copy(out, k.ropr)
	return nil
}

// GetNetRatesOfProgress writes forward minus reverse rates of progress.
func (k *Kinetics) GetNetRatesOfProgress(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	copy(out, k.ropnet)
	return nil
}

// GetFwdRateConstants writes the forward rate constants, including the
// per-reaction multipliers.
func (k *Kinetics) GetFwdRateConstants(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateRateConstants(k.reactionState())
	for i := range k.reactions {
		out[i] = k.rfn[i] * k.perturb[i]
	}
	return nil
}

// GetRevRateConstants writes reverse rate constants computed from the
// forward constants and equilibrium constants. Irreversible reactions get
// zero unless doIrreversible is set.
func (k *Kinetics) GetRevRateConstants(out []float64, doIrreversible bool) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	s := k.reactionState()
	k.updateRateConstants(s)
	k.updateEquilibrium(s)
	if doIrreversible {
		if err := k.GetEquilibriumConstants(k.rbuf); err != nil {
			return err
		}
		for i := range k.reactions {
			out[i] = k.rfn[i] * k.perturb[i] / k.rbuf[i]
		}
		return nil
	}
	for i := range k.reactions {
		out[i] = k.rfn[i] * k.perturb[i] * k.rkcn[i]
	}
	return nil
}

// GetEquilibriumConstants writes equilibrium constants in concentration
// units, Kc_i = exp(-deltaG0_i/RT) * C0^deltaN_i with C0 = P0/(RT).
func (k *Kinetics) GetEquilibriumConstants(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	s := k.reactionState()
	k.updateEquilibrium(s)
	lnC0 := math.Log(thermo.OneAtm / (thermo.GasConstant * s.T))
	for i := range k.reactions {
		arg := -k.dG0RT[i] + k.deltaN[i]*lnC0
		out[i] = math.Exp(math.Min(arg, expCap))
	}
	return nil
}

// GetThirdBodyConcentrations writes effective third-body concentrations;
// entries for reactions without a third body are NaN.
func (k *Kinetics) GetThirdBodyConcentrations(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	copy(out, k.tbConc)
	return nil
}

// GetReactionDelta computes per-reaction changes of a species property,
// delta_i = sum_k nu_net(k,i) * property_k, a single sparse matrix-vector
// product against the net stoichiometry.
func (k *Kinetics) GetReactionDelta(property, delta []float64) error {
	if err := k.CheckSpeciesArraySize(len(property)); err != nil {
		return err
	}
	if err := k.CheckReactionArraySize(len(delta)); err != nil {
		return err
	}
	for i := range k.reactions {
		delta[i] = 0
	}
	k.netMultiply(property, delta)
	return nil
}

// GetRevReactionDelta is GetReactionDelta restricted to reversible
// reactions; entries for irreversible reactions are left untouched.
func (k *Kinetics) GetRevReactionDelta(property, delta []float64) error {
	if err := k.CheckSpeciesArraySize(len(property)); err != nil {
		return err
	}
	if err := k.CheckReactionArraySize(len(delta)); err != nil {
		return err
	}
	for _, i := range k.revIndex {
		delta[i] = 0
	}
	for _, e := range k.netEntries {
		if k.isRev[e.rxn] {
			delta[e.rxn] += e.coeff * property[e.spc]
		}
	}
	return nil
}

// GetCreationRates writes species creation rates: products of forward
// reactions plus reactants of reverse reactions.
func (k *Kinetics) GetCreationRates(out []float64) error {
	if err := k.CheckSpeciesArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	for i := 0; i < k.kk; i++ {
		out[i] = 0
	}
	k.productStoich.incrementSpecies(k.ropf, out)
	k.reactantStoich.incrementSpecies(k.ropr, out)
	return nil
}

// GetDestructionRates writes species destruction rates: reactants of forward
// reactions plus products of reverse reactions.
func (k *Kinetics) GetDestructionRates(out []float64) error {
	if err := k.CheckSpeciesArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	for i := 0; i < k.kk; i++ {
		out[i] = 0
	}
	k.reactantStoich.incrementSpecies(k.ropf, out)
	k.revProductStoich.incrementSpecies(k.ropr, out)
	return nil
}

// GetNetProductionRates writes net species production rates, evaluated as
// creation minus destruction so the decomposition holds exactly.
func (k *Kinetics) GetNetProductionRates(out []float64) error {
	if err := k.CheckSpeciesArraySize(len(out)); err != nil {
		return err
	}
	if err := k.GetCreationRates(k.sbufA); err != nil {
		return err
	}
	if err := k.GetDestructionRates(k.sbufB); err != nil {
		return err
	}
	for i := 0; i < k.kk; i++ {
		out[i] = k.sbufA[i] - k.sbufB[i]
	}
	return nil
}

// GetDeltaSSGibbs writes standard-state Gibbs energies of reaction [J/kmol].
func (k *Kinetics) GetDeltaSSGibbs(out []float64) error {
	return k.standardStateDelta(out, func(p thermo.Phase, buf []float64) {
		p.GetGibbsRT(buf)
		floats.Scale(thermo.GasConstant*p.Temperature(), buf)
	})
}

// GetDeltaSSEnthalpy writes standard-state enthalpies of reaction [J/kmol].
func (k *Kinetics) GetDeltaSSEnthalpy(out []float64) error {
	return k.standardStateDelta(out, func(p thermo.Phase, buf []float64) {
		p.GetEnthalpyRT(buf)
		floats.Scale(thermo.GasConstant*p.Temperature(), buf)
	})
}

// GetDeltaSSEntropy writes standard-state entropies of reaction [J/kmol/K].
func (k *Kinetics) GetDeltaSSEntropy(out []float64) error {
	return k.standardStateDelta(out, func(p thermo.Phase, buf []float64) {
		p.GetEntropyR(buf)
		floats.Scale(thermo.GasConstant, buf)
	})
}

// GetDeltaGibbs writes concentration-dependent Gibbs energies of reaction
// from chemical potentials mu_k = g0_k + RT ln(X_k P/P0) [J/kmol].
func (k *Kinetics) GetDeltaGibbs(out []float64) error {
	return k.standardStateDelta(out, func(p thermo.Phase, buf []float64) {
		rt := thermo.GasConstant * p.Temperature()
		x := make([]float64, p.NSpecies())
		p.GetMoleFractions(x)
		p.GetGibbsRT(buf)
		for i := range buf {
			buf[i] = rt * (buf[i] + math.Log(math.Max(x[i], tiny)*p.Pressure()/thermo.OneAtm))
		}
	})
}

// GetDeltaEnthalpy writes enthalpies of reaction [J/kmol]. For ideal
// mixtures partial molar enthalpies equal the standard-state values.
func (k *Kinetics) GetDeltaEnthalpy(out []float64) error {
	return k.GetDeltaSSEnthalpy(out)
}

// GetDeltaEntropy writes concentration-dependent entropies of reaction,
// s_k = s0_k - R ln(X_k P/P0) [J/kmol/K].
func (k *Kinetics) GetDeltaEntropy(out []float64) error {
	return k.standardStateDelta(out, func(p thermo.Phase, buf []float64) {
		x := make([]float64, p.NSpecies())
		p.GetMoleFractions(x)
		p.GetEntropyR(buf)
		for i := range buf {
			buf[i] = thermo.GasConstant *
				(buf[i] - math.Log(math.Max(x[i], tiny)*p.Pressure()/thermo.OneAtm))
		}
	})
}

// GetDeltaElectrochemPotentials requires phase electric potentials, which
// the bulk kinetics model does not track.
func (k *Kinetics) GetDeltaElectrochemPotentials(out []float64) error {
	return &NotImplementedError{
		Op:           "GetDeltaElectrochemPotentials",
		KineticsType: k.KineticsType(),
	}
}

func (k *Kinetics) standardStateDelta(out []float64, fill func(thermo.Phase, []float64)) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	for n, p := range k.phases {
		lo := k.start[n]
		fill(p, k.sbufA[lo:lo+p.NSpecies()])
	}
	for i := range k.reactions {
		out[i] = 0
	}
	k.netMultiply(k.sbufA, out)
	return nil
}
