package kinetics

import (
	"fmt"

	"github.com/ctessum/sparse"

	"gonum.org/v1/gonum/floats"
)

// derivSettings controls derivative evaluation. Settings are read and
// written as a whole through DerivativeSettings / SetDerivativeSettings.
type derivSettings struct {
	skipThirdBodies bool
	skipFalloff     bool
	rtolDelta       float64
}

func defaultDerivSettings() derivSettings {
	return derivSettings{rtolDelta: 1e-8}
}

// DerivativeSettings returns the active derivative-evaluation options:
//
//   - "skip-third-bodies" (bool): leave third-body terms out of Jacobians
//   - "skip-falloff" (bool): ignore third-body effects on rate constants
//   - "rtol-delta" (float64): relative perturbation for numeric derivatives
func (k *Kinetics) DerivativeSettings() map[string]any {
	return map[string]any{
		"skip-third-bodies": k.deriv.skipThirdBodies,
		"skip-falloff":      k.deriv.skipFalloff,
		"rtol-delta":        k.deriv.rtolDelta,
	}
}

// SetDerivativeSettings replaces derivative-evaluation options. Unknown keys
// are rejected.
func (k *Kinetics) SetDerivativeSettings(settings map[string]any) error {
	for key, v := range settings {
		switch key {
		case "skip-third-bodies":
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("%w: %q needs a bool", ErrUnknownSetting, key)
			}
			k.deriv.skipThirdBodies = b
		case "skip-falloff":
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("%w: %q needs a bool", ErrUnknownSetting, key)
			}
			k.deriv.skipFalloff = b
		case "rtol-delta":
			f, ok := v.(float64)
			if !ok || f <= 0 {
				return fmt.Errorf("%w: %q needs a positive float", ErrUnknownSetting, key)
			}
			k.deriv.rtolDelta = f
		default:
			return fmt.Errorf("%w: %q (kinetics type %q)", ErrUnknownSetting,
				key, k.KineticsType())
		}
	}
	k.invalidateCache()
	return nil
}

// fillDlnKdT gathers d(ln kf)/dT for all reactions, one group at a time.
func (k *Kinetics) fillDlnKdT(out []float64) {
	s := k.reactionState()
	for _, g := range k.groups {
		g.dlnKdT(s, k.deriv.rtolDelta, out)
	}
}

// fillDlnKdP gathers d(ln kf)/dP for all reactions.
func (k *Kinetics) fillDlnKdP(out []float64) {
	s := k.reactionState()
	for _, g := range k.groups {
		g.dlnKdP(s, k.deriv.rtolDelta, out)
	}
}

// fillDlnKcDT gathers d(ln Kc)/dT via van 't Hoff,
// d(ln Kc)/dT = (deltaH0/RT - deltaN) / T.
func (k *Kinetics) fillDlnKcDT(out []float64) {
	for n, p := range k.phases {
		lo := k.start[n]
		p.GetEnthalpyRT(k.sbufB[lo : lo+p.NSpecies()])
	}
	for i := range k.dH0RT {
		k.dH0RT[i] = 0
	}
	k.netMultiply(k.sbufB, k.dH0RT)
	t := k.reactionState().T
	for i := range out {
		out[i] = (k.dH0RT[i] - k.deltaN[i]) / t
	}
}

// GetFwdRateConstantsDdT writes temperature derivatives of the forward rate
// constants at constant pressure, concentration and mole fractions.
func (k *Kinetics) GetFwdRateConstantsDdT(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateRateConstants(k.reactionState())
	k.fillDlnKdT(k.rbuf)
	for i := range k.reactions {
		out[i] = k.rfn[i] * k.perturb[i] * k.rbuf[i]
	}
	return nil
}

// GetFwdRateConstantsDdP writes pressure derivatives of the forward rate
// constants at constant temperature, concentration and mole fractions.
func (k *Kinetics) GetFwdRateConstantsDdP(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateRateConstants(k.reactionState())
	k.fillDlnKdP(k.rbuf)
	for i := range k.reactions {
		out[i] = k.rfn[i] * k.perturb[i] * k.rbuf[i]
	}
	return nil
}

// GetFwdRateConstantsDdC writes molar-density derivatives of the forward
// rate constants; zero for all registered rate types.
func (k *Kinetics) GetFwdRateConstantsDdC(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	for i := range k.reactions {
		out[i] = 0
	}
	return nil
}

// GetFwdRatesOfProgressDdT writes temperature derivatives of forward rates
// of progress at constant pressure, concentration and mole fractions.
func (k *Kinetics) GetFwdRatesOfProgressDdT(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	k.fillDlnKdT(k.rbuf)
	for i := range k.reactions {
		out[i] = k.ropf[i] * k.rbuf[i]
	}
	return nil
}

// GetRevRatesOfProgressDdT writes temperature derivatives of reverse rates
// of progress; the equilibrium-constant dependence enters through van 't
// Hoff, d(ln kr)/dT = d(ln kf)/dT - d(ln Kc)/dT.
func (k *Kinetics) GetRevRatesOfProgressDdT(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	k.fillDlnKdT(k.rbuf)
	k.fillDlnKcDT(k.rbuf2)
	for i := range k.reactions {
		out[i] = k.ropr[i] * (k.rbuf[i] - k.rbuf2[i])
	}
	return nil
}

// GetNetRatesOfProgressDdT writes temperature derivatives of net rates of
// progress.
func (k *Kinetics) GetNetRatesOfProgressDdT(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	nr := len(k.reactions)
	fwd := make([]float64, nr)
	rev := make([]float64, nr)
	if err := k.GetFwdRatesOfProgressDdT(fwd); err != nil {
		return err
	}
	if err := k.GetRevRatesOfProgressDdT(rev); err != nil {
		return err
	}
	floats.SubTo(out[:nr], fwd, rev)
	return nil
}

// GetFwdRatesOfProgressDdP writes pressure derivatives of forward rates of
// progress.
func (k *Kinetics) GetFwdRatesOfProgressDdP(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	k.fillDlnKdP(k.rbuf)
	for i := range k.reactions {
		out[i] = k.ropf[i] * k.rbuf[i]
	}
	return nil
}

// GetRevRatesOfProgressDdP writes pressure derivatives of reverse rates of
// progress; Kc carries no explicit pressure dependence in concentration
// units.
func (k *Kinetics) GetRevRatesOfProgressDdP(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	k.fillDlnKdP(k.rbuf)
	for i := range k.reactions {
		out[i] = k.ropr[i] * k.rbuf[i]
	}
	return nil
}

// GetNetRatesOfProgressDdP writes pressure derivatives of net rates of
// progress.
func (k *Kinetics) GetNetRatesOfProgressDdP(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	nr := len(k.reactions)
	fwd := make([]float64, nr)
	rev := make([]float64, nr)
	if err := k.GetFwdRatesOfProgressDdP(fwd); err != nil {
		return err
	}
	if err := k.GetRevRatesOfProgressDdP(rev); err != nil {
		return err
	}
	floats.SubTo(out[:nr], fwd, rev)
	return nil
}

// tbFlag is one when reaction i has a third body counted in derivatives.
func (k *Kinetics) tbFlag(i int) float64 {
	if k.hasTB[i] && !k.deriv.skipThirdBodies {
		return 1
	}
	return 0
}

// GetFwdRatesOfProgressDdC writes molar-density derivatives of forward rates
// of progress at constant temperature, pressure and mole fractions. Scaling
// the molar density at fixed composition scales each concentration, so the
// derivative is rop * (order + thirdBody) / C.
func (k *Kinetics) GetFwdRatesOfProgressDdC(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	c := k.reactionState().MolarDensity
	for i := range k.reactions {
		out[i] = k.ropf[i] * (k.fwdOrders[i] + k.tbFlag(i)) / c
	}
	return nil
}

// GetRevRatesOfProgressDdC writes molar-density derivatives of reverse rates
// of progress.
func (k *Kinetics) GetRevRatesOfProgressDdC(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	k.updateROP()
	c := k.reactionState().MolarDensity
	for i := range k.reactions {
		out[i] = k.ropr[i] * (k.revOrders[i] + k.tbFlag(i)) / c
	}
	return nil
}

// GetNetRatesOfProgressDdC writes molar-density derivatives of net rates of
// progress.
func (k *Kinetics) GetNetRatesOfProgressDdC(out []float64) error {
	if err := k.CheckReactionArraySize(len(out)); err != nil {
		return err
	}
	nr := len(k.reactions)
	fwd := make([]float64, nr)
	rev := make([]float64, nr)
	if err := k.GetFwdRatesOfProgressDdC(fwd); err != nil {
		return err
	}
	if err := k.GetRevRatesOfProgressDdC(rev); err != nil {
		return err
	}
	floats.SubTo(out[:nr], fwd, rev)
	return nil
}

// ropJacobianCi assembles d(rop_i)/d(c_k) as an nReactions x nTotalSpecies
// sparse matrix: exact product-rule derivatives of the concentration
// product, plus third-body efficiency terms unless disabled.
func (k *Kinetics) ropJacobianCi(fwd bool) *sparse.SparseArray {
	k.updateROP()
	nr := len(k.reactions)
	jac := sparse.ZerosSparse(nr, k.kk)

	scale := k.rbuf
	for i := range k.reactions {
		kc := k.rfn[i] * k.perturb[i]
		if !fwd {
			if !k.isRev[i] {
				scale[i] = 0
				continue
			}
			kc *= k.rkcn[i]
		}
		if k.hasTB[i] {
			kc *= k.tbConc[i]
		}
		scale[i] = kc
	}
	if fwd {
		k.reactantStoich.productDerivatives(k.conc, scale, jac)
	} else {
		k.revProductStoich.productDerivatives(k.conc, scale, jac)
	}

	if !k.deriv.skipThirdBodies {
		for _, tb := range k.tbSpecs {
			i := tb.rxn
			base := k.rfn[i] * k.perturb[i]
			if fwd {
				base *= k.prodF[i]
			} else {
				if !k.isRev[i] {
					continue
				}
				base *= k.rkcn[i] * k.prodR[i]
			}
			if base == 0 {
				continue
			}
			if tb.def != 0 {
				for spc := 0; spc < k.kk; spc++ {
					jac.AddVal(base*tb.def, i, spc)
				}
			}
			for j, spc := range tb.spc {
				jac.AddVal(base*tb.delta[j], i, spc)
			}
		}
	}
	return jac
}

// FwdRatesOfProgressDdCi returns d(fwd rop)/d(c_k), holding temperature,
// pressure and the other concentrations fixed. Shape: nReactions x
// nTotalSpecies.
func (k *Kinetics) FwdRatesOfProgressDdCi() (*sparse.SparseArray, error) {
	return k.ropJacobianCi(true), nil
}

// RevRatesOfProgressDdCi returns d(rev rop)/d(c_k).
func (k *Kinetics) RevRatesOfProgressDdCi() (*sparse.SparseArray, error) {
	return k.ropJacobianCi(false), nil
}

// NetRatesOfProgressDdCi returns d(net rop)/d(c_k).
func (k *Kinetics) NetRatesOfProgressDdCi() (*sparse.SparseArray, error) {
	jac := k.ropJacobianCi(true)
	jac.SubtractSparse(k.ropJacobianCi(false))
	return jac, nil
}

// FwdRatesOfProgressDdX returns d(fwd rop)/d(X_k) at constant temperature,
// pressure and molar density; mole fractions are not renormalized. With the
// molar density fixed, c_k = X_k * C, so this is the concentration Jacobian
// scaled by C.
func (k *Kinetics) FwdRatesOfProgressDdX() (*sparse.SparseArray, error) {
	jac := k.ropJacobianCi(true)
	jac.Scale(k.reactionState().MolarDensity)
	return jac, nil
}

// RevRatesOfProgressDdX returns d(rev rop)/d(X_k).
func (k *Kinetics) RevRatesOfProgressDdX() (*sparse.SparseArray, error) {
	jac := k.ropJacobianCi(false)
	jac.Scale(k.reactionState().MolarDensity)
	return jac, nil
}

// NetRatesOfProgressDdX returns d(net rop)/d(X_k).
func (k *Kinetics) NetRatesOfProgressDdX() (*sparse.SparseArray, error) {
	jac, err := k.NetRatesOfProgressDdCi()
	if err != nil {
		return nil, err
	}
	jac.Scale(k.reactionState().MolarDensity)
	return jac, nil
}

// speciesJacobian accumulates out[k,j] += sign * nu(k,i) * ropJac[i,j],
// chaining a rate-of-progress Jacobian through a stoichiometry matrix.
func (k *Kinetics) speciesJacobian(m *stoichMatrix, ropJac, out *sparse.SparseArray, sign float64) {
	for idx, v := range ropJac.Elements {
		i := idx / k.kk
		j := idx % k.kk
		for _, ei := range m.byRxn[i] {
			e := m.entries[ei]
			out.AddVal(sign*e.coeff*v, e.spc, j)
		}
	}
}

// netSpeciesJacobian is speciesJacobian against the derived net matrix.
func (k *Kinetics) netSpeciesJacobian(ropJac, out *sparse.SparseArray) {
	for idx, v := range ropJac.Elements {
		i := idx / k.kk
		j := idx % k.kk
		for _, ei := range k.netByRxn[i] {
			e := k.netEntries[ei]
			out.AddVal(e.coeff*v, e.spc, j)
		}
	}
}

// CreationRatesDdX returns d(creation rate)/d(X_k), a square
// nTotalSpecies x nTotalSpecies matrix.
func (k *Kinetics) CreationRatesDdX() (*sparse.SparseArray, error) {
	fwd, _ := k.FwdRatesOfProgressDdX()
	rev, _ := k.RevRatesOfProgressDdX()
	out := sparse.ZerosSparse(k.kk, k.kk)
	k.speciesJacobian(&k.productStoich, fwd, out, 1)
	k.speciesJacobian(&k.reactantStoich, rev, out, 1)
	return out, nil
}

// DestructionRatesDdX returns d(destruction rate)/d(X_k).
func (k *Kinetics) DestructionRatesDdX() (*sparse.SparseArray, error) {
	fwd, _ := k.FwdRatesOfProgressDdX()
	rev, _ := k.RevRatesOfProgressDdX()
	out := sparse.ZerosSparse(k.kk, k.kk)
	k.speciesJacobian(&k.reactantStoich, fwd, out, 1)
	k.speciesJacobian(&k.revProductStoich, rev, out, 1)
	return out, nil
}

// NetProductionRatesDdX returns d(net production rate)/d(X_k); since
// production is linear in the rates of progress, this is the net
// stoichiometry chained with the net rop Jacobian.
func (k *Kinetics) NetProductionRatesDdX() (*sparse.SparseArray, error) {
	net, err := k.NetRatesOfProgressDdX()
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosSparse(k.kk, k.kk)
	k.netSpeciesJacobian(net, out)
	return out, nil
}

// CreationRatesDdCi returns d(creation rate)/d(c_k).
func (k *Kinetics) CreationRatesDdCi() (*sparse.SparseArray, error) {
	fwd, _ := k.FwdRatesOfProgressDdCi()
	rev, _ := k.RevRatesOfProgressDdCi()
	out := sparse.ZerosSparse(k.kk, k.kk)
	k.speciesJacobian(&k.productStoich, fwd, out, 1)
	k.speciesJacobian(&k.reactantStoich, rev, out, 1)
	return out, nil
}

// DestructionRatesDdCi returns d(destruction rate)/d(c_k).
func (k *Kinetics) DestructionRatesDdCi() (*sparse.SparseArray, error) {
	fwd, _ := k.FwdRatesOfProgressDdCi()
	rev, _ := k.RevRatesOfProgressDdCi()
	out := sparse.ZerosSparse(k.kk, k.kk)
	k.speciesJacobian(&k.reactantStoich, fwd, out, 1)
	k.speciesJacobian(&k.revProductStoich, rev, out, 1)
	return out, nil
}

// NetProductionRatesDdCi returns d(net production rate)/d(c_k).
func (k *Kinetics) NetProductionRatesDdCi() (*sparse.SparseArray, error) {
	net, err := k.NetRatesOfProgressDdCi()
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosSparse(k.kk, k.kk)
	k.netSpeciesJacobian(net, out)
	return out, nil
}

// Vector-valued production-rate derivatives assemble the rop derivative of
// the same flavor through the stoichiometry matrices.

func (k *Kinetics) creationDerivative(out []float64, fwdDeriv, revDeriv func([]float64) error) error {
	if err := k.CheckSpeciesArraySize(len(out)); err != nil {
		return err
	}
	nr := len(k.reactions)
	fwd := make([]float64, nr)
	rev := make([]float64, nr)
	if err := fwdDeriv(fwd); err != nil {
		return err
	}
	if err := revDeriv(rev); err != nil {
		return err
	}
	for i := 0; i < k.kk; i++ {
		out[i] = 0
	}
	k.productStoich.incrementSpecies(fwd, out)
	k.reactantStoich.incrementSpecies(rev, out)
	return nil
}

func (k *Kinetics) destructionDerivative(out []float64, fwdDeriv, revDeriv func([]float64) error) error {
	if err := k.CheckSpeciesArraySize(len(out)); err != nil {
		return err
	}
	nr := len(k.reactions)
	fwd := make([]float64, nr)
	rev := make([]float64, nr)
	if err := fwdDeriv(fwd); err != nil {
		return err
	}
	if err := revDeriv(rev); err != nil {
		return err
	}
	for i := 0; i < k.kk; i++ {
		out[i] = 0
	}
	k.reactantStoich.incrementSpecies(fwd, out)
	k.revProductStoich.incrementSpecies(rev, out)
	return nil
}

func (k *Kinetics) netProductionDerivative(out []float64, netDeriv func([]float64) error) error {
	if err := k.CheckSpeciesArraySize(len(out)); err != nil {
		return err
	}
	net := make([]float64, len(k.reactions))
	if err := netDeriv(net); err != nil {
		return err
	}
	for i := 0; i < k.kk; i++ {
		out[i] = 0
	}
	for _, e := range k.netEntries {
		out[e.spc] += e.coeff * net[e.rxn]
	}
	return nil
}

// GetCreationRatesDdT writes temperature derivatives of species creation rates.
func (k *Kinetics) GetCreationRatesDdT(out []float64) error {
	return k.creationDerivative(out, k.GetFwdRatesOfProgressDdT, k.GetRevRatesOfProgressDdT)
}

// GetCreationRatesDdP writes pressure derivatives of species creation rates.
func (k *Kinetics) GetCreationRatesDdP(out []float64) error {
	return k.creationDerivative(out, k.GetFwdRatesOfProgressDdP, k.GetRevRatesOfProgressDdP)
}

// GetCreationRatesDdC writes molar-density derivatives of species creation rates.
func (k *Kinetics) GetCreationRatesDdC(out []float64) error {
	return k.creationDerivative(out, k.GetFwdRatesOfProgressDdC, k.GetRevRatesOfProgressDdC)
}

// GetDestructionRatesDdT writes temperature derivatives of species
// destruction rates.
func (k *Kinetics) GetDestructionRatesDdT(out []float64) error {
	return k.destructionDerivative(out, k.GetFwdRatesOfProgressDdT, k.GetRevRatesOfProgressDdT)
}

// GetDestructionRatesDdP writes pressure derivatives of species destruction
// rates.
func (k *Kinetics) GetDestructionRatesDdP(out []float64) error {
	return k.destructionDerivative(out, k.GetFwdRatesOfProgressDdP, k.GetRevRatesOfProgressDdP)
}

// GetDestructionRatesDdC writes molar-density derivatives of species
// destruction rates.
func (k *Kinetics) GetDestructionRatesDdC(out []float64) error {
	return k.destructionDerivative(out, k.GetFwdRatesOfProgressDdC, k.GetRevRatesOfProgressDdC)
}

// GetNetProductionRatesDdT writes temperature derivatives of net production
// rates.
func (k *Kinetics) GetNetProductionRatesDdT(out []float64) error {
	return k.netProductionDerivative(out, k.GetNetRatesOfProgressDdT)
}

// GetNetProductionRatesDdP writes pressure derivatives of net production
// rates.
func (k *Kinetics) GetNetProductionRatesDdP(out []float64) error {
	return k.netProductionDerivative(out, k.GetNetRatesOfProgressDdP)
}

// GetNetProductionRatesDdC writes molar-density derivatives of net
// production rates.
func (k *Kinetics) GetNetProductionRatesDdC(out []float64) error {
	return k.netProductionDerivative(out, k.GetNetRatesOfProgressDdC)
}
