package kinetics

import (
	"errors"
	"math"
	"testing"

	"github.com/ischoegl/cantera/internal/rates"
	"github.com/ischoegl/cantera/internal/thermo"
)

// numericOnly hides the analytic temperature derivative of an Arrhenius rate
// so the manager falls back to perturbation.
type numericOnly struct {
	inner *rates.Arrhenius
}

func (r numericOnly) Type() string               { return "numeric-only" }
func (r numericOnly) Eval(s rates.State) float64 { return r.inner.Eval(s) }

func TestDerivativeSettings(t *testing.T) {
	k, _ := newTestKinetics(t)

	settings := k.DerivativeSettings()
	if settings["rtol-delta"] != 1e-8 {
		t.Errorf("default rtol-delta = %v", settings["rtol-delta"])
	}
	if settings["skip-third-bodies"] != false || settings["skip-falloff"] != false {
		t.Errorf("default settings = %v", settings)
	}

	err := k.SetDerivativeSettings(map[string]any{
		"skip-third-bodies": true,
		"rtol-delta":        1e-6,
	})
	if err != nil {
		t.Fatal(err)
	}
	settings = k.DerivativeSettings()
	if settings["skip-third-bodies"] != true || settings["rtol-delta"] != 1e-6 {
		t.Errorf("settings not applied: %v", settings)
	}

	if err := k.SetDerivativeSettings(map[string]any{"coverage": true}); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("unknown key: got %v", err)
	}
	if err := k.SetDerivativeSettings(map[string]any{"rtol-delta": "big"}); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("bad value type: got %v", err)
	}
}

func TestFwdRateConstantsDdTAnalytic(t *testing.T) {
	k, p := newTestKinetics(t)
	nr := k.NReactions()

	kf := make([]float64, nr)
	dkf := make([]float64, nr)
	if err := k.GetFwdRateConstants(kf); err != nil {
		t.Fatal(err)
	}
	if err := k.GetFwdRateConstantsDdT(dkf); err != nil {
		t.Fatal(err)
	}

	temp := p.Temperature()
	for i := 0; i < nr; i++ {
		r, err := k.Reaction(i)
		if err != nil {
			t.Fatal(err)
		}
		arr := r.Rate.(*rates.Arrhenius)
		want := kf[i] * (arr.B + arr.Ea/(thermo.GasConstant*temp)) / temp
		if math.Abs(dkf[i]-want) > 1e-12*math.Abs(want) {
			t.Errorf("dkf[%d]/dT = %g, want %g", i, dkf[i], want)
		}
	}
}

func TestNumericDerivativeMatchesAnalytic(t *testing.T) {
	build := func(rate rates.Rate) *Kinetics {
		k := emptyTestKinetics(t)
		mustAdd(t, k, &Reaction{
			Reactants: map[string]float64{"A": 1, "B": 1},
			Products:  map[string]float64{"C": 1},
			Rate:      rate,
		})
		k.ResizeReactions()
		return k
	}

	arr := rates.NewArrhenius(1e8, 1.2, 9e7)
	exact := build(arr)
	numeric := build(numericOnly{inner: arr})

	a := make([]float64, 1)
	n := make([]float64, 1)
	if err := exact.GetFwdRateConstantsDdT(a); err != nil {
		t.Fatal(err)
	}
	if err := numeric.GetFwdRateConstantsDdT(n); err != nil {
		t.Fatal(err)
	}
	if math.Abs(n[0]-a[0]) > 1e-4*math.Abs(a[0]) {
		t.Errorf("numeric %g vs analytic %g", n[0], a[0])
	}

	// a looser perturbation still has to agree
	if err := numeric.SetDerivativeSettings(map[string]any{"rtol-delta": 1e-6}); err != nil {
		t.Fatal(err)
	}
	if err := numeric.GetFwdRateConstantsDdT(n); err != nil {
		t.Fatal(err)
	}
	if math.Abs(n[0]-a[0]) > 1e-3*math.Abs(a[0]) {
		t.Errorf("numeric %g vs analytic %g at rtol 1e-6", n[0], a[0])
	}
}

func TestPressureDerivativesVanish(t *testing.T) {
	k, _ := newTestKinetics(t)
	nr := k.NReactions()

	out := make([]float64, nr)
	if err := k.GetFwdRateConstantsDdP(out); err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("dkf[%d]/dP = %g, want 0", i, v)
		}
	}
	if err := k.GetNetRatesOfProgressDdP(out); err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("drop[%d]/dP = %g, want 0", i, v)
		}
	}
}

func TestRatesOfProgressDdC(t *testing.T) {
	k, p := newTestKinetics(t)
	nr := k.NReactions()

	rop := make([]float64, nr)
	drop := make([]float64, nr)
	if err := k.GetFwdRatesOfProgress(rop); err != nil {
		t.Fatal(err)
	}
	if err := k.GetFwdRatesOfProgressDdC(drop); err != nil {
		t.Fatal(err)
	}
	c := p.MolarDensity()

	// reaction 0: order 2, no third body
	want := rop[0] * 2 / c
	if math.Abs(drop[0]-want) > 1e-12*math.Abs(want) {
		t.Errorf("drop[0]/dC = %g, want %g", drop[0], want)
	}
	// reaction 2: order 2 plus one for the third body
	want = rop[2] * 3 / c
	if math.Abs(drop[2]-want) > 1e-12*math.Abs(want) {
		t.Errorf("drop[2]/dC = %g, want %g", drop[2], want)
	}

	if err := k.SetDerivativeSettings(map[string]any{"skip-third-bodies": true}); err != nil {
		t.Fatal(err)
	}
	if err := k.GetFwdRatesOfProgressDdC(drop); err != nil {
		t.Fatal(err)
	}
	want = rop[2] * 2 / c
	if math.Abs(drop[2]-want) > 1e-12*math.Abs(want) {
		t.Errorf("drop[2]/dC with skipped third bodies = %g, want %g", drop[2], want)
	}
}

func TestRevRatesOfProgressDdTVanTHoff(t *testing.T) {
	k, p := newTestKinetics(t)
	nr := k.NReactions()

	ropr := make([]float64, nr)
	drop := make([]float64, nr)
	dh := make([]float64, nr)
	if err := k.GetRevRatesOfProgress(ropr); err != nil {
		t.Fatal(err)
	}
	if err := k.GetRevRatesOfProgressDdT(drop); err != nil {
		t.Fatal(err)
	}
	if err := k.GetDeltaSSEnthalpy(dh); err != nil {
		t.Fatal(err)
	}

	if drop[0] != 0 || drop[2] != 0 {
		t.Errorf("irreversible reactions have reverse ddT: %v", drop)
	}

	r1, _ := k.Reaction(1)
	arr := r1.Rate.(*rates.Arrhenius)
	temp := p.Temperature()
	rt := thermo.GasConstant * temp
	dlnkf := (arr.B + arr.Ea/rt) / temp
	deltaN := 0.0 // A + C <=> 2 B
	dlnkc := (dh[1]/rt - deltaN) / temp
	want := ropr[1] * (dlnkf - dlnkc)
	if math.Abs(drop[1]-want) > 1e-10*math.Abs(want) {
		t.Errorf("drev[1]/dT = %g, want %g", drop[1], want)
	}
}

func TestRatesOfProgressDdCiExact(t *testing.T) {
	k, p := newTestKinetics(t)

	kf := make([]float64, k.NReactions())
	if err := k.GetFwdRateConstants(kf); err != nil {
		t.Fatal(err)
	}
	conc := make([]float64, k.NTotalSpecies())
	p.GetActivityConcentrations(conc)
	iA := k.SpeciesIndex("A")
	iB := k.SpeciesIndex("B")
	iAR := k.SpeciesIndex("AR")

	jac, err := k.FwdRatesOfProgressDdCi()
	if err != nil {
		t.Fatal(err)
	}

	// reaction 0: rop = kf [A][B]
	if got, want := jac.Get(0, iA), kf[0]*conc[iB]; math.Abs(got-want) > 1e-12*want {
		t.Errorf("d(rop0)/d[A] = %g, want %g", got, want)
	}
	if got, want := jac.Get(0, iB), kf[0]*conc[iA]; math.Abs(got-want) > 1e-12*want {
		t.Errorf("d(rop0)/d[B] = %g, want %g", got, want)
	}

	// reaction 2: rop = kf [A]^2 [M], [M] = sum c + (0.7-1) c_AR
	tbc := conc[0] + conc[1] + conc[2] + 0.7*conc[3]
	want := kf[2] * (2*conc[iA]*tbc + conc[iA]*conc[iA]*1.0)
	if got := jac.Get(2, iA); math.Abs(got-want) > 1e-12*want {
		t.Errorf("d(rop2)/d[A] = %g, want %g", got, want)
	}
	want = kf[2] * conc[iA] * conc[iA] * 0.7
	if got := jac.Get(2, iAR); math.Abs(got-want) > 1e-12*want {
		t.Errorf("d(rop2)/d[AR] = %g, want %g", got, want)
	}

	// skipping third bodies drops the efficiency terms
	if err := k.SetDerivativeSettings(map[string]any{"skip-third-bodies": true}); err != nil {
		t.Fatal(err)
	}
	jac, err = k.FwdRatesOfProgressDdCi()
	if err != nil {
		t.Fatal(err)
	}
	if got := jac.Get(2, iAR); got != 0 {
		t.Errorf("d(rop2)/d[AR] with skipped third bodies = %g", got)
	}
	want = kf[2] * 2 * conc[iA] * tbc
	if got := jac.Get(2, iA); math.Abs(got-want) > 1e-12*want {
		t.Errorf("d(rop2)/d[A] with skipped third bodies = %g, want %g", got, want)
	}
}

func TestDdXScalesDdCi(t *testing.T) {
	k, p := newTestKinetics(t)

	ci, err := k.FwdRatesOfProgressDdCi()
	if err != nil {
		t.Fatal(err)
	}
	x, err := k.FwdRatesOfProgressDdX()
	if err != nil {
		t.Fatal(err)
	}
	c := p.MolarDensity()
	for idx, v := range ci.Elements {
		got := x.Get1d(idx)
		if math.Abs(got-v*c) > 1e-12*math.Abs(v*c) {
			t.Errorf("ddX[%d] = %g, want %g", idx, got, v*c)
		}
	}
}

func TestNetProductionJacobianDecomposition(t *testing.T) {
	k, _ := newTestKinetics(t)
	kk := k.NTotalSpecies()

	create, err := k.CreationRatesDdCi()
	if err != nil {
		t.Fatal(err)
	}
	destroy, err := k.DestructionRatesDdCi()
	if err != nil {
		t.Fatal(err)
	}
	net, err := k.NetProductionRatesDdCi()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < kk; i++ {
		for j := 0; j < kk; j++ {
			want := create.Get(i, j) - destroy.Get(i, j)
			got := net.Get(i, j)
			if math.Abs(got-want) > 1e-10*math.Max(1e-30, math.Abs(want)) {
				t.Errorf("net jac (%d,%d) = %g, want %g", i, j, got, want)
			}
		}
	}
}

func TestProductionDerivativeVectorsDecompose(t *testing.T) {
	k, _ := newTestKinetics(t)
	kk := k.NTotalSpecies()

	cdot := make([]float64, kk)
	ddot := make([]float64, kk)
	wdot := make([]float64, kk)
	if err := k.GetCreationRatesDdT(cdot); err != nil {
		t.Fatal(err)
	}
	if err := k.GetDestructionRatesDdT(ddot); err != nil {
		t.Fatal(err)
	}
	if err := k.GetNetProductionRatesDdT(wdot); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < kk; i++ {
		want := cdot[i] - ddot[i]
		if math.Abs(wdot[i]-want) > 1e-10*math.Max(1e-30, math.Abs(want)) {
			t.Errorf("dwdot[%d]/dT = %g, want %g", i, wdot[i], want)
		}
	}
}
