package thermo

import (
	"errors"
	"math"
	"testing"
)

func testGas(t *testing.T) *IdealGas {
	t.Helper()
	p := NewIdealGas("gas", []Species{
		{Name: "H2", H298: 0, S298: 1.3057e5, Cp: 2.884e4},
		{Name: "O2", H298: 0, S298: 2.0517e5, Cp: 2.938e4},
		{Name: "H2O", H298: -2.4183e8, S298: 1.8884e5, Cp: 3.359e4},
	})
	if err := p.SetState(1000, OneAtm, []float64{2, 1, 0}); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMoleFractionNormalization(t *testing.T) {
	p := testGas(t)
	x := make([]float64, 3)
	p.GetMoleFractions(x)

	sum := x[0] + x[1] + x[2]
	if math.Abs(sum-1) > 1e-15 {
		t.Errorf("mole fractions sum to %g", sum)
	}
	if math.Abs(x[0]-2.0/3.0) > 1e-15 {
		t.Errorf("x[H2] = %g, want 2/3", x[0])
	}
}

func TestStateValidation(t *testing.T) {
	p := testGas(t)
	if err := p.SetState(-1, OneAtm, []float64{1, 1, 1}); !errors.Is(err, ErrStateBounds) {
		t.Errorf("negative T: got %v", err)
	}
	if err := p.SetPressure(0); !errors.Is(err, ErrStateBounds) {
		t.Errorf("zero P: got %v", err)
	}
	if err := p.SetState(300, OneAtm, []float64{1, 1}); !errors.Is(err, ErrBadComposition) {
		t.Errorf("short composition: got %v", err)
	}
	if err := p.SetState(300, OneAtm, []float64{-1, 1, 1}); !errors.Is(err, ErrBadComposition) {
		t.Errorf("negative entry: got %v", err)
	}
	if err := p.SetState(300, OneAtm, []float64{0, 0, 0}); !errors.Is(err, ErrBadComposition) {
		t.Errorf("zero sum: got %v", err)
	}
}

func TestStateStamp(t *testing.T) {
	p := testGas(t)
	s0 := p.StateStamp()

	if err := p.SetTemperature(1200); err != nil {
		t.Fatal(err)
	}
	if p.StateStamp() == s0 {
		t.Error("stamp unchanged after SetTemperature")
	}
	s1 := p.StateStamp()
	if err := p.SetPressure(2 * OneAtm); err != nil {
		t.Fatal(err)
	}
	if p.StateStamp() == s1 {
		t.Error("stamp unchanged after SetPressure")
	}

	// failed transitions leave the stamp alone
	s2 := p.StateStamp()
	_ = p.SetTemperature(-5)
	if p.StateStamp() != s2 {
		t.Error("stamp advanced on rejected state")
	}
}

func TestMolarDensity(t *testing.T) {
	p := testGas(t)
	want := OneAtm / (GasConstant * 1000)
	if got := p.MolarDensity(); math.Abs(got-want) > 1e-12*want {
		t.Errorf("MolarDensity = %g, want %g", got, want)
	}

	c := make([]float64, 3)
	p.GetActivityConcentrations(c)
	sum := c[0] + c[1] + c[2]
	if math.Abs(sum-want) > 1e-12*want {
		t.Errorf("concentrations sum to %g, want %g", sum, want)
	}
}

func TestGibbsConsistency(t *testing.T) {
	p := testGas(t)
	n := p.NSpecies()
	g := make([]float64, n)
	h := make([]float64, n)
	s := make([]float64, n)
	p.GetGibbsRT(g)
	p.GetEnthalpyRT(h)
	p.GetEntropyR(s)

	// g/RT = h/RT - s/R for each species
	for i := 0; i < n; i++ {
		want := h[i] - s[i]
		if math.Abs(g[i]-want) > 1e-10*math.Max(1, math.Abs(want)) {
			t.Errorf("species %d: g/RT = %g, want %g", i, g[i], want)
		}
	}
}

func TestSpeciesLookup(t *testing.T) {
	p := testGas(t)
	if got := p.SpeciesIndex("O2"); got != 1 {
		t.Errorf("SpeciesIndex(O2) = %d", got)
	}
	if got := p.SpeciesIndex("N2"); got != -1 {
		t.Errorf("SpeciesIndex(N2) = %d", got)
	}
	names := p.SpeciesNames()
	if len(names) != 3 || names[2] != "H2O" {
		t.Errorf("SpeciesNames = %v", names)
	}
}
