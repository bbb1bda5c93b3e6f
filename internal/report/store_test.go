package report

import (
	"testing"

	"github.com/ischoegl/cantera/internal/kinetics"
	"github.com/ischoegl/cantera/internal/rates"
	"github.com/ischoegl/cantera/internal/thermo"
)

func testManager(t *testing.T) *kinetics.Kinetics {
	t.Helper()
	p := thermo.NewIdealGas("gas", []thermo.Species{
		{Name: "A", H298: -5e7, S298: 2e5, Cp: 3e4},
		{Name: "B", H298: -1e7, S298: 1.8e5, Cp: 2.9e4},
		{Name: "C", H298: -8e7, S298: 2.2e5, Cp: 3.3e4},
	})
	if err := p.SetState(1200, thermo.OneAtm, []float64{0.5, 0.3, 0.2}); err != nil {
		t.Fatal(err)
	}
	k := kinetics.New()
	if err := k.AddPhase(p); err != nil {
		t.Fatal(err)
	}
	r := &kinetics.Reaction{
		Reactants:  map[string]float64{"A": 1, "B": 1},
		Products:   map[string]float64{"C": 1},
		Rate:       rates.NewArrhenius(1e8, 0, 1e8),
		Reversible: true,
	}
	if _, err := k.AddReaction(r, true); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestSaveAndLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	k := testManager(t)
	runID, err := st.Save("toy", k)
	if err != nil {
		t.Fatal(err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Mechanism != "toy" || meta.NReactions != 1 || meta.NSpecies != 3 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Temperature != 1200 {
		t.Errorf("temperature = %g", meta.Temperature)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("List = %+v", runs)
	}
}

func TestLoadReactions(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	k := testManager(t)
	runID, err := st.Save("toy", k)
	if err != nil {
		t.Fatal(err)
	}

	equations, values, err := st.LoadReactions(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(equations) != 1 || len(values) != 1 {
		t.Fatalf("loaded %d equations, %d rows", len(equations), len(values))
	}
	if equations[0] != "A + B <=> C" {
		t.Errorf("equation = %q", equations[0])
	}
	if len(values[0]) != 4 || values[0][0] <= 0 {
		t.Errorf("values = %v", values[0])
	}

	fwd := make([]float64, 1)
	if err := k.GetFwdRatesOfProgress(fwd); err != nil {
		t.Fatal(err)
	}
	// CSV rounds to six decimal digits of the mantissa
	rel := (values[0][1] - fwd[0]) / fwd[0]
	if rel > 1e-5 || rel < -1e-5 {
		t.Errorf("fwd rop %g does not match stored %g", fwd[0], values[0][1])
	}
}

func TestListEmpty(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("List on missing dir = %+v", runs)
	}
}
