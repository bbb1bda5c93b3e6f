package kinetics

import (
	"errors"
	"math"
	"testing"

	"github.com/ischoegl/cantera/internal/rates"
)

func emptyTestKinetics(t *testing.T) *Kinetics {
	t.Helper()
	k := New()
	if err := k.AddPhase(testPhase(t)); err != nil {
		t.Fatal(err)
	}
	return k
}

func mustAdd(t *testing.T, k *Kinetics, r *Reaction) {
	t.Helper()
	ok, err := k.AddReaction(r, false)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("reaction %s was skipped", r.Equation())
	}
}

func TestCheckDuplicateStoichSymmetry(t *testing.T) {
	k := emptyTestKinetics(t)
	k.Init()

	r1 := k.stoichKeys(&Reaction{
		Reactants: map[string]float64{"A": 1, "B": 2},
		Products:  map[string]float64{"C": 1},
	})
	r2 := k.stoichKeys(&Reaction{
		Reactants: map[string]float64{"A": 0.5, "B": 1},
		Products:  map[string]float64{"C": 0.5},
	})
	ab := checkDuplicateStoich(r1, r2)
	ba := checkDuplicateStoich(r2, r1)
	if ab == 0 || ba == 0 {
		t.Fatalf("scaled pair not detected: %g, %g", ab, ba)
	}
	if math.Abs(ab*ba-1) > 1e-13 {
		t.Errorf("ratios are not reciprocal: %g * %g != 1", ab, ba)
	}

	disjoint := k.stoichKeys(&Reaction{
		Reactants: map[string]float64{"AR": 1},
		Products:  map[string]float64{"B": 1},
	})
	if got := checkDuplicateStoich(r1, disjoint); got != 0 {
		t.Errorf("disjoint reactions gave ratio %g", got)
	}

	// same species, different sides
	flipped := k.stoichKeys(&Reaction{
		Reactants: map[string]float64{"C": 1},
		Products:  map[string]float64{"A": 1, "B": 2},
	})
	if got := checkDuplicateStoich(r1, flipped); got != 0 {
		t.Errorf("opposite-direction pair gave ratio %g", got)
	}
	if got := checkDuplicateStoich(r1, reverseKeys(flipped)); got == 0 {
		t.Error("reversed keys should match")
	}
}

func TestCheckDuplicatesUnmarkedPair(t *testing.T) {
	k := emptyTestKinetics(t)
	mustAdd(t, k, &Reaction{
		Reactants: map[string]float64{"A": 1, "B": 1},
		Products:  map[string]float64{"C": 1},
		Rate:      rates.NewArrhenius(1e8, 0, 1e8),
	})
	mustAdd(t, k, &Reaction{
		Reactants: map[string]float64{"A": 1, "B": 1},
		Products:  map[string]float64{"C": 1},
		Rate:      rates.NewArrhenius(2e8, 0, 2e8),
	})
	k.ResizeReactions()

	i, j, err := k.CheckDuplicates(false, false)
	if err != nil {
		t.Fatal(err)
	}
	if i != 0 || j != 1 {
		t.Errorf("offending pair = (%d, %d), want (0, 1)", i, j)
	}

	if _, _, err := k.CheckDuplicates(true, false); !errors.Is(err, ErrDuplicateReaction) {
		t.Errorf("expected ErrDuplicateReaction, got %v", err)
	}

	// fix marks both and the scan comes back clean
	if _, _, err := k.CheckDuplicates(false, true); err != nil {
		t.Fatal(err)
	}
	r0, _ := k.Reaction(0)
	r1, _ := k.Reaction(1)
	if !r0.Duplicate || !r1.Duplicate {
		t.Error("fix did not mark the pair")
	}
	i, j, err = k.CheckDuplicates(true, false)
	if err != nil || i != -1 || j != -1 {
		t.Errorf("after fix: (%d, %d), %v", i, j, err)
	}
}

func TestCheckDuplicatesReversedPair(t *testing.T) {
	k := emptyTestKinetics(t)
	mustAdd(t, k, &Reaction{
		Reactants:  map[string]float64{"A": 1, "B": 1},
		Products:   map[string]float64{"C": 1},
		Rate:       rates.NewArrhenius(1e8, 0, 1e8),
		Reversible: true,
	})
	mustAdd(t, k, &Reaction{
		Reactants:  map[string]float64{"C": 1},
		Products:   map[string]float64{"A": 1, "B": 1},
		Rate:       rates.NewArrhenius(2e8, 0, 2e8),
		Reversible: true,
	})
	k.ResizeReactions()

	i, j, err := k.CheckDuplicates(false, false)
	if err != nil {
		t.Fatal(err)
	}
	if i != 0 || j != 1 {
		t.Errorf("reversed reversible pair not flagged: (%d, %d)", i, j)
	}

	// with both directions irreversible the two are distinct reactions
	k2 := emptyTestKinetics(t)
	mustAdd(t, k2, &Reaction{
		Reactants: map[string]float64{"A": 1, "B": 1},
		Products:  map[string]float64{"C": 1},
		Rate:      rates.NewArrhenius(1e8, 0, 1e8),
	})
	mustAdd(t, k2, &Reaction{
		Reactants: map[string]float64{"C": 1},
		Products:  map[string]float64{"A": 1, "B": 1},
		Rate:      rates.NewArrhenius(2e8, 0, 2e8),
	})
	k2.ResizeReactions()
	if i, j, _ := k2.CheckDuplicates(false, false); i != -1 || j != -1 {
		t.Errorf("irreversible opposite pair flagged: (%d, %d)", i, j)
	}

	// one reversible reaction covers the opposite irreversible direction
	k3 := emptyTestKinetics(t)
	mustAdd(t, k3, &Reaction{
		Reactants: map[string]float64{"A": 1, "B": 1},
		Products:  map[string]float64{"C": 1},
		Rate:      rates.NewArrhenius(1e8, 0, 1e8),
	})
	mustAdd(t, k3, &Reaction{
		Reactants:  map[string]float64{"C": 1},
		Products:   map[string]float64{"A": 1, "B": 1},
		Rate:       rates.NewArrhenius(2e8, 0, 2e8),
		Reversible: true,
	})
	k3.ResizeReactions()
	i, j, err = k3.CheckDuplicates(false, false)
	if err != nil {
		t.Fatal(err)
	}
	if i != 0 || j != 1 {
		t.Errorf("reversible-vs-opposite pair not flagged: (%d, %d)", i, j)
	}
}

func TestCheckDuplicatesUnmatchedMarking(t *testing.T) {
	k := emptyTestKinetics(t)
	mustAdd(t, k, &Reaction{
		Reactants: map[string]float64{"A": 1},
		Products:  map[string]float64{"B": 1},
		Rate:      rates.NewArrhenius(1e8, 0, 1e8),
		Duplicate: true,
	})
	k.ResizeReactions()

	i, j, err := k.CheckDuplicates(false, false)
	if err != nil {
		t.Fatal(err)
	}
	if i != 0 || j != 0 {
		t.Errorf("unmatched marking = (%d, %d), want (0, 0)", i, j)
	}
	if _, _, err := k.CheckDuplicates(true, false); !errors.Is(err, ErrUnmatchedDuplicate) {
		t.Errorf("expected ErrUnmatchedDuplicate, got %v", err)
	}
}

func TestThirdBodySeparatesReactions(t *testing.T) {
	k := emptyTestKinetics(t)
	mustAdd(t, k, &Reaction{
		Reactants: map[string]float64{"A": 2},
		Products:  map[string]float64{"B": 1},
		Rate:      rates.NewArrhenius(1e6, 0, 5e7),
		ThirdBody: NewThirdBody(),
	})
	mustAdd(t, k, &Reaction{
		Reactants: map[string]float64{"A": 2},
		Products:  map[string]float64{"B": 1},
		Rate:      rates.NewArrhenius(1e7, 0, 6e7),
	})
	k.ResizeReactions()

	if i, j, _ := k.CheckDuplicates(false, false); i != -1 || j != -1 {
		t.Errorf("third-body and plain reaction flagged as duplicates: (%d, %d)", i, j)
	}
}

func explicitGenericPair(t *testing.T) *Kinetics {
	t.Helper()
	k := emptyTestKinetics(t)
	explicit := NewThirdBody()
	explicit.Name = "AR"
	mustAdd(t, k, &Reaction{
		Reactants: map[string]float64{"A": 2},
		Products:  map[string]float64{"B": 1},
		Rate:      rates.NewArrhenius(1e6, 0, 5e7),
		ThirdBody: explicit,
	})
	mustAdd(t, k, &Reaction{
		Reactants: map[string]float64{"A": 2},
		Products:  map[string]float64{"B": 1},
		Rate:      rates.NewArrhenius(1e7, 0, 6e7),
		ThirdBody: NewThirdBody(),
	})
	k.ResizeReactions()
	return k
}

func TestThirdBodyDuplicatePolicies(t *testing.T) {
	k := explicitGenericPair(t)
	// default warn: reported to the log, scan continues clean
	if i, j, err := k.CheckDuplicates(false, false); err != nil || i != -1 || j != -1 {
		t.Errorf("warn policy: (%d, %d), %v", i, j, err)
	}

	k = explicitGenericPair(t)
	if err := k.SetThirdBodyDuplicateHandling(PolicyError); err != nil {
		t.Fatal(err)
	}
	if _, _, err := k.CheckDuplicates(false, false); !errors.Is(err, ErrDuplicateReaction) {
		t.Errorf("error policy: got %v", err)
	}

	k = explicitGenericPair(t)
	if err := k.SetThirdBodyDuplicateHandling(PolicyMarkDuplicate); err != nil {
		t.Fatal(err)
	}
	if _, _, err := k.CheckDuplicates(false, false); err != nil {
		t.Fatal(err)
	}
	r0, _ := k.Reaction(0)
	r1, _ := k.Reaction(1)
	if !r0.Duplicate || !r1.Duplicate {
		t.Error("mark-duplicate policy did not flag the pair")
	}

	k = explicitGenericPair(t)
	if err := k.SetThirdBodyDuplicateHandling(PolicyModifyEfficiency); err != nil {
		t.Fatal(err)
	}
	nr := k.NReactions()
	tbcBefore := make([]float64, nr)
	if err := k.GetThirdBodyConcentrations(tbcBefore); err != nil {
		t.Fatal(err)
	}
	if _, _, err := k.CheckDuplicates(false, false); err != nil {
		t.Fatal(err)
	}
	r1, _ = k.Reaction(1)
	if eff := r1.ThirdBody.Efficiency("AR"); eff != 0 {
		t.Errorf("modify-efficiency left efficiency %g", eff)
	}
	// the mutation must invalidate cached third-body concentrations
	tbcAfter := make([]float64, nr)
	if err := k.GetThirdBodyConcentrations(tbcAfter); err != nil {
		t.Fatal(err)
	}
	if tbcAfter[1] >= tbcBefore[1] {
		t.Errorf("generic third-body concentration did not drop: %g -> %g",
			tbcBefore[1], tbcAfter[1])
	}

	if err := k.SetThirdBodyDuplicateHandling("bogus"); !errors.Is(err, ErrBadPolicy) {
		t.Errorf("expected ErrBadPolicy, got %v", err)
	}
}
