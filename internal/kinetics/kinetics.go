package kinetics

import (
	"fmt"

	"github.com/ctessum/sparse"

	"github.com/ischoegl/cantera/internal/rates"
	"github.com/ischoegl/cantera/internal/thermo"
)

// Third-body duplicate handling policies, see SetThirdBodyDuplicateHandling.
const (
	PolicyWarn             = "warn"
	PolicyError            = "error"
	PolicyMarkDuplicate    = "mark-duplicate"
	PolicyModifyEfficiency = "modify-efficiency"
)

// groupSlot locates a reaction inside its rate-evaluator group.
type groupSlot struct {
	group int
	slot  int
}

// tbSpec is a reaction's third-body efficiency map resolved to global
// species indices: C_M = def * sum(c) + sum_j delta[j] * c[spc[j]].
type tbSpec struct {
	rxn   int
	def   float64
	spc   []int
	delta []float64
}

func (t *tbSpec) efficiency(k int) float64 {
	e := t.def
	for j, s := range t.spc {
		if s == k {
			e += t.delta[j]
		}
	}
	return e
}

// Params is the reconstructable kinetics/phase linkage returned by
// [Kinetics.Parameters]. The reaction list is serialized separately by the
// caller.
type Params struct {
	Kinetics string   `yaml:"kinetics" json:"kinetics"`
	Phases   []string `yaml:"phases" json:"phases"`
}

// Kinetics is the kinetics manager: it owns the phase/species index, the
// stoichiometry matrices, the rate-evaluator groups and the value cache, and
// exposes rates of progress, production rates and their derivatives.
//
// Construct empty with New, add phases, then reactions. The species layout
// freezes when the first reaction is added.
type Kinetics struct {
	phases   []thermo.Phase
	phaseIdx map[string]int
	start    []int
	kk       int

	reactions []*Reaction
	ready     bool

	reactantStoich   stoichMatrix
	productStoich    stoichMatrix
	revProductStoich stoichMatrix
	netEntries       []stoichEntry
	netByRxn         [][]int

	revIndex   []int
	irrevIndex []int
	isRev      []bool

	groups    []*rateGroup
	groupOf   map[string]int
	slots     []groupSlot
	tbSpecs   []tbSpec
	hasTB     []bool
	fwdOrders []float64
	revOrders []float64
	deltaN    []float64

	perturb []float64
	rfn     []float64
	rkcn    []float64
	ropf    []float64
	ropr    []float64
	ropnet  []float64
	prodF   []float64
	prodR   []float64
	tbConc  []float64
	dG0RT   []float64
	dH0RT   []float64
	rbuf    []float64
	rbuf2   []float64

	conc  []float64
	moleX []float64
	sbufA []float64
	sbufB []float64

	cache *valueCache
	stamp uint64

	skipUndeclaredSpecies     bool
	skipUndeclaredThirdBodies bool
	hasUndeclaredThirdBodies  bool
	tbDuplicatePolicy         string

	deriv derivSettings

	subs    map[int]func()
	nextSub int

	root func() any
}

// New returns an empty kinetics manager.
func New() *Kinetics {
	return &Kinetics{
		phaseIdx:          make(map[string]int),
		groupOf:           make(map[string]int),
		cache:             newValueCache(),
		stamp:             1,
		tbDuplicatePolicy: PolicyWarn,
		deriv:             defaultDerivSettings(),
		subs:              make(map[int]func()),
	}
}

// KineticsType identifies the kinetics model implemented by this manager.
func (k *Kinetics) KineticsType() string { return "bulk" }

// NReactions returns the number of reactions in the mechanism.
func (k *Kinetics) NReactions() int { return len(k.reactions) }

// NPhases returns the number of participating phases.
func (k *Kinetics) NPhases() int { return len(k.phases) }

// NTotalSpecies returns the species count summed over all phases.
func (k *Kinetics) NTotalSpecies() int { return k.kk }

// AddPhase appends a phase to the mechanism. Phases must be added before any
// reaction referencing their species.
func (k *Kinetics) AddPhase(p thermo.Phase) error {
	if len(k.reactions) > 0 {
		return fmt.Errorf("%w: phase %q", ErrPhaseAfterReactions, p.Name())
	}
	if _, ok := k.phaseIdx[p.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicatePhase, p.Name())
	}
	k.phaseIdx[p.Name()] = len(k.phases)
	k.phases = append(k.phases, p)
	k.start = append(k.start, k.kk)
	k.kk += p.NSpecies()
	k.ResizeSpecies()
	return nil
}

// Init commits the manager to its current phase/species layout. It is called
// automatically by the first AddReaction and is idempotent.
func (k *Kinetics) Init() {
	if k.ready {
		return
	}
	k.ResizeSpecies()
	k.ready = true
}

// Phase returns the nth phase.
func (k *Kinetics) Phase(n int) (thermo.Phase, error) {
	if err := k.CheckPhaseIndex(n); err != nil {
		return nil, err
	}
	return k.phases[n], nil
}

// PhaseIndex returns the index of the named phase, or -1 if unknown.
func (k *Kinetics) PhaseIndex(name string) int {
	if n, ok := k.phaseIdx[name]; ok {
		return n
	}
	return -1
}

// GlobalSpeciesIndex returns the flat index of species k of phase n.
func (k *Kinetics) GlobalSpeciesIndex(spc, phase int) int {
	return k.start[phase] + spc
}

// SpeciesIndex looks a species name up across all phases, returning the flat
// index or -1 when not found. The not-found sentinel (rather than an error)
// lets callers implement undeclared-species skip policies.
func (k *Kinetics) SpeciesIndex(name string) int {
	for n, p := range k.phases {
		if i := p.SpeciesIndex(name); i >= 0 {
			return k.start[n] + i
		}
	}
	return -1
}

// SpeciesName returns the name of the species at flat index spc, or
// "<unknown>" when out of range.
func (k *Kinetics) SpeciesName(spc int) string {
	n, err := k.SpeciesPhaseIndex(spc)
	if err != nil {
		return "<unknown>"
	}
	return k.phases[n].SpeciesNames()[spc-k.start[n]]
}

// SpeciesPhaseIndex returns the index of the phase owning flat species index
// spc.
func (k *Kinetics) SpeciesPhaseIndex(spc int) (int, error) {
	if spc < 0 || spc >= k.kk {
		return 0, &IndexError{What: "species", Index: spc, Bound: k.kk}
	}
	for n := len(k.start) - 1; n >= 0; n-- {
		if spc >= k.start[n] {
			return n, nil
		}
	}
	return 0, &IndexError{What: "species", Index: spc, Bound: k.kk}
}

// Reaction returns reaction i. Changes to the returned object do not affect
// the manager until ModifyReaction is called.
func (k *Kinetics) Reaction(i int) (*Reaction, error) {
	if err := k.CheckReactionIndex(i); err != nil {
		return nil, err
	}
	return k.reactions[i], nil
}

// IsReversible reports whether reaction i was declared reversible.
func (k *Kinetics) IsReversible(i int) (bool, error) {
	if err := k.CheckReactionIndex(i); err != nil {
		return false, err
	}
	return k.isRev[i], nil
}

// Checked index and array-size accessors. Bulk operations call the array
// variants before writing through caller-provided slices, failing fast
// instead of overrunning.

func (k *Kinetics) CheckReactionIndex(i int) error {
	if i < 0 || i >= len(k.reactions) {
		return &IndexError{What: "reaction", Index: i, Bound: len(k.reactions)}
	}
	return nil
}

func (k *Kinetics) CheckReactionArraySize(n int) error {
	if n < len(k.reactions) {
		return &ArraySizeError{What: "reaction", Size: n, Need: len(k.reactions)}
	}
	return nil
}

func (k *Kinetics) CheckSpeciesIndex(spc int) error {
	if spc < 0 || spc >= k.kk {
		return &IndexError{What: "species", Index: spc, Bound: k.kk}
	}
	return nil
}

func (k *Kinetics) CheckSpeciesArraySize(n int) error {
	if n < k.kk {
		return &ArraySizeError{What: "species", Size: n, Need: k.kk}
	}
	return nil
}

func (k *Kinetics) CheckPhaseIndex(n int) error {
	if n < 0 || n >= len(k.phases) {
		return &IndexError{What: "phase", Index: n, Bound: len(k.phases)}
	}
	return nil
}

func (k *Kinetics) CheckPhaseArraySize(n int) error {
	if n < len(k.phases) {
		return &ArraySizeError{What: "phase", Size: n, Need: len(k.phases)}
	}
	return nil
}

// SetSkipUndeclaredSpecies controls whether reactions referencing species
// absent from every phase are silently skipped (true) or rejected (false,
// the default).
func (k *Kinetics) SetSkipUndeclaredSpecies(skip bool) { k.skipUndeclaredSpecies = skip }

// SkipUndeclaredSpecies reports the current undeclared-species policy.
func (k *Kinetics) SkipUndeclaredSpecies() bool { return k.skipUndeclaredSpecies }

// SetSkipUndeclaredThirdBodies controls whether third-body efficiencies for
// undeclared species are dropped (true) or rejected (false, the default).
func (k *Kinetics) SetSkipUndeclaredThirdBodies(skip bool) { k.skipUndeclaredThirdBodies = skip }

// SkipUndeclaredThirdBodies reports the current third-body skip policy.
func (k *Kinetics) SkipUndeclaredThirdBodies() bool { return k.skipUndeclaredThirdBodies }

// HasUndeclaredThirdBodies reports whether any added reaction had third-body
// efficiencies dropped under the skip policy. Efficiency-based duplicate
// detection is incomplete in that case.
func (k *Kinetics) HasUndeclaredThirdBodies() bool { return k.hasUndeclaredThirdBodies }

// SetThirdBodyDuplicateHandling selects how CheckDuplicates treats duplicate
// pairs where one reaction names an explicit collider and the other covers it
// through a generic third body: PolicyWarn (default), PolicyError,
// PolicyMarkDuplicate or PolicyModifyEfficiency.
func (k *Kinetics) SetThirdBodyDuplicateHandling(policy string) error {
	switch policy {
	case PolicyWarn, PolicyError, PolicyMarkDuplicate, PolicyModifyEfficiency:
		k.tbDuplicatePolicy = policy
		return nil
	}
	return fmt.Errorf("%w: %q", ErrBadPolicy, policy)
}

// ThirdBodyDuplicateHandling returns the active policy name.
func (k *Kinetics) ThirdBodyDuplicateHandling() string { return k.tbDuplicatePolicy }

// AddReaction validates and appends a reaction. It returns false (and no
// error) when the reaction is skipped under the undeclared-species policy.
// With resize true, ResizeReactions runs afterwards; batch loaders may defer
// it and call ResizeReactions once at the end.
func (k *Kinetics) AddReaction(r *Reaction, resize bool) (bool, error) {
	if len(k.phases) == 0 {
		return false, fmt.Errorf("%w: cannot add %s", ErrNoPhases, r.Equation())
	}
	k.Init()
	for _, side := range []map[string]float64{r.Reactants, r.Products} {
		for name := range side {
			if k.SpeciesIndex(name) < 0 {
				if k.skipUndeclaredSpecies {
					return false, nil
				}
				return false, fmt.Errorf("%w: %q in %s", ErrUndeclaredSpecies,
					name, r.Equation())
			}
		}
	}
	if tb := r.ThirdBody; tb != nil {
		if tb.Name != "M" && k.SpeciesIndex(tb.Name) < 0 {
			if k.skipUndeclaredSpecies {
				return false, nil
			}
			return false, fmt.Errorf("%w: collider %q in %s", ErrUndeclaredSpecies,
				tb.Name, r.Equation())
		}
		for name := range tb.Efficiencies {
			if k.SpeciesIndex(name) < 0 {
				if !k.skipUndeclaredThirdBodies {
					return false, fmt.Errorf("%w: %q in %s", ErrUndeclaredThirdBody,
						name, r.Equation())
				}
				delete(tb.Efficiencies, name)
				k.hasUndeclaredThirdBodies = true
			}
		}
	}

	i := len(k.reactions)
	k.reactions = append(k.reactions, r)
	for name, nu := range r.Reactants {
		k.reactantStoich.add(i, k.SpeciesIndex(name), nu)
	}
	for name, nu := range r.Products {
		k.productStoich.add(i, k.SpeciesIndex(name), nu)
		if r.Reversible {
			k.revProductStoich.add(i, k.SpeciesIndex(name), nu)
		}
	}
	if r.Reversible {
		k.revIndex = append(k.revIndex, i)
	} else {
		k.irrevIndex = append(k.irrevIndex, i)
	}

	rtype := r.Rate.Type()
	g, ok := k.groupOf[rtype]
	if !ok {
		g = len(k.groups)
		k.groups = append(k.groups, newRateGroup(rtype))
		k.groupOf[rtype] = g
	}
	slot := k.groups[g].add(i, r.Rate)
	k.slots = append(k.slots, groupSlot{group: g, slot: slot})

	k.invalidateCache()
	for _, fn := range k.subs {
		fn()
	}
	if resize {
		k.ResizeReactions()
	}
	return true, nil
}

// ModifyReaction swaps the rate expression of reaction i. The stoichiometry,
// reversibility, third-body spec and rate type must be unchanged; only the
// rate's internal parameters may differ. The stoichiometry matrices and
// derived structures are built at add time, so any structural change would
// leave them describing the old reaction.
func (k *Kinetics) ModifyReaction(i int, rNew *Reaction) error {
	if err := k.CheckReactionIndex(i); err != nil {
		return err
	}
	old := k.reactions[i]
	if !sameCoeffs(old.Reactants, rNew.Reactants) || !sameCoeffs(old.Products, rNew.Products) {
		return fmt.Errorf("%w: reaction %d stoichiometry differs: %s vs %s",
			ErrReactionMismatch, i, old.Equation(), rNew.Equation())
	}
	if old.Reversible != rNew.Reversible {
		return fmt.Errorf("%w: reaction %d reversibility differs", ErrReactionMismatch, i)
	}
	if !sameThirdBody(old.ThirdBody, rNew.ThirdBody) {
		return fmt.Errorf("%w: reaction %d third-body spec differs", ErrReactionMismatch, i)
	}
	sl := k.slots[i]
	if rNew.Rate.Type() != k.groups[sl.group].rtype {
		return fmt.Errorf("%w: reaction %d is %q, got %q", ErrRateTypeChange,
			i, k.groups[sl.group].rtype, rNew.Rate.Type())
	}
	k.reactions[i] = rNew
	k.groups[sl.group].replace(sl.slot, rNew.Rate)
	k.invalidateCache()
	return nil
}

func sameCoeffs(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for name, nu := range a {
		if nub, ok := b[name]; !ok || nub != nu {
			return false
		}
	}
	return true
}

func sameThirdBody(a, b *ThirdBody) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name && a.Default == b.Default &&
		sameCoeffs(a.Efficiencies, b.Efficiencies)
}

// ResizeReactions finalizes per-reaction buffers and derived structures after
// reactions were added. Safe to call repeatedly; new multiplier entries are
// initialized to one, everything else to zero.
func (k *Kinetics) ResizeReactions() {
	nr := len(k.reactions)
	for len(k.perturb) < nr {
		k.perturb = append(k.perturb, 1.0)
	}
	k.rfn = resizeVec(k.rfn, nr)
	k.rkcn = resizeVec(k.rkcn, nr)
	k.ropf = resizeVec(k.ropf, nr)
	k.ropr = resizeVec(k.ropr, nr)
	k.ropnet = resizeVec(k.ropnet, nr)
	k.prodF = resizeVec(k.prodF, nr)
	k.prodR = resizeVec(k.prodR, nr)
	k.tbConc = resizeVec(k.tbConc, nr)
	k.dG0RT = resizeVec(k.dG0RT, nr)
	k.dH0RT = resizeVec(k.dH0RT, nr)
	k.rbuf = resizeVec(k.rbuf, nr)
	k.rbuf2 = resizeVec(k.rbuf2, nr)

	k.reactantStoich.resize(k.kk, nr)
	k.productStoich.resize(k.kk, nr)
	k.revProductStoich.resize(k.kk, nr)
	k.rebuildNet()

	k.fwdOrders = k.reactantStoich.columnSums()
	k.revOrders = k.revProductStoich.columnSums()
	k.deltaN = make([]float64, nr)
	for _, e := range k.netEntries {
		k.deltaN[e.rxn] += e.coeff
	}

	k.isRev = make([]bool, nr)
	for _, i := range k.revIndex {
		k.isRev[i] = true
	}

	k.resolveThirdBodies()
	k.invalidateCache()
	k.ready = true
}

// ResizeSpecies resizes per-species buffers for the current phase layout.
func (k *Kinetics) ResizeSpecies() {
	k.conc = resizeVec(k.conc, k.kk)
	k.moleX = resizeVec(k.moleX, k.kk)
	k.sbufA = resizeVec(k.sbufA, k.kk)
	k.sbufB = resizeVec(k.sbufB, k.kk)
	k.reactantStoich.nSpc = k.kk
	k.productStoich.nSpc = k.kk
	k.revProductStoich.nSpc = k.kk
	k.invalidateCache()
}

// rebuildNet derives net coefficients as product - reactant. The net matrix
// is never maintained independently; any resize re-derives it, keeping the
// identity exact.
func (k *Kinetics) rebuildNet() {
	nr := len(k.reactions)
	net := make(map[[2]int]float64)
	for _, e := range k.productStoich.entries {
		net[[2]int{e.spc, e.rxn}] += e.coeff
	}
	for _, e := range k.reactantStoich.entries {
		net[[2]int{e.spc, e.rxn}] -= e.coeff
	}
	k.netEntries = k.netEntries[:0]
	k.netByRxn = make([][]int, nr)
	for rxn := 0; rxn < nr; rxn++ {
		for key, nu := range net {
			if key[1] == rxn && nu != 0 {
				k.netByRxn[rxn] = append(k.netByRxn[rxn], len(k.netEntries))
				k.netEntries = append(k.netEntries, stoichEntry{spc: key[0], rxn: rxn, coeff: nu})
			}
		}
	}
}

// resolveThirdBodies maps efficiency maps to flat species indices.
func (k *Kinetics) resolveThirdBodies() {
	k.tbSpecs = k.tbSpecs[:0]
	k.hasTB = make([]bool, len(k.reactions))
	for i, r := range k.reactions {
		tb := r.ThirdBody
		if tb == nil {
			continue
		}
		spec := tbSpec{rxn: i}
		if tb.Name != "M" {
			spec.def = 0
			spec.spc = append(spec.spc, k.SpeciesIndex(tb.Name))
			spec.delta = append(spec.delta, 1.0)
		} else {
			spec.def = tb.Default
			for name, eff := range tb.Efficiencies {
				if s := k.SpeciesIndex(name); s >= 0 {
					spec.spc = append(spec.spc, s)
					spec.delta = append(spec.delta, eff-tb.Default)
				}
			}
		}
		k.tbSpecs = append(k.tbSpecs, spec)
		k.hasTB[i] = true
	}
}

// Multiplier returns the rate-of-progress multiplier of reaction i.
func (k *Kinetics) Multiplier(i int) (float64, error) {
	if err := k.CheckReactionIndex(i); err != nil {
		return 0, err
	}
	return k.perturb[i], nil
}

// SetMultiplier scales reaction i's rate of progress by f. Zero removes the
// reaction from the mechanism; restoring the previous value restores all
// outputs exactly.
func (k *Kinetics) SetMultiplier(i int, f float64) error {
	if err := k.CheckReactionIndex(i); err != nil {
		return err
	}
	k.perturb[i] = f
	k.invalidateCache()
	return nil
}

// InvalidateCache discards all memoized per-state results. Any mutation of
// the manager calls this internally; callers only need it when external
// state the manager cannot observe has changed.
func (k *Kinetics) InvalidateCache() { k.invalidateCache() }

func (k *Kinetics) invalidateCache() {
	k.stamp++
	k.cache.clear()
}

// stateStamp combines the manager mutation counter with every phase's state
// stamp; cached values are valid only while it is unchanged.
func (k *Kinetics) stateStamp() uint64 {
	s := k.stamp
	for _, p := range k.phases {
		s = s*1099511628211 ^ uint64(p.StateStamp()+1)
	}
	return s
}

// Subscription is a handle for a reaction-added observer. Cancel detaches
// the observer and is safe to call more than once.
type Subscription struct {
	k  *Kinetics
	id int
}

// Cancel removes the observer. Safe on an already-canceled subscription.
func (s *Subscription) Cancel() {
	if s.k != nil {
		delete(s.k.subs, s.id)
		s.k = nil
	}
}

// OnReactionAdded registers fn to run after every successful AddReaction.
// The returned subscription owns the registration; dropping it without
// Cancel leaves the observer attached for the manager's lifetime.
func (k *Kinetics) OnReactionAdded(fn func()) *Subscription {
	id := k.nextSub
	k.nextSub++
	k.subs[id] = fn
	return &Subscription{k: k, id: id}
}

// SetRoot installs a resolver for the owning aggregate (such as a reactor
// network). The link is non-owning and expirable: a nil resolver or a nil
// resolved value means the aggregate is gone.
func (k *Kinetics) SetRoot(resolver func() any) { k.root = resolver }

// Root resolves the owning aggregate, or nil when expired.
func (k *Kinetics) Root() any {
	if k.root == nil {
		return nil
	}
	return k.root()
}

// Parameters returns the configuration needed to reconstruct the
// phase/kinetics linkage. Reactions are serialized separately.
func (k *Kinetics) Parameters() Params {
	p := Params{Kinetics: k.KineticsType()}
	for _, ph := range k.phases {
		p.Phases = append(p.Phases, ph.Name())
	}
	return p
}

// ReactantStoichCoeff returns the forward stoichiometric coefficient of
// species spc in reaction rxn.
func (k *Kinetics) ReactantStoichCoeff(spc, rxn int) (float64, error) {
	if err := k.CheckSpeciesIndex(spc); err != nil {
		return 0, err
	}
	if err := k.CheckReactionIndex(rxn); err != nil {
		return 0, err
	}
	return k.reactantStoich.coeff(spc, rxn), nil
}

// ProductStoichCoeff returns the product stoichiometric coefficient of
// species spc in reaction rxn.
func (k *Kinetics) ProductStoichCoeff(spc, rxn int) (float64, error) {
	if err := k.CheckSpeciesIndex(spc); err != nil {
		return 0, err
	}
	if err := k.CheckReactionIndex(rxn); err != nil {
		return 0, err
	}
	return k.productStoich.coeff(spc, rxn), nil
}

// NetStoichCoeff returns product minus reactant coefficient; it is computed
// from the two stored matrices so the identity cannot drift.
func (k *Kinetics) NetStoichCoeff(spc, rxn int) (float64, error) {
	p, err := k.ProductStoichCoeff(spc, rxn)
	if err != nil {
		return 0, err
	}
	r, _ := k.ReactantStoichCoeff(spc, rxn)
	return p - r, nil
}

// ReactantStoichCoeffs returns a sparse copy of the reactant matrix
// (species x reactions).
func (k *Kinetics) ReactantStoichCoeffs() *sparse.SparseArray {
	return k.reactantStoich.matrix()
}

// ProductStoichCoeffs returns a sparse copy of the product matrix.
func (k *Kinetics) ProductStoichCoeffs() *sparse.SparseArray {
	return k.productStoich.matrix()
}

// RevProductStoichCoeffs returns a sparse copy of the product matrix
// restricted to reversible reactions.
func (k *Kinetics) RevProductStoichCoeffs() *sparse.SparseArray {
	return k.revProductStoich.matrix()
}

// reactionState snapshots the reaction phase for rate evaluation.
func (k *Kinetics) reactionState() rates.State {
	p := k.phases[0]
	return rates.State{
		T:            p.Temperature(),
		P:            p.Pressure(),
		MolarDensity: p.MolarDensity(),
	}
}

// gatherSpeciesState refreshes the flat concentration and mole fraction
// buffers from all phases.
func (k *Kinetics) gatherSpeciesState() {
	for n, p := range k.phases {
		lo := k.start[n]
		hi := lo + p.NSpecies()
		p.GetActivityConcentrations(k.conc[lo:hi])
		p.GetMoleFractions(k.moleX[lo:hi])
	}
}

func resizeVec(v []float64, n int) []float64 {
	if len(v) >= n {
		return v[:n]
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}
