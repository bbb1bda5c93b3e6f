package kinetics

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
)

// stoichKeys maps each participating species to a signed key, +1+k for a
// reactant and -1-k for a product, so that direction is part of the identity.
// Species skipped under the undeclared-species policy do not participate.
func (k *Kinetics) stoichKeys(r *Reaction) map[int]float64 {
	m := make(map[int]float64, len(r.Reactants)+len(r.Products))
	for name, nu := range r.Reactants {
		if spc := k.SpeciesIndex(name); spc >= 0 {
			m[1+spc] += nu
		}
	}
	for name, nu := range r.Products {
		if spc := k.SpeciesIndex(name); spc >= 0 {
			m[-1-spc] += nu
		}
	}
	return m
}

// reverseKeys flips every key's sign, swapping the reactant and product sides.
func reverseKeys(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for key, nu := range m {
		out[-key] = nu
	}
	return out
}

// checkDuplicateStoich returns the positive scalar c with r2 = c * r1 when
// the two key maps describe the same reaction, and zero otherwise. Swapping
// the arguments of a duplicate pair returns the reciprocal.
func checkDuplicateStoich(r1, r2 map[int]float64) float64 {
	if len(r1) == 0 || len(r1) != len(r2) {
		return 0
	}
	ratio := 0.0
	for key, nu1 := range r1 {
		nu2, ok := r2[key]
		if !ok {
			return 0
		}
		c := nu2 / nu1
		if c <= 0 {
			return 0
		}
		if ratio == 0 {
			ratio = c
		} else if math.Abs(c-ratio) > 1e-13*ratio {
			return 0
		}
	}
	return ratio
}

// participantSignature renders the unsigned species set of a key map, used to
// bucket candidate pairs so only reactions over the same species are compared.
func participantSignature(keys map[int]float64) string {
	spc := make([]int, 0, len(keys))
	for key := range keys {
		if key > 0 {
			spc = append(spc, key-1)
		} else {
			spc = append(spc, -key-1)
		}
	}
	sort.Ints(spc)
	var b strings.Builder
	for i, s := range spc {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}

// thirdBodyClass decides whether two stoichiometric duplicates also collide
// on their third bodies. It returns dup=true when the pair is an outright
// duplicate, or non-nil explicit/generic reactions when one names its
// collider explicitly and the other reaches it through a generic M with
// nonzero efficiency; that case is resolved by the configured policy.
func thirdBodyClass(a, b *Reaction) (dup bool, explicit, generic *Reaction) {
	ta, tb := a.ThirdBody, b.ThirdBody
	switch {
	case ta == nil && tb == nil:
		return true, nil, nil
	case ta == nil || tb == nil:
		return false, nil, nil
	case ta.Name != "M" && tb.Name != "M":
		return ta.Name == tb.Name, nil, nil
	case ta.Name != "M":
		if tb.Efficiency(ta.Name) != 0 {
			return false, a, b
		}
		return false, nil, nil
	case tb.Name != "M":
		if ta.Efficiency(tb.Name) != 0 {
			return false, b, a
		}
		return false, nil, nil
	}
	// both generic: duplicates only if some species collides in both
	if ta.Default != 0 && tb.Default != 0 {
		return true, nil, nil
	}
	for name := range ta.Efficiencies {
		if ta.Efficiency(name) != 0 && tb.Efficiency(name) != 0 {
			return true, nil, nil
		}
	}
	for name := range tb.Efficiencies {
		if ta.Efficiency(name) != 0 && tb.Efficiency(name) != 0 {
			return true, nil, nil
		}
	}
	return false, nil, nil
}

// CheckDuplicates scans all reaction pairs for undeclared duplicates and for
// duplicate markings with no partner. With throwOnError it fails on the
// first offense; with fix it marks unmarked duplicate pairs instead of
// reporting them. When neither is set the first offending index pair is
// returned, or (-1, -1) if the mechanism is clean. An unmatched duplicate
// marking reports the same index twice.
//
// Pairs that duplicate only through an explicitly named collider and a
// generic M are handled by the policy from SetThirdBodyDuplicateHandling.
func (k *Kinetics) CheckDuplicates(throwOnError, fix bool) (int, int, error) {
	nr := len(k.reactions)
	keys := make([]map[int]float64, nr)
	matched := make([]bool, nr)
	buckets := make(map[string][]int)

	for i, r := range k.reactions {
		keys[i] = k.stoichKeys(r)
		sig := participantSignature(keys[i])
		for _, j := range buckets[sig] {
			other := k.reactions[j]
			ratio := checkDuplicateStoich(keys[i], keys[j])
			if ratio == 0 && (r.Reversible || other.Reversible) {
				// a reversible reaction also covers the opposite direction
				ratio = checkDuplicateStoich(keys[i], reverseKeys(keys[j]))
			}
			if ratio == 0 {
				continue
			}
			dup, explicit, generic := thirdBodyClass(r, other)
			if dup {
				if r.Duplicate && other.Duplicate {
					matched[i], matched[j] = true, true
					continue
				}
				if fix {
					r.Duplicate, other.Duplicate = true, true
					matched[i], matched[j] = true, true
					continue
				}
				if throwOnError {
					return j, i, fmt.Errorf("%w: reactions %d and %d: %s",
						ErrDuplicateReaction, j, i, r.Equation())
				}
				return j, i, nil
			}
			if explicit == nil {
				continue
			}
			name := explicit.ThirdBody.Name
			switch k.tbDuplicatePolicy {
			case PolicyWarn:
				log.Printf("kinetics: reactions %d and %d are duplicates through third body %s: %s",
					j, i, name, r.Equation())
			case PolicyError:
				return j, i, fmt.Errorf("%w: reactions %d and %d through third body %s: %s",
					ErrDuplicateReaction, j, i, name, r.Equation())
			case PolicyMarkDuplicate:
				r.Duplicate, other.Duplicate = true, true
				matched[i], matched[j] = true, true
			case PolicyModifyEfficiency:
				generic.ThirdBody.Efficiencies[name] = 0
				k.resolveThirdBodies()
				k.invalidateCache()
			}
		}
		buckets[sig] = append(buckets[sig], i)
	}

	for i, r := range k.reactions {
		if r.Duplicate && !matched[i] {
			if throwOnError {
				return i, i, fmt.Errorf("%w: reaction %d has no partner: %s",
					ErrUnmatchedDuplicate, i, r.Equation())
			}
			return i, i, nil
		}
	}
	return -1, -1, nil
}
