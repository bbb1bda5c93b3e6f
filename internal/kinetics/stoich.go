package kinetics

import (
	"math"

	"github.com/ctessum/sparse"
)

// stoichEntry is one nonzero coefficient of a species x reaction matrix.
type stoichEntry struct {
	spc   int
	rxn   int
	coeff float64
}

// stoichMatrix is a sparse species x reaction coefficient matrix. Entries are
// installed once per reaction and kept in insertion order; per-reaction entry
// lists are derived by resize so batched evaluation can walk one reaction at
// a time.
type stoichMatrix struct {
	entries []stoichEntry
	byRxn   [][]int
	nSpc    int
	nRxn    int
}

// add installs a coefficient, merging with an existing entry for the same
// (species, reaction) pair. Fractional coefficients are kept as given.
func (m *stoichMatrix) add(rxn, spc int, coeff float64) {
	for i := range m.entries {
		e := &m.entries[i]
		if e.rxn == rxn && e.spc == spc {
			e.coeff += coeff
			return
		}
	}
	m.entries = append(m.entries, stoichEntry{spc: spc, rxn: rxn, coeff: coeff})
}

// resize fixes the matrix shape and rebuilds the per-reaction entry lists.
// Safe to call repeatedly.
func (m *stoichMatrix) resize(nSpc, nRxn int) {
	m.nSpc = nSpc
	m.nRxn = nRxn
	m.byRxn = make([][]int, nRxn)
	for i, e := range m.entries {
		m.byRxn[e.rxn] = append(m.byRxn[e.rxn], i)
	}
}

func (m *stoichMatrix) coeff(spc, rxn int) float64 {
	if rxn < 0 || rxn >= len(m.byRxn) {
		return 0
	}
	for _, i := range m.byRxn[rxn] {
		if m.entries[i].spc == spc {
			return m.entries[i].coeff
		}
	}
	return 0
}

// matrix returns a sparse copy of the coefficients.
func (m *stoichMatrix) matrix() *sparse.SparseArray {
	a := sparse.ZerosSparse(m.nSpc, m.nRxn)
	for _, e := range m.entries {
		a.AddVal(e.coeff, e.spc, e.rxn)
	}
	return a
}

// multiply accumulates out[i] += sum_k coeff(k,i) * prop[k].
func (m *stoichMatrix) multiply(prop, out []float64) {
	for _, e := range m.entries {
		out[e.rxn] += e.coeff * prop[e.spc]
	}
}

// multiplyPow scales out[i] by prod_k conc[k]^coeff(k,i), the concentration
// product entering a rate of progress.
func (m *stoichMatrix) multiplyPow(conc, out []float64) {
	for _, e := range m.entries {
		if e.coeff == 1 {
			out[e.rxn] *= conc[e.spc]
		} else {
			out[e.rxn] *= math.Pow(conc[e.spc], e.coeff)
		}
	}
}

// incrementSpecies accumulates out[k] += sum_i coeff(k,i) * rop[i].
func (m *stoichMatrix) incrementSpecies(rop, out []float64) {
	for _, e := range m.entries {
		out[e.spc] += e.coeff * rop[e.rxn]
	}
}

// columnSums returns per-reaction coefficient sums (reaction orders for a
// mass-action concentration product).
func (m *stoichMatrix) columnSums() []float64 {
	sums := make([]float64, m.nRxn)
	for _, e := range m.entries {
		sums[e.rxn] += e.coeff
	}
	return sums
}

// productDerivatives writes into jac the entries
//
//	jac[i,k] += scale[i] * d/dc_k ( prod_j conc[j]^coeff(j,i) )
//
// for every coefficient (k,i) of this matrix. jac has shape nRxn x nSpc.
// Derivatives at zero concentration with non-unity exponent are set to zero;
// rate-of-progress derivatives are only meaningful for positive
// concentrations there.
func (m *stoichMatrix) productDerivatives(conc, scale []float64, jac *sparse.SparseArray) {
	for rxn, idxs := range m.byRxn {
		if scale[rxn] == 0 {
			continue
		}
		for _, i := range idxs {
			e := m.entries[i]
			d := e.coeff
			if conc[e.spc] <= 0 {
				if e.coeff != 1 {
					continue
				}
			} else if e.coeff != 1 {
				d *= math.Pow(conc[e.spc], e.coeff-1)
			}
			for _, j := range idxs {
				if j == i {
					continue
				}
				o := m.entries[j]
				if o.coeff == 1 {
					d *= conc[o.spc]
				} else {
					d *= math.Pow(conc[o.spc], o.coeff)
				}
			}
			if d != 0 {
				jac.AddVal(scale[rxn]*d, rxn, e.spc)
			}
		}
	}
}
