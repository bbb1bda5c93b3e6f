package rates

import (
	"errors"
	"math"
	"sort"
)

// ErrBadTable indicates a tabulated rate with fewer than two points or an
// unsorted temperature grid.
var ErrBadTable = errors.New("rates: tabulated rate needs at least two sorted temperature points")

// Tabulated interpolates ln k linearly over a temperature grid. Outside the
// grid the nearest segment is extrapolated. It deliberately provides no
// analytic derivative, so the kinetics manager differentiates it by
// perturbation.
type Tabulated struct {
	temps []float64
	lnK   []float64
}

// NewTabulated builds a tabulated rate from matching temperature and
// rate-constant slices. Rate constants must be positive.
func NewTabulated(temps, ks []float64) (*Tabulated, error) {
	if len(temps) < 2 || len(temps) != len(ks) {
		return nil, ErrBadTable
	}
	if !sort.Float64sAreSorted(temps) {
		return nil, ErrBadTable
	}
	r := &Tabulated{
		temps: append([]float64(nil), temps...),
		lnK:   make([]float64, len(ks)),
	}
	for i, k := range ks {
		if k <= 0 {
			return nil, ErrBadTable
		}
		r.lnK[i] = math.Log(k)
	}
	return r, nil
}

func (r *Tabulated) Type() string { return "tabulated" }

func (r *Tabulated) Eval(s State) float64 {
	n := len(r.temps)
	j := sort.SearchFloat64s(r.temps, s.T)
	switch {
	case j <= 0:
		j = 1
	case j >= n:
		j = n - 1
	}
	t0, t1 := r.temps[j-1], r.temps[j]
	f := (s.T - t0) / (t1 - t0)
	return math.Exp(r.lnK[j-1] + f*(r.lnK[j]-r.lnK[j-1]))
}
