package kinetics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ischoegl/cantera/internal/rates"
)

// ThirdBody describes a non-reacting collision partner whose concentration
// scales a reaction's rate. Name is "M" for the generic collider or a species
// name for an explicit one. Efficiencies override Default per species.
type ThirdBody struct {
	Name         string
	Default      float64
	Efficiencies map[string]float64
}

// NewThirdBody returns a generic collider with default efficiency one.
func NewThirdBody() *ThirdBody {
	return &ThirdBody{Name: "M", Default: 1.0, Efficiencies: make(map[string]float64)}
}

// Efficiency returns the collision efficiency of the named species.
func (tb *ThirdBody) Efficiency(name string) float64 {
	if e, ok := tb.Efficiencies[name]; ok {
		return e
	}
	if tb.Name != "M" {
		// explicit collider: only the named species collides
		if name == tb.Name {
			return 1.0
		}
		return 0.0
	}
	return tb.Default
}

// Reaction is one entry of a reaction mechanism. Coefficient maps are keyed
// by species name and may hold fractional values. Once added to a kinetics
// manager a reaction must only be changed through ModifyReaction.
type Reaction struct {
	Reactants  map[string]float64
	Products   map[string]float64
	Rate       rates.Rate
	Reversible bool
	Duplicate  bool
	ThirdBody  *ThirdBody
}

// Equation renders the reaction in conventional form, species sorted by name.
func (r *Reaction) Equation() string {
	var b strings.Builder
	writeSide(&b, r.Reactants)
	if r.ThirdBody != nil {
		b.WriteString(" + ")
		b.WriteString(r.ThirdBody.Name)
	}
	if r.Reversible {
		b.WriteString(" <=> ")
	} else {
		b.WriteString(" => ")
	}
	writeSide(&b, r.Products)
	if r.ThirdBody != nil {
		b.WriteString(" + ")
		b.WriteString(r.ThirdBody.Name)
	}
	return b.String()
}

func writeSide(b *strings.Builder, side map[string]float64) {
	names := make([]string, 0, len(side))
	for name := range side {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			b.WriteString(" + ")
		}
		if nu := side[name]; nu != 1 {
			b.WriteString(strconv.FormatFloat(nu, 'g', -1, 64))
			b.WriteString(" ")
		}
		b.WriteString(name)
	}
}
