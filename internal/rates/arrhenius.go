package rates

import (
	"fmt"
	"math"

	"github.com/ischoegl/cantera/internal/thermo"
)

// Arrhenius is the modified Arrhenius rate law
//
//	k(T) = A * T^b * exp(-Ea / (R T))
//
// with the activation energy Ea in J/kmol.
type Arrhenius struct {
	A  float64 // pre-exponential factor
	B  float64 // temperature exponent
	Ea float64 // activation energy [J/kmol]
}

// NewArrhenius returns an Arrhenius rate with the given parameters.
func NewArrhenius(a, b, ea float64) *Arrhenius {
	return &Arrhenius{A: a, B: b, Ea: ea}
}

func (r *Arrhenius) Type() string { return "Arrhenius" }

func (r *Arrhenius) Eval(s State) float64 {
	return r.A * math.Pow(s.T, r.B) * math.Exp(-r.Ea/(thermo.GasConstant*s.T))
}

// DlnRateDT is the exact logarithmic temperature derivative,
// d(ln k)/dT = (b + Ea/RT) / T.
func (r *Arrhenius) DlnRateDT(s State) float64 {
	return (r.B + r.Ea/(thermo.GasConstant*s.T)) / s.T
}

func (r *Arrhenius) GetParams() map[string]float64 {
	return map[string]float64{"A": r.A, "b": r.B, "Ea": r.Ea}
}

func (r *Arrhenius) SetParam(name string, value float64) error {
	switch name {
	case "A":
		r.A = value
	case "b":
		r.B = value
	case "Ea":
		r.Ea = value
	default:
		return fmt.Errorf("rates: unknown Arrhenius param: %s", name)
	}
	return nil
}
