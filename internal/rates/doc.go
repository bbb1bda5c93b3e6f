// Package rates provides pluggable reaction rate expressions.
//
// A rate expression computes a rate constant from a thermodynamic [State]
// snapshot. Rate expressions are grouped by [Rate.Type] inside the kinetics
// manager so reactions sharing a rate law are evaluated in one batched pass.
//
// Optional capabilities are separate interfaces: a rate that implements
// [TemperatureDerivative] gets exact temperature derivatives, everything else
// is differentiated by perturbation. [Registry] maps type names to
// constructors and is owned by the caller; there is no package-level
// registration state.
package rates
