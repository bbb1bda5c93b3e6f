// Package thermo defines the thermodynamic collaborator consumed by the
// kinetics manager.
//
// The kinetics core never computes thermodynamic properties itself; it reads
// them through the narrow [Phase] interface:
//
//   - [Phase]: species layout, state (T, P, composition) and standard-state
//     properties of one phase
//   - [IdealGas]: a constant-cp ideal gas implementation used by the CLI and
//     by tests
//
// # Thread Safety
//
// Phase implementations are NOT thread-safe. A phase is mutated by its owner
// between evaluation calls; the kinetics manager only reads it.
package thermo
