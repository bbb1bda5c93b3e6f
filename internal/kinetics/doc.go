// Package kinetics computes reaction rates, species production rates and
// their derivatives for reactions distributed across one or more phases.
//
// The central type is [Kinetics], the kinetics manager:
//
//   - [Kinetics.AddPhase] / [Kinetics.AddReaction]: build up the mechanism
//   - [Kinetics.GetFwdRatesOfProgress] and friends: rates of progress
//   - [Kinetics.GetNetProductionRates] and friends: species source terms
//   - NetProductionRatesDdX and the other Dd* methods: Jacobian contributions
//   - [Kinetics.CheckDuplicates]: duplicate-reaction detection
//
// Species quantities use a single flat index: phases contribute contiguous
// blocks in the order they were added, species within a phase in phase order.
//
// Reactions are batched by rate-expression type so per-type work (shared
// temperature terms, a single perturbed state for numeric derivatives) is
// amortized over the whole batch.
//
// # Thread Safety
//
// A Kinetics instance is NOT thread-safe; all operations run synchronously on
// the calling thread. Distinct instances share no state and may be used
// concurrently.
package kinetics
