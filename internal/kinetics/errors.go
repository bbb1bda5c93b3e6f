package kinetics

import (
	"errors"
	"fmt"
)

// Domain errors for mechanism construction and evaluation.
var (
	// ErrPhaseAfterReactions indicates an attempt to add a phase once
	// reactions exist; the species layout is frozen at that point.
	ErrPhaseAfterReactions = errors.New("kinetics: phases cannot be added after reactions")

	// ErrDuplicatePhase indicates a phase name registered twice.
	ErrDuplicatePhase = errors.New("kinetics: phase already added")

	// ErrUndeclaredSpecies indicates a reaction referencing a species not
	// present in any registered phase.
	ErrUndeclaredSpecies = errors.New("kinetics: undeclared species in reaction")

	// ErrUndeclaredThirdBody indicates a third-body efficiency for a species
	// not present in any registered phase.
	ErrUndeclaredThirdBody = errors.New("kinetics: undeclared third-body species")

	// ErrDuplicateReaction indicates unmarked duplicate reactions.
	ErrDuplicateReaction = errors.New("kinetics: unmarked duplicate reactions")

	// ErrUnmatchedDuplicate indicates a reaction marked duplicate with no
	// matching partner.
	ErrUnmatchedDuplicate = errors.New("kinetics: no duplicate found for marked reaction")

	// ErrNoPhases indicates a reaction added before any phase.
	ErrNoPhases = errors.New("kinetics: no phases added")

	// ErrRateTypeChange indicates a reaction modification that would change
	// the rate-expression type.
	ErrRateTypeChange = errors.New("kinetics: modified reaction must keep its rate type")

	// ErrReactionMismatch indicates a reaction modification that would change
	// the stoichiometry, reversibility or third-body spec.
	ErrReactionMismatch = errors.New("kinetics: modified reaction must keep its structure")

	// ErrUnknownSetting indicates an unrecognized derivative-settings key.
	ErrUnknownSetting = errors.New("kinetics: unknown derivative setting")

	// ErrBadPolicy indicates an unrecognized duplicate-handling policy name.
	ErrBadPolicy = errors.New("kinetics: unknown third-body duplicate policy")
)

// IndexError reports a reaction, species or phase index outside valid bounds.
type IndexError struct {
	What  string
	Index int
	Bound int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("kinetics: %s index %d out of range (have %d)",
		e.What, e.Index, e.Bound)
}

// ArraySizeError reports a bulk array argument smaller than the problem size.
type ArraySizeError struct {
	What string
	Size int
	Need int
}

func (e *ArraySizeError) Error() string {
	return fmt.Sprintf("kinetics: %s array of length %d is smaller than %d",
		e.What, e.Size, e.Need)
}

// NotImplementedError reports an operation unsupported by the concrete
// kinetics manager type.
type NotImplementedError struct {
	Op           string
	KineticsType string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("kinetics: %s not implemented for kinetics type %q",
		e.Op, e.KineticsType)
}
