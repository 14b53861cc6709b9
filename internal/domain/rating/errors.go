package rating

import "errors"

// Sentinel kinds for rating errors. Callers match them with errors.Is.
var (
	ErrInvalidPlacement   = errors.New("invalid placement")
	ErrDuplicatePlacement = errors.New("duplicate placement")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrEmptyRace          = errors.New("race has no participants")
	ErrNonFiniteRating    = errors.New("non-finite rating")
	ErrInvalidRoster      = errors.New("invalid roster")
)
