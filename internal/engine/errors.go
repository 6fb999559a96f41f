package engine

import "errors"

// Validation errors: rejected synchronously, never partially applied.
var (
	ErrInvalidStake        = errors.New("invalid stake amount")
	ErrNotRegistered       = errors.New("player not registered")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// State conflicts: rejected with no side effects.
var (
	ErrDuplicateChallenge = errors.New("player already has an outstanding challenge")
	ErrAlreadySearching   = errors.New("player already searching or in a match")
	ErrInvalidMatchState  = errors.New("invalid match state for requested transition")
	ErrAlreadyResolved    = errors.New("match already resolved")
	ErrNotParticipant     = errors.New("player is not part of this match")
)

// ErrNotFound covers unknown match or challenge ids.
var ErrNotFound = errors.New("not found")
