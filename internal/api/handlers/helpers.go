package handlers

import (
	"errors"
	"net/http"

	"github.com/efootballarena/backend/internal/engine"
	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/players"
	"github.com/efootballarena/backend/internal/wallet"
)

// statusFor maps service errors onto HTTP status codes so every handler
// reports the same way.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, players.ErrNotFound),
		errors.Is(err, wallet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidStake),
		errors.Is(err, engine.ErrNotRegistered),
		errors.Is(err, engine.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrBelowMinimum),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrDuplicateChallenge),
		errors.Is(err, engine.ErrAlreadySearching),
		errors.Is(err, engine.ErrInvalidMatchState),
		errors.Is(err, engine.ErrAlreadyResolved),
		errors.Is(err, wallet.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNotParticipant):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
