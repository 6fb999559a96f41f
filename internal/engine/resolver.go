package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/efootballarena/backend/internal/models"
	"github.com/efootballarena/backend/internal/rating"
)

// Resolve applies the consequences of a determined winner exactly once:
// new Elo ratings for both sides, the winner's payout (stake pool minus
// the house rake), win/loss counters, and the terminal store record. The
// store commits all of it as one unit behind a status compare-and-set, so
// a double invocation loses the race and reports ErrAlreadyResolved.
func (e *Engine) Resolve(ctx context.Context, matchID string, winnerID int64) error {
	m, err := e.store.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status.Terminal() {
		return ErrAlreadyResolved
	}
	if m.Status != models.StatusInProgress {
		return ErrInvalidMatchState
	}
	if !m.HasPlayer(winnerID) {
		return ErrNotParticipant
	}

	loserID := m.Opponent(winnerID)
	winner, err := e.players.Get(ctx, winnerID)
	if err != nil {
		return fmt.Errorf("load winner %d: %w", winnerID, err)
	}
	loser, err := e.players.Get(ctx, loserID)
	if err != nil {
		return fmt.Errorf("load loser %d: %w", loserID, err)
	}

	newWinnerRating, newLoserRating := rating.MatchOutcome(winner.Rating, loser.Rating, e.cfg.EloKFactor)

	var payout float64
	if m.Stake > 0 {
		payout = m.Stake * 2 * (1 - float64(e.cfg.RakePercent)/100)
	}

	res := Resolution{
		MatchID:      matchID,
		WinnerID:     winnerID,
		LoserID:      loserID,
		WinnerRating: newWinnerRating,
		LoserRating:  newLoserRating,
		Stake:        m.Stake,
		Payout:       payout,
	}
	if err := e.store.Finalize(ctx, res); err != nil {
		return err
	}

	// The timer may have fired already; cancelling then is a no-op.
	if err := e.sched.Cancel(ctx, matchID); err != nil {
		log.Printf("[RESOLVER] Failed to cancel timeout for match %s: %v", matchID, err)
	}

	e.notify.NotifyPlayer(winnerID, "match_won", map[string]interface{}{
		"match_id": matchID, "payout": payout, "new_rating": newWinnerRating,
	})
	e.notify.NotifyPlayer(loserID, "match_lost", map[string]interface{}{
		"match_id": matchID, "new_rating": newLoserRating,
	})

	log.Printf("[RESOLVER] Match %s resolved: winner=%d (%d -> %d) loser=%d (%d -> %d) payout=%.2f",
		matchID, winnerID, winner.Rating, newWinnerRating, loserID, loser.Rating, newLoserRating, payout)
	return nil
}
