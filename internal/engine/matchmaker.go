package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/models"
	"github.com/efootballarena/backend/internal/players"
)

// JoinResult is the outcome of a join request: either an immediate match
// or a waiting challenge.
type JoinResult struct {
	Matched   bool          `json:"matched"`
	Match     *models.Match `json:"match,omitempty"`
	Challenge *Challenge    `json:"challenge,omitempty"`
}

// RequestMatch pairs the player against the oldest waiting challenge at
// the same stake, or enqueues a new challenge. The critical section covers
// find-and-remove, match creation, and both escrow debits so that no two
// requests can pair against the same challenge and no player can enter two
// matches from one request.
func (e *Engine) RequestMatch(ctx context.Context, playerID int64, stake float64) (*JoinResult, error) {
	if stake < 0 {
		return nil, ErrInvalidStake
	}
	if stake == 0 && !e.cfg.AllowFreeMatches {
		return nil, ErrInvalidStake
	}

	p, err := e.players.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, players.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	if !p.IsRegistered || p.IsBanned {
		return nil, ErrNotRegistered
	}
	if stake > 0 && p.Balance < stake {
		return nil, ErrInsufficientBalance
	}

	// A player already in a live match may not search again.
	if active, err := e.store.ActiveMatchFor(ctx, playerID); err != nil {
		return nil, err
	} else if active != "" {
		return nil, ErrAlreadySearching
	}

	e.mu.Lock()
	if e.queue.Get(playerID) != nil {
		e.mu.Unlock()
		return nil, ErrAlreadySearching
	}

	opponent := e.queue.DequeueOldestMatching(stake, playerID)
	if opponent == nil {
		ch := &Challenge{PlayerID: playerID, Stake: stake, EnqueuedAt: time.Now()}
		e.queue.Enqueue(ch)
		e.mu.Unlock()

		// Announce outside the lock; attach the ref only if the challenge
		// is still queued (the owner may have cancelled meanwhile).
		ref := e.notify.PostChallenge(ch)
		e.mu.Lock()
		if e.queue.Get(playerID) == ch {
			ch.AnnouncementRef = ref
			e.mu.Unlock()
		} else {
			e.mu.Unlock()
			e.notify.RetractChallenge(ref)
		}

		log.Printf("[MATCHMAKER] Player %d queued (stake=%.2f)", playerID, stake)
		cp := *ch
		return &JoinResult{Challenge: &cp}, nil
	}

	match, err := e.pairLocked(ctx, playerID, opponent, stake)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if opponent.AnnouncementRef != "" {
		e.notify.RetractChallenge(opponent.AnnouncementRef)
	}
	e.notify.NotifyPlayer(match.Player1ID, "opponent_found", map[string]interface{}{
		"match_id": match.ID, "opponent_id": match.Player2ID, "stake": stake, "provide_room_code": true,
	})
	e.notify.NotifyPlayer(match.Player2ID, "opponent_found", map[string]interface{}{
		"match_id": match.ID, "opponent_id": match.Player1ID, "stake": stake, "provide_room_code": false,
	})

	log.Printf("[MATCHMAKER] Match created: id=%s players=[%d,%d] stake=%.2f",
		match.ID, match.Player1ID, match.Player2ID, stake)
	return &JoinResult{Matched: true, Match: match}, nil
}

// pairLocked creates the match and escrows both stakes. Called with the
// matchmaking lock held. Balances were validated before the lock; they are
// checked again here by the ledger so this path can never overdraw.
func (e *Engine) pairLocked(ctx context.Context, requesterID int64, opponent *Challenge, stake float64) (*models.Match, error) {
	matchID := newMatchID()
	entryNote := fmt.Sprintf("Match %s", matchID)

	if stake > 0 {
		if err := e.ledger.Adjust(ctx, requesterID, -stake, ledger.ReasonMatchEntry, entryNote); err != nil {
			e.requeueFront(opponent)
			return nil, fmt.Errorf("escrow debit for player %d failed: %w", requesterID, err)
		}
		if err := e.ledger.Adjust(ctx, opponent.PlayerID, -stake, ledger.ReasonMatchEntry, entryNote); err != nil {
			// Pairing aborted: compensate the first debit and restore the queue.
			if rerr := e.ledger.Adjust(ctx, requesterID, stake, ledger.ReasonRefund, entryNote+" aborted"); rerr != nil {
				log.Printf("[MATCHMAKER] FATAL: failed to reverse escrow debit for player %d after aborted pairing: %v", requesterID, rerr)
			}
			e.requeueFront(opponent)
			return nil, fmt.Errorf("escrow debit for player %d failed: %w", opponent.PlayerID, err)
		}
	}

	match := &models.Match{
		ID:        matchID,
		Player1ID: requesterID,
		Player2ID: opponent.PlayerID,
		Stake:     stake,
		Status:    models.StatusAwaitingCode,
		CreatedAt: time.Now(),
	}
	if err := e.store.Create(ctx, match); err != nil {
		if stake > 0 {
			note := entryNote + " creation failed"
			if rerr := e.ledger.Adjust(ctx, requesterID, stake, ledger.ReasonRefund, note); rerr != nil {
				log.Printf("[MATCHMAKER] FATAL: failed to refund player %d after store failure: %v", requesterID, rerr)
			}
			if rerr := e.ledger.Adjust(ctx, opponent.PlayerID, stake, ledger.ReasonRefund, note); rerr != nil {
				log.Printf("[MATCHMAKER] FATAL: failed to refund player %d after store failure: %v", opponent.PlayerID, rerr)
			}
		}
		e.requeueFront(opponent)
		return nil, fmt.Errorf("create match: %w", err)
	}

	return match, nil
}

// requeueFront puts a dequeued challenge back at the head of the queue so
// an aborted pairing does not cost the opponent their place.
func (e *Engine) requeueFront(ch *Challenge) {
	if _, exists := e.queue.byPlayer[ch.PlayerID]; exists {
		return
	}
	e.queue.entries = append([]*Challenge{ch}, e.queue.entries...)
	e.queue.byPlayer[ch.PlayerID] = ch
}

// CancelSearch removes the player's waiting challenge. It reports whether
// one existed; cancelling nothing is a no-op, not an error.
func (e *Engine) CancelSearch(ctx context.Context, playerID int64) (bool, error) {
	e.mu.Lock()
	ch := e.queue.Remove(playerID)
	e.mu.Unlock()

	if ch == nil {
		return false, nil
	}
	if ch.AnnouncementRef != "" {
		e.notify.RetractChallenge(ch.AnnouncementRef)
	}
	log.Printf("[MATCHMAKER] Player %d cancelled search (stake=%.2f)", playerID, ch.Stake)
	return true, nil
}
