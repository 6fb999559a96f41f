package engine

import (
	"context"
	"errors"
	"log"

	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/models"
)

// SetRoomCode records the room code and starts the evidence window. Only
// player1 (the fee-payer) may provide it, and only while the match awaits
// a code; a repeat submission in that state overwrites the previous code.
func (e *Engine) SetRoomCode(ctx context.Context, matchID string, playerID int64, code string) error {
	m, err := e.store.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if playerID != m.Player1ID {
		return ErrNotParticipant
	}
	if m.Status != models.StatusAwaitingCode {
		return ErrInvalidMatchState
	}

	if err := e.store.SetRoomCode(ctx, matchID, code); err != nil {
		return err
	}
	if err := e.sched.ScheduleOnce(ctx, matchID, e.timeoutWindow()); err != nil {
		// The match is live either way; a lost timer means a stuck match,
		// which is worth shouting about.
		log.Printf("[LIFECYCLE] FAILED to schedule timeout for match %s: %v", matchID, err)
	}

	e.notify.NotifyPlayer(m.Player2ID, "room_code", map[string]interface{}{
		"match_id": matchID, "room_code": code, "window_minutes": e.cfg.MatchTimeoutMinutes,
	})
	e.notify.NotifyPlayer(m.Player1ID, "room_code_sent", map[string]interface{}{
		"match_id": matchID,
	})

	log.Printf("[LIFECYCLE] Match %s in progress (room code set by player %d)", matchID, playerID)
	return nil
}

// SubmitEvidence records the player's proof of outcome. Evidence is
// per-player idempotent: a later submission overwrites. When both slots
// are filled the match is handed to adjudication and stays in progress
// until a decision arrives.
func (e *Engine) SubmitEvidence(ctx context.Context, matchID string, playerID int64, evidenceRef string) error {
	m, err := e.store.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if !m.HasPlayer(playerID) {
		return ErrNotParticipant
	}
	if m.Status != models.StatusInProgress {
		return ErrInvalidMatchState
	}

	if err := e.store.SetEvidence(ctx, matchID, playerID, evidenceRef); err != nil {
		return err
	}

	opponentID := m.Opponent(playerID)
	e.notify.NotifyPlayer(opponentID, "opponent_submitted", map[string]interface{}{
		"match_id": matchID,
	})

	if m.EvidenceFor(opponentID).Valid {
		e.notify.NotifyAdmins("adjudication_needed", map[string]interface{}{
			"match_id": matchID, "player1_id": m.Player1ID, "player2_id": m.Player2ID,
		})
		log.Printf("[LIFECYCLE] Match %s has both evidence slots filled, awaiting adjudication", matchID)
	}
	return nil
}

// CancelMatch voids a live match and refunds both stakes. Used by
// adjudication when neither side should win.
func (e *Engine) CancelMatch(ctx context.Context, matchID string) error {
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

	if err := e.store.Cancel(ctx, matchID); err != nil {
		return err
	}
	if err := e.sched.Cancel(ctx, matchID); err != nil {
		log.Printf("[LIFECYCLE] Failed to cancel timeout for match %s: %v", matchID, err)
	}
	e.refundBoth(ctx, m, "Match "+matchID+" cancelled")

	log.Printf("[LIFECYCLE] Match %s cancelled by adjudication", matchID)
	return nil
}

// refundBoth returns each player's stake after a cancellation. Must only be
// called after the status compare-and-set succeeded.
func (e *Engine) refundBoth(ctx context.Context, m *models.Match, note string) {
	if m.Stake <= 0 {
		return
	}
	for _, pid := range []int64{m.Player1ID, m.Player2ID} {
		if err := e.ledger.Adjust(ctx, pid, m.Stake, ledger.ReasonRefund, note); err != nil {
			log.Printf("[LIFECYCLE] FATAL: refund to player %d failed for match %s: %v", pid, m.ID, err)
		}
	}
	for _, pid := range []int64{m.Player1ID, m.Player2ID} {
		e.notify.NotifyPlayer(pid, "match_cancelled", map[string]interface{}{
			"match_id": m.ID, "refunded": true,
		})
	}
}

// Timeout is fired by the scheduler once the evidence window closes. A
// match that already left InProgress is left alone. One-sided evidence
// decides the match for the submitter; no evidence cancels and refunds;
// a contested match is never auto-decided.
func (e *Engine) Timeout(ctx context.Context, matchID string) error {
	m, err := e.store.Get(ctx, matchID)
	if err != nil {
		log.Printf("[TIMEOUT] Match %s not loadable: %v", matchID, err)
		return nil
	}
	if m.Status != models.StatusInProgress {
		return nil
	}

	p1Submitted := m.P1Evidence.Valid
	p2Submitted := m.P2Evidence.Valid

	switch {
	case p1Submitted && !p2Submitted:
		log.Printf("[TIMEOUT] Match %s: only player %d submitted, declaring winner", matchID, m.Player1ID)
		return e.Resolve(ctx, matchID, m.Player1ID)
	case p2Submitted && !p1Submitted:
		log.Printf("[TIMEOUT] Match %s: only player %d submitted, declaring winner", matchID, m.Player2ID)
		return e.Resolve(ctx, matchID, m.Player2ID)
	case p1Submitted && p2Submitted:
		// Contested: both sides claim a result. Never auto-decide a
		// dispute; leave the match for adjudication.
		log.Printf("[TIMEOUT] Match %s contested, leaving in progress for adjudication", matchID)
		e.notify.NotifyAdmins("adjudication_overdue", map[string]interface{}{"match_id": matchID})
		return nil
	}

	// No result from either side: cancel and refund. The cancel is a
	// compare-and-set; if it loses to a concurrent resolution, no refund
	// may happen.
	if err := e.store.Cancel(ctx, matchID); err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			return nil
		}
		return err
	}
	if m.Stake > 0 {
		note := "Match " + matchID + " cancelled (timeout)"
		if err := e.ledger.Adjust(ctx, m.Player1ID, m.Stake, ledger.ReasonRefund, note); err != nil {
			log.Printf("[TIMEOUT] FATAL: refund to player %d failed for match %s: %v", m.Player1ID, matchID, err)
		}
		if err := e.ledger.Adjust(ctx, m.Player2ID, m.Stake, ledger.ReasonRefund, note); err != nil {
			log.Printf("[TIMEOUT] FATAL: refund to player %d failed for match %s: %v", m.Player2ID, matchID, err)
		}
	}

	for _, pid := range []int64{m.Player1ID, m.Player2ID} {
		e.notify.NotifyPlayer(pid, "match_cancelled", map[string]interface{}{
			"match_id": matchID, "refunded": m.Stake > 0,
		})
	}
	log.Printf("[TIMEOUT] Match %s cancelled, no evidence from either side", matchID)
	return nil
}
