package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// ErrInsufficientFunds is returned when a debit would drive the balance
// below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// common adjustment reason tags
const (
	ReasonMatchEntry   = "match_entry"
	ReasonMatchWin     = "match_win"
	ReasonRefund       = "refund"
	ReasonDeposit      = "deposit"
	ReasonWithdrawal   = "withdrawal_request"
	ReasonWithdrawalRj = "withdrawal_rejected"
	ReasonWelcomeBonus = "welcome_bonus"
	ReasonReferral     = "referral_bonus"
)

// Service mutates player balances and keeps the append-only transactions
// journal.
type Service struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// Balance returns the player's current balance.
func (s *Service) Balance(ctx context.Context, playerID int64) (float64, error) {
	var balance float64
	if err := s.db.GetContext(ctx, &balance, `SELECT balance FROM players WHERE id=$1`, playerID); err != nil {
		return 0, fmt.Errorf("get balance for player %d: %w", playerID, err)
	}
	return balance, nil
}

// Adjust applies a single balance adjustment in its own transaction.
func (s *Service) Adjust(ctx context.Context, playerID int64, delta float64, reason, note string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin adjust tx: %w", err)
	}
	defer tx.Rollback()

	if err := AdjustTx(tx, playerID, delta, reason, note); err != nil {
		return err
	}
	return tx.Commit()
}

// AdjustTx applies a balance adjustment within an existing tx. The player
// row is locked for the read-modify-write so concurrent adjustments to the
// same player never lose an update.
func AdjustTx(tx *sqlx.Tx, playerID int64, delta float64, reason, note string) error {
	var balance float64
	if err := tx.Get(&balance, `SELECT balance FROM players WHERE id=$1 FOR UPDATE`, playerID); err != nil {
		return fmt.Errorf("lock player %d: %w", playerID, err)
	}

	newBalance := balance + delta
	if delta < 0 && newBalance < 0 {
		return fmt.Errorf("player %d balance %.2f, delta %.2f: %w", playerID, balance, delta, ErrInsufficientFunds)
	}

	if _, err := tx.Exec(`UPDATE players SET balance=$1 WHERE id=$2`, newBalance, playerID); err != nil {
		return fmt.Errorf("update balance for player %d: %w", playerID, err)
	}
	if _, err := tx.Exec(`INSERT INTO transactions (player_id, amount, reason, note, created_at) VALUES ($1,$2,$3,$4,NOW())`,
		playerID, delta, reason, note); err != nil {
		return fmt.Errorf("insert transaction for player %d: %w", playerID, err)
	}

	log.Printf("[LEDGER] Adjustment: player=%d delta=%.2f balance=%.2f reason=%s note=%s",
		playerID, delta, newBalance, reason, note)
	return nil
}
