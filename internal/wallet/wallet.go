package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/efootballarena/backend/internal/config"
	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/models"
)

var (
	ErrBelowMinimum = errors.New("amount below minimum")
	ErrNotPending   = errors.New("request not pending")
	ErrNotFound     = errors.New("request not found")
)

// Service handles deposit and withdrawal requests. Both are created by
// players and settled manually by an admin; the ledger is the only path
// that touches balances.
type Service struct {
	db     *sqlx.DB
	ledger *ledger.Service
	cfg    *config.Config
}

func New(db *sqlx.DB, ldg *ledger.Service, cfg *config.Config) *Service {
	return &Service{db: db, ledger: ldg, cfg: cfg}
}

// CreateDepositRequest records a pending top-up claim for admin review.
// No balance is credited until approval.
func (s *Service) CreateDepositRequest(ctx context.Context, playerID int64, txid string, amount float64) (int64, error) {
	if amount < s.cfg.MinimumDeposit {
		return 0, fmt.Errorf("deposit %.2f: %w", amount, ErrBelowMinimum)
	}
	var id int64
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO deposit_requests (player_id, txid, amount, status, created_at)
		VALUES ($1, $2, $3, 'pending', NOW())
		RETURNING id
	`, playerID, txid, amount).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create deposit request: %w", err)
	}
	return id, nil
}

// ApproveDeposit credits the player and marks the request approved.
func (s *Service) ApproveDeposit(ctx context.Context, reqID int64) (*models.DepositRequest, error) {
	req, err := s.getDeposit(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if req.Status != "pending" {
		return nil, ErrNotPending
	}
	note := fmt.Sprintf("Deposit ID %d", reqID)
	if err := s.ledger.Adjust(ctx, req.PlayerID, req.Amount, ledger.ReasonDeposit, note); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE deposit_requests SET status='approved' WHERE id=$1`, reqID); err != nil {
		return nil, fmt.Errorf("mark deposit %d approved: %w", reqID, err)
	}
	req.Status = "approved"
	return req, nil
}

// CreateWithdrawalRequest debits the amount immediately and records a
// pending payout claim. Rejection refunds the debit.
func (s *Service) CreateWithdrawalRequest(ctx context.Context, playerID int64, amount float64, method, accountNumber string) (int64, error) {
	if amount < s.cfg.MinimumWithdrawal {
		return 0, fmt.Errorf("withdrawal %.2f: %w", amount, ErrBelowMinimum)
	}
	if err := s.ledger.Adjust(ctx, playerID, -amount, ledger.ReasonWithdrawal, "Withdrawal request"); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO withdrawal_requests (player_id, amount, method, account_number, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		RETURNING id
	`, playerID, amount, method, accountNumber).Scan(&id)
	if err != nil {
		// the debit already happened; surface loudly rather than retry
		return 0, fmt.Errorf("create withdrawal request after debit (player %d, amount %.2f): %w", playerID, amount, err)
	}
	return id, nil
}

// ApproveWithdrawal marks the request approved. The balance was already
// debited at request time.
func (s *Service) ApproveWithdrawal(ctx context.Context, reqID int64) (*models.WithdrawalRequest, error) {
	req, err := s.getWithdrawal(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if req.Status != "pending" {
		return nil, ErrNotPending
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE withdrawal_requests SET status='approved' WHERE id=$1`, reqID); err != nil {
		return nil, fmt.Errorf("mark withdrawal %d approved: %w", reqID, err)
	}
	req.Status = "approved"
	return req, nil
}

// RejectWithdrawal refunds the held amount and marks the request rejected.
func (s *Service) RejectWithdrawal(ctx context.Context, reqID int64) (*models.WithdrawalRequest, error) {
	req, err := s.getWithdrawal(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if req.Status != "pending" {
		return nil, ErrNotPending
	}
	note := fmt.Sprintf("Withdrawal ID %d rejected", reqID)
	if err := s.ledger.Adjust(ctx, req.PlayerID, req.Amount, ledger.ReasonWithdrawalRj, note); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE withdrawal_requests SET status='rejected' WHERE id=$1`, reqID); err != nil {
		return nil, fmt.Errorf("mark withdrawal %d rejected: %w", reqID, err)
	}
	req.Status = "rejected"
	return req, nil
}

func (s *Service) getDeposit(ctx context.Context, reqID int64) (*models.DepositRequest, error) {
	var req models.DepositRequest
	err := s.db.GetContext(ctx, &req, `SELECT * FROM deposit_requests WHERE id=$1`, reqID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get deposit request %d: %w", reqID, err)
	}
	return &req, nil
}

func (s *Service) getWithdrawal(ctx context.Context, reqID int64) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := s.db.GetContext(ctx, &req, `SELECT * FROM withdrawal_requests WHERE id=$1`, reqID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get withdrawal request %d: %w", reqID, err)
	}
	return &req, nil
}
