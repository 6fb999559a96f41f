package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/efootballarena/backend/internal/engine"
	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/models"
	"github.com/efootballarena/backend/internal/rating"
)

// Store is the Postgres-backed match record. Every status transition that
// must happen at most once is written as a compare-and-set on the current
// status, so concurrent finalizers and the timeout worker cannot both win.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, m *models.Match) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (match_id, player1_id, player2_id, stake, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Player1ID, m.Player2ID, m.Stake, m.Status, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, matchID string) (*models.Match, error) {
	var m models.Match
	err := s.db.GetContext(ctx, &m, `SELECT * FROM matches WHERE match_id=$1`, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", matchID, err)
	}
	return &m, nil
}

// ActiveMatchFor returns the id of the player's live match, or "" when the
// player is free to search.
func (s *Store) ActiveMatchFor(ctx context.Context, playerID int64) (string, error) {
	var matchID string
	err := s.db.GetContext(ctx, &matchID, `
		SELECT match_id FROM matches
		WHERE (player1_id=$1 OR player2_id=$1) AND status IN ($2, $3)
		LIMIT 1`,
		playerID, models.StatusAwaitingCode, models.StatusInProgress)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("check active match for player %d: %w", playerID, err)
	}
	return matchID, nil
}

// SetRoomCode records the code and moves the match into progress. The
// transition only fires out of awaiting_code.
func (s *Store) SetRoomCode(ctx context.Context, matchID, code string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE matches SET room_code=$1, status=$2
		WHERE match_id=$3 AND status=$4`,
		code, models.StatusInProgress, matchID, models.StatusAwaitingCode)
	if err != nil {
		return fmt.Errorf("set room code for match %s: %w", matchID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrInvalidMatchState
	}
	return nil
}

// SetEvidence writes the player's evidence slot. Re-submission overwrites.
func (s *Store) SetEvidence(ctx context.Context, matchID string, playerID int64, ref string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE matches SET
			p1_evidence = CASE WHEN player1_id=$1 THEN $2 ELSE p1_evidence END,
			p2_evidence = CASE WHEN player2_id=$1 THEN $2 ELSE p2_evidence END
		WHERE match_id=$3 AND (player1_id=$1 OR player2_id=$1) AND status=$4`,
		playerID, ref, matchID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("set evidence for match %s: %w", matchID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrInvalidMatchState
	}
	return nil
}

// Cancel moves an in-progress match to cancelled. Losing the compare-and-set
// means someone else already finished the match.
func (s *Store) Cancel(ctx context.Context, matchID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE matches SET status=$1
		WHERE match_id=$2 AND status=$3`,
		models.StatusCancelled, matchID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("cancel match %s: %w", matchID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrAlreadyResolved
	}
	return nil
}

// Finalize commits a resolution as one transaction: the terminal match row,
// both new ratings, the win/loss counters, and the winner's payout. The
// status compare-and-set is the first statement; when it claims zero rows
// the whole transaction rolls back and the caller lost the race.
func (s *Store) Finalize(ctx context.Context, r engine.Resolution) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE matches SET status=$1, winner_id=$2
		WHERE match_id=$3 AND status=$4`,
		models.StatusCompleted, r.WinnerID, r.MatchID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("finalize match %s: %w", r.MatchID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrAlreadyResolved
	}

	if err := rating.SetRatingTx(tx, r.WinnerID, r.WinnerRating); err != nil {
		return err
	}
	if err := rating.SetRatingTx(tx, r.LoserID, r.LoserRating); err != nil {
		return err
	}
	if err := rating.RecordResultTx(tx, r.WinnerID, r.LoserID); err != nil {
		return err
	}
	if r.Payout > 0 {
		note := fmt.Sprintf("Won match %s", r.MatchID)
		if err := ledger.AdjustTx(tx, r.WinnerID, r.Payout, ledger.ReasonMatchWin, note); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize for match %s: %w", r.MatchID, err)
	}
	log.Printf("[STORE] Match %s finalized: winner=%d payout=%.2f", r.MatchID, r.WinnerID, r.Payout)
	return nil
}

// RecentMatches returns the latest matches for the admin view.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]models.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.Match
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM matches ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent matches: %w", err)
	}
	return out, nil
}

// MatchesForPlayer returns the player's match history, newest first.
func (s *Store) MatchesForPlayer(ctx context.Context, playerID int64, limit int) ([]models.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []models.Match
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM matches
		WHERE player1_id=$1 OR player2_id=$1
		ORDER BY created_at DESC LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches for player %d: %w", playerID, err)
	}
	return out, nil
}
