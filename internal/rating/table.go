package rating

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Table reads and writes the current skill rating per player. Ratings are
// written only as part of match resolution.
type Table struct {
	db *sqlx.DB
}

func NewTable(db *sqlx.DB) *Table {
	return &Table{db: db}
}

// Rating returns the player's current rating.
func (t *Table) Rating(ctx context.Context, playerID int64) (int, error) {
	var r int
	if err := t.db.GetContext(ctx, &r, `SELECT elo_rating FROM players WHERE id=$1`, playerID); err != nil {
		return 0, fmt.Errorf("get rating for player %d: %w", playerID, err)
	}
	return r, nil
}

// SetRating writes a new absolute rating.
func (t *Table) SetRating(ctx context.Context, playerID int64, r int) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := SetRatingTx(tx, playerID, r); err != nil {
		return err
	}
	return tx.Commit()
}

// SetRatingTx writes a new absolute rating within an existing tx.
func SetRatingTx(tx *sqlx.Tx, playerID int64, r int) error {
	if _, err := tx.Exec(`UPDATE players SET elo_rating=$1 WHERE id=$2`, r, playerID); err != nil {
		return fmt.Errorf("set rating for player %d: %w", playerID, err)
	}
	return nil
}

// RecordResultTx bumps the win/loss counters within an existing tx.
func RecordResultTx(tx *sqlx.Tx, winnerID, loserID int64) error {
	if _, err := tx.Exec(`UPDATE players SET wins = wins + 1 WHERE id=$1`, winnerID); err != nil {
		return fmt.Errorf("bump wins for player %d: %w", winnerID, err)
	}
	if _, err := tx.Exec(`UPDATE players SET losses = losses + 1 WHERE id=$1`, loserID); err != nil {
		return fmt.Errorf("bump losses for player %d: %w", loserID, err)
	}
	return nil
}
