package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/efootballarena/backend/internal/config"
	"github.com/efootballarena/backend/internal/ledger"
	"github.com/efootballarena/backend/internal/models"
)

// ErrNotFound is returned when no player row exists for the given id.
var ErrNotFound = errors.New("player not found")

// Service manages player profiles. Balances and ratings live on the same
// row but are mutated only through the ledger and match resolution.
type Service struct {
	db     *sqlx.DB
	ledger *ledger.Service
	cfg    *config.Config
}

func New(db *sqlx.DB, ldg *ledger.Service, cfg *config.Config) *Service {
	return &Service{db: db, ledger: ldg, cfg: cfg}
}

// Get returns the player by id.
func (s *Service) Get(ctx context.Context, playerID int64) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p, `SELECT * FROM players WHERE id=$1`, playerID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %d: %w", playerID, err)
	}
	return &p, nil
}

// GetOrCreate ensures a player row exists, recording the referrer on first
// contact. New players start unregistered with the default rating.
func (s *Service) GetOrCreate(ctx context.Context, playerID int64, username string, referrerID *int64) (*models.Player, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, username, elo_rating, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO NOTHING
	`, playerID, username, s.cfg.DefaultRating)
	if err != nil {
		return nil, fmt.Errorf("create player %d: %w", playerID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 && referrerID != nil && *referrerID != playerID {
		if _, err := s.db.ExecContext(ctx, `UPDATE players SET referrer_id=$1 WHERE id=$2`, *referrerID, playerID); err != nil {
			log.Printf("[PLAYERS] Failed to set referrer for player %d: %v", playerID, err)
		}
	}
	return s.Get(ctx, playerID)
}

// CompleteRegistration stores the in-game name and phone, flips the
// registered flag, and pays the one-time welcome bonus plus the referral
// bonus to the referrer. Bonus failures are logged, not fatal.
func (s *Service) CompleteRegistration(ctx context.Context, playerID int64, ingameName, phone string) (*models.Player, error) {
	p, err := s.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE players SET ingame_name=$1, phone_number=$2, is_registered=TRUE WHERE id=$3
	`, ingameName, phone, playerID); err != nil {
		return nil, fmt.Errorf("register player %d: %w", playerID, err)
	}

	if !p.WelcomeGiven && s.cfg.WelcomeBonus > 0 {
		if err := s.ledger.Adjust(ctx, playerID, s.cfg.WelcomeBonus, ledger.ReasonWelcomeBonus, "Welcome bonus"); err != nil {
			log.Printf("[PLAYERS] Failed to credit welcome bonus for player %d: %v", playerID, err)
		} else if _, err := s.db.ExecContext(ctx, `UPDATE players SET welcome_given=TRUE WHERE id=$1`, playerID); err != nil {
			log.Printf("[PLAYERS] Failed to mark welcome bonus for player %d: %v", playerID, err)
		}
	}

	if p.ReferrerID.Valid && p.ReferrerID.Int64 != playerID && s.cfg.ReferralBonus > 0 {
		note := fmt.Sprintf("Bonus for referring %d", playerID)
		if err := s.ledger.Adjust(ctx, p.ReferrerID.Int64, s.cfg.ReferralBonus, ledger.ReasonReferral, note); err != nil {
			log.Printf("[PLAYERS] Failed to credit referral bonus to %d: %v", p.ReferrerID.Int64, err)
		}
	}

	return s.Get(ctx, playerID)
}

// LeaderboardRow is one leaderboard entry.
type LeaderboardRow struct {
	IngameName sql.NullString `db:"ingame_name" json:"ingame_name"`
	Username   string         `db:"username" json:"username"`
	Wins       int            `db:"wins" json:"wins"`
	Rating     int            `db:"elo_rating" json:"elo_rating"`
}

// Leaderboard returns registered players ordered by rating, then wins.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ingame_name, username, wins, elo_rating
		FROM players
		WHERE is_registered = TRUE
		ORDER BY elo_rating DESC, wins DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	return rows, nil
}
