package models

import (
	"database/sql"
	"time"
)

// Player represents a user in the system. Balance is mutated only through
// the ledger, elo_rating and the win/loss counters only through match
// resolution.
type Player struct {
	ID           int64          `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	IngameName   sql.NullString `db:"ingame_name" json:"ingame_name,omitempty"`
	PhoneNumber  sql.NullString `db:"phone_number" json:"phone_number,omitempty"`
	IsRegistered bool           `db:"is_registered" json:"is_registered"`
	Balance      float64        `db:"balance" json:"balance"`
	Rating       int            `db:"elo_rating" json:"elo_rating"`
	Wins         int            `db:"wins" json:"wins"`
	Losses       int            `db:"losses" json:"losses"`
	WelcomeGiven bool           `db:"welcome_given" json:"-"`
	ReferrerID   sql.NullInt64  `db:"referrer_id" json:"-"`
	IsBanned     bool           `db:"is_banned" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// Transaction is one append-only balance adjustment record.
type Transaction struct {
	ID        int64     `db:"id" json:"id"`
	PlayerID  int64     `db:"player_id" json:"player_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Reason    string    `db:"reason" json:"reason"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	StatusAwaitingCode MatchStatus = "awaiting_code"
	StatusInProgress   MatchStatus = "in_progress"
	StatusCompleted    MatchStatus = "completed"
	StatusCancelled    MatchStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the state.
func (s MatchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Match represents a head-to-head contest between two players. Player1 is
// the fee-payer who supplies the room code; the ordering is fixed at
// creation.
type Match struct {
	ID         string         `db:"match_id" json:"match_id"`
	Player1ID  int64          `db:"player1_id" json:"player1_id"`
	Player2ID  int64          `db:"player2_id" json:"player2_id"`
	Stake      float64        `db:"stake" json:"stake"`
	Status     MatchStatus    `db:"status" json:"status"`
	RoomCode   sql.NullString `db:"room_code" json:"room_code,omitempty"`
	P1Evidence sql.NullString `db:"p1_evidence" json:"p1_evidence,omitempty"`
	P2Evidence sql.NullString `db:"p2_evidence" json:"p2_evidence,omitempty"`
	WinnerID   sql.NullInt64  `db:"winner_id" json:"winner_id,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// HasPlayer reports whether id is one of the two participants.
func (m *Match) HasPlayer(id int64) bool {
	return id == m.Player1ID || id == m.Player2ID
}

// Opponent returns the other participant's id.
func (m *Match) Opponent(id int64) int64 {
	if id == m.Player1ID {
		return m.Player2ID
	}
	return m.Player1ID
}

// EvidenceFor returns the evidence slot contents for the given player.
func (m *Match) EvidenceFor(id int64) sql.NullString {
	if id == m.Player1ID {
		return m.P1Evidence
	}
	return m.P2Evidence
}

// DepositRequest is a manually approved top-up request.
type DepositRequest struct {
	ID        int64     `db:"id" json:"id"`
	PlayerID  int64     `db:"player_id" json:"player_id"`
	TxID      string    `db:"txid" json:"txid"`
	Amount    float64   `db:"amount" json:"amount"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WithdrawalRequest is a manually approved payout request. The amount is
// debited from the player's balance when the request is created and
// refunded if the request is rejected.
type WithdrawalRequest struct {
	ID            int64     `db:"id" json:"id"`
	PlayerID      int64     `db:"player_id" json:"player_id"`
	Amount        float64   `db:"amount" json:"amount"`
	Method        string    `db:"method" json:"method"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AdminAccount holds credentials for the adjudication/back-office API.
type AdminAccount struct {
	Phone       string    `db:"phone" json:"phone"`
	DisplayName string    `db:"display_name" json:"display_name"`
	TokenHash   string    `db:"token_hash" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AdminAudit records one admin action.
type AdminAudit struct {
	ID         int64     `db:"id" json:"id"`
	AdminPhone string    `db:"admin_phone" json:"admin_phone"`
	IP         string    `db:"ip" json:"ip"`
	Route      string    `db:"route" json:"route"`
	Action     string    `db:"action" json:"action"`
	Details    []byte    `db:"details" json:"details"`
	Success    bool      `db:"success" json:"success"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
