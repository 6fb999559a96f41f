package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/efootballarena/backend/internal/config"
	"github.com/efootballarena/backend/internal/models"
)

// Players is the slice of the player registry the engine reads.
type Players interface {
	Get(ctx context.Context, playerID int64) (*models.Player, error)
}

// Ledger escrows stakes and pays out winnings.
type Ledger interface {
	Balance(ctx context.Context, playerID int64) (float64, error)
	Adjust(ctx context.Context, playerID int64, delta float64, reason, note string) error
}

// MatchStore is the durable record of each match, keyed by an
// externally-unguessable token. Finalize must commit the whole resolution
// (ratings, counters, payout, terminal status) as one unit, guarded by a
// compare-and-set on the match status.
type MatchStore interface {
	Create(ctx context.Context, m *models.Match) error
	Get(ctx context.Context, matchID string) (*models.Match, error)
	ActiveMatchFor(ctx context.Context, playerID int64) (string, error)
	SetRoomCode(ctx context.Context, matchID, code string) error
	SetEvidence(ctx context.Context, matchID string, playerID int64, ref string) error
	Cancel(ctx context.Context, matchID string) error
	Finalize(ctx context.Context, res Resolution) error
}

// Scheduler fires Timeout(matchID) once after the configured window.
// Cancelling a timer that already fired is a safe no-op.
type Scheduler interface {
	ScheduleOnce(ctx context.Context, matchID string, delay time.Duration) error
	Cancel(ctx context.Context, matchID string) error
}

// Notifier is fire-and-forget; the engine never blocks on delivery.
type Notifier interface {
	NotifyPlayer(playerID int64, event string, data map[string]interface{})
	NotifyAdmins(event string, data map[string]interface{})
	PostChallenge(ch *Challenge) string
	RetractChallenge(ref string)
}

// Resolution carries everything a finalized match writes: new absolute
// ratings, counters, payout, and the terminal store record.
type Resolution struct {
	MatchID      string
	WinnerID     int64
	LoserID      int64
	WinnerRating int
	LoserRating  int
	Stake        float64
	Payout       float64
}

// Engine pairs players, walks matches through their lifecycle, and applies
// resolutions. A single coarse mutex serializes matchmaking: the
// find-and-remove / create-match / debit sequence must never interleave,
// and matchmaking volume is low enough that one lock is the right trade.
type Engine struct {
	mu    sync.Mutex
	queue *Queue

	players Players
	ledger  Ledger
	store   MatchStore
	sched   Scheduler
	notify  Notifier
	cfg     *config.Config
}

func New(players Players, ledger Ledger, store MatchStore, sched Scheduler, notify Notifier, cfg *config.Config) *Engine {
	return &Engine{
		queue:   NewQueue(),
		players: players,
		ledger:  ledger,
		store:   store,
		sched:   sched,
		notify:  notify,
		cfg:     cfg,
	}
}

// timeoutWindow is the evidence window started by the room-code exchange.
func (e *Engine) timeoutWindow() time.Duration {
	return time.Duration(e.cfg.MatchTimeoutMinutes) * time.Minute
}

// newMatchID returns a short collision-resistant match token.
func newMatchID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// QueryMatch returns the stored match record.
func (e *Engine) QueryMatch(ctx context.Context, matchID string) (*models.Match, error) {
	return e.store.Get(ctx, matchID)
}

// QueryChallenge returns a copy of the player's waiting challenge, or nil.
func (e *Engine) QueryChallenge(playerID int64) *Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := e.queue.Get(playerID)
	if ch == nil {
		return nil
	}
	cp := *ch
	return &cp
}

// QueueLen returns the number of waiting challenges.
func (e *Engine) QueueLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Len()
}
