package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efootballarena/backend/internal/config"
	"github.com/efootballarena/backend/internal/models"
	"github.com/efootballarena/backend/internal/players"
)

// ---- fakes ----

type fakePlayers struct {
	mu      sync.Mutex
	players map[int64]*models.Player
}

func (f *fakePlayers) Get(ctx context.Context, playerID int64) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[playerID]
	if !ok {
		return nil, players.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type journalEntry struct {
	playerID int64
	delta    float64
	reason   string
}

type fakeLedger struct {
	mu      sync.Mutex
	players *fakePlayers
	journal []journalEntry
}

func (f *fakeLedger) Balance(ctx context.Context, playerID int64) (float64, error) {
	f.players.mu.Lock()
	defer f.players.mu.Unlock()
	p, ok := f.players.players[playerID]
	if !ok {
		return 0, ErrNotFound
	}
	return p.Balance, nil
}

func (f *fakeLedger) Adjust(ctx context.Context, playerID int64, delta float64, reason, note string) error {
	f.players.mu.Lock()
	p, ok := f.players.players[playerID]
	if !ok {
		f.players.mu.Unlock()
		return ErrNotFound
	}
	if delta < 0 && p.Balance+delta < 0 {
		f.players.mu.Unlock()
		return fmt.Errorf("insufficient funds for player %d", playerID)
	}
	p.Balance += delta
	f.players.mu.Unlock()

	f.mu.Lock()
	f.journal = append(f.journal, journalEntry{playerID: playerID, delta: delta, reason: reason})
	f.mu.Unlock()
	return nil
}

func (f *fakeLedger) entriesFor(playerID int64, reason string) []journalEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []journalEntry
	for _, e := range f.journal {
		if e.playerID == playerID && e.reason == reason {
			out = append(out, e)
		}
	}
	return out
}

type fakeStore struct {
	mu      sync.Mutex
	matches map[string]*models.Match
	players *fakePlayers
	ledger  *fakeLedger
}

func (f *fakeStore) Create(ctx context.Context, m *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	f.matches[m.ID] = &cp
	return nil
}

func (f *fakeStore) Get(ctx context.Context, matchID string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) ActiveMatchFor(ctx context.Context, playerID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.HasPlayer(playerID) && !m.Status.Terminal() {
			return m.ID, nil
		}
	}
	return "", nil
}

func (f *fakeStore) SetRoomCode(ctx context.Context, matchID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return ErrNotFound
	}
	if m.Status != models.StatusAwaitingCode {
		return ErrInvalidMatchState
	}
	m.RoomCode = sql.NullString{String: code, Valid: true}
	m.Status = models.StatusInProgress
	return nil
}

func (f *fakeStore) SetEvidence(ctx context.Context, matchID string, playerID int64, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return ErrNotFound
	}
	if m.Status != models.StatusInProgress {
		return ErrInvalidMatchState
	}
	if playerID == m.Player1ID {
		m.P1Evidence = sql.NullString{String: ref, Valid: true}
	} else {
		m.P2Evidence = sql.NullString{String: ref, Valid: true}
	}
	return nil
}

func (f *fakeStore) Cancel(ctx context.Context, matchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return ErrNotFound
	}
	if m.Status != models.StatusInProgress {
		return ErrAlreadyResolved
	}
	m.Status = models.StatusCancelled
	return nil
}

// Finalize mirrors the production store: one atomic commit behind a status
// compare-and-set.
func (f *fakeStore) Finalize(ctx context.Context, r Resolution) error {
	f.mu.Lock()
	m, ok := f.matches[r.MatchID]
	if !ok {
		f.mu.Unlock()
		return ErrNotFound
	}
	if m.Status != models.StatusInProgress {
		f.mu.Unlock()
		return ErrAlreadyResolved
	}
	m.Status = models.StatusCompleted
	m.WinnerID = sql.NullInt64{Int64: r.WinnerID, Valid: true}
	f.mu.Unlock()

	f.players.mu.Lock()
	if w, ok := f.players.players[r.WinnerID]; ok {
		w.Rating = r.WinnerRating
		w.Wins++
	}
	if l, ok := f.players.players[r.LoserID]; ok {
		l.Rating = r.LoserRating
		l.Losses++
	}
	f.players.mu.Unlock()

	if r.Payout > 0 {
		return f.ledger.Adjust(ctx, r.WinnerID, r.Payout, "match_win", "")
	}
	return nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]time.Duration
	cancelled map[string]bool
}

func (f *fakeScheduler) ScheduleOnce(ctx context.Context, matchID string, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled[matchID] = delay
	return nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, matchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled[matchID] = true
	return nil
}

type notification struct {
	playerID int64
	event    string
	data     map[string]interface{}
}

type fakeNotifier struct {
	mu          sync.Mutex
	player      []notification
	adminEvents []string
	posted      int
	retracted   []string
}

func (f *fakeNotifier) NotifyPlayer(playerID int64, event string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.player = append(f.player, notification{playerID: playerID, event: event, data: data})
}

func (f *fakeNotifier) NotifyAdmins(event string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminEvents = append(f.adminEvents, event)
}

func (f *fakeNotifier) PostChallenge(ch *Challenge) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted++
	return fmt.Sprintf("ref_%d", f.posted)
}

func (f *fakeNotifier) RetractChallenge(ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retracted = append(f.retracted, ref)
}

func (f *fakeNotifier) playerEvents(playerID int64, event string) []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification
	for _, n := range f.player {
		if n.playerID == playerID && n.event == event {
			out = append(out, n)
		}
	}
	return out
}

// ---- harness ----

type testEnv struct {
	eng     *Engine
	players *fakePlayers
	ledger  *fakeLedger
	store   *fakeStore
	sched   *fakeScheduler
	notify  *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fp := &fakePlayers{players: make(map[int64]*models.Player)}
	fl := &fakeLedger{players: fp}
	fs := &fakeStore{matches: make(map[string]*models.Match), players: fp, ledger: fl}
	sc := &fakeScheduler{scheduled: make(map[string]time.Duration), cancelled: make(map[string]bool)}
	fn := &fakeNotifier{}
	cfg := &config.Config{
		MatchTimeoutMinutes: 15,
		RakePercent:         10,
		EloKFactor:          32,
		DefaultRating:       1000,
		AllowFreeMatches:    true,
	}
	return &testEnv{
		eng:     New(fp, fl, fs, sc, fn, cfg),
		players: fp,
		ledger:  fl,
		store:   fs,
		sched:   sc,
		notify:  fn,
	}
}

func (env *testEnv) addPlayer(id int64, balance float64) {
	env.players.mu.Lock()
	defer env.players.mu.Unlock()
	env.players.players[id] = &models.Player{
		ID:           id,
		Username:     fmt.Sprintf("player%d", id),
		IsRegistered: true,
		Balance:      balance,
		Rating:       1000,
	}
}

func (env *testEnv) balance(t *testing.T, id int64) float64 {
	t.Helper()
	b, err := env.ledger.Balance(context.Background(), id)
	require.NoError(t, err)
	return b
}

// startMatch walks two players to an in-progress match at the given stake.
func (env *testEnv) startMatch(t *testing.T, p1, p2 int64, stake float64) *models.Match {
	t.Helper()
	ctx := context.Background()
	res, err := env.eng.RequestMatch(ctx, p2, stake)
	require.NoError(t, err)
	require.False(t, res.Matched)

	res, err = env.eng.RequestMatch(ctx, p1, stake)
	require.NoError(t, err)
	require.True(t, res.Matched)
	require.Equal(t, p1, res.Match.Player1ID)
	require.Equal(t, p2, res.Match.Player2ID)

	require.NoError(t, env.eng.SetRoomCode(ctx, res.Match.ID, p1, "ROOM42"))
	m, err := env.store.Get(ctx, res.Match.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusInProgress, m.Status)
	return m
}

// ---- matchmaking ----

func TestRequestMatchQueuesFirstPlayer(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)

	res, err := env.eng.RequestMatch(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	require.NotNil(t, res.Challenge)
	assert.Equal(t, int64(1), res.Challenge.PlayerID)
	assert.Equal(t, 1, env.eng.QueueLen())

	// No escrow until a pairing happens.
	assert.Equal(t, 100.0, env.balance(t, 1))
}

func TestRequestMatchRejectsSecondSearch(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)

	_, err := env.eng.RequestMatch(context.Background(), 1, 50)
	require.NoError(t, err)
	_, err = env.eng.RequestMatch(context.Background(), 1, 50)
	assert.ErrorIs(t, err, ErrAlreadySearching)
}

func TestRequestMatchValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	ctx := context.Background()

	_, err := env.eng.RequestMatch(ctx, 1, -5)
	assert.ErrorIs(t, err, ErrInvalidStake)

	_, err = env.eng.RequestMatch(ctx, 99, 50)
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = env.eng.RequestMatch(ctx, 1, 500)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	env.players.mu.Lock()
	env.players.players[1].IsBanned = true
	env.players.mu.Unlock()
	_, err = env.eng.RequestMatch(ctx, 1, 50)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestRequestMatchPairsAtSameStake(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	ctx := context.Background()

	_, err := env.eng.RequestMatch(ctx, 2, 50)
	require.NoError(t, err)

	res, err := env.eng.RequestMatch(ctx, 1, 50)
	require.NoError(t, err)
	require.True(t, res.Matched)

	// The requester who completed the pair provides the room code.
	assert.Equal(t, int64(1), res.Match.Player1ID)
	assert.Equal(t, int64(2), res.Match.Player2ID)
	assert.Equal(t, models.StatusAwaitingCode, res.Match.Status)
	assert.Equal(t, 0, env.eng.QueueLen())

	// Both stakes escrowed exactly once.
	assert.Equal(t, 50.0, env.balance(t, 1))
	assert.Equal(t, 50.0, env.balance(t, 2))
	assert.Len(t, env.ledger.entriesFor(1, "match_entry"), 1)
	assert.Len(t, env.ledger.entriesFor(2, "match_entry"), 1)
}

func TestRequestMatchIgnoresDifferentStake(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 200)
	env.addPlayer(2, 200)
	ctx := context.Background()

	_, err := env.eng.RequestMatch(ctx, 1, 50)
	require.NoError(t, err)

	res, err := env.eng.RequestMatch(ctx, 2, 100)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, 2, env.eng.QueueLen())
}

func TestRequestMatchBlocksPlayerInLiveMatch(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	env.startMatch(t, 1, 2, 50)

	_, err := env.eng.RequestMatch(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrAlreadySearching)
}

func TestRequestMatchConcurrentPairing(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	env.addPlayer(3, 100)
	ctx := context.Background()

	_, err := env.eng.RequestMatch(ctx, 1, 50)
	require.NoError(t, err)

	// Two players race for the single waiting challenge.
	results := make([]*JoinResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, pid := range []int64{2, 3} {
		wg.Add(1)
		go func(i int, pid int64) {
			defer wg.Done()
			results[i], errs[i] = env.eng.RequestMatch(ctx, pid, 50)
		}(i, pid)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	matched := 0
	for _, res := range results {
		if res.Matched {
			matched++
			assert.True(t, res.Match.HasPlayer(1))
		}
	}
	assert.Equal(t, 1, matched)
	assert.Equal(t, 1, env.eng.QueueLen())

	// Player 1's stake left escrow exactly once.
	assert.Len(t, env.ledger.entriesFor(1, "match_entry"), 1)
	assert.Equal(t, 50.0, env.balance(t, 1))
}

func TestCancelSearch(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	ctx := context.Background()

	existed, err := env.eng.CancelSearch(ctx, 1)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = env.eng.RequestMatch(ctx, 1, 50)
	require.NoError(t, err)

	existed, err = env.eng.CancelSearch(ctx, 1)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, 0, env.eng.QueueLen())
	assert.NotEmpty(t, env.notify.retracted)
}

// ---- lifecycle ----

func TestSetRoomCodeOnlyPlayer1(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	ctx := context.Background()

	_, err := env.eng.RequestMatch(ctx, 2, 50)
	require.NoError(t, err)
	res, err := env.eng.RequestMatch(ctx, 1, 50)
	require.NoError(t, err)

	err = env.eng.SetRoomCode(ctx, res.Match.ID, 2, "ROOM42")
	assert.ErrorIs(t, err, ErrNotParticipant)

	require.NoError(t, env.eng.SetRoomCode(ctx, res.Match.ID, 1, "ROOM42"))

	// The evidence window starts when the code is set.
	env.sched.mu.Lock()
	delay := env.sched.scheduled[res.Match.ID]
	env.sched.mu.Unlock()
	assert.Equal(t, 15*time.Minute, delay)

	// A second code after the match started is rejected.
	err = env.eng.SetRoomCode(ctx, res.Match.ID, 1, "ROOM43")
	assert.ErrorIs(t, err, ErrInvalidMatchState)
}

func TestSubmitEvidenceStateChecks(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	ctx := context.Background()

	_, err := env.eng.RequestMatch(ctx, 2, 50)
	require.NoError(t, err)
	res, err := env.eng.RequestMatch(ctx, 1, 50)
	require.NoError(t, err)

	// No evidence before the room code exchange.
	err = env.eng.SubmitEvidence(ctx, res.Match.ID, 1, "shot1")
	assert.ErrorIs(t, err, ErrInvalidMatchState)

	require.NoError(t, env.eng.SetRoomCode(ctx, res.Match.ID, 1, "ROOM42"))

	err = env.eng.SubmitEvidence(ctx, res.Match.ID, 99, "shot1")
	assert.ErrorIs(t, err, ErrNotParticipant)

	require.NoError(t, env.eng.SubmitEvidence(ctx, res.Match.ID, 1, "shot1"))

	// Resubmission overwrites.
	require.NoError(t, env.eng.SubmitEvidence(ctx, res.Match.ID, 1, "shot2"))
	m, err := env.store.Get(ctx, res.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, "shot2", m.P1Evidence.String)
	assert.Empty(t, env.notify.adminEvents)

	// Both slots filled flags the match for adjudication, state unchanged.
	require.NoError(t, env.eng.SubmitEvidence(ctx, res.Match.ID, 2, "shot3"))
	assert.Contains(t, env.notify.adminEvents, "adjudication_needed")
	m, err = env.store.Get(ctx, res.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, m.Status)
}

// ---- resolution ----

func TestResolveAppliesRatingsAndPayout(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 50)

	require.NoError(t, env.eng.Resolve(context.Background(), m.ID, 1))

	// 50 escrowed, pool of 100 minus 10% rake pays 90.
	assert.Equal(t, 140.0, env.balance(t, 1))
	assert.Equal(t, 50.0, env.balance(t, 2))

	env.players.mu.Lock()
	winner := *env.players.players[1]
	loser := *env.players.players[2]
	env.players.mu.Unlock()
	assert.Equal(t, 1016, winner.Rating)
	assert.Equal(t, 984, loser.Rating)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 1, loser.Losses)

	got, err := env.store.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, int64(1), got.WinnerID.Int64)

	// The pending timer is torn down.
	env.sched.mu.Lock()
	cancelled := env.sched.cancelled[m.ID]
	env.sched.mu.Unlock()
	assert.True(t, cancelled)

	assert.Len(t, env.notify.playerEvents(1, "match_won"), 1)
	assert.Len(t, env.notify.playerEvents(2, "match_lost"), 1)
}

func TestResolveZeroStakeAwardsNoPayout(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 0)

	require.NoError(t, env.eng.Resolve(context.Background(), m.ID, 2))

	assert.Equal(t, 100.0, env.balance(t, 1))
	assert.Equal(t, 100.0, env.balance(t, 2))

	// Ratings still move even without money on the line.
	env.players.mu.Lock()
	defer env.players.mu.Unlock()
	assert.Equal(t, 1016, env.players.players[2].Rating)
	assert.Equal(t, 984, env.players.players[1].Rating)
}

func TestResolveTwiceReportsAlreadyResolved(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 50)
	ctx := context.Background()

	require.NoError(t, env.eng.Resolve(ctx, m.ID, 1))
	err := env.eng.Resolve(ctx, m.ID, 2)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// Effects applied exactly once.
	assert.Equal(t, 140.0, env.balance(t, 1))
	assert.Len(t, env.ledger.entriesFor(1, "match_win"), 1)
}

func TestResolveConcurrentOnlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 50)
	ctx := context.Background()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, winner := range []int64{1, 2} {
		wg.Add(1)
		go func(i int, winner int64) {
			defer wg.Done()
			errs[i] = env.eng.Resolve(ctx, m.ID, winner)
		}(i, winner)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyResolved)
		}
	}
	assert.Equal(t, 1, succeeded)

	// Only one payout left the house.
	total := env.balance(t, 1) + env.balance(t, 2)
	assert.Equal(t, 190.0, total)
}

func TestResolveRejectsOutsiderAndWrongState(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	ctx := context.Background()

	_, err := env.eng.RequestMatch(ctx, 2, 50)
	require.NoError(t, err)
	res, err := env.eng.RequestMatch(ctx, 1, 50)
	require.NoError(t, err)

	// Still awaiting the room code.
	err = env.eng.Resolve(ctx, res.Match.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidMatchState)

	require.NoError(t, env.eng.SetRoomCode(ctx, res.Match.ID, 1, "ROOM42"))
	err = env.eng.Resolve(ctx, res.Match.ID, 99)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

// ---- timeout ----

func TestTimeoutOneSidedEvidenceDecides(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 30)
	ctx := context.Background()

	require.NoError(t, env.eng.SubmitEvidence(ctx, m.ID, 2, "screenshot"))
	require.NoError(t, env.eng.Timeout(ctx, m.ID))

	got, err := env.store.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, int64(2), got.WinnerID.Int64)

	// 30 staked, 54 paid out.
	assert.Equal(t, 124.0, env.balance(t, 2))
	assert.Equal(t, 70.0, env.balance(t, 1))

	env.players.mu.Lock()
	defer env.players.mu.Unlock()
	assert.Equal(t, 1016, env.players.players[2].Rating)
	assert.Equal(t, 984, env.players.players[1].Rating)
}

func TestTimeoutNoEvidenceCancelsAndRefunds(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 30)
	ctx := context.Background()

	require.NoError(t, env.eng.Timeout(ctx, m.ID))

	got, err := env.store.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	assert.Equal(t, 100.0, env.balance(t, 1))
	assert.Equal(t, 100.0, env.balance(t, 2))

	// No rating movement on a void match.
	env.players.mu.Lock()
	assert.Equal(t, 1000, env.players.players[1].Rating)
	assert.Equal(t, 1000, env.players.players[2].Rating)
	env.players.mu.Unlock()

	assert.Len(t, env.notify.playerEvents(1, "match_cancelled"), 1)
	assert.Len(t, env.notify.playerEvents(2, "match_cancelled"), 1)
}

func TestTimeoutContestedLeavesMatchOpen(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 30)
	ctx := context.Background()

	require.NoError(t, env.eng.SubmitEvidence(ctx, m.ID, 1, "i-won"))
	require.NoError(t, env.eng.SubmitEvidence(ctx, m.ID, 2, "no-i-won"))
	require.NoError(t, env.eng.Timeout(ctx, m.ID))

	got, err := env.store.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, 70.0, env.balance(t, 1))
	assert.Contains(t, env.notify.adminEvents, "adjudication_overdue")

	// Adjudication can still settle it afterwards.
	require.NoError(t, env.eng.Resolve(ctx, m.ID, 1))
	assert.Equal(t, 124.0, env.balance(t, 1))
}

func TestTimeoutAfterResolutionIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 50)
	ctx := context.Background()

	require.NoError(t, env.eng.Resolve(ctx, m.ID, 1))
	require.NoError(t, env.eng.Timeout(ctx, m.ID))

	// No refund after a completed match.
	assert.Equal(t, 140.0, env.balance(t, 1))
	assert.Equal(t, 50.0, env.balance(t, 2))
}

func TestTimeoutUnknownMatchIsNoop(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.eng.Timeout(context.Background(), "nope1234"))
}

// ---- admin cancel ----

func TestCancelMatchRefundsBoth(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(1, 100)
	env.addPlayer(2, 100)
	m := env.startMatch(t, 1, 2, 40)
	ctx := context.Background()

	require.NoError(t, env.eng.CancelMatch(ctx, m.ID))

	got, err := env.store.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, 100.0, env.balance(t, 1))
	assert.Equal(t, 100.0, env.balance(t, 2))

	err = env.eng.CancelMatch(ctx, m.ID)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}
