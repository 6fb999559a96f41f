package engine

import "time"

// Challenge is a player's public search for an opponent at a given stake.
// AnnouncementRef is the opaque handle of the lobby announcement, kept so
// the announcement can be retracted when the challenge ends.
type Challenge struct {
	PlayerID        int64     `json:"player_id"`
	Stake           float64   `json:"stake"`
	EnqueuedAt      time.Time `json:"enqueued_at"`
	AnnouncementRef string    `json:"-"`
}

// Queue holds waiting challenges in arrival order. It is not safe for
// concurrent use; the engine's matchmaking lock guards every access.
type Queue struct {
	entries  []*Challenge
	byPlayer map[int64]*Challenge
}

func NewQueue() *Queue {
	return &Queue{byPlayer: make(map[int64]*Challenge)}
}

// Enqueue inserts the challenge in arrival order. A player may hold at
// most one challenge at a time.
func (q *Queue) Enqueue(ch *Challenge) error {
	if _, exists := q.byPlayer[ch.PlayerID]; exists {
		return ErrDuplicateChallenge
	}
	q.entries = append(q.entries, ch)
	q.byPlayer[ch.PlayerID] = ch
	return nil
}

// DequeueOldestMatching removes and returns the earliest-enqueued
// challenge with exactly the given stake and a different owner, or nil.
func (q *Queue) DequeueOldestMatching(stake float64, excludePlayer int64) *Challenge {
	for i, ch := range q.entries {
		if ch.Stake == stake && ch.PlayerID != excludePlayer {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			delete(q.byPlayer, ch.PlayerID)
			return ch
		}
	}
	return nil
}

// Remove removes and returns the player's challenge if present.
func (q *Queue) Remove(playerID int64) *Challenge {
	ch, exists := q.byPlayer[playerID]
	if !exists {
		return nil
	}
	for i, e := range q.entries {
		if e.PlayerID == playerID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	delete(q.byPlayer, playerID)
	return ch
}

// Get returns the player's challenge without removing it, or nil.
func (q *Queue) Get(playerID int64) *Challenge {
	return q.byPlayer[playerID]
}

// Len returns the number of waiting challenges.
func (q *Queue) Len() int {
	return len(q.entries)
}
