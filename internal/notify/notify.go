package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/efootballarena/backend/internal/engine"
)

// Redis pub/sub channels the backend publishes on. The websocket layer and
// any bot frontends subscribe to these.
const (
	ChannelPlayers = "arena_events"
	ChannelAdmins  = "admin_events"
	ChannelLobby   = "lobby_events"
)

// Service publishes engine events over Redis pub/sub. Delivery is
// fire-and-forget: a failed publish is logged and dropped, never bubbled
// back into the engine.
type Service struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Service {
	return &Service{rdb: rdb}
}

func (s *Service) publish(channel string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[NOTIFY] Failed to marshal event for %s: %v", channel, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rdb.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[NOTIFY] Failed to publish to %s: %v", channel, err)
	}
}

func (s *Service) NotifyPlayer(playerID int64, event string, data map[string]interface{}) {
	payload := map[string]interface{}{
		"player_id": playerID,
		"event":     event,
	}
	for k, v := range data {
		payload[k] = v
	}
	s.publish(ChannelPlayers, payload)
}

func (s *Service) NotifyAdmins(event string, data map[string]interface{}) {
	payload := map[string]interface{}{"event": event}
	for k, v := range data {
		payload[k] = v
	}
	s.publish(ChannelAdmins, payload)
}

// PostChallenge announces an open challenge to the lobby and returns a
// reference used to retract the announcement later.
func (s *Service) PostChallenge(ch *engine.Challenge) string {
	ref := newRef()
	s.publish(ChannelLobby, map[string]interface{}{
		"event":     "challenge_posted",
		"ref":       ref,
		"player_id": ch.PlayerID,
		"stake":     ch.Stake,
	})
	return ref
}

func (s *Service) RetractChallenge(ref string) {
	if ref == "" {
		return
	}
	s.publish(ChannelLobby, map[string]interface{}{
		"event": "challenge_retracted",
		"ref":   ref,
	})
}

func newRef() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "ch_fallback"
	}
	return "ch_" + hex.EncodeToString(b)
}
