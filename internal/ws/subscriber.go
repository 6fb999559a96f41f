package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/efootballarena/backend/internal/notify"
)

// StartEventSubscriber bridges the backend's pub/sub channels onto
// websocket clients: player events go to the addressed player, lobby
// events go to everyone.
func StartEventSubscriber(ctx context.Context, hub *Hub, rdb *redis.Client) {
	pubsub := rdb.Subscribe(ctx, notify.ChannelPlayers, notify.ChannelLobby)
	ch := pubsub.Channel()
	go func() {
		log.Printf("[WS] Event subscriber started on %s, %s", notify.ChannelPlayers, notify.ChannelLobby)
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] Invalid event payload on %s: %v", msg.Channel, err)
				continue
			}

			if msg.Channel == notify.ChannelLobby {
				hub.Broadcast(payload)
				continue
			}

			id, ok := payload["player_id"].(float64)
			if !ok {
				log.Printf("[WS] Player event without player_id: %s", msg.Payload)
				continue
			}
			hub.SendToPlayer(int64(id), payload)
		}
	}()
}
