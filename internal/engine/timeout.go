package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// timeoutKey is the sorted set of pending match deadlines, scored by the
// unix second the evidence window closes.
const timeoutKey = "match_timeouts"

// RedisScheduler keeps per-match one-shot deadlines in a Redis sorted set.
// Entries survive a process restart; the worker picks them up again.
type RedisScheduler struct {
	rdb *redis.Client
}

func NewRedisScheduler(rdb *redis.Client) *RedisScheduler {
	return &RedisScheduler{rdb: rdb}
}

// ScheduleOnce registers (or reschedules) the match's deadline.
func (s *RedisScheduler) ScheduleOnce(ctx context.Context, matchID string, delay time.Duration) error {
	deadline := float64(time.Now().Add(delay).Unix())
	if err := s.rdb.ZAdd(ctx, timeoutKey, redis.Z{Score: deadline, Member: matchID}).Err(); err != nil {
		return fmt.Errorf("schedule timeout for match %s: %w", matchID, err)
	}
	return nil
}

// Cancel drops the match's deadline. Removing an entry that already fired
// is a safe no-op.
func (s *RedisScheduler) Cancel(ctx context.Context, matchID string) error {
	if err := s.rdb.ZRem(ctx, timeoutKey, matchID).Err(); err != nil {
		return fmt.Errorf("cancel timeout for match %s: %w", matchID, err)
	}
	return nil
}

// StartTimeoutWorker polls for elapsed deadlines and fires them into the
// lifecycle. ZRem before firing makes the claim race-safe when several
// workers run; the lifecycle's state guard makes a late callback harmless.
func StartTimeoutWorker(ctx context.Context, eng *Engine, rdb *redis.Client, pollSeconds int) {
	if pollSeconds <= 0 {
		pollSeconds = 5
	}
	ticker := time.NewTicker(time.Duration(pollSeconds) * time.Second)
	defer ticker.Stop()

	log.Printf("[TIMEOUT] Timeout worker started (poll every %ds)", pollSeconds)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[TIMEOUT] Timeout worker stopped")
			return
		case <-ticker.C:
			now := fmt.Sprintf("%d", time.Now().Unix())
			members, err := rdb.ZRangeByScore(ctx, timeoutKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
			if err != nil {
				log.Printf("[TIMEOUT] Failed to fetch elapsed deadlines: %v", err)
				continue
			}
			for _, matchID := range members {
				removed, err := rdb.ZRem(ctx, timeoutKey, matchID).Result()
				if err != nil || removed == 0 {
					continue
				}
				if err := eng.Timeout(ctx, matchID); err != nil {
					log.Printf("[TIMEOUT] Timeout handling failed for match %s: %v", matchID, err)
				}
			}
		}
	}
}
