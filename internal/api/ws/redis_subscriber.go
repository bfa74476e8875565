package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal do notifier e repassa ao Hub
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var b events.PromotedBroadcast
				if err := json.Unmarshal([]byte(msg.Payload), &b); err != nil {
					log.Warn("ws subscriber unmarshal failed", zap.Error(err))
					continue
				}
				hub.Broadcast(b)
			}
		}
	}()
}
