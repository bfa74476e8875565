package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

// RedisBroadcaster publica no canal lido pelo hub websocket
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, msg events.PromotedBroadcast) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// RedisDeduper marca notificações já entregues: o tópico é at-least-once
type RedisDeduper struct {
	r   *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(r *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{r: r, ttl: ttl}
}

// First devolve true só na primeira vez que o id é visto dentro do TTL
func (d *RedisDeduper) First(ctx context.Context, promotedID int64) (bool, error) {
	return d.r.SetNX(ctx, fmt.Sprintf("notified:%d", promotedID), 1, d.ttl).Result()
}

// Forget desfaz a marca quando a entrega falhou
func (d *RedisDeduper) Forget(ctx context.Context, promotedID int64) error {
	return d.r.Del(ctx, fmt.Sprintf("notified:%d", promotedID)).Err()
}
