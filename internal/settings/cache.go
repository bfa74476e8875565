package settings

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda a tabela settings inteira; qualquer escrita invalida tudo.
// Generation muda a cada Invalidate: Save com geração antiga não grava,
// assim uma leitura lenta do banco não repõe valores de antes da escrita.
type Cache interface {
	Load(ctx context.Context) (map[string]string, bool, error)
	Generation(ctx context.Context) (int64, error)
	Save(ctx context.Context, gen int64, values map[string]string) error
	Invalidate(ctx context.Context) error
}

const (
	cacheKey = "settings:all"
	genKey   = "settings:gen"
)

// RedisCache mantém a tabela num hash com TTL como rede de segurança
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func (r *RedisCache) Load(ctx context.Context) (map[string]string, bool, error) {
	m, err := r.Client.HGetAll(ctx, cacheKey).Result()
	if err != nil {
		return nil, false, err
	}
	// hash vazio = cache frio (settings vazia também cai aqui e relê o banco)
	if len(m) == 0 {
		return nil, false, nil
	}
	return m, true, nil
}

func (r *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := r.Client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Save grava sob WATCH da geração: Invalidate concorrente aborta a transação
func (r *RedisCache) Save(ctx context.Context, gen int64, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}
	err := r.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, cacheKey)
			pipe.HSet(ctx, cacheKey, fields)
			if r.TTL > 0 {
				pipe.Expire(ctx, cacheKey, r.TTL)
			}
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	pipe := r.Client.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Del(ctx, cacheKey)
	_, err := pipe.Exec(ctx)
	return err
}
