// Package cache conecta o Redis usado pelo cache de settings e pelo
// pub/sub do broadcast de promoções.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// ConnectRedis aceita "host:port" ou uma URL redis:// (senha e db no path)
// e só devolve o client depois de um PING bem-sucedido.
func ConnectRedis(addr string) (*redis.Client, error) {
	opts, err := options(addr)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func options(addr string) (*redis.Options, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		var err error
		if opts, err = redis.ParseURL(addr); err != nil {
			return nil, err
		}
	} else {
		opts = &redis.Options{Addr: addr}
	}
	// leituras do cache de settings acontecem em toda decisão: timeout curto
	// e o chamador cai no banco
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	return opts, nil
}

// Health devolve o check de /healthz do Redis
func Health(c *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error { return c.Ping(ctx).Err() }
}
