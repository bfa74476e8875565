package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/radieske/surebet-promoter/internal/api/http"
	"github.com/radieske/surebet-promoter/internal/api/ws"
	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/internal/shared/cache"
	"github.com/radieske/surebet-promoter/internal/shared/config"
	"github.com/radieske/surebet-promoter/internal/shared/db"
	"github.com/radieske/surebet-promoter/internal/shared/logger"
	"github.com/radieske/surebet-promoter/internal/shared/metrics"
	"github.com/radieske/surebet-promoter/internal/storage"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := ws.NewHub(func(r *http.Request) bool { return true }, log)
	ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)

	api := &httpapi.API{
		Log:      log,
		Matches:  storage.NewPostgresMatches(pg),
		Promoted: storage.NewPostgresPromoted(pg),
		Settings: settings.NewStore(storage.NewPostgresSettings(pg), settings.NewRedisCache(redisClient, time.Minute), log),
		WS:       hub.HandleWS,
	}

	metrics.StartMetricsServer(cfg.MetricsPort,
		func(ctx context.Context) error { return pg.PingContext(ctx) },
		cache.Health(redisClient),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Info("promoter-api listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("http server failed", zap.Error(err))
	}
	log.Info("promoter-api stopped")
}
