package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/fotmob"
	"github.com/radieske/surebet-promoter/internal/settlement"
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

	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_results_total", Help: "recomendações apuradas por resultado"}, []string{"result"})
	fotmobWait := metrics.WaitHistogram("settlement_fotmob_wait_seconds", "espera na fila do fotmob")
	prometheus.MustRegister(settled, fotmobWait)

	fm := fotmob.New(cfg.FotmobBaseURL, cfg.HTTPTimeout, cfg.FotmobInterval)
	fm.Limiter().OnWait = func(d time.Duration) { fotmobWait.Observe(d.Seconds()) }

	w := &settlement.Worker{
		Log:       log,
		Matches:   storage.NewPostgresMatches(pg),
		Promoted:  storage.NewPostgresPromoted(pg),
		Scores:    fm,
		Interval:  cfg.SettleInterval,
		After:     cfg.SettleAfter,
		OnSettled: func(r settlement.Result) { settled.WithLabelValues(string(r)).Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return pg.PingContext(ctx) })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-worker started")
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("settlement worker stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
