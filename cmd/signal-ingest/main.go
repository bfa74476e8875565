package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/ingest"
	"github.com/radieske/surebet-promoter/internal/shared/config"
	"github.com/radieske/surebet-promoter/internal/shared/logger"
	"github.com/radieske/surebet-promoter/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Em local/dev garante os tópicos antes de publicar
	if cfg.Env == "local" || cfg.Env == "dev" {
		tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
		broker := strings.Split(cfg.KafkaBrokers, ",")[0]
		if err := ingest.EnsureTopics(tctx, broker, log,
			cfg.TopicSignals, cfg.TopicSignalsDLQ,
			cfg.TopicContinuation, cfg.TopicContinuationDLQ,
			cfg.TopicPromoted,
		); err != nil {
			log.Warn("ensure topics failed", zap.Error(err))
		}
		tcancel()
	}

	received := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_frames_received_total", Help: "frames recebidos do feed"})
	invalid := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_items_invalid_total", Help: "itens descartados"})
	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_signals_published_total", Help: "sinais publicados no kafka"})
	prometheus.MustRegister(received, invalid, published)

	publisher := ingest.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicSignals, log)
	defer publisher.Close()

	metrics.StartMetricsServer(cfg.MetricsPort)
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	client := &ingest.WSClient{
		URL:         cfg.SurebetFeedURL,
		Log:         log,
		Publisher:   publisher,
		OnReceived:  func() { received.Inc() },
		OnInvalid:   func() { invalid.Inc() },
		OnPublished: func() { published.Inc() },
	}

	log.Info("signal-ingest started", zap.String("feed", cfg.SurebetFeedURL))
	client.Start(ctx)
	log.Info("signal-ingest stopped")
}
