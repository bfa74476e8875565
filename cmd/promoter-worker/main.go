package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/crown"
	"github.com/radieske/surebet-promoter/internal/crown/browser"
	"github.com/radieske/surebet-promoter/internal/discovery"
	"github.com/radieske/surebet-promoter/internal/fotmob"
	"github.com/radieske/surebet-promoter/internal/promotion"
	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/internal/shared/cache"
	"github.com/radieske/surebet-promoter/internal/shared/config"
	"github.com/radieske/surebet-promoter/internal/shared/db"
	"github.com/radieske/surebet-promoter/internal/shared/kafka"
	"github.com/radieske/surebet-promoter/internal/shared/logger"
	"github.com/radieske/surebet-promoter/internal/shared/metrics"
	"github.com/radieske/surebet-promoter/internal/shared/workqueue"
	"github.com/radieske/surebet-promoter/internal/steam"
	"github.com/radieske/surebet-promoter/internal/storage"
	"github.com/radieske/surebet-promoter/internal/titan007"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	matches := storage.NewPostgresMatches(pg)
	odds := storage.NewPostgresOdds(pg)
	promoted := storage.NewPostgresPromoted(pg)
	snapshots := storage.NewPostgresSnapshots(pg)
	trends := storage.NewPostgresTrends(pg)
	thresholds := settings.NewStore(storage.NewPostgresSettings(pg), settings.NewRedisCache(redisClient, time.Minute), log)

	// Métricas Prometheus
	signals := prometheus.NewCounter(prometheus.CounterOpts{Name: "promoter_signals_consumed_total", Help: "sinais do surebet consumidos"})
	readyOdds := prometheus.NewCounter(prometheus.CounterOpts{Name: "promoter_odds_ready_total", Help: "odds que passaram no estágio 1"})
	promotedBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "promoter_promoted_total", Help: "recomendações criadas"}, []string{"channel", "visible"})
	ignored := prometheus.NewCounter(prometheus.CounterOpts{Name: "promoter_odds_ignored_total", Help: "odds descartadas no estágio 2"})
	linked := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "promoter_matches_linked_total", Help: "partidas ligadas a fontes externas"}, []string{"source"})
	discovered := prometheus.NewCounter(prometheus.CounterOpts{Name: "promoter_matches_discovered_total", Help: "partidas criadas pela descoberta"})
	steamSnaps := prometheus.NewCounter(prometheus.CounterOpts{Name: "promoter_steam_snapshots_total", Help: "snapshots da crown gravados"})
	resets := prometheus.NewCounter(prometheus.CounterOpts{Name: "promoter_crown_session_resets_total", Help: "resets da sessão crown"})
	reconnects := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "promoter_consumer_reconnects_total", Help: "reaberturas do reader"}, []string{"consumer"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "promoter_errors_total", Help: "erros por estágio"}, []string{"stage"})
	crownWait := metrics.WaitHistogram("promoter_crown_wait_seconds", "espera na fila da sessão crown")
	titanWait := metrics.WaitHistogram("promoter_titan007_wait_seconds", "espera na fila do titan007")
	fotmobWait := metrics.WaitHistogram("promoter_fotmob_wait_seconds", "espera na fila do fotmob")
	prometheus.MustRegister(signals, readyOdds, promotedBy, ignored, linked, discovered, steamSnaps,
		resets, reconnects, errorsBy, crownWait, titanWait, fotmobWait)

	// Sessão crown única, compartilhada por todos os loops
	crownLimiter := workqueue.NewRateLimiter(cfg.CrownInterval)
	crownLimiter.OnWait = func(d time.Duration) { crownWait.Observe(d.Seconds()) }
	session := crown.NewSession(browser.Acquirer(browser.Config{
		BaseURL:   cfg.CrownBaseURL,
		Username:  cfg.CrownUsername,
		Password:  cfg.CrownPassword,
		Headless:  cfg.Env != "local",
		LoginWait: 5 * time.Second,
	}, log), crownLimiter, cfg.CrownIdleRefresh, cfg.CrownTimezoneHour, log)
	defer session.Close()
	// login antecipado; falha aqui só adia a sessão para a primeira chamada
	if err := session.Warm(ctx); err != nil {
		log.Warn("crown session warm-up failed", zap.Error(err))
	}

	guard := promotion.NewFailureGuard(cfg.ScrapeFailureCeiling, session)
	guard.OnReset = func() { resets.Inc() }

	titan := titan007.New(cfg.Titan007BaseURL, cfg.HTTPTimeout, cfg.Titan007Interval)
	titan.Limiter().OnWait = func(d time.Duration) { titanWait.Observe(d.Seconds()) }
	fm := fotmob.New(cfg.FotmobBaseURL, cfg.HTTPTimeout, cfg.FotmobInterval)
	fm.Limiter().OnWait = func(d time.Duration) { fotmobWait.Observe(d.Seconds()) }

	contWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicContinuation)
	defer contWriter.Close()
	promotedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPromoted)
	defer promotedWriter.Close()
	signalsDLQ := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSignalsDLQ)
	defer signalsDLQ.Close()
	contDLQ := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicContinuationDLQ)
	defer contDLQ.Close()
	publisher := &promotion.KafkaPublisher{Continuation: contWriter, Promoted: promotedWriter}

	ready := &promotion.ReadyChecker{
		Log: log, Matches: matches, Odds: odds, Crown: session,
		Settings: thresholds, Publisher: publisher, Guard: guard,
		Messages: storage.NewPostgresMessages(pg),
		OnReady:  func() { readyOdds.Inc() },
	}
	sweeper := &promotion.ReadySweeper{
		Log: log, Matches: matches, Odds: odds, Checker: ready,
		Interval: cfg.ReadySweepInterval,
	}
	continuation := &promotion.ContinuationHandler{
		Log: log, Matches: matches, Trends: trends, Titan007: titan, Fotmob: fm,
		OnLinked: func(source string) { linked.WithLabelValues(source).Inc() },
	}
	final := &promotion.FinalPoller{
		Log: log, Matches: matches, Settings: thresholds, Interval: cfg.FinalPollInterval,
		Checker: &promotion.FinalChecker{
			Log: log, Matches: matches, Odds: odds, Promoted: promoted, Trends: trends,
			Refresher: continuation, Crown: session, Settings: thresholds,
			Publisher: publisher, Guard: guard,
			OnPromoted: func(visible bool) {
				promotedBy.WithLabelValues("surebet", fmt.Sprint(visible)).Inc()
			},
			OnIgnored: func() { ignored.Inc() },
		},
	}
	disc := &discovery.Worker{
		Log: log, Matches: matches, Crown: session, Interval: cfg.DiscoveryInterval,
		OnCreated: func() { discovered.Inc() },
	}
	steamPoller := &steam.Poller{
		Log: log, Matches: matches, Promoted: promoted,
		Recorder: &steam.Recorder{Snapshots: snapshots}, Series: snapshots,
		Crown: session, Settings: thresholds, Notifier: publisher, Guard: guard,
		Interval:   cfg.SteamPollInterval,
		OnSnapshot: func() { steamSnaps.Inc() },
		OnPromoted: func() { promotedBy.WithLabelValues("steam", "true").Inc() },
	}

	signalConsumer := &kafka.Consumer{
		Log:  log,
		Name: "signals",
		Open: func() kafka.MessageReader {
			return kafka.NewReader(cfg.KafkaBrokers, cfg.TopicSignals, cfg.SignalsConsumerGroup)
		},
		DLQ:         signalsDLQ,
		Handle:      promotion.SignalHandler(ready),
		Backoff:     cfg.SignalReaderIdleBackoff,
		OnConsumed:  func() { signals.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues("signals_" + stage).Inc() },
		OnReconnect: func() { reconnects.WithLabelValues("signals").Inc() },
	}
	contConsumer := &kafka.Consumer{
		Log:  log,
		Name: "continuation",
		Open: func() kafka.MessageReader {
			return kafka.NewReader(cfg.KafkaBrokers, cfg.TopicContinuation, cfg.ContinuationGroup)
		},
		DLQ:         contDLQ,
		Handle:      promotion.ContinuationMessageHandler(continuation),
		OnError:     func(stage string) { errorsBy.WithLabelValues("continuation_" + stage).Inc() },
		OnReconnect: func() { reconnects.WithLabelValues("continuation").Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort,
		func(ctx context.Context) error { return pg.PingContext(ctx) },
		cache.Health(redisClient),
	)
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	loops := map[string]func(context.Context) error{
		"signals":      signalConsumer.Run,
		"continuation": contConsumer.Run,
		"ready-sweep":  sweeper.Run,
		"final-poll":   final.Run,
		"discovery":    disc.Run,
		"steam":        steamPoller.Run,
	}

	log.Info("promoter-worker started")
	var wg sync.WaitGroup
	for name, run := range loops {
		name, run := name, run
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && ctx.Err() == nil {
				log.Error("loop stopped with error", zap.String("loop", name), zap.Error(err))
				cancel()
			}
		}()
	}
	wg.Wait()
	log.Info("promoter-worker stopped")
}
