package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/notify"
	"github.com/radieske/surebet-promoter/internal/shared/cache"
	"github.com/radieske/surebet-promoter/internal/shared/config"
	"github.com/radieske/surebet-promoter/internal/shared/db"
	"github.com/radieske/surebet-promoter/internal/shared/kafka"
	"github.com/radieske/surebet-promoter/internal/shared/logger"
	"github.com/radieske/surebet-promoter/internal/shared/metrics"
	"github.com/radieske/surebet-promoter/internal/storage"
)

// intervalo mínimo entre mensagens no mesmo chat do Telegram
const telegramInterval = 3 * time.Second

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

	bot, err := notify.ConnectBot(cfg.TelegramToken)
	if err != nil {
		log.Fatal("telegram connect", zap.Error(err))
	}

	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "notifier_messages_consumed_total", Help: "avisos consumidos"})
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "notifier_messages_sent_total", Help: "mensagens enviadas por canal"}, []string{"channel"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "notifier_errors_total", Help: "erros por estágio"}, []string{"stage"})
	tgWait := metrics.WaitHistogram("notifier_telegram_wait_seconds", "espera na fila do telegram")
	prometheus.MustRegister(consumed, sent, errorsBy, tgWait)

	tg := notify.NewTelegram(bot, cfg.TelegramChatID, telegramInterval)
	tg.Limiter().OnWait = func(d time.Duration) { tgWait.Observe(d.Seconds()) }

	h := &notify.Handler{
		Log:         log,
		Promoted:    storage.NewPostgresPromoted(pg),
		Matches:     storage.NewPostgresMatches(pg),
		Messenger:   tg,
		Broadcaster: notify.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		Dedupe:      notify.NewRedisDeduper(redisClient, 48*time.Hour),
		OnSent:      func(channel int) { sent.WithLabelValues(strconv.Itoa(channel)).Inc() },
	}

	consumer := &kafka.Consumer{
		Log:  log,
		Name: "promoted",
		Open: func() kafka.MessageReader {
			return kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPromoted, cfg.NotifierConsumerGroup)
		},
		Handle:     h.HandleMessage,
		OnConsumed: func() { consumed.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort,
		func(ctx context.Context) error { return pg.PingContext(ctx) },
		cache.Health(redisClient),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("notifier started")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("notifier stopped with error", zap.Error(err))
	}
	log.Info("notifier stopped")
}
