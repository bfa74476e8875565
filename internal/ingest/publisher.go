package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/shared/kafka"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

type Publisher interface {
	Publish(ctx context.Context, s events.SurebetSignal) error
}

// KafkaPublisher publica sinais com a chave da partida, mantendo os sinais de
// um mesmo jogo na mesma partição
type KafkaPublisher struct {
	writer *kafkago.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(brokers, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: kafka.NewWriter(brokers, topic), log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, s events.SurebetSignal) error {
	if err := kafka.WriteJSON(ctx, p.writer, s.MatchExternalID, s); err != nil {
		return err
	}
	p.log.Debug("published surebet signal", zap.String("crown_id", s.MatchExternalID), zap.String("message_id", s.MessageID))
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// EnsureTopics cria os tópicos via controller do cluster (ambiente local/dev,
// broker único). Tópico já existente não é erro.
func EnsureTopics(ctx context.Context, broker string, log *zap.Logger, topics ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := kafkago.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}
	cconn, err := kafkago.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cconn.Close()

	for _, t := range topics {
		err := cconn.CreateTopics(kafkago.TopicConfig{Topic: t, NumPartitions: 1, ReplicationFactor: 1})
		switch {
		case err == nil:
			log.Info("kafka topic created", zap.String("topic", t))
		case strings.Contains(err.Error(), "already exists"):
		default:
			log.Warn("create kafka topic failed", zap.String("topic", t), zap.Error(err))
		}
	}
	return nil
}
