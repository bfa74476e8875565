package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type Writer = kafka.Writer

type Reader = kafka.Reader

type Message = kafka.Message

func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(splitBrokers(brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // mesma partida sempre na mesma partição
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
	}
}

// NewReader cria um reader de consumer group sem auto-commit: quem consome
// chama CommitMessages depois de processar (entrega at-least-once).
func NewReader(brokers string, topic string, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        splitBrokers(brokers),
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}

// WriteJSON serializa v e publica com a chave informada
func WriteJSON(ctx context.Context, w *kafka.Writer, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal kafka payload: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}

	return w.WriteMessages(ctx, msg)
}

// WriteDeadLetter republica a mensagem original na DLQ, sem reserializar,
// com consumidor, tópico e offset de origem nos headers
func WriteDeadLetter(ctx context.Context, w MessageWriter, consumer string, src kafka.Message) error {
	return w.WriteMessages(ctx, kafka.Message{
		Key:   src.Key,
		Value: src.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "dlq-consumer", Value: []byte(consumer)},
			{Key: "dlq-topic", Value: []byte(src.Topic)},
			{Key: "dlq-offset", Value: []byte(strconv.FormatInt(src.Offset, 10))},
		},
	})
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
