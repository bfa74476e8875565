package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	// ErrPoison: payload nunca vai ser processável; vai para a DLQ e é commitado
	ErrPoison = errors.New("poison message")
	// ErrReconnect: o handler pediu para fechar e reabrir o reader
	ErrReconnect = errors.New("reconnect reader")
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Consumer é o loop de consumo com commit explícito (at-least-once).
// Falha de um item é logada e o loop segue; nada aqui derruba o worker.
type Consumer struct {
	Log     *zap.Logger
	Name    string
	Open    func() MessageReader
	DLQ     MessageWriter
	Handle  func(ctx context.Context, m kafka.Message) error
	Backoff time.Duration

	OnConsumed  func()       // métricas
	OnError     func(string) // métricas por fase
	OnReconnect func()
}

func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	reader := c.Open()
	defer func() { _ = reader.Close() }()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn("kafka read failed", zap.String("consumer", c.Name), zap.Error(err))
			c.errorAt("read")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}
		if c.OnConsumed != nil {
			c.OnConsumed()
		}

		herr := c.Handle(ctx, m)
		switch {
		case herr == nil:
		case errors.Is(herr, ErrPoison):
			c.Log.Warn("poison message, sending to dlq",
				zap.String("consumer", c.Name), zap.Int64("offset", m.Offset), zap.Error(herr))
			c.errorAt("decode")
			if c.DLQ != nil {
				if err := WriteDeadLetter(ctx, c.DLQ, c.Name, m); err != nil {
					c.Log.Warn("dlq write failed", zap.String("consumer", c.Name), zap.Error(err))
					c.errorAt("dlq")
				}
			}
		case errors.Is(herr, ErrReconnect):
			c.Log.Warn("handler requested reader reconnect", zap.String("consumer", c.Name), zap.Error(herr))
		default:
			c.Log.Warn("message handling failed", zap.String("consumer", c.Name), zap.Error(herr))
			c.errorAt("handle")
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn("kafka commit failed", zap.String("consumer", c.Name), zap.Error(err))
			c.errorAt("commit")
		}

		if herr != nil && errors.Is(herr, ErrReconnect) {
			_ = reader.Close()
			reader = c.Open()
			if c.OnReconnect != nil {
				c.OnReconnect()
			}
			c.Log.Info("kafka reader reconnected", zap.String("consumer", c.Name))
		}
	}
}

func (c *Consumer) errorAt(stage string) {
	if c.OnError != nil {
		c.OnError(stage)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
