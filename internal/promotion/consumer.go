package promotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/radieske/surebet-promoter/internal/shared/kafka"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

// SignalHandler adapta o ReadyChecker ao kafka.Consumer
func SignalHandler(r *ReadyChecker) func(ctx context.Context, m kafka.Message) error {
	return func(ctx context.Context, m kafka.Message) error {
		var sig events.SurebetSignal
		if err := json.Unmarshal(m.Value, &sig); err != nil {
			return fmt.Errorf("%w: decode signal: %v", kafka.ErrPoison, err)
		}
		err := r.Handle(ctx, sig)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, events.ErrInvalidSignal):
			return fmt.Errorf("%w: %v", kafka.ErrPoison, err)
		case errors.Is(err, ErrSessionReset):
			return fmt.Errorf("%w: %v", kafka.ErrReconnect, err)
		}
		// ErrScrape e demais: odd fica unset e o ReadySweeper tenta de novo
		return err
	}
}

// ContinuationMessageHandler adapta o ContinuationHandler ao kafka.Consumer
func ContinuationMessageHandler(h *ContinuationHandler) func(ctx context.Context, m kafka.Message) error {
	return func(ctx context.Context, m kafka.Message) error {
		var c events.StageContinuation
		if err := json.Unmarshal(m.Value, &c); err != nil {
			return fmt.Errorf("%w: decode continuation: %v", kafka.ErrPoison, err)
		}
		if c.MatchExternalID == "" {
			return fmt.Errorf("%w: continuation without match id", kafka.ErrPoison)
		}
		return h.Handle(ctx, c)
	}
}

// KafkaPublisher publica continuações e notificações com a chave da partida
type KafkaPublisher struct {
	Continuation *kafka.Writer
	Promoted     *kafka.Writer
}

func (p *KafkaPublisher) PublishContinuation(ctx context.Context, c events.StageContinuation) error {
	return kafka.WriteJSON(ctx, p.Continuation, c.MatchExternalID, c)
}

func (p *KafkaPublisher) PublishPromoted(ctx context.Context, n events.PromotedNotice) error {
	return kafka.WriteJSON(ctx, p.Promoted, fmt.Sprint(n.PromotedOddID), n)
}
