package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/shared/kafka"
	"github.com/radieske/surebet-promoter/internal/storage"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

type Messenger interface {
	Send(ctx context.Context, text string) error
}

type Broadcaster interface {
	Broadcast(ctx context.Context, msg events.PromotedBroadcast) error
}

type Deduper interface {
	First(ctx context.Context, promotedID int64) (bool, error)
	Forget(ctx context.Context, promotedID int64) error
}

// Handler consome promoted_odds: carrega a recomendação, envia ao Telegram e
// republica no Pub/Sub. Recomendações filtradas (is_valid=false) não saem.
type Handler struct {
	Log         *zap.Logger
	Promoted    storage.PromotedRepo
	Matches     storage.MatchRepo
	Messenger   Messenger
	Broadcaster Broadcaster
	Dedupe      Deduper

	OnSent func(channel int)
}

func (h *Handler) HandleMessage(ctx context.Context, m kafka.Message) error {
	var n events.PromotedNotice
	if err := json.Unmarshal(m.Value, &n); err != nil {
		return fmt.Errorf("%w: decode promoted notice: %v", kafka.ErrPoison, err)
	}
	if n.PromotedOddID == 0 {
		return fmt.Errorf("%w: notice without promoted id", kafka.ErrPoison)
	}
	return h.Handle(ctx, n)
}

func (h *Handler) Handle(ctx context.Context, n events.PromotedNotice) error {
	log := h.Log.With(zap.Int64("promoted_id", n.PromotedOddID))

	p, err := h.Promoted.Get(ctx, n.PromotedOddID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("notice for unknown promoted odd")
		return nil
	}
	if err != nil {
		return err
	}
	if !p.IsValid || p.IsSkip {
		return nil
	}
	match, err := h.Matches.Get(ctx, p.MatchID)
	if err != nil {
		return err
	}

	if h.Dedupe != nil {
		first, err := h.Dedupe.First(ctx, p.ID)
		if err != nil {
			log.Warn("dedupe check failed", zap.Error(err))
		} else if !first {
			log.Debug("notice already delivered")
			return nil
		}
	}

	if h.Messenger != nil {
		if err := h.Messenger.Send(ctx, FormatMessage(p, match)); err != nil {
			if h.Dedupe != nil {
				_ = h.Dedupe.Forget(ctx, p.ID)
			}
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	if h.Broadcaster != nil {
		if err := h.Broadcaster.Broadcast(ctx, BroadcastOf(p, match)); err != nil {
			log.Warn("broadcast failed", zap.Error(err))
		}
	}
	log.Info("promoted odd delivered", zap.Int64("match_id", match.ID), zap.Int("channel", p.Channel))
	if h.OnSent != nil {
		h.OnSent(p.Channel)
	}
	return nil
}
