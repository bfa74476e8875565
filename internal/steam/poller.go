package steam

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/crown"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/internal/storage"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

// QuoteSource é a sessão crown vista pelo poller
type QuoteSource interface {
	Quotes(ctx context.Context, crownID string) ([]crown.Quote, error)
}

type ThresholdSource interface {
	Snapshot(ctx context.Context) (settings.Thresholds, error)
}

type Notifier interface {
	PublishPromoted(ctx context.Context, n events.PromotedNotice) error
}

// FailureReporter recebe o resultado de cada scrape (contador de falhas compartilhado)
type FailureReporter interface {
	Fail() bool
	OK()
}

type Poller struct {
	Log      *zap.Logger
	Matches  storage.MatchRepo
	Promoted storage.PromotedRepo
	Recorder *Recorder
	Series   storage.SnapshotRepo
	Crown    QuoteSource
	Settings ThresholdSource
	Notifier Notifier
	Guard    FailureReporter
	Interval time.Duration
	Now      func() time.Time

	OnSnapshot func()
	OnPromoted func()
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			p.Poll(ctx)
		}
	}
}

// Poll faz uma passada por todas as partidas dentro de steam_match_window
func (p *Poller) Poll(ctx context.Context) {
	th, err := p.Settings.Snapshot(ctx)
	if err != nil {
		p.Log.Warn("load thresholds failed", zap.Error(err))
		return
	}
	if !th.SteamEnabled {
		return
	}
	now := p.now()
	matches, err := p.Matches.ListKickoffBetween(ctx, now, now.Add(th.SteamMatchWindow.Std()))
	if err != nil {
		p.Log.Warn("list matches for steam failed", zap.Error(err))
		return
	}
	for _, m := range matches {
		if ctx.Err() != nil {
			return
		}
		if err := p.PollMatch(ctx, m, th); err != nil {
			p.Log.Warn("steam poll failed", zap.Int64("match_id", m.ID), zap.Error(err))
		}
	}
}

// PollMatch grava o snapshot da linha principal de cada bucket e roda a
// detecção nos buckets que ainda não têm promoção
func (p *Poller) PollMatch(ctx context.Context, m model.Match, th settings.Thresholds) error {
	quotes, err := p.Crown.Quotes(ctx, m.CrownID)
	if err != nil {
		if p.Guard != nil {
			p.Guard.Fail()
		}
		return err
	}
	if p.Guard != nil {
		p.Guard.OK()
	}

	now := p.now()
	seen := map[storage.Bucket]bool{}
	for _, q := range quotes {
		if q.Variety != model.VarietyGoal {
			continue
		}
		b := storage.Bucket{MatchID: m.ID, Variety: q.Variety, Period: q.Period, Kind: q.Kind}
		// só a primeira cotação de cada bucket é a linha principal
		if seen[b] {
			continue
		}
		seen[b] = true

		snap := &model.CrownOdd{
			MatchID: m.ID, Variety: q.Variety, Period: q.Period, Kind: q.Kind,
			Condition: q.Condition, Value0: q.Home, Value1: q.Away, CreatedAt: now,
		}
		appended, err := p.Recorder.Append(ctx, snap)
		if err != nil {
			p.Log.Warn("append snapshot failed", zap.Int64("match_id", m.ID), zap.Error(err))
			continue
		}
		if appended && p.OnSnapshot != nil {
			p.OnSnapshot()
		}
		if err := p.detect(ctx, m, b, th, now); err != nil {
			p.Log.Warn("steam detect failed", zap.Int64("match_id", m.ID), zap.String("kind", b.Kind), zap.Error(err))
		}
	}
	return nil
}

func (p *Poller) detect(ctx context.Context, m model.Match, b storage.Bucket, th settings.Thresholds, now time.Time) error {
	exists, err := p.Promoted.ExistsSteam(ctx, m.ID, b.Variety, b.Period, b.Kind)
	if err != nil || exists {
		return err
	}
	series, err := p.Series.Series(ctx, b, now.Add(-th.SteamMaxDuration.Std()))
	if err != nil {
		return err
	}
	trig, ok := Detect(series, ParamsFrom(th))
	if !ok {
		return nil
	}

	startID, endID := trig.Start.ID, trig.End.ID
	po := &model.PromotedOdd{
		MatchID:         m.ID,
		Channel:         model.ChannelSteam,
		Variety:         b.Variety,
		Period:          b.Period,
		Kind:            b.Kind,
		Type:            trig.Type,
		Condition:       trig.Condition,
		Value:           decimal.NewNullDecimal(trig.Value),
		Rule:            "steam",
		IsValid:         true,
		StartCrownOddID: &startID,
		EndCrownOddID:   &endID,
	}
	created, err := p.Promoted.Create(ctx, po)
	if err != nil || !created {
		return err
	}
	p.Log.Info("steam promoted",
		zap.Int64("match_id", m.ID), zap.Int64("promoted_id", po.ID),
		zap.String("type", trig.Type), zap.String("condition", trig.Condition.String()),
		zap.String("drop", trig.Drop.String()), zap.Int64("start_id", startID), zap.Int64("end_id", endID))
	if p.OnPromoted != nil {
		p.OnPromoted()
	}
	if p.Notifier != nil {
		err := p.Notifier.PublishPromoted(ctx, events.PromotedNotice{
			MessageID: uuid.NewString(), PromotedOddID: po.ID, Channel: model.ChannelSteam, Ts: now,
		})
		if err != nil {
			p.Log.Warn("publish steam notice failed", zap.Int64("promoted_id", po.ID), zap.Error(err))
		}
	}
	return nil
}
