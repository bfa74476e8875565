package promotion

import (
	"context"
	"errors"
	"fmt"
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

// TrendRefresher relê a janela do titan007 antes da decisão final
type TrendRefresher interface {
	RefreshTrend(ctx context.Context, m model.Match) error
}

// FinalChecker é o estágio 2 de uma partida prestes a começar
type FinalChecker struct {
	Log       *zap.Logger
	Matches   storage.MatchRepo
	Odds      storage.OddRepo
	Promoted  storage.PromotedRepo
	Trends    storage.TrendRepo
	Refresher TrendRefresher
	Crown     Crown
	Settings  ThresholdSource
	Publisher Publisher
	Guard     *FailureGuard

	// Location define a virada do dia da amostragem
	Location *time.Location
	Now      func() time.Time

	OnPromoted func(visible bool)
	OnIgnored  func()
}

func (f *FinalChecker) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *FinalChecker) startOfDay(t time.Time) time.Time {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CheckMatch decide todas as odds ready da partida e fecha as unset como
// final (skip). Falha de scrape deixa as odds ready para a próxima passada.
func (f *FinalChecker) CheckMatch(ctx context.Context, matchID int64) error {
	match, err := f.Matches.Get(ctx, matchID)
	if err != nil {
		return err
	}
	log := f.Log.With(zap.Int64("match_id", matchID), zap.String("crown_id", match.CrownID))

	th, err := f.Settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	odds, err := f.Odds.ListByMatch(ctx, matchID, model.OddUnset, model.OddReady)
	if err != nil {
		return err
	}

	var ready, unset []model.Odd
	for _, o := range odds {
		if o.Status == model.OddReady {
			ready = append(ready, o)
		} else {
			unset = append(unset, o)
		}
	}

	now := f.now()
	if match.Started(now) {
		for _, o := range ready {
			f.ignore(ctx, log, o, storage.FinalRead{At: now})
		}
		ready = nil
	}

	if len(ready) > 0 {
		if err := f.decideReady(ctx, log, match, th, ready, now); err != nil {
			return err
		}
	}

	for _, o := range unset {
		if err := f.finalizeUnset(ctx, log, o, th, now); err != nil {
			log.Warn("finalize unset odd failed", zap.Int64("odd_id", o.ID), zap.Error(err))
		}
	}
	return nil
}

func (f *FinalChecker) decideReady(ctx context.Context, log *zap.Logger, match model.Match, th settings.Thresholds, ready []model.Odd, now time.Time) error {
	lines, err := f.Crown.Lines(ctx, match.CrownID)
	if err != nil {
		if f.Guard != nil && f.Guard.Fail() {
			return fmt.Errorf("%w: %v", ErrSessionReset, err)
		}
		return fmt.Errorf("%w: %v", ErrScrape, err)
	}
	if f.Guard != nil {
		f.Guard.OK()
	}

	var trend *model.TrendWindow
	if th.Titan007Enabled {
		if f.Refresher != nil && match.Titan007ID != "" {
			if err := f.Refresher.RefreshTrend(ctx, match); err != nil {
				log.Warn("refresh titan007 trend failed", zap.Error(err))
			}
		}
		w, err := f.Trends.Get(ctx, match.ID)
		switch {
		case err == nil:
			trend = &w
		case !errors.Is(err, storage.ErrNotFound):
			log.Warn("load titan007 trend failed", zap.Error(err))
		}
	}

	var decisions []Decision
	for _, o := range ready {
		d, ok := f.evaluate(o, lines, trend, th, now)
		if !ok {
			f.ignore(ctx, log, o, d.Read)
			continue
		}
		decisions = append(decisions, d)
	}

	kept, dropped := Resolve(decisions)
	for _, d := range dropped {
		log.Info("decision dropped by conflict resolution", zap.Int64("odd_id", d.OddID))
		f.ignoreByID(ctx, log, d.OddID, d.Read)
	}

	existing, err := f.Promoted.ListByMatch(ctx, match.ID)
	if err != nil {
		return err
	}
	n, err := f.Promoted.CountNonSkipSince(ctx, f.startOfDay(now))
	if err != nil {
		return err
	}

	for _, d := range kept {
		if conflictsWithPromoted(d, existing) {
			log.Info("decision conflicts with an earlier promotion", zap.Int64("odd_id", d.OddID))
			f.ignoreByID(ctx, log, d.OddID, d.Read)
			continue
		}
		visible := Visible(th.FilterRatio, n)
		created, err := f.promote(ctx, log, d, visible)
		// linha já existente entrou na contagem do dia
		if created {
			n++
		}
		if err != nil {
			log.Warn("promote failed", zap.Int64("odd_id", d.OddID), zap.Error(err))
		}
	}
	return nil
}

// evaluate aplica, em ordem: tendência do titan007, linha exata, linha vizinha
func (f *FinalChecker) evaluate(o model.Odd, lines []model.MarketLine, trend *model.TrendWindow, th settings.Thresholds, now time.Time) (Decision, bool) {
	exact, hasExact := crown.FindLine(lines, o.Variety, o.Period, o.Type, o.Condition)

	d := Decision{
		OddID:     o.ID,
		MatchID:   o.MatchID,
		Variety:   o.Variety,
		Period:    o.Period,
		Type:      o.Type,
		Condition: o.Condition,
		Read:      storage.FinalRead{At: now},
	}
	if hasExact {
		d.Value = decimal.NewNullDecimal(exact.Value)
		d.Read.Value = d.Value
		d.Read.Condition = decimal.NewNullDecimal(exact.Condition)
	}

	if trend != nil {
		if line, ok := trend.Bucket(o.Variety, o.Period, model.KindOf(o.Type)); ok {
			if back, moved := TrendBack(line, o.Type); moved {
				d.Back = back
				d.Rule = RuleTrend
				d.Type, d.Condition = ApplyBack(o.Type, o.Condition, back)
				return d, true
			}
		}
	}

	switch {
	case hasExact:
		diff := exact.Value.Sub(o.SurebetValue)
		if !th.FinalComparator.Holds(diff, th.FinalThreshold) {
			return d, false
		}
		d.Rule = RuleExact
	case th.PromoteAdjacentLine:
		adj, ok := AdjacentLine(lines, o.Variety, o.Period, o.Type, o.Condition)
		if !ok {
			return d, false
		}
		d.Rule = RuleAdjacent
		d.Condition = adj.Condition
		d.Value = decimal.NewNullDecimal(adj.Value)
		d.Read.Value = d.Value
		d.Read.Condition = decimal.NewNullDecimal(adj.Condition)
	default:
		return d, false
	}

	d.Back = ResolveBack(th, d.Variety, d.Period, d.Type, d.Condition)
	d.Type, d.Condition = ApplyBack(d.Type, d.Condition, d.Back)
	return d, true
}

// promote devolve created=true quando a PromotedOdd foi gravada agora
func (f *FinalChecker) promote(ctx context.Context, log *zap.Logger, d Decision, visible bool) (bool, error) {
	oddID := d.OddID
	p := &model.PromotedOdd{
		OddID:     &oddID,
		MatchID:   d.MatchID,
		Channel:   model.ChannelSurebet,
		Variety:   d.Variety,
		Period:    d.Period,
		Kind:      d.Kind(),
		Type:      d.Type,
		Condition: d.Condition,
		Value:     d.Value,
		Back:      d.Back,
		Rule:      d.Rule,
		IsValid:   visible,
	}
	created, err := f.Promoted.Create(ctx, p)
	if err != nil {
		return false, err
	}
	_, finishErr := f.Odds.Finish(ctx, d.OddID, model.OddReady, model.OddPromoted, d.Read)
	if !created {
		return false, finishErr
	}

	log.Info("odd promoted",
		zap.Int64("odd_id", d.OddID), zap.Int64("promoted_id", p.ID), zap.String("rule", d.Rule),
		zap.String("type", d.Type), zap.String("condition", d.Condition.String()),
		zap.Bool("back", d.Back), zap.Bool("visible", visible))
	if f.OnPromoted != nil {
		f.OnPromoted(visible)
	}
	if visible {
		err := f.Publisher.PublishPromoted(ctx, events.PromotedNotice{
			MessageID:     uuid.NewString(),
			PromotedOddID: p.ID,
			Channel:       model.ChannelSurebet,
			Ts:            f.now(),
		})
		if err != nil {
			log.Warn("publish promoted notice failed", zap.Int64("promoted_id", p.ID), zap.Error(err))
		}
	}
	return true, finishErr
}

// finalizeUnset fecha uma odd que nunca ficou ready: vira final e é
// registrada como promoção skip (gravada, nunca exibida)
func (f *FinalChecker) finalizeUnset(ctx context.Context, log *zap.Logger, o model.Odd, th settings.Thresholds, now time.Time) error {
	moved, err := f.Odds.Finish(ctx, o.ID, model.OddUnset, model.OddFinal, storage.FinalRead{At: now})
	if err != nil || !moved {
		return err
	}
	oddID := o.ID
	_, err = f.Promoted.Create(ctx, &model.PromotedOdd{
		OddID:     &oddID,
		MatchID:   o.MatchID,
		Channel:   model.ChannelSurebet,
		Variety:   o.Variety,
		Period:    o.Period,
		Kind:      model.KindOf(o.Type),
		Type:      o.Type,
		Condition: o.Condition,
		Back:      ResolveBack(th, o.Variety, o.Period, o.Type, o.Condition),
		Rule:      RuleSkip,
		IsSkip:    true,
	})
	if err == nil {
		log.Debug("unset odd finalized as skip", zap.Int64("odd_id", o.ID))
	}
	return err
}

func (f *FinalChecker) ignore(ctx context.Context, log *zap.Logger, o model.Odd, read storage.FinalRead) {
	f.ignoreByID(ctx, log, o.ID, read)
}

func (f *FinalChecker) ignoreByID(ctx context.Context, log *zap.Logger, oddID int64, read storage.FinalRead) {
	if read.At.IsZero() {
		read.At = f.now()
	}
	moved, err := f.Odds.Finish(ctx, oddID, model.OddReady, model.OddIgnored, read)
	if err != nil {
		log.Warn("mark odd ignored failed", zap.Int64("odd_id", oddID), zap.Error(err))
		return
	}
	if moved && f.OnIgnored != nil {
		f.OnIgnored()
	}
}

// FinalPoller roda o estágio 2 para as partidas dentro de final_window
type FinalPoller struct {
	Log      *zap.Logger
	Matches  storage.MatchRepo
	Checker  *FinalChecker
	Settings ThresholdSource
	Interval time.Duration
	// Lookback inclui partidas já iniciadas que ainda têm odds abertas
	Lookback time.Duration
}

func (p *FinalPoller) Run(ctx context.Context) error {
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

func (p *FinalPoller) Poll(ctx context.Context) {
	th, err := p.Settings.Snapshot(ctx)
	if err != nil {
		p.Log.Warn("load thresholds failed", zap.Error(err))
		return
	}
	lookback := p.Lookback
	if lookback <= 0 {
		lookback = 3 * time.Hour
	}
	now := p.Checker.now()
	matches, err := p.Matches.ListWithOpenOdds(ctx, now.Add(-lookback), now.Add(th.FinalWindow.Std()))
	if err != nil {
		p.Log.Warn("list matches for final check failed", zap.Error(err))
		return
	}
	for _, m := range matches {
		if ctx.Err() != nil {
			return
		}
		if err := p.Checker.CheckMatch(ctx, m.ID); err != nil {
			p.Log.Warn("final check failed", zap.Int64("match_id", m.ID), zap.Error(err))
		}
	}
}
