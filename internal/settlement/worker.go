package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/fotmob"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
)

// ScoreSource devolve o placar final já orientado pela partida local
type ScoreSource interface {
	FetchFinalScore(ctx context.Context, id string, swap bool) (model.ScoreRecord, error)
}

// Worker apura periodicamente as promoções das partidas encerradas
type Worker struct {
	Log      *zap.Logger
	Matches  storage.MatchRepo
	Promoted storage.PromotedRepo
	Scores   ScoreSource
	Interval time.Duration
	// After é o tempo desde o início da partida até tentar apurar
	After time.Duration
	Now   func() time.Time

	OnSettled func(result Result)
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) Run(ctx context.Context) error {
	t := time.NewTicker(w.Interval)
	defer t.Stop()
	w.Pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.Pass(ctx)
		}
	}
}

func (w *Worker) Pass(ctx context.Context) {
	matches, err := w.Matches.ListToSettle(ctx, w.now().Add(-w.After))
	if err != nil {
		w.Log.Warn("list matches to settle failed", zap.Error(err))
		return
	}
	for _, m := range matches {
		if ctx.Err() != nil {
			return
		}
		if err := w.SettleMatch(ctx, m); err != nil {
			w.Log.Warn("settle match failed", zap.Int64("match_id", m.ID), zap.Error(err))
		}
	}
}

// SettleMatch grava o placar (uma vez) e apura as promoções em aberto
func (w *Worker) SettleMatch(ctx context.Context, m model.Match) error {
	score := m.Score
	if score == nil {
		if m.FotmobID == "" {
			w.Log.Debug("match without fotmob id, cannot settle", zap.Int64("match_id", m.ID))
			return nil
		}
		s, err := w.Scores.FetchFinalScore(ctx, m.FotmobID, m.FotmobSwap)
		if errors.Is(err, fotmob.ErrNotFinished) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.Matches.SaveScore(ctx, m.ID, s); err != nil {
			return err
		}
		score = &s
	}

	open, err := w.Promoted.ListUnsettled(ctx, m.ID)
	if err != nil {
		return err
	}
	now := w.now()
	for _, p := range open {
		home, away := score.For(p.Variety, p.Period)
		res := Settle(p.Type, p.Condition, home, away)
		if err := w.Promoted.Settle(ctx, p.ID, string(res), fmt.Sprintf("%d-%d", home, away), now); err != nil {
			w.Log.Warn("store settlement failed", zap.Int64("promoted_id", p.ID), zap.Error(err))
			continue
		}
		if w.OnSettled != nil {
			w.OnSettled(res)
		}
	}
	w.Log.Info("match settled", zap.Int64("match_id", m.ID), zap.Int("promotions", len(open)))
	return nil
}
