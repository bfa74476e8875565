// Package discovery lista os jogos da crown e cria as partidas que ainda não existem.
package discovery

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
)

type FixtureSource interface {
	FetchFixtureList(ctx context.Context) ([]model.Fixture, error)
}

type Worker struct {
	Log      *zap.Logger
	Matches  storage.MatchRepo
	Crown    FixtureSource
	Interval time.Duration
	Now      func() time.Time

	OnCreated func()
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
	if _, err := w.Discover(ctx); err != nil {
		w.Log.Warn("match discovery failed", zap.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if _, err := w.Discover(ctx); err != nil {
				w.Log.Warn("match discovery failed", zap.Error(err))
			}
		}
	}
}

// Discover devolve quantas partidas novas foram criadas. Partidas já
// conhecidas não são tocadas; jogos já iniciados são ignorados.
func (w *Worker) Discover(ctx context.Context) (int, error) {
	fixtures, err := w.Crown.FetchFixtureList(ctx)
	if err != nil {
		return 0, err
	}
	now := w.now()
	created := 0
	for _, f := range fixtures {
		if f.CrownID == "" || !f.MatchTime.After(now) {
			continue
		}
		_, err := w.Matches.GetByCrownID(ctx, f.CrownID)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			w.Log.Warn("lookup match failed", zap.String("crown_id", f.CrownID), zap.Error(err))
			continue
		}
		if _, err := w.Matches.UpsertByCrownID(ctx, model.Match{
			CrownID: f.CrownID, League: f.League, HomeTeam: f.HomeTeam, AwayTeam: f.AwayTeam, MatchTime: f.MatchTime,
		}); err != nil {
			w.Log.Warn("create match failed", zap.String("crown_id", f.CrownID), zap.Error(err))
			continue
		}
		created++
		if w.OnCreated != nil {
			w.OnCreated()
		}
	}
	w.Log.Info("match discovery pass", zap.Int("fixtures", len(fixtures)), zap.Int("created", created))
	return created, nil
}
