package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage/memstore"
)

type fixtures struct {
	list []model.Fixture
	err  error
}

func (f fixtures) FetchFixtureList(context.Context) ([]model.Fixture, error) { return f.list, f.err }

func TestDiscover_CreatesOnlyNewFutureMatches(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 10, 14, 12, 0, 0, 0, time.UTC)
	mem := memstore.New()
	_, _ = mem.Matches.UpsertByCrownID(ctx, model.Match{CrownID: "g1", HomeTeam: "Old", AwayTeam: "Name", MatchTime: now.Add(time.Hour)})

	w := &Worker{Log: zap.NewNop(), Matches: mem.Matches, Now: func() time.Time { return now }, Crown: fixtures{list: []model.Fixture{
		{CrownID: "g1", HomeTeam: "New", AwayTeam: "Name", MatchTime: now.Add(2 * time.Hour)},
		{CrownID: "g2", HomeTeam: "A", AwayTeam: "B", MatchTime: now.Add(time.Hour)},
		{CrownID: "g3", HomeTeam: "C", AwayTeam: "D", MatchTime: now.Add(-time.Minute)},
		{CrownID: "", HomeTeam: "E", AwayTeam: "F", MatchTime: now.Add(time.Hour)},
	}}}

	n, err := w.Discover(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("created = %d, want 1", n)
	}
	m, _ := mem.Matches.GetByCrownID(ctx, "g1")
	if m.HomeTeam != "Old" {
		t.Errorf("existing match was modified: %+v", m)
	}
	if _, err := mem.Matches.GetByCrownID(ctx, "g3"); err == nil {
		t.Error("started fixture was created")
	}
}

func TestDiscover_SourceError(t *testing.T) {
	w := &Worker{Log: zap.NewNop(), Matches: memstore.New().Matches, Crown: fixtures{err: errors.New("session down")}}
	if _, err := w.Discover(context.Background()); err == nil {
		t.Error("expected error")
	}
}
