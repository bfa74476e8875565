package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/fotmob"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
	"github.com/radieske/surebet-promoter/internal/storage/memstore"
)

func TestSettle(t *testing.T) {
	tests := []struct {
		typ        string
		cond       string
		home, away int
		want       Result
	}{
		{model.TypeAH1, "-0.5", 1, 0, Win},
		{model.TypeAH1, "-0.5", 1, 1, Lose},
		{model.TypeAH1, "-1", 1, 0, Push},
		{model.TypeAH1, "-0.75", 1, 0, HalfWin},
		{model.TypeAH1, "-0.25", 1, 1, HalfLose},
		{model.TypeAH2, "0.25", 1, 1, HalfWin},
		{model.TypeAH2, "0.5", 2, 1, Lose},
		{model.TypeAH2, "1.5", 2, 1, Win},
		{model.TypeOver, "2.5", 2, 1, Win},
		{model.TypeOver, "2.75", 2, 1, HalfWin},
		{model.TypeOver, "3", 2, 1, Push},
		{model.TypeUnder, "3.25", 2, 1, HalfWin},
		{model.TypeUnder, "2.25", 2, 1, Lose},
		{model.TypeUnder, "2.75", 1, 1, Win},
		{model.TypeDraw, "0", 1, 1, Win},
		{model.TypeDraw, "0", 2, 1, Lose},
	}
	for _, tt := range tests {
		got := Settle(tt.typ, decimal.RequireFromString(tt.cond), tt.home, tt.away)
		if got != tt.want {
			t.Errorf("Settle(%s %s, %d-%d) = %s, want %s", tt.typ, tt.cond, tt.home, tt.away, got, tt.want)
		}
	}
}

type fakeScores struct {
	score model.ScoreRecord
	err   error
	calls int
}

func (f *fakeScores) FetchFinalScore(context.Context, string, bool) (model.ScoreRecord, error) {
	f.calls++
	return f.score, f.err
}

func TestWorker_SettlesByMarket(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	now := time.Date(2024, 10, 14, 23, 0, 0, 0, time.UTC)
	id, _ := mem.Matches.UpsertByCrownID(ctx, model.Match{CrownID: "c1", MatchTime: now.Add(-3 * time.Hour)})
	_ = mem.Matches.LinkFotmob(ctx, id, storage.ExternalLink{MatchID: "f1"})

	add := func(variety, period, typ, cond string) int64 {
		p := &model.PromotedOdd{MatchID: id, Channel: model.ChannelSteam, Variety: variety, Period: period,
			Kind: model.KindOf(typ), Type: typ, Condition: decimal.RequireFromString(cond)}
		_, _ = mem.Promoted.Create(ctx, p)
		return p.ID
	}
	full := add(model.VarietyGoal, model.PeriodFull, model.TypeAH1, "-0.5")
	half := add(model.VarietyGoal, model.PeriodHalf, model.TypeOver, "0.5")
	corner := add(model.VarietyCorner, model.PeriodFull, model.TypeUnder, "9.5")

	scores := &fakeScores{score: model.ScoreRecord{HomeScore: 2, AwayScore: 1, HomeScoreHalf: 0, AwayScoreHalf: 0, HomeCorner: 6, AwayCorner: 5}}
	w := &Worker{Log: zap.NewNop(), Matches: mem.Matches, Promoted: mem.Promoted, Scores: scores,
		After: 150 * time.Minute, Now: func() time.Time { return now }}
	w.Pass(ctx)

	want := map[int64]string{full: "win", half: "lose", corner: "lose"}
	for id, res := range want {
		p, _ := mem.Promoted.Get(ctx, id)
		if p.Result != res {
			t.Errorf("promoted %d result = %q, want %q (score %s)", id, p.Result, res, p.Score)
		}
	}
	m, _ := mem.Matches.Get(ctx, id)
	if m.Score == nil || m.Status != model.MatchFinal {
		t.Error("score not stored on match")
	}

	w.Pass(ctx)
	if scores.calls != 1 {
		t.Errorf("settled match fetched again: %d calls", scores.calls)
	}
}

func TestWorker_NotFinishedRetriesLater(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	now := time.Now()
	id, _ := mem.Matches.UpsertByCrownID(ctx, model.Match{CrownID: "c1", MatchTime: now.Add(-3 * time.Hour)})
	_ = mem.Matches.LinkFotmob(ctx, id, storage.ExternalLink{MatchID: "f1"})
	p := &model.PromotedOdd{MatchID: id, Channel: model.ChannelSurebet, Type: model.TypeOver, Condition: decimal.NewFromInt(2)}
	_, _ = mem.Promoted.Create(ctx, p)

	w := &Worker{Log: zap.NewNop(), Matches: mem.Matches, Promoted: mem.Promoted,
		Scores: &fakeScores{err: fotmob.ErrNotFinished}, After: time.Hour}
	if err := w.SettleMatch(ctx, mustMatch(t, mem, id)); err != nil {
		t.Fatal(err)
	}
	got, _ := mem.Promoted.Get(ctx, p.ID)
	if got.Result != "" {
		t.Errorf("settled without a final score: %q", got.Result)
	}
}

func mustMatch(t *testing.T, mem *memstore.Store, id int64) model.Match {
	t.Helper()
	m, err := mem.Matches.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
