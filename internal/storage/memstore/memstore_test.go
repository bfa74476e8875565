package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
)

func TestOddsUpsert_SameTupleUpdates(t *testing.T) {
	ctx := context.Background()
	s := New()
	matchID, _ := s.Matches.UpsertByCrownID(ctx, model.Match{CrownID: "c1", MatchTime: time.Now().Add(time.Hour)})

	odd := model.Odd{
		MatchID: matchID, Variety: model.VarietyGoal, Period: model.PeriodFull, Type: model.TypeAH1,
		Condition: decimal.RequireFromString("-0.5"), SurebetValue: decimal.RequireFromString("1.90"),
	}
	first, created, _ := s.Odds.Upsert(ctx, odd)
	if !created {
		t.Fatal("first upsert did not create")
	}
	odd.Condition = decimal.RequireFromString("-0.50")
	odd.SurebetValue = decimal.RequireFromString("1.95")
	second, created, _ := s.Odds.Upsert(ctx, odd)
	if created || second.ID != first.ID {
		t.Fatalf("second upsert created a new row: %d vs %d", second.ID, first.ID)
	}
	if !second.SurebetValue.Equal(decimal.RequireFromString("1.95")) {
		t.Errorf("surebet value not updated: %s", second.SurebetValue)
	}

	// depois de resolvida, a mesma tupla abre uma nova odd
	_, _ = s.Odds.MarkReady(ctx, first.ID, decimal.RequireFromString("2.0"), time.Now())
	_, _ = s.Odds.Finish(ctx, first.ID, model.OddReady, model.OddPromoted, storageRead())
	_, created, _ = s.Odds.Upsert(ctx, odd)
	if !created {
		t.Error("resolved odd blocked a new one")
	}
}

func TestPromotedCreate_OnceSteamBucket(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := model.PromotedOdd{MatchID: 1, Channel: model.ChannelSteam, Variety: "goal", Period: "full", Kind: "handicap"}
	if ok, _ := s.Promoted.Create(ctx, &p); !ok {
		t.Fatal("first steam promotion not created")
	}
	q := p
	q.ID = 0
	q.Type = model.TypeAH2
	if ok, _ := s.Promoted.Create(ctx, &q); ok {
		t.Fatal("second steam promotion for the same bucket created")
	}
}

func storageRead() storage.FinalRead {
	return storage.FinalRead{At: time.Now()}
}
