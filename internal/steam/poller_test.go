package steam

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/crown"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/internal/storage"
	"github.com/radieske/surebet-promoter/internal/storage/memstore"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

type scriptedQuotes struct {
	home []string
	i    int
}

// cada chamada devolve o próximo preço da casa na linha -0.5
func (s *scriptedQuotes) Quotes(context.Context, string) ([]crown.Quote, error) {
	h := s.home[min(s.i, len(s.home)-1)]
	s.i++
	return []crown.Quote{
		{Variety: model.VarietyGoal, Period: model.PeriodFull, Kind: model.KindHandicap, Condition: dec("-0.5"), Home: dec(h), Away: dec("4").Sub(dec(h))},
		{Variety: model.VarietyGoal, Period: model.PeriodFull, Kind: model.KindHandicap, Condition: dec("-0.75"), Home: dec("2.30"), Away: dec("1.62")},
		{Variety: model.VarietyCorner, Period: model.PeriodFull, Kind: model.KindHandicap, Condition: dec("-1"), Home: dec("1.9"), Away: dec("1.9")},
	}, nil
}

type thresholds struct{ th settings.Thresholds }

func (f thresholds) Snapshot(context.Context) (settings.Thresholds, error) { return f.th, nil }

type notices struct{ got []events.PromotedNotice }

func (n *notices) PublishPromoted(_ context.Context, e events.PromotedNotice) error {
	n.got = append(n.got, e)
	return nil
}

func TestPoller_PromotesOncePerBucket(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	now := t0
	mem.Now = func() time.Time { return now }
	id, _ := mem.Matches.UpsertByCrownID(ctx, model.Match{CrownID: "c9", MatchTime: t0.Add(time.Hour)})

	q := &scriptedQuotes{home: []string{"2.10", "2.02", "1.93", "1.85", "1.80"}}
	n := &notices{}
	p := &Poller{
		Log: zap.NewNop(), Matches: mem.Matches, Promoted: mem.Promoted,
		Recorder: &Recorder{Snapshots: mem.Snapshots}, Series: mem.Snapshots,
		Crown: q, Settings: thresholds{settings.Defaults()}, Notifier: n,
		Now: func() time.Time { return now },
	}

	for i := 0; i < 5; i++ {
		p.Poll(ctx)
		now = now.Add(5 * time.Minute)
	}

	ps, _ := mem.Promoted.ListByMatch(ctx, id)
	if len(ps) != 1 {
		t.Fatalf("got %d steam promotions, want 1", len(ps))
	}
	po := ps[0]
	if po.Channel != model.ChannelSteam || po.Type != model.TypeAH1 || po.StartCrownOddID == nil || po.EndCrownOddID == nil {
		t.Fatalf("unexpected promotion: %+v", po)
	}
	start, _ := mem.Snapshots.Latest(ctx, bucketFor(id))
	if *po.EndCrownOddID >= start.ID {
		t.Errorf("end snapshot %d should precede the latest %d", *po.EndCrownOddID, start.ID)
	}
	if len(n.got) != 1 || n.got[0].Channel != model.ChannelSteam {
		t.Errorf("notices = %+v", n.got)
	}
}

func TestPoller_DisabledSkipsScrape(t *testing.T) {
	th := settings.Defaults()
	th.SteamEnabled = false
	q := &scriptedQuotes{home: []string{"2"}}
	mem := memstore.New()
	_, _ = mem.Matches.UpsertByCrownID(context.Background(), model.Match{CrownID: "c9", MatchTime: time.Now().Add(time.Hour)})
	p := &Poller{Log: zap.NewNop(), Matches: mem.Matches, Crown: q, Settings: thresholds{th}}
	p.Poll(context.Background())
	if q.i != 0 {
		t.Error("steam disabled but crown was scraped")
	}
}

func bucketFor(matchID int64) storage.Bucket {
	return storage.Bucket{MatchID: matchID, Variety: model.VarietyGoal, Period: model.PeriodFull, Kind: model.KindHandicap}
}
