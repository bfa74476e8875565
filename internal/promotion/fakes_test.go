package promotion

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

type fakeCrown struct {
	mu     sync.Mutex
	lines  map[string][]model.MarketLine
	err    error
	calls  int
	resets int
}

func (f *fakeCrown) Lines(_ context.Context, crownID string) ([]model.MarketLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.lines[crownID], nil
}

func (f *fakeCrown) Reset() {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
}

type fakePublisher struct {
	mu            sync.Mutex
	continuations []events.StageContinuation
	promoted      []events.PromotedNotice
}

func (p *fakePublisher) PublishContinuation(_ context.Context, c events.StageContinuation) error {
	p.mu.Lock()
	p.continuations = append(p.continuations, c)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) PublishPromoted(_ context.Context, n events.PromotedNotice) error {
	p.mu.Lock()
	p.promoted = append(p.promoted, n)
	p.mu.Unlock()
	return nil
}

type fixedThresholds struct{ th settings.Thresholds }

func (f fixedThresholds) Snapshot(context.Context) (settings.Thresholds, error) { return f.th, nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(variety, period, typ, cond, value string) model.MarketLine {
	return model.MarketLine{Variety: variety, Period: period, Type: typ, Condition: dec(cond), Value: dec(value)}
}

func fixedNow() time.Time { return time.Date(2024, 10, 14, 12, 0, 0, 0, time.UTC) }

func nopLog() *zap.Logger { return zap.NewNop() }
