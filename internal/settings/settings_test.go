package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/storage"
	"github.com/radieske/surebet-promoter/internal/storage/memstore"
)

type fakeCache struct {
	values      map[string]string
	gen         int64
	loads       int
	invalidated int
}

func (f *fakeCache) Load(context.Context) (map[string]string, bool, error) {
	f.loads++
	if f.values == nil {
		return nil, false, nil
	}
	return f.values, true, nil
}

func (f *fakeCache) Generation(context.Context) (int64, error) { return f.gen, nil }

func (f *fakeCache) Save(_ context.Context, gen int64, v map[string]string) error {
	if gen != f.gen {
		return nil
	}
	f.values = v
	return nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.values = nil
	f.gen++
	f.invalidated++
	return nil
}

// interleavedRepo roda during uma vez depois de ler o banco e antes de
// All devolver, simulando uma escrita concorrente com a leitura
type interleavedRepo struct {
	storage.SettingRepo
	during func()
}

func (r *interleavedRepo) All(ctx context.Context) ([]model.Setting, error) {
	rows, err := r.SettingRepo.All(ctx)
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return rows, err
}

func TestSnapshot_DefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	_ = mem.Settings.Put(ctx, "ready_min_delta", `"0.08"`)
	_ = mem.Settings.Put(ctx, "final_window", `"10m"`)
	_ = mem.Settings.Put(ctx, "reverse_rules", `[{"variety":"corner","type":"ah1","comparator":"<=","condition":"-1","back":true}]`)
	_ = mem.Settings.Put(ctx, "filter_ratio", `"1/4"`)

	s := NewStore(mem.Settings, &fakeCache{}, nil)
	th, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !th.ReadyMinDelta.Equal(decimal.RequireFromString("0.08")) {
		t.Errorf("ready_min_delta = %s", th.ReadyMinDelta)
	}
	if th.FinalWindow.Std() != 10*time.Minute {
		t.Errorf("final_window = %v", th.FinalWindow.Std())
	}
	if th.FilterRatio != "1/4" {
		t.Errorf("filter_ratio = %s", th.FilterRatio)
	}
	if th.FinalComparator != ">=" {
		t.Errorf("final_comparator default lost: %q", th.FinalComparator)
	}
	if len(th.ReverseRules) != 1 || !th.ReverseRules[0].Matches("corner", "full", "ah1", decimal.RequireFromString("-1.5")) {
		t.Errorf("reverse rule not parsed: %+v", th.ReverseRules)
	}
}

func TestSet_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	cache := &fakeCache{}
	s := NewStore(mem.Settings, cache, nil)

	_ = s.Set(ctx, "reverse", "false")
	if _, err := s.All(ctx); err != nil {
		t.Fatal(err)
	}
	if cache.values == nil {
		t.Fatal("cache not filled after read")
	}

	if err := s.Set(ctx, "reverse", "true"); err != nil {
		t.Fatal(err)
	}
	if cache.values != nil {
		t.Fatal("cache not invalidated on write")
	}
	th, _ := s.Snapshot(ctx)
	if !th.Reverse {
		t.Error("new value not visible after write")
	}
}

func TestAll_WriteDuringReadDoesNotCacheStaleValues(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	_ = mem.Settings.Put(ctx, "reverse", "false")
	cache := &fakeCache{}
	repo := &interleavedRepo{SettingRepo: mem.Settings}
	s := NewStore(repo, cache, nil)

	repo.during = func() {
		if err := s.Set(ctx, "reverse", "true"); err != nil {
			t.Error(err)
		}
	}
	m, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if m["reverse"] != "false" {
		t.Fatalf("in-flight read = %q, want the value it loaded", m["reverse"])
	}
	if cache.values != nil {
		t.Fatalf("stale read was cached: %v", cache.values)
	}

	th, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !th.Reverse {
		t.Error("write lost behind stale cache entry")
	}
	if cache.values["reverse"] != "true" {
		t.Errorf("cache after fresh read = %v", cache.values)
	}
}

func TestSet_Validation(t *testing.T) {
	s := NewStore(memstore.New().Settings, nil, nil)
	if err := s.Set(context.Background(), "nope", "1"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key err = %v", err)
	}
	if err := s.Set(context.Background(), "final_comparator", `"!="`); err == nil {
		t.Error("invalid comparator accepted")
	}
	if err := s.Set(context.Background(), "filter_ratio", `"2/3"`); err == nil {
		t.Error("invalid ratio accepted")
	}
}

func TestComparatorHolds(t *testing.T) {
	a, b := decimal.RequireFromString("0.10"), decimal.RequireFromString("0.1")
	for c, want := range map[Comparator]bool{">=": true, "<=": true, "=": true, ">": false, "<": false} {
		if got := c.Holds(a, b); got != want {
			t.Errorf("%s: got %v", c, got)
		}
	}
}
