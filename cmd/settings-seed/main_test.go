package main

import (
	"context"
	"testing"

	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/internal/storage/memstore"
)

func TestParseSeed_ValuesAcceptedByStore(t *testing.T) {
	raw := []byte(`
ready_min_delta: 0.08
final_window: 5m
final_comparator: ">="
steam_enabled: false
filter_ratio: "1/2"
reverse_rules:
  - variety: corner
    period: full
    type: ah1
    condition: -0.5
    back: true
`)
	values, err := parseSeed(raw)
	if err != nil {
		t.Fatal(err)
	}
	if values["steam_enabled"] != "false" || values["final_window"] != `"5m"` {
		t.Fatalf("values = %v", values)
	}

	store := settings.NewStore(memstore.New().Settings, nil, nil)
	for k, v := range values {
		if err := store.Set(context.Background(), k, v); err != nil {
			t.Errorf("set %s=%s: %v", k, v, err)
		}
	}
	th, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if th.SteamEnabled || th.ReadyMinDelta.String() != "0.08" || len(th.ReverseRules) != 1 {
		t.Errorf("snapshot = %+v", th)
	}
}

func TestParseSeed_BadYAML(t *testing.T) {
	if _, err := parseSeed([]byte("a: [1, 2")); err == nil {
		t.Fatal("expected error")
	}
}
