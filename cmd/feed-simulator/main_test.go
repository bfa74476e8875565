package main

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestBatch_OnlyFutureFixturesAndValidSignals(t *testing.T) {
	boot := time.Date(2024, 10, 14, 12, 0, 0, 0, time.UTC)
	r := rand.New(rand.NewPCG(1, 2))

	items := batch(boot, boot.Add(time.Hour), r)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (first fixture already started)", len(items))
	}
	for _, it := range items {
		if _, err := it.ToSignal(boot); err != nil {
			t.Errorf("item %+v: %v", it, err)
		}
	}

	if items := batch(boot, boot.Add(4*time.Hour), r); len(items) != 0 {
		t.Errorf("got %d items after every kickoff", len(items))
	}
}
