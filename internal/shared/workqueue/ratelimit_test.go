package workqueue

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock avança somente quando o limiter dorme
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func newFakeLimiter(interval time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	l := NewRateLimiter(interval)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestLimit_SpacesDispatches(t *testing.T) {
	l, clock := newFakeLimiter(2 * time.Second)

	var starts []time.Time
	for i := 0; i < 4; i++ {
		_, err := Limit(context.Background(), l, func(ctx context.Context) (int, error) {
			starts = append(starts, clock.Now())
			return i, nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < 2*time.Second {
			t.Errorf("gap %d = %v, want >= 2s", i, gap)
		}
	}
}

func TestLimit_NoWaitAfterIdle(t *testing.T) {
	l, clock := newFakeLimiter(time.Second)

	_ = l.Do(context.Background(), func(ctx context.Context) error { return nil })
	clock.Sleep(context.Background(), 5*time.Second)

	before := clock.Now()
	_ = l.Do(context.Background(), func(ctx context.Context) error { return nil })
	if clock.Now() != before {
		t.Errorf("limiter slept after an idle period longer than the interval")
	}
}

func TestLimit_RealTimeOrderAndGap(t *testing.T) {
	const interval = 30 * time.Millisecond
	l := NewRateLimiter(interval)

	var mu sync.Mutex
	var order []int
	var dispatched []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = l.Do(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				order = append(order, i)
				dispatched = append(dispatched, time.Now())
				mu.Unlock()
				return nil
			})
		}(i)
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want submission order", order)
		}
	}
	// tolerância de 2ms entre o relógio do limiter e o registro dentro da tarefa
	for i := 1; i < len(dispatched); i++ {
		if gap := dispatched[i].Sub(dispatched[i-1]); gap < interval-2*time.Millisecond {
			t.Errorf("gap %d = %v, want ~>= %v", i, gap, interval)
		}
	}
}

func TestLimit_OnWait(t *testing.T) {
	l, _ := newFakeLimiter(time.Second)
	var waits []time.Duration
	l.OnWait = func(d time.Duration) { waits = append(waits, d) }

	for i := 0; i < 2; i++ {
		_ = l.Do(context.Background(), func(ctx context.Context) error { return nil })
	}
	if len(waits) != 2 || waits[0] != 0 || waits[1] != time.Second {
		t.Errorf("waits = %v, want [0s 1s]", waits)
	}
}
