package workqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmit_LimitsConcurrency(t *testing.T) {
	q := NewQueue(2)

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Submit(context.Background(), q, func(ctx context.Context) (int, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return 0, nil
			})
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestSubmit_FIFO(t *testing.T) {
	q := NewQueue(1)
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _ = Submit(context.Background(), q, func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 0, nil
		})
	}()
	<-started

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = Submit(context.Background(), q, func(ctx context.Context) (int, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return i, nil
			})
		}(i)
		// garante a ordem de chegada na fila
		time.Sleep(15 * time.Millisecond)
	}
	close(release)
	wg.Wait()

	for i, v := range order {
		if v != i+1 {
			t.Fatalf("dispatch order = %v, want 1..5", order)
		}
	}
}

func TestSubmit_ErrorsStayWithCaller(t *testing.T) {
	q := NewQueue(3)
	boom := errors.New("boom")

	_, err := Submit(context.Background(), q, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	_, err = Submit(context.Background(), q, func(ctx context.Context) (int, error) {
		panic("bad task")
	})
	if err == nil {
		t.Fatal("expected panic to be converted into an error")
	}

	v, err := Submit(context.Background(), q, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("sibling task affected: v=%d err=%v", v, err)
	}
}

func TestSubmit_CancelledWhileWaiting(t *testing.T) {
	q := NewQueue(1)
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = Submit(context.Background(), q, func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 0, nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	_, err := Submit(ctx, q, func(ctx context.Context) (int, error) {
		ran = true
		return 0, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if ran {
		t.Error("task should not run after cancellation")
	}
}
