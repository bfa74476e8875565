package workqueue

import (
	"context"
	"sync"
	"time"
)

// RateLimiter garante intervalo mínimo entre o início de duas operações
// consecutivas. Ordem de despacho = ordem de submissão.
type RateLimiter struct {
	queue    *Queue
	interval time.Duration

	mu   sync.Mutex
	next time.Time

	// OnWait recebe quanto a tarefa esperou até rodar (métricas)
	OnWait func(time.Duration)

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		queue:    NewQueue(1),
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func (l *RateLimiter) Interval() time.Duration { return l.interval }

// Limit enfileira a tarefa no limiter. Cancelamento do ctx durante a espera
// libera a vez sem avançar o próximo horário.
func Limit[T any](ctx context.Context, l *RateLimiter, task Task[T]) (T, error) {
	submitted := l.now()
	return Submit(ctx, l.queue, func(ctx context.Context) (T, error) {
		l.mu.Lock()
		next := l.next
		l.mu.Unlock()

		if wait := next.Sub(l.now()); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				var zero T
				return zero, err
			}
		}

		dispatched := l.now()
		l.mu.Lock()
		l.next = dispatched.Add(l.interval)
		l.mu.Unlock()

		if l.OnWait != nil {
			l.OnWait(dispatched.Sub(submitted))
		}
		return task(ctx)
	})
}

// Do é o atalho para tarefas sem resultado
func (l *RateLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Limit(ctx, l, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
