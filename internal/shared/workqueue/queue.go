// Package workqueue serializa o acesso a recursos escassos: a sessão única da
// crown e as APIs externas com limite de requisições.
package workqueue

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Task é uma operação sem argumentos que produz um resultado ou falha.
type Task[T any] func(ctx context.Context) (T, error)

// Queue admite até concurrency tarefas simultâneas; as demais esperam em
// ordem de chegada. A falha de uma tarefa só chega ao seu próprio chamador.
type Queue struct {
	sem         *semaphore.Weighted
	concurrency int
}

func NewQueue(concurrency int) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Queue{
		sem:         semaphore.NewWeighted(int64(concurrency)),
		concurrency: concurrency,
	}
}

// Concurrency retorna o limite configurado
func (q *Queue) Concurrency() int { return q.concurrency }

// Submit espera a vez da tarefa, executa e devolve o resultado.
// Se ctx for cancelado durante a espera a tarefa não roda.
func Submit[T any](ctx context.Context, q *Queue, task Task[T]) (T, error) {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, err
	}
	defer q.sem.Release(1)
	return run(ctx, task)
}

// run isola panics de uma tarefa para não derrubar as demais da fila
func run[T any](ctx context.Context, task Task[T]) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workqueue: task panic: %v", r)
		}
	}()
	return task(ctx)
}
