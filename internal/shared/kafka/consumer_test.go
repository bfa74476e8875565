package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	w.msgs = append(w.msgs, msgs...)
	w.mu.Unlock()
	return nil
}

func TestConsumer_DLQCommitAndReconnect(t *testing.T) {
	first := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("ok")},
		{Offset: 2, Value: []byte("poison")},
		{Offset: 3, Value: []byte("fail")},
		{Offset: 4, Value: []byte("reconnect")},
	}}
	second := &fakeReader{msgs: []kafka.Message{{Offset: 5, Value: []byte("ok")}}}
	readers := []*fakeReader{first, second}
	opened := 0

	dlq := &fakeWriter{}
	var handled []string
	var stages []string
	reconnects := 0

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		Log:  zap.NewNop(),
		Name: "test",
		Open: func() MessageReader {
			r := readers[opened]
			opened++
			return r
		},
		DLQ: dlq,
		Handle: func(_ context.Context, m kafka.Message) error {
			handled = append(handled, string(m.Value))
			switch string(m.Value) {
			case "poison":
				return fmt.Errorf("%w: bad json", ErrPoison)
			case "fail":
				return errors.New("db down")
			case "reconnect":
				return ErrReconnect
			}
			if m.Offset == 5 {
				cancel()
			}
			return nil
		},
		OnError:     func(s string) { stages = append(stages, s) },
		OnReconnect: func() { reconnects++ },
	}

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	if len(handled) != 5 {
		t.Fatalf("handled = %v", handled)
	}
	if len(dlq.msgs) != 1 || string(dlq.msgs[0].Value) != "poison" {
		t.Fatalf("dlq = %v", dlq.msgs)
	}
	headers := map[string]string{}
	for _, h := range dlq.msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["dlq-consumer"] != "test" || headers["dlq-offset"] != "2" {
		t.Errorf("dlq headers = %v", headers)
	}
	if fmt.Sprint(first.committed) != "[1 2 3 4]" {
		t.Errorf("first reader commits = %v", first.committed)
	}
	if !first.closed || reconnects != 1 {
		t.Errorf("reconnect not performed: closed=%v reconnects=%d", first.closed, reconnects)
	}
	if fmt.Sprint(stages) != "[decode handle]" {
		t.Errorf("error stages = %v", stages)
	}
}
