// Package crown dá acesso à sessão única da casa crown. Todo acesso passa
// por um RateLimiter global: nenhuma avaliação de página roda em paralelo.
package crown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/shared/workqueue"
)

var ErrNoSession = errors.New("crown session unavailable")

// Showtype da listagem de odds
const (
	ShowToday = "today"
	ShowEarly = "early"
	ShowLive  = "live"
)

// SessionHandle é a página logada. Implementações não precisam ser
// seguras para uso concorrente: Session serializa as chamadas.
type SessionHandle interface {
	FetchOdds(ctx context.Context, crownID, showtype string) (RawMarketDocument, error)
	FetchFixtureList(ctx context.Context) ([]RawFixture, error)
	Close() error
}

// Acquirer faz login e devolve um handle novo
type Acquirer func(ctx context.Context) (SessionHandle, error)

// Session é dona do handle: adquire sob demanda, renova depois de
// IdleRefresh sem uso e libera no Close.
type Session struct {
	acquire Acquirer
	limiter *workqueue.RateLimiter
	idle    time.Duration
	tzHour  int
	log     *zap.Logger

	group singleflight.Group

	mu         sync.Mutex
	handle     SessionHandle
	generation string
	lastUsed   time.Time

	now func() time.Time

	// OnAcquire é chamado a cada login bem sucedido (métricas)
	OnAcquire func()
}

func NewSession(acquire Acquirer, limiter *workqueue.RateLimiter, idleRefresh time.Duration, tzHour int, log *zap.Logger) *Session {
	return &Session{
		acquire: acquire,
		limiter: limiter,
		idle:    idleRefresh,
		tzHour:  tzHour,
		log:     log,
		now:     time.Now,
	}
}

// Generation identifica o login atual ("" sem sessão)
func (s *Session) Generation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Lines busca as linhas atuais da partida já convertidas
func (s *Session) Lines(ctx context.Context, crownID string) ([]model.MarketLine, error) {
	doc, err := s.FetchOdds(ctx, crownID, ShowToday)
	if err != nil {
		return nil, err
	}
	return ParseDocument(doc), nil
}

// Quotes busca as cotações por mercado (usado pelo steam)
func (s *Session) Quotes(ctx context.Context, crownID string) ([]Quote, error) {
	doc, err := s.FetchOdds(ctx, crownID, ShowToday)
	if err != nil {
		return nil, err
	}
	return ParseQuotes(doc), nil
}

func (s *Session) FetchOdds(ctx context.Context, crownID, showtype string) (RawMarketDocument, error) {
	return workqueue.Limit(ctx, s.limiter, func(ctx context.Context) (RawMarketDocument, error) {
		h, err := s.current(ctx)
		if err != nil {
			return RawMarketDocument{}, err
		}
		doc, err := h.FetchOdds(ctx, crownID, showtype)
		if err != nil {
			return RawMarketDocument{}, fmt.Errorf("crown fetch odds %s: %w", crownID, err)
		}
		s.touch()
		return doc, nil
	})
}

func (s *Session) FetchFixtureList(ctx context.Context) ([]model.Fixture, error) {
	raw, err := workqueue.Limit(ctx, s.limiter, func(ctx context.Context) ([]RawFixture, error) {
		h, err := s.current(ctx)
		if err != nil {
			return nil, err
		}
		list, err := h.FetchFixtureList(ctx)
		if err != nil {
			return nil, fmt.Errorf("crown fetch fixtures: %w", err)
		}
		s.touch()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return ParseFixtures(raw, s.now(), s.tzHour), nil
}

// Reset descarta o handle atual; o próximo acesso faz login de novo
func (s *Session) Reset() {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.generation = ""
	s.mu.Unlock()

	if h != nil {
		if err := h.Close(); err != nil {
			s.log.Warn("crown session close failed", zap.Error(err))
		}
		s.log.Info("crown session reset")
	}
}

func (s *Session) Close() error {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.generation = ""
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Close()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = s.now()
	s.mu.Unlock()
}

// current devolve o handle válido, renovando se ficou ocioso demais.
// O login é coalescido: no máximo uma aquisição em voo.
func (s *Session) current(ctx context.Context) (SessionHandle, error) {
	s.mu.Lock()
	h := s.handle
	stale := h != nil && s.idle > 0 && s.now().Sub(s.lastUsed) > s.idle
	s.mu.Unlock()

	if h != nil && !stale {
		return h, nil
	}
	if stale {
		s.log.Info("crown session idle, refreshing", zap.Duration("idle", s.idle))
		s.Reset()
	}

	v, err, _ := s.group.Do("acquire", func() (any, error) {
		s.mu.Lock()
		if s.handle != nil {
			h := s.handle
			s.mu.Unlock()
			return h, nil
		}
		s.mu.Unlock()

		h, err := s.acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
		}

		gen := uuid.NewString()
		s.mu.Lock()
		s.handle = h
		s.generation = gen
		s.lastUsed = s.now()
		s.mu.Unlock()

		s.log.Info("crown session acquired", zap.String("generation", gen))
		if s.OnAcquire != nil {
			s.OnAcquire()
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(SessionHandle), nil
}

// Warm faz o login fora do limiter, na subida do worker
func (s *Session) Warm(ctx context.Context) error {
	_, err := s.current(ctx)
	return err
}
