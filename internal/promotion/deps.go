package promotion

import (
	"context"
	"errors"
	"sync"

	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

var (
	// ErrScrape: a crown não respondeu; a odd fica como está até a próxima passada
	ErrScrape = errors.New("crown scrape failed")
	// ErrSessionReset: o teto de falhas seguidas foi atingido e a sessão foi descartada
	ErrSessionReset = errors.New("crown session reset after repeated failures")
)

// Crown é o que o pipeline usa da sessão crown
type Crown interface {
	Lines(ctx context.Context, crownID string) ([]model.MarketLine, error)
	Reset()
}

type ThresholdSource interface {
	Snapshot(ctx context.Context) (settings.Thresholds, error)
}

// Publisher entrega as mensagens de continuação e de notificação
type Publisher interface {
	PublishContinuation(ctx context.Context, c events.StageContinuation) error
	PublishPromoted(ctx context.Context, n events.PromotedNotice) error
}

// FailureGuard conta falhas seguidas de scrape em todos os loops que usam a
// sessão. Ao atingir o teto reseta a sessão e zera o contador.
type FailureGuard struct {
	mu      sync.Mutex
	n       int
	ceiling int
	crown   Crown

	OnReset func()
}

func NewFailureGuard(ceiling int, crown Crown) *FailureGuard {
	if ceiling < 1 {
		ceiling = 1
	}
	return &FailureGuard{ceiling: ceiling, crown: crown}
}

// Fail registra uma falha; true quando a sessão acabou de ser resetada
func (g *FailureGuard) Fail() bool {
	g.mu.Lock()
	g.n++
	tripped := g.n >= g.ceiling
	if tripped {
		g.n = 0
	}
	g.mu.Unlock()

	if tripped {
		g.crown.Reset()
		if g.OnReset != nil {
			g.OnReset()
		}
	}
	return tripped
}

func (g *FailureGuard) OK() {
	g.mu.Lock()
	g.n = 0
	g.mu.Unlock()
}

func (g *FailureGuard) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
