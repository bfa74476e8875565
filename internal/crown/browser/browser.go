// Package browser implementa crown.SessionHandle com um Chrome headless
// (chromedp). As consultas rodam como JS inline na página já logada.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/crown"
)

type Config struct {
	BaseURL  string
	Username string
	Password string
	Headless bool
	// LoginWait é o tempo para a página terminar os redirects do login
	LoginWait time.Duration
}

type handle struct {
	ctx    context.Context
	cancel context.CancelFunc
	uid    string
	log    *zap.Logger
}

// Acquirer devolve o crown.Acquirer que abre um Chrome, faz login e guarda o uid
func Acquirer(cfg Config, log *zap.Logger) crown.Acquirer {
	return func(ctx context.Context) (crown.SessionHandle, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("no-sandbox", true),
		)
		// o browser vive além do ctx da chamada: é encerrado no Close
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
		bctx, bcancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...any) {
			log.Debug(fmt.Sprintf(format, v...))
		}))
		cancel := func() {
			bcancel()
			allocCancel()
		}

		wait := cfg.LoginWait
		if wait <= 0 {
			wait = 3 * time.Second
		}

		var uid string
		err := runWith(ctx, bctx,
			chromedp.Navigate(cfg.BaseURL),
			chromedp.Sleep(wait),
			chromedp.Evaluate(loginScript(cfg.Username, cfg.Password), &uid, awaitPromise),
		)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("crown login: %w", err)
		}
		if uid == "" {
			cancel()
			return nil, fmt.Errorf("crown login: empty uid")
		}

		log.Info("crown browser session opened", zap.String("base_url", cfg.BaseURL))
		return &handle{ctx: bctx, cancel: cancel, uid: uid, log: log}, nil
	}
}

func (h *handle) FetchOdds(ctx context.Context, crownID, showtype string) (crown.RawMarketDocument, error) {
	var raw string
	if err := runWith(ctx, h.ctx, chromedp.Evaluate(oddsScript(h.uid, crownID, showtype), &raw, awaitPromise)); err != nil {
		return crown.RawMarketDocument{}, err
	}
	var doc crown.RawMarketDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return crown.RawMarketDocument{}, fmt.Errorf("decode odds document: %w", err)
	}
	return doc, nil
}

func (h *handle) FetchFixtureList(ctx context.Context) ([]crown.RawFixture, error) {
	var raw string
	if err := runWith(ctx, h.ctx, chromedp.Evaluate(fixturesScript(h.uid), &raw, awaitPromise)); err != nil {
		return nil, err
	}
	var out []crown.RawFixture
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode fixture list: %w", err)
	}
	return out, nil
}

func (h *handle) Close() error {
	h.cancel()
	return nil
}

// runWith roda as ações na aba do browser respeitando o cancelamento do chamador
func runWith(callCtx, browserCtx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(browserCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		return callCtx.Err()
	}
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
