package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient consome o feed websocket do surebet e publica os sinais.
// Desconexão leva a reconexão com backoff; frames inválidos são descartados.
type WSClient struct {
	URL       string
	Log       *zap.Logger
	Publisher Publisher
	Backoff   time.Duration
	Now       func() time.Time

	OnReceived  func()
	OnInvalid   func()
	OnPublished func()
}

func (c *WSClient) Start(ctx context.Context) {
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 3 * time.Second
	}
	for {
		if ctx.Err() != nil {
			c.Log.Info("context canceled, stopping feed client")
			return
		}
		if err := c.connectAndListen(ctx); err != nil {
			c.Log.Warn("feed connection closed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
	}
}

func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to surebet feed", zap.String("url", c.URL))

	// fecha a conexão no cancelamento para destravar o ReadMessage
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.HandleFrame(ctx, frame)
	}
}

// HandleFrame decodifica um frame e publica cada sinal válido
func (c *WSClient) HandleFrame(ctx context.Context, frame []byte) {
	items, err := decodeFrame(frame)
	if err != nil {
		c.Log.Warn("invalid feed frame", zap.Error(err))
		c.invalid()
		return
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	for _, it := range items {
		if c.OnReceived != nil {
			c.OnReceived()
		}
		sig, err := it.ToSignal(now())
		if err != nil {
			c.Log.Warn("invalid surebet item", zap.String("crown_id", it.MatchID), zap.Error(err))
			c.invalid()
			continue
		}
		if err := c.Publisher.Publish(ctx, sig); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.Log.Error("publish surebet signal failed", zap.String("crown_id", sig.MatchExternalID), zap.Error(err))
			continue
		}
		if c.OnPublished != nil {
			c.OnPublished()
		}
	}
}

func (c *WSClient) invalid() {
	if c.OnInvalid != nil {
		c.OnInvalid()
	}
}
