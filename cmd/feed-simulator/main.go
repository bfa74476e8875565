// feed-simulator imita o feed websocket do surebet para rodar o pipeline em
// ambiente local. Cada tick envia um lote de FeedItem para todos os clientes.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/ingest"
	"github.com/radieske/surebet-promoter/internal/model"
	"github.com/radieske/surebet-promoter/internal/shared/config"
	"github.com/radieske/surebet-promoter/internal/shared/logger"
	"github.com/radieske/surebet-promoter/internal/shared/metrics"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feedsim_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsFramesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedsim_ws_frames_sent_total",
		Help: "Total de frames enviados",
	})
)

// fixture simulada; a partida começa offset depois do boot
type fixture struct {
	id, league, home, away string
	offset                 time.Duration
}

var catalog = []fixture{
	{"sim-001", "Brasileirão", "Flamengo", "Palmeiras", 40 * time.Minute},
	{"sim-002", "Brasileirão", "Grêmio", "Internacional", 90 * time.Minute},
	{"sim-003", "Premier League", "Arsenal", "Chelsea", 3 * time.Hour},
}

// lines de onde o simulador sorteia; o formato é o mesmo do feed real
var lines = []struct{ variety, period, typ, line string }{
	{model.VarietyGoal, model.PeriodFull, model.TypeAH1, "-0.5"},
	{model.VarietyGoal, model.PeriodFull, model.TypeAH2, "0.5"},
	{model.VarietyGoal, model.PeriodFull, model.TypeOver, "2.5/3"},
	{model.VarietyGoal, model.PeriodFull, model.TypeUnder, "2.5"},
	{model.VarietyGoal, model.PeriodHalf, model.TypeAH1, "0/0.5"},
	{model.VarietyCorner, model.PeriodFull, model.TypeOver, "9.5"},
}

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	log     *zap.Logger
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	wsConnections.Inc()
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		wsConnections.Dec()
	}
}

// broadcast roda só no goroutine do ticker, então há um writer por conexão
func (h *hub) broadcast(v any) {
	msg, _ := json.Marshal(v)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.Error(err))
			_ = c.Close()
			continue
		}
		wsFramesSent.Inc()
	}
}

// batch sorteia um item por fixture que ainda não começou
func batch(boot, now time.Time, r *rand.Rand) []ingest.FeedItem {
	out := make([]ingest.FeedItem, 0, len(catalog))
	for _, f := range catalog {
		start := boot.Add(f.offset)
		if !now.Before(start) {
			continue
		}
		l := lines[r.IntN(len(lines))]
		odds := decimal.NewFromFloat(1.80 + r.Float64()*0.40).Round(2)
		out = append(out, ingest.FeedItem{
			MatchID: f.id, League: f.league, Home: f.home, Away: f.away,
			StartTime: start, Variety: l.variety, Period: l.period,
			Type: l.typ, Line: l.line, Odds: odds,
		})
	}
	return out
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, wsFramesSent)

	h := &hub{clients: make(map[*websocket.Conn]struct{}), log: log}
	boot := time.Now().UTC()

	go func() {
		r := rand.New(rand.NewPCG(uint64(boot.UnixNano()), 7))
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for now := range ticker.C {
			if items := batch(boot, now.UTC(), r); len(items) > 0 {
				h.broadcast(items)
			}
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		h.add(conn)
		log.Info("ws client connected", zap.String("remote", r.RemoteAddr))

		// lê e descarta até o cliente sair
		go func() {
			defer func() {
				h.remove(conn)
				_ = conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	metrics.StartMetricsServer(cfg.MetricsPort)

	addr := ":" + cfg.HTTPPort
	log.Info("feed simulator running", zap.String("addr", addr), zap.String("path", "/ws"))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
