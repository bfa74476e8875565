// Package ws empurra as recomendações novas para clientes websocket.
package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

// TopicAll recebe toda recomendação; "match:<id>" só as da partida
const TopicAll = "all"

// ClientMsg: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// OutMsg é o envelope enviado ao cliente
type OutMsg struct {
	Type    string                   `json:"type"`
	Payload events.PromotedBroadcast `json:"payload"`
}

// client serializa as escritas de uma conexão (gorilla aceita um writer por vez)
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}
}

func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*client]struct{}),
	}
}

func MatchTopic(matchID int64) string { return "match:" + strconv.FormatInt(matchID, 10) }

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer func() {
		h.drop(c)
		_ = conn.Close()
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(c, msg.Topic)
		case "unsubscribe":
			h.unsubscribe(c, msg.Topic)
		case "ping":
			b, _ := json.Marshal(map[string]string{"type": "pong"})
			_ = c.write(b)
		}
	}
}

func (h *Hub) subscribe(c *client, topic string) {
	if topic == "" {
		topic = TopicAll
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[*client]struct{})
	}
	h.subs[topic][c] = struct{}{}
}

func (h *Hub) unsubscribe(c *client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[topic]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, topic)
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, topic)
		}
	}
}

// Broadcast entrega aos inscritos em "all" e no tópico da partida.
// Devolve quantas conexões receberam.
func (h *Hub) Broadcast(b events.PromotedBroadcast) int {
	h.mu.RLock()
	targets := map[*client]struct{}{}
	for _, topic := range []string{TopicAll, MatchTopic(b.MatchID)} {
		for c := range h.subs[topic] {
			targets[c] = struct{}{}
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return 0
	}

	payload, _ := json.Marshal(OutMsg{Type: "promoted", Payload: b})
	sent := 0
	for c := range targets {
		if err := c.write(payload); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
