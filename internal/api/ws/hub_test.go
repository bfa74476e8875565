package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// waitSubs espera o hub registrar n inscrições no tópico
func waitSubs(t *testing.T, h *Hub, topic string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		got := len(h.subs[topic])
		h.mu.RUnlock()
		if got == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("topic %s never reached %d subscribers", topic, n)
}

func TestHub_BroadcastByTopic(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	all := dial(t, srv)
	one := dial(t, srv)
	other := dial(t, srv)

	_ = all.WriteJSON(ClientMsg{Type: "subscribe", Topic: TopicAll})
	_ = one.WriteJSON(ClientMsg{Type: "subscribe", Topic: MatchTopic(7)})
	_ = other.WriteJSON(ClientMsg{Type: "subscribe", Topic: MatchTopic(8)})
	waitSubs(t, hub, TopicAll, 1)
	waitSubs(t, hub, MatchTopic(7), 1)
	waitSubs(t, hub, MatchTopic(8), 1)

	if n := hub.Broadcast(events.PromotedBroadcast{PromotedOddID: 1, MatchID: 7}); n != 2 {
		t.Fatalf("sent to %d, want 2", n)
	}

	for _, c := range []*websocket.Conn{all, one} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := c.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		var msg OutMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != "promoted" || msg.Payload.PromotedOddID != 1 {
			t.Errorf("msg = %+v", msg)
		}
	}
}

func TestHub_DropOnDisconnect(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	_ = c.WriteJSON(ClientMsg{Type: "subscribe"})
	waitSubs(t, hub, TopicAll, 1)

	_ = c.Close()
	waitSubs(t, hub, TopicAll, 0)
	if n := hub.Broadcast(events.PromotedBroadcast{MatchID: 1}); n != 0 {
		t.Errorf("sent to %d after disconnect", n)
	}
}
