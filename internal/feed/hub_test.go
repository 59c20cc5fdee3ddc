package feed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), 4)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, &Message{Type: "state", State: map[string]any{"round": 1}})
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return msg
}

func TestSubscriberGetsInitialStateThenUpdates(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)

	first := readMessage(t, conn)
	if first.Type != "state" || first.At.IsZero() {
		t.Fatalf("initial message %+v", first)
	}

	hub.Publish(Message{Type: "update", Intent: "roll", State: map[string]any{"dice": 4}})
	got := readMessage(t, conn)
	if got.Type != "update" || got.Intent != "roll" {
		t.Fatalf("update %+v", got)
	}
	state, ok := got.State.(map[string]any)
	if !ok || state["dice"] != float64(4) {
		t.Fatalf("state payload %#v", got.State)
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	readMessage(t, a)
	readMessage(t, b)

	hub.Publish(Message{Type: "update", Intent: "advance"})
	for _, conn := range []*websocket.Conn{a, b} {
		if msg := readMessage(t, conn); msg.Intent != "advance" {
			t.Fatalf("got %+v", msg)
		}
	}
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(Message{Type: "update"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked with no hub loop running")
	}
}
