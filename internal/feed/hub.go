package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Message is what subscribers receive after every accepted intent.
type Message struct {
	Type   string    `json:"type"`
	Intent string    `json:"intent,omitempty"`
	At     time.Time `json:"at"`
	State  any       `json:"state"`
}

// Hub fans out game updates to websocket subscribers. The clients map is
// owned by the Run goroutine.
type Hub struct {
	log        *slog.Logger
	buffer     int
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader
}

func NewHub(logger *slog.Logger, buffer int) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		log:        logger,
		buffer:     buffer,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, buffer),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.log.Debug("feed subscriber joined", "remote", c.conn.RemoteAddr().String(), "subscribers", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Debug("feed subscriber left", "remote", c.conn.RemoteAddr().String(), "subscribers", len(h.clients))
			}
		case payload := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Too slow to keep up; drop them rather than stall the table.
					delete(h.clients, c)
					close(c.send)
					h.log.Warn("feed subscriber dropped", "remote", c.conn.RemoteAddr().String())
				}
			}
		}
	}
}

// Publish queues a message for every subscriber. It never blocks the caller;
// when the queue is full the message is dropped.
func (h *Hub) Publish(msg Message) {
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("feed encode failed", "type", msg.Type, "err", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("feed queue full, update dropped", "type", msg.Type, "intent", msg.Intent)
	}
}

// ServeWS upgrades the request and subscribes the connection. The first
// message is sent by the caller through initial, so a new subscriber always
// sees the current table.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial *Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("feed upgrade failed", "err", err)
		return
	}
	c := &Client{hub: h, conn: conn, send: make(chan []byte, h.buffer)}
	if initial != nil {
		if initial.At.IsZero() {
			initial.At = time.Now().UTC()
		}
		if payload, err := json.Marshal(initial); err == nil {
			c.send <- payload
		}
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writeLoop()
	go c.readLoop()
}
