package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/technosupport/fep/internal/publish"
)

var tailLogger = log.New(os.Stderr, "[api] ", log.LstdFlags)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AlertTail fans out every published alert to connected /debug/stream
// websocket clients, for live observation during rule tuning. It wraps a
// publish.Publisher and forwards every call through unchanged, so it can be
// inserted transparently in front of the real publisher.
type AlertTail struct {
	inner publish.Publisher

	mu      sync.Mutex
	clients map[*websocket.Conn]chan publish.Alert
}

// NewAlertTail wraps inner, the real publisher used for MQ egress.
func NewAlertTail(inner publish.Publisher) *AlertTail {
	return &AlertTail{
		inner:   inner,
		clients: make(map[*websocket.Conn]chan publish.Alert),
	}
}

// Publish implements publish.Publisher: forwards to inner, then fans the
// alert out to connected websocket clients, best-effort.
func (t *AlertTail) Publish(ctx context.Context, alert publish.Alert) error {
	err := t.inner.Publish(ctx, alert)
	if err == nil {
		t.broadcast(alert)
	}
	return err
}

// ServeWS upgrades the connection and streams every subsequently published
// alert as JSON until the client disconnects.
func (t *AlertTail) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		tailLogger.Printf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan publish.Alert, 16)
	t.mu.Lock()
	t.clients[conn] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.clients, conn)
		t.mu.Unlock()
	}()

	// Drain client reads so a close/ping is noticed; /debug/stream is
	// send-only, anything the client sends is discarded.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(ch)
				return
			}
		}
	}()

	for alert := range ch {
		data, err := json.Marshal(alert)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (t *AlertTail) broadcast(alert publish.Alert) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conn, ch := range t.clients {
		select {
		case ch <- alert:
		default:
			tailLogger.Printf("slow websocket client %s, dropping alert", conn.RemoteAddr())
		}
	}
}
