package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/pkg/metrics"
)

// ChannelCatalog carries catalog update events. Clients join it on connect.
const ChannelCatalog = "catalog"

const (
	wsSendBuffer   = 16
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// wsMessage is sent by clients to join or leave a channel.
type wsMessage struct {
	Action  string `json:"action"` // "subscribe" | "unsubscribe"
	Channel string `json:"channel"`
}

// wsEvent is pushed to clients.
type wsEvent struct {
	Channel string `json:"channel"`
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
}

type wsClient struct {
	send     chan []byte
	mu       sync.Mutex
	channels map[string]bool
}

func (c *wsClient) joined(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[channel]
}

func (c *wsClient) set(channel string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.channels[channel] = true
	} else {
		delete(c.channels, channel)
	}
}

// Hub fans events out to connected websocket clients. Clients that cannot
// keep up lose events instead of blocking the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

func (h *Hub) register() *wsClient {
	c := &wsClient{
		send:     make(chan []byte, wsSendBuffer),
		channels: map[string]bool{ChannelCatalog: true},
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.ActiveWebSockets.Inc()
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metrics.ActiveWebSockets.Dec()
	}
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every client on channel and returns how many
// clients it was queued for.
func (h *Hub) Broadcast(channel, typ string, data any) int {
	payload, err := json.Marshal(wsEvent{Channel: channel, Type: typ, Data: data})
	if err != nil {
		slog.Warn("ws broadcast marshal", "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if !c.joined(channel) {
			continue
		}
		select {
		case c.send <- payload:
			n++
		default:
		}
	}
	return n
}

// HandleCatalogUpdate relays a catalog update to browsers. It has the shape
// of a catalog subscriber handler.
func (h *Hub) HandleCatalogUpdate(_ context.Context, u *domain.CatalogUpdate) error {
	h.Broadcast(ChannelCatalog, "catalog.updated", u)
	return nil
}

// WebSocketHandler serves /ws. Clients receive catalog events and may send
// {"action":"subscribe","channel":"..."} to change channels.
func WebSocketHandler(h *Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		client := h.register()
		remote := conn.RemoteAddr().String()
		slog.Debug("ws client connected", "remote", remote)

		done := make(chan struct{})
		go func() {
			defer close(done)
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-client.send:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				case <-ticker.C:
					_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil || m.Channel == "" {
				continue
			}
			switch m.Action {
			case "subscribe":
				client.set(m.Channel, true)
			case "unsubscribe":
				client.set(m.Channel, false)
			}
		}

		h.unregister(client)
		<-done
		_ = conn.Close()
		slog.Debug("ws client disconnected", "remote", remote)
	}
}
