// Package live pushes classroom events, such as new submissions, to teachers over websockets.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// Message types.
const (
	TypeSubmission   = "submission"
	TypeQuizAssigned = "quiz_assigned"
)

// Message is the JSON frame sent to subscribers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher sends a message to everyone subscribed to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, msg Message)
}

// Hub tracks websocket subscribers per channel. Channels are user ids.
type Hub struct {
	mu             sync.Mutex
	channels       map[string]map[*websocket.Conn]struct{}
	originPatterns []string
}

// NewHub creates a hub. originPatterns lists the cross-origin hosts allowed to connect.
func NewHub(originPatterns []string) *Hub {
	return &Hub{
		channels:       make(map[string]map[*websocket.Conn]struct{}),
		originPatterns: originPatterns,
	}
}

// Serve upgrades the request and keeps the connection subscribed to channel until the client
// goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		slog.Warn("websocket upgrade failed", "channel", channel, "error", err)
		return
	}

	h.add(channel, conn)
	defer h.remove(channel, conn)

	// Subscribers only listen; CloseRead handles control frames and reports disconnects.
	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
}

func (h *Hub) add(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*websocket.Conn]struct{})
	}
	h.channels[channel][conn] = struct{}{}
	slog.Debug("live subscriber connected", "channel", channel, "total", len(h.channels[channel]))
}

func (h *Hub) remove(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	conns, ok := h.channels[channel]
	if ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.channels, channel)
		}
	}
	h.mu.Unlock()

	if ok {
		conn.Close(websocket.StatusNormalClosure, "")
		slog.Debug("live subscriber disconnected", "channel", channel)
	}
}

// Subscribers returns the number of open connections on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

// Publish writes msg to every subscriber of channel. Connections whose write fails are dropped.
func (h *Hub) Publish(ctx context.Context, channel string, msg Message) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.channels[channel]))
	for c := range h.channels[channel] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		err := wsjson.Write(wctx, c, msg)
		cancel()
		if err != nil {
			slog.Warn("live write failed, dropping subscriber", "channel", channel, "error", err)
			h.remove(channel, c)
		}
	}
}

// NopPublisher discards messages.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Message) {}
