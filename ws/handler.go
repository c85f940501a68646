// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/livepoll/bus"
	"github.com/danielhkuo/livepoll/models"
)

const (
	// Viewers only ever send small JOIN_POLL frames
	maxMessageBytes = 512
	writeTimeout    = 10 * time.Second
)

// wsConn adapts a gorilla connection to the Conn interface. The mutex guards
// against the broadcast goroutine and close racing on writes.
type wsConn struct {
	mu  sync.Mutex
	sck *websocket.Conn
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sck.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.sck.WriteMessage(websocket.TextMessage, data)
}

// Handler upgrades viewer connections and tracks their room membership.
type Handler struct {
	registry *Registry
	upgrader websocket.Upgrader
}

// NewHandler returns a Handler feeding the given registry.
func NewHandler(registry *Registry) *Handler {
	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Viewers join from the public poll page on any origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeWS handles GET /ws. A connection belongs to no room until it sends a
// JOIN_POLL message; on disconnect it is removed from its room.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sck, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &wsConn{sck: sck}
	defer func() {
		h.registry.Leave(c)
		sck.Close()
	}()

	slog.Info("viewer connected", "remote", r.RemoteAddr)
	sck.SetReadLimit(maxMessageBytes)

	for {
		_, msg, err := sck.ReadMessage()
		if err != nil {
			// Normal close path as well as read errors
			return
		}

		var join models.JoinMessage
		if err := json.Unmarshal(msg, &join); err != nil {
			slog.Warn("invalid websocket message", "error", err)
			continue
		}

		if join.Type == models.MsgJoinPoll && join.PollCode != "" {
			h.registry.Join(c, join.PollCode)
			slog.Info("viewer joined poll", "poll_code", join.PollCode)
		}
	}
}

// Run subscribes the registry to coalesced tally updates and forwards them to
// viewers until ctx is done. Each update is serialized once and written to
// every connection in the poll's room.
func Run(ctx context.Context, m *bus.Manager, registry *Registry) {
	updates := make(chan interface{}, 64)
	m.Register(bus.TopicPollUpdates, updates)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-updates:
			update, ok := msg.(models.VoteUpdate)
			if !ok {
				slog.Error("unexpected bus message type", "topic", bus.TopicPollUpdates)
				continue
			}

			payload, err := json.Marshal(update)
			if err != nil {
				slog.Error("failed to marshal vote update", "error", err)
				continue
			}

			sent := registry.Broadcast(update.PollCode, payload)
			slog.Debug("pushed tally update", "poll_code", update.PollCode, "viewers", sent)
		}
	}
}
