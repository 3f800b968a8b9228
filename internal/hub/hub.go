// Package hub tracks which live connections observe which game and
// fans server messages out to them.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/graceteusch/chess/internal/obslog"
	"github.com/graceteusch/chess/pkg/wire"
	"go.uber.org/zap"
)

// Conn is the transport-level handle the hub holds for each client.
// The hub never looks past "is it open" and "send these bytes".
type Conn interface {
	Send(ctx context.Context, payload []byte) error
	IsOpen() bool
}

// Hub maps game IDs to the ordered connections registered under them.
// Registration order is preserved; broadcast iterates over a snapshot
// so concurrent Add/Remove never corrupts delivery.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64][]Conn
}

func New() *Hub {
	return &Hub{conns: make(map[int64][]Conn)}
}

// Add registers conn under gameID, creating the entry if absent.
func (h *Hub) Add(gameID int64, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[gameID] = append(h.conns[gameID], conn)
}

// Remove unregisters conn from gameID; unknown pairs are a no-op.
func (h *Hub) Remove(gameID int64, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.conns[gameID]
	for i, c := range list {
		if c == conn {
			h.conns[gameID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(h.conns[gameID]) == 0 {
		delete(h.conns, gameID)
	}
}

// Count returns how many connections are registered under gameID.
func (h *Hub) Count(gameID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[gameID])
}

// Broadcast serializes msg once and delivers it to every open
// connection registered under gameID except exclude (nil excludes
// nobody). A failed send is logged and skipped so one bad connection
// never blocks delivery to its siblings.
func (h *Hub) Broadcast(ctx context.Context, gameID int64, exclude Conn, msg wire.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		obslog.L().Error("broadcast_marshal_error", zap.Int64("game_id", gameID), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]Conn, len(h.conns[gameID]))
	copy(targets, h.conns[gameID])
	h.mu.RUnlock()

	for _, conn := range targets {
		if conn == exclude || !conn.IsOpen() {
			continue
		}
		if err := conn.Send(ctx, payload); err != nil {
			obslog.L().Warn("broadcast_send_error", zap.Int64("game_id", gameID), zap.Error(err))
		}
	}
}

// SendTo serializes msg and delivers it to a single connection,
// typically the originator of a command.
func (h *Hub) SendTo(ctx context.Context, conn Conn, msg wire.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Send(ctx, payload)
}
