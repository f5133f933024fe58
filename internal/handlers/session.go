package handlers

import (
	"context"
	"sync"

	"github.com/hw112/lldm/internal/ledger"
	"github.com/hw112/lldm/pkg/chat"
)

// NarratorSession is the slice of the session the HTTP layer needs.
type NarratorSession interface {
	NarratorChat(ctx context.Context, message string) ([]chat.ChatMessage, error)
	InventorySnapshot(ctx context.Context) ([]ledger.InventoryRow, error)
	Ping(ctx context.Context) error
	Close() error
}

// SessionHolder carries the active session and lets the refresh endpoint
// swap it for a fresh one without restarting the server.
type SessionHolder struct {
	mu      sync.RWMutex
	session NarratorSession
}

// NewSessionHolder wraps the initial session.
func NewSessionHolder(s NarratorSession) *SessionHolder {
	return &SessionHolder{session: s}
}

// Current returns the active session.
func (h *SessionHolder) Current() NarratorSession {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session
}

// Replace installs a new session as the active one and returns the
// previous one so the caller can release its resources.
func (h *SessionHolder) Replace(s NarratorSession) NarratorSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.session
	h.session = s
	return prev
}
