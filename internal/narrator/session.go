package narrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/hw112/lldm/internal/ledger"
	"github.com/hw112/lldm/internal/narrator/tools"
	"github.com/hw112/lldm/pkg/chat"
)

// Config holds the tunable parts of a session.
type Config struct {
	PollInterval time.Duration
	MaxPolls     uint64
	Scope        ledger.Scope
}

// Session is one ongoing adventure: a provisioned assistant, a single
// thread, and the ledger scope its tool calls operate on. Turns are
// serialized; a second NarratorChat blocks until the first finishes.
type Session struct {
	client   Client
	orch     *orchestrator
	store    *ledger.Store
	scope    ledger.Scope
	threadID string
	logger   *slog.Logger

	mu sync.Mutex
}

// NewSession provisions the assistant with the default instructions and
// the registered tool set, opens a fresh thread, and returns a session
// ready for turns.
func NewSession(ctx context.Context, client Client, store *ledger.Store, cfg Config, logger *slog.Logger) (*Session, error) {
	registry := tools.NewRegistry(store, cfg.Scope)

	if err := client.CreateNarrator(ctx, Instructions(), registry.Definitions()); err != nil {
		return nil, fmt.Errorf("failed to create narrator: %w", err)
	}

	threadID, err := client.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	d := &dispatcher{
		registry: registry,
		logger:   logger,
		tracer:   otel.Tracer("narrator"),
	}

	return &Session{
		client: client,
		orch: &orchestrator{
			client:       client,
			dispatcher:   d,
			pollInterval: cfg.PollInterval,
			maxPolls:     cfg.MaxPolls,
			logger:       logger,
		},
		store:    store,
		scope:    cfg.Scope,
		threadID: threadID,
		logger:   logger,
	}, nil
}

// NarratorChat runs one full turn with the player's message and returns
// the updated transcript, newest message first.
func (s *Session) NarratorChat(ctx context.Context, message string) ([]chat.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	transcript, err := s.orch.RunTurn(ctx, s.threadID, message)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("turn completed",
		"thread_id", s.threadID,
		"duration_ms", time.Since(start).Milliseconds(),
		"transcript_len", len(transcript))
	return transcript, nil
}

// InventorySnapshot returns the character's current holdings.
func (s *Session) InventorySnapshot(ctx context.Context) ([]ledger.InventoryRow, error) {
	return s.store.Snapshot(ctx, s.scope)
}

// Ping reports whether the session's ledger is reachable.
func (s *Session) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the session's ledger. It takes the turn mutex, so an
// in-flight turn drains before the store goes away.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}
