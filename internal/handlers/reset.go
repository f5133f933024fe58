package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// SessionFactory builds a fresh session on a new database. The argument
// is a distinct name component for the new database file.
type SessionFactory func(ctx context.Context, generation int) (NarratorSession, error)

// ResetHandler starts a new adventure: a fresh session on a fresh
// database, leaving the old ledger on disk.
type ResetHandler struct {
	sessions *SessionHolder
	views    *ViewCounter
	factory  SessionFactory
	logger   *slog.Logger
}

// NewResetHandler creates a new reset handler
func NewResetHandler(sessions *SessionHolder, views *ViewCounter, factory SessionFactory, logger *slog.Logger) *ResetHandler {
	return &ResetHandler{
		sessions: sessions,
		views:    views,
		factory:  factory,
		logger:   logger,
	}
}

func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	generation, err := h.views.Current()
	if err != nil {
		h.logger.Error("Error reading view count for reset", "error", err)
		http.Error(w, "Failed to reset the adventure.", http.StatusInternalServerError)
		return
	}

	session, err := h.factory(r.Context(), generation)
	if err != nil {
		h.logger.Error("Error creating replacement session", "error", err)
		http.Error(w, "Failed to reset the adventure.", http.StatusInternalServerError)
		return
	}

	old := h.sessions.Replace(session)
	if old != nil {
		// Close drains any in-flight turn, so do it off the request path.
		go func() {
			if err := old.Close(); err != nil {
				h.logger.Error("Error closing replaced session", "error", err)
			}
		}()
	}

	h.logger.Info("Adventure reset", "generation", generation)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
