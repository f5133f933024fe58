package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Service    string                 `json:"service"`
	Components map[string]interface{} `json:"components"`
}

// HealthHandler pings the active session's ledger, so it follows the
// current database across adventure resets.
type HealthHandler struct {
	sessions *SessionHolder
	logger   *slog.Logger
}

func NewHealthHandler(sessions *SessionHolder, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC(),
		Service:    "lldm",
		Components: map[string]interface{}{},
	}

	if err := h.sessions.Current().Ping(ctx); err != nil {
		h.logger.Error("Database health check failed", "error", err)
		response.Status = "degraded"
		response.Components["database"] = "down"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		response.Components["database"] = "up"
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response", "error", err)
	}
}
