package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hw112/lldm/internal/ledger"
)

// InventoryResponse is the JSON envelope for inventory reads.
type InventoryResponse struct {
	Inventory []ledger.InventoryRow `json:"inventory"`
	Error     string                `json:"error,omitempty"`
}

// InventoryHandler serves the character's current holdings.
type InventoryHandler struct {
	sessions *SessionHolder
	logger   *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(sessions *SessionHolder, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *InventoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for inventory endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(InventoryResponse{Error: "Method not allowed. Only GET is supported."})
		return
	}

	rows, err := h.sessions.Current().InventorySnapshot(r.Context())
	if err != nil {
		h.logger.Error("Error reading inventory snapshot", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(InventoryResponse{Error: "Failed to read inventory."})
		return
	}

	if rows == nil {
		rows = []ledger.InventoryRow{}
	}
	if err := json.NewEncoder(w).Encode(InventoryResponse{Inventory: rows}); err != nil {
		h.logger.Error("Error encoding inventory response", "error", err)
	}
}
