package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hw112/lldm/internal/ledger"
	"github.com/hw112/lldm/pkg/chat"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// indexData feeds the adventure page template. ChatHistory is newest
// message first.
type indexData struct {
	ChatHistory []chat.ChatMessage
	Inventory   []ledger.InventoryRow
	ViewCount   int
	Error       string
}

// IndexHandler renders the browser-facing adventure page. A GET shows
// the page; a POST with a user_input form field runs a turn and renders
// the updated transcript and inventory.
type IndexHandler struct {
	sessions *SessionHolder
	views    *ViewCounter
	logger   *slog.Logger
}

// NewIndexHandler creates a new index page handler
func NewIndexHandler(sessions *SessionHolder, views *ViewCounter, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{
		sessions: sessions,
		views:    views,
		logger:   logger,
	}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	count, err := h.views.Increment()
	if err != nil {
		h.logger.Error("Error incrementing view count", "error", err)
	}

	data := indexData{ViewCount: count}

	if r.Method == http.MethodPost {
		message := strings.TrimSpace(r.FormValue("user_input"))
		if message == "" {
			data.Error = "Please enter an action."
			h.render(w, data)
			return
		}

		transcript, err := h.sessions.Current().NarratorChat(r.Context(), message)
		if err != nil {
			h.logger.Error("Error running turn from index page", "error", err)
			data.Error = "The narrator could not complete the turn. Please try again."
			h.render(w, data)
			return
		}
		data.ChatHistory = transcript

		inventory, err := h.sessions.Current().InventorySnapshot(r.Context())
		if err != nil {
			h.logger.Error("Error reading inventory for index page", "error", err)
		} else {
			data.Inventory = inventory
		}
	}

	h.render(w, data)
}

func (h *IndexHandler) render(w http.ResponseWriter, data indexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		h.logger.Error("Error rendering index template", "error", err)
	}
}
