package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hw112/lldm/internal/config"
	"github.com/hw112/lldm/internal/handlers"
	"github.com/hw112/lldm/internal/ledger"
	"github.com/hw112/lldm/internal/loader"
	"github.com/hw112/lldm/internal/logger"
	"github.com/hw112/lldm/internal/middleware"
	"github.com/hw112/lldm/internal/narrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting LLDM API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_name", cfg.ModelName,
		"db_path", cfg.DBPath)

	if cfg.OpenAIAPIKey == "" {
		log.Error("OpenAI API key is required")
		os.Exit(1)
	}

	store, err := ledger.Open(cfg.DBPath, log)
	if err != nil {
		log.Error("Failed to open ledger database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing ledger database", "error", err)
		}
	}()

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer seedCancel()
	if err := seedWorldItems(seedCtx, store, cfg, log); err != nil {
		log.Error("Failed to seed ledger from workbook", "error", err)
		os.Exit(1)
	}

	client := narrator.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ModelName, log)
	sessionCfg := narrator.Config{
		PollInterval: cfg.PollInterval(),
		MaxPolls:     cfg.MaxPolls,
		Scope:        ledger.Scope{CampaignID: cfg.CampaignID, CharacterID: cfg.CharacterID},
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer initCancel()
	session, err := narrator.NewSession(initCtx, client, store, sessionCfg, log)
	if err != nil {
		log.Error("Failed to create narrator session", "error", err)
		os.Exit(1)
	}
	log.Info("Narrator session established")

	sessions := handlers.NewSessionHolder(session)

	views, err := handlers.NewViewCounter(cfg.ViewCountPath)
	if err != nil {
		log.Error("Failed to open view counter", "error", err)
		os.Exit(1)
	}

	// A reset provisions a new session on a generation-named database,
	// leaving the previous adventure's ledger on disk.
	factory := func(ctx context.Context, generation int) (handlers.NarratorSession, error) {
		dbPath := filepath.Join(filepath.Dir(cfg.DBPath), fmt.Sprintf("%d.db", generation))
		newStore, err := ledger.Open(dbPath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open replacement ledger: %w", err)
		}
		if err := seedWorldItems(ctx, newStore, cfg, log); err != nil {
			_ = newStore.Close()
			return nil, fmt.Errorf("failed to seed replacement ledger: %w", err)
		}
		newClient := narrator.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ModelName, log)
		return narrator.NewSession(ctx, newClient, newStore, sessionCfg, log)
	}

	mux := http.NewServeMux()
	mux.Handle("/", handlers.NewIndexHandler(sessions, views, log))
	mux.Handle("/refresh_and_clear", handlers.NewResetHandler(sessions, views, factory, log))
	mux.Handle("/v1/health", handlers.NewHealthHandler(sessions, log))
	mux.Handle("/v1/chat", handlers.NewChatHandler(sessions, log))
	mux.Handle("/v1/inventory", handlers.NewInventoryHandler(sessions, log))

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout left unset; turn length is bounded by the chat handler
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}

// seedWorldItems loads the campaign workbook into an empty ledger. A
// ledger that already has items is left alone.
func seedWorldItems(ctx context.Context, store *ledger.Store, cfg *config.Config, log *slog.Logger) error {
	empty, err := loader.WorldItemsEmpty(ctx, store.DB())
	if err != nil {
		return err
	}
	if !empty {
		log.Info("World items already seeded, skipping workbook load")
		return nil
	}
	return loader.LoadWorkbook(ctx, store.DB(), cfg.WorkbookPath, log)
}
