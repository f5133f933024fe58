package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the LLDM API.
// Values come from config.yaml when present, overridden by environment
// variables. Secrets (the OpenAI key) come from the environment only.
type Config struct {
	Port        string `yaml:"port" env:"PORT" env-default:"8080"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
	LogLevelStr string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogLevel    slog.Level `yaml:"-"`

	// OpenAI narrator configuration
	OpenAIAPIKey string `yaml:"-" env:"OPENAI_API_KEY"`
	ModelName    string `yaml:"model_name" env:"MODEL_NAME" env-default:"gpt-4o-mini"`

	// Ledger configuration
	DBPath       string `yaml:"db_path" env:"DB_PATH" env-default:"lldm.db"`
	WorkbookPath string `yaml:"workbook_path" env:"WORKBOOK_PATH" env-default:"DnD.xlsx"`

	// Scope applied to every ledger operation. Single campaign in
	// practice; the schema stays multi-campaign-shaped.
	CampaignID  int64 `yaml:"campaign_id" env:"CAMPAIGN_ID" env-default:"0"`
	CharacterID int64 `yaml:"character_id" env:"CHARACTER_ID" env-default:"0"`

	// Turn polling
	PollIntervalSeconds int    `yaml:"poll_interval_seconds" env:"POLL_INTERVAL_SECONDS" env-default:"3"`
	MaxPolls            uint64 `yaml:"max_polls" env:"MAX_POLLS" env-default:"60"`

	// View counter file used by the HTML shell
	ViewCountPath string `yaml:"view_count_path" env:"VIEW_COUNT_PATH" env-default:"view_count.txt"`
}

// Load reads config.yaml (if present) and the environment.
func Load() (*Config, error) {
	var cfg Config

	var err error
	if _, statErr := os.Stat("config.yaml"); statErr == nil {
		err = cleanenv.ReadConfig("config.yaml", &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelStr)

	if cfg.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %d", cfg.PollIntervalSeconds)
	}
	if cfg.MaxPolls == 0 {
		return nil, fmt.Errorf("max polls must be positive")
	}
	return &cfg, nil
}

// PollInterval returns the wait between run status polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
