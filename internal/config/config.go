// Package config handles application configuration from a JSON file and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Supported storage drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// TelegramConfig enables the optional Telegram alert mirror.
type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// Enabled reports whether both the token and the chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// Config holds the application configuration.
type Config struct {
	Prefix                string         `json:"prefix"`
	Token                 string         `json:"token"`
	BotAccount            bool           `json:"bot_account"`
	WebhookURL            string         `json:"webhook_url"`
	SourceName            string         `json:"source_name"`
	Mention               string         `json:"mention"`
	ConfirmTimeoutSeconds int            `json:"confirm_timeout_seconds"`
	StorageDriver         string         `json:"storage_driver"`
	FiltersPath           string         `json:"filters_path"`
	DatabasePath          string         `json:"database_path"`
	LogLevel              string         `json:"log_level"`
	AllowedUsers          []string       `json:"allowed_users"`
	Telegram              TelegramConfig `json:"telegram"`
}

// Load reads the configuration file at path and applies environment overrides.
// A missing or malformed file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := os.Getenv("PENNY_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("PENNY_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}

	if cfg.Prefix == "" {
		cfg.Prefix = "."
	}
	if cfg.SourceName == "" {
		cfg.SourceName = "Moneypenny"
	}
	if cfg.Mention == "" {
		cfg.Mention = "@everyone"
	}
	if cfg.ConfirmTimeoutSeconds <= 0 {
		cfg.ConfirmTimeoutSeconds = 30
	}
	if cfg.FiltersPath == "" {
		cfg.FiltersPath = "./data/filters.json"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./data/filters.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	switch cfg.StorageDriver {
	case "":
		cfg.StorageDriver = DriverJSON
	case DriverJSON, DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown storage_driver %q, use: json, sqlite", cfg.StorageDriver)
	}

	return &cfg, nil
}

// ConfirmTimeout returns the wait bound for destructive confirmations.
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSeconds) * time.Second
}

// SessionToken returns the token in the form the gateway expects.
func (c *Config) SessionToken() string {
	if c.BotAccount && !strings.HasPrefix(c.Token, "Bot ") {
		return "Bot " + c.Token
	}
	return c.Token
}

// IsCommandAllowed checks whether userID may run operator commands.
// The client's own identity is always allowed.
func (c *Config) IsCommandAllowed(selfID, userID string) bool {
	if userID == "" {
		return false
	}
	if userID == selfID {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
