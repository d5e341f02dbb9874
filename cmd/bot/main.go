package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"penny_watch/internal/bot"
	"penny_watch/internal/config"
	"penny_watch/internal/filter"
	"penny_watch/internal/notify"
	"penny_watch/internal/storage"
)

func main() {
	configPath := flag.String("config", envOrDefault("PENNY_CONFIG", "config.json"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if cfg.StorageDriver == config.DriverSQLite {
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				log.Error("create data directory", "path", dir, "error", err)
				os.Exit(1)
			}
		}
	}

	store, err := storage.Open(cfg)
	if err != nil {
		log.Error("open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	filters := filter.NewList(store)

	sinks := notify.NewFanout(log.With("component", "notify"))
	if cfg.WebhookURL != "" {
		sinks.Register(notify.NewWebhook(cfg.WebhookURL, cfg.Mention))
	}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Error("create telegram mirror", "error", err)
		} else {
			sinks.Register(tg)
		}
	}

	b, err := bot.New(cfg, filters, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	b.LoadExtensions(
		bot.StartExtension(),
		bot.FiltersExtension(),
		bot.MonitorExtension(sinks),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "storage", cfg.StorageDriver, "sinks", sinks.Len())

	if err := b.Run(ctx); err != nil {
		log.Error("run bot", "error", err)
		os.Exit(1)
	}

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
