package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"penny_watch/internal/config"
	"penny_watch/migrations"
)

func main() {
	configPath := flag.String("config", envOrDefault("PENNY_CONFIG", "config.json"), "path to config file")
	dbPath := flag.String("db", "", "path to sqlite database (overrides config)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-config path] [-db path] <command>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  up          Migrate the filter schema to the latest version")
		fmt.Fprintln(os.Stderr, "  up-one      Migrate one version up")
		fmt.Fprintln(os.Stderr, "  down        Roll back one version")
		fmt.Fprintln(os.Stderr, "  status      Show migration status")
		fmt.Fprintln(os.Stderr, "  version     Show current version")
		fmt.Fprintln(os.Stderr, "  reset       Roll back all migrations")
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	path := *dbPath
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		path = cfg.DatabasePath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Error("open database", "path", path, "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		log.Error("create provider", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	switch cmd {
	case "up":
		results, err := provider.Up(ctx)
		for _, r := range results {
			log.Info("applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
		}
		exitOn(log, cmd, err)
	case "up-one":
		r, err := provider.UpByOne(ctx)
		exitOn(log, cmd, err)
		log.Info("applied", "version", r.Source.Version, "path", r.Source.Path)
	case "down":
		r, err := provider.Down(ctx)
		exitOn(log, cmd, err)
		log.Info("rolled back", "version", r.Source.Version, "path", r.Source.Path)
	case "status":
		statuses, err := provider.Status(ctx)
		exitOn(log, cmd, err)
		for _, s := range statuses {
			fmt.Printf("%-10s %d %s\n", s.State, s.Source.Version, s.Source.Path)
		}
	case "version":
		v, err := provider.GetDBVersion(ctx)
		exitOn(log, cmd, err)
		fmt.Println(v)
	case "reset":
		results, err := provider.DownTo(ctx, 0)
		for _, r := range results {
			log.Info("rolled back", "version", r.Source.Version, "path", r.Source.Path)
		}
		exitOn(log, cmd, err)
	default:
		log.Error("unknown command", "command", cmd)
		os.Exit(1)
	}
}

func exitOn(log *slog.Logger, cmd string, err error) {
	if err != nil {
		log.Error(cmd, "error", err)
		os.Exit(1)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
