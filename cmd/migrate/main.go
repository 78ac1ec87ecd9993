package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bookshelf/internal/config"
	"bookshelf/internal/logging"
	"bookshelf/internal/platform/postgres"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dir := migrationsDir()

	if *command == "create" {
		if *name == "" {
			logger.Error("name is required for 'create' command")
			os.Exit(2)
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			logger.Error("failed to create migration", "error", err)
			os.Exit(1)
		}
		logger.Info("migration created", "name", *name, "dir", dir)
		return
	}

	pool, err := postgres.Open(context.Background(), cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to connect to database", "dsn", postgres.RedactDSN(cfg.DatabaseDSN), "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		logger.Error("failed to set goose dialect", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = goose.Up(db, dir)
	case "down":
		err = goose.Down(db, dir)
	case "status":
		err = goose.Status(db, dir)
	default:
		logger.Error("unknown command, use: up, down, status, create", "command", *command)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migration command failed", "command", *command, "error", err)
		os.Exit(1)
	}
	logger.Info("migration command finished", "command", *command, "dir", dir)
}
