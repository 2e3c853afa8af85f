package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	pgLib "github.com/slighter12/go-lib/database/postgres"

	"gatekeeper/config"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/persistence/migrations"
)

// Supported subcommands:
// - up:     apply every pending migration
// - down:   roll back the most recent migration
// - status: print the state of every migration

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "Abort the migration after this long")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string) error {
	action, err := lookup(command)
	if err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if cfg.Postgres == nil {
		return errors.New("postgres section is required to run migrations")
	}

	db, err := pgLib.New(cfg.Postgres)
	if err != nil {
		return errors.Wrap(err, "connect to PostgreSQL")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	defer sqlDB.Close()

	return action(ctx, sqlDB)
}

func lookup(command string) (func(context.Context, *sql.DB) error, error) {
	switch command {
	case "up":
		return migrations.Up, nil
	case "down":
		return migrations.Down, nil
	case "status":
		return migrations.Status, nil
	default:
		printUsage()

		return nil, errors.Errorf("unknown subcommand %q", command)
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [-timeout 5m] <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  up        Apply every pending migration")
	fmt.Println("  down      Roll back the most recent migration")
	fmt.Println("  status    Print the state of every migration")
}
