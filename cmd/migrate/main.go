// Command migrate applies the embedded schema migrations for plans, hazards,
// and exports. The connection comes from -dsn, then HACCP_DB_DSN, then the
// service's own database configuration.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/haccp/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "HACCP_DB_DSN"

type options struct {
	dsn      string
	up       bool
	down     bool
	steps    int
	version  bool
	force    int
	forceSet bool
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts := parseFlags()
	if err := run(opts, logger); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.dsn, "dsn", "", "Database connection URL")
	flag.BoolVar(&o.up, "up", false, "Run all up migrations")
	flag.BoolVar(&o.down, "down", false, "Run all down migrations")
	flag.IntVar(&o.steps, "steps", 0, "Number of migrations (positive=up, negative=down)")
	flag.BoolVar(&o.version, "version", false, "Print current migration version")
	flag.IntVar(&o.force, "force", -1, "Force set version (use with caution)")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			o.forceSet = true
		}
	})
	return o
}

func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}
	db, err := config.LoadDatabase()
	if err != nil {
		return "", fmt.Errorf("resolve database config: %w", err)
	}
	return db.URL(), nil
}

func run(o options, logger *slog.Logger) error {
	if !o.up && !o.down && !o.version && !o.forceSet && o.steps == 0 {
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn <url>] [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
		return nil
	}

	dsn, err := resolveDSN(o.dsn)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	switch {
	case o.version:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("get version: %w", err)
		}
		logger.Info("schema version", "version", v, "dirty", dirty)
	case o.forceSet:
		if err := m.Force(o.force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		logger.Info("forced schema version", "version", o.force)
	case o.up:
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("run up migrations: %w", err)
		}
		logger.Info("migrations applied")
	case o.down:
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("run down migrations: %w", err)
		}
		logger.Info("migrations reverted")
	case o.steps != 0:
		if err := ignoreNoChange(m.Steps(o.steps)); err != nil {
			return fmt.Errorf("run %d migration steps: %w", o.steps, err)
		}
		logger.Info("migration steps applied", "steps", o.steps)
	}

	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
