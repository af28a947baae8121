// Package infrastructure wires the shared subsystems every domain needs:
// logging, the PostgreSQL pool, export blob storage, and request
// authentication, all under one lifecycle coordinator.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/haccp/internal/config"
	"github.com/JaimeStill/haccp/pkg/auth"
	"github.com/JaimeStill/haccp/pkg/database"
	"github.com/JaimeStill/haccp/pkg/lifecycle"
	"github.com/JaimeStill/haccp/pkg/storage"
)

// subsystem is a component with startup hooks and a readiness signal.
type subsystem interface {
	lifecycle.ReadinessChecker
	Start(lc *lifecycle.Coordinator) error
}

// Infrastructure is built once per process and shared by the API runtime.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Auth      auth.System
}

// New constructs every subsystem without contacting any of them.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := cfg.Logging.NewLogger(os.Stderr).With("service", "haccp", "version", cfg.Version)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Auth:      auth.New(&cfg.Auth, logger),
	}, nil
}

// Start registers each subsystem's hooks and makes service readiness
// depend on all of them.
func (i *Infrastructure) Start() error {
	systems := []struct {
		name string
		sys  subsystem
	}{
		{"database", i.Database},
		{"storage", i.Storage},
		{"auth", i.Auth},
	}

	for _, s := range systems {
		if err := s.sys.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("%s start failed: %w", s.name, err)
		}
		i.Lifecycle.Watch(s.sys)
	}
	return nil
}
