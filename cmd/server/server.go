package main

import (
	"context"
	"time"

	"github.com/JaimeStill/haccp/internal/config"
	"github.com/JaimeStill/haccp/internal/infrastructure"
)

// Server owns the infrastructure, mounted modules, and HTTP listener for one process.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"modules", router.Prefixes(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"auth", cfg.Auth.Enabled,
		"export_production", cfg.Export.Production,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start launches subsystem startup hooks and the HTTP listener. Readiness is
// reported through /readyz once every startup hook has returned.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("startup complete", "ready", s.infra.Lifecycle.Ready())
	}()

	return nil
}

// Shutdown cancels the lifecycle context and waits up to timeout for the
// HTTP server, storage, and database hooks to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.infra.Lifecycle.Shutdown(ctx)
}
