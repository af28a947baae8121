// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/haccp/internal/config"
	"github.com/JaimeStill/haccp/internal/infrastructure"
	"github.com/JaimeStill/haccp/pkg/middleware"
	"github.com/JaimeStill/haccp/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The OpenAPI document is mounted ahead of authentication so that clients
// can discover the API before obtaining a token.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	protected := http.NewServeMux()
	if err := registerRoutes(protected, domain, cfg); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+SpecPath, protected)
	mux.Handle("/", runtime.Auth.Middleware()(protected))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.MaxBytes(cfg.API.MaxBodySizeBytes()))

	return m, nil
}
