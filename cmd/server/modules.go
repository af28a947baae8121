package main

import (
	"net/http"

	"github.com/JaimeStill/haccp/internal/api"
	"github.com/JaimeStill/haccp/internal/config"
	"github.com/JaimeStill/haccp/internal/infrastructure"
	"github.com/JaimeStill/haccp/pkg/handlers"
	"github.com/JaimeStill/haccp/pkg/middleware"
	"github.com/JaimeStill/haccp/pkg/module"
	"github.com/JaimeStill/haccp/web/scalar"
)

// Modules are the prefixed HTTP surfaces mounted on the root router.
type Modules struct {
	API    *module.Module
	Scalar *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	scalarModule := scalar.NewModule("/scalar", cfg.API.BasePath+api.SpecPath)
	scalarModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:    apiModule,
		Scalar: scalarModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Scalar)
}

type probe struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, probe{Status: "ok", Version: cfg.Version})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, probe{Status: "not ready", Version: cfg.Version})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, probe{Status: "ready", Version: cfg.Version})
	})

	return router
}
