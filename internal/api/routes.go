package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/haccp/internal/config"
	"github.com/JaimeStill/haccp/pkg/openapi"
	"github.com/JaimeStill/haccp/pkg/routes"
)

// SpecPath is the module-relative path serving the OpenAPI document.
const SpecPath = "/openapi.json"

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	groups := []routes.Group{
		domain.Plans.Handler().Routes(),
		domain.Exports.Handler().Routes(),
	}

	routes.Register(mux, groups...)

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	if cfg.Auth.Enabled {
		spec.RequireBearer("ID token issued by " + cfg.Auth.IssuerURL)
	}
	routes.Document(spec, "", groups...)

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}
	mux.HandleFunc("GET "+SpecPath, openapi.ServeSpec(specBytes))

	return nil
}
