package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/haccp/internal/api"
	"github.com/JaimeStill/haccp/internal/config"
	"github.com/JaimeStill/haccp/internal/exports"
	"github.com/JaimeStill/haccp/internal/infrastructure"
	"github.com/JaimeStill/haccp/pkg/auth"
	"github.com/JaimeStill/haccp/pkg/database"
	"github.com/JaimeStill/haccp/pkg/middleware"
	"github.com/JaimeStill/haccp/pkg/openapi"
	"github.com/JaimeStill/haccp/pkg/pagination"
	"github.com/JaimeStill/haccp/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "haccp",
			User:            "haccp",
			Password:        "haccp",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "exports",
			ConnectionString: azuriteConnString,
		},
		API: config.APIConfig{
			BasePath:    "/api",
			MaxBodySize: "1MB",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
			OpenAPI: openapi.Config{
				Title:       "HACCP API",
				Description: "test",
			},
		},
		Export: exports.Config{
			DocxConversion: true,
			RenderTimeout:  "30s",
		},
		Logging:         config.LoggingConfig{Level: "error", Format: "text"},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	t.Cleanup(func() { infra.Database.Connection().Close() })
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t, cfg)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if !runtime.Export.DocxConversion {
		t.Error("export config not carried into runtime")
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Storage == nil {
		t.Error("runtime storage is nil")
	}
	if runtime.Auth == nil {
		t.Error("runtime auth is nil")
	}
	if runtime.Lifecycle == nil {
		t.Error("runtime lifecycle is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t, cfg)

	domain := api.NewDomain(api.NewRuntime(cfg, infra))
	if domain.Plans == nil {
		t.Error("plans system is nil")
	}
	if domain.Exports == nil {
		t.Error("exports system is nil")
	}
}

func TestOpenAPISpec(t *testing.T) {
	cfg := validConfig()
	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil)
	rec := httptest.NewRecorder()
	m.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var spec openapi.Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}

	if spec.Info.Version != "0.1.0" {
		t.Errorf("version: got %q, want 0.1.0", spec.Info.Version)
	}

	for _, path := range []string{
		"/plans",
		"/plans/{id}",
		"/plans/{id}/hazards/{hazardId}/answers",
		"/plans/{id}/exports",
		"/exports/{id}/download",
	} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("spec missing path %s", path)
		}
	}
}

func TestRequestMiddleware(t *testing.T) {
	cfg := validConfig()
	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/plans/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	m.Serve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestAuthGuardsDomainRoutes(t *testing.T) {
	cfg := validConfig()
	cfg.Auth = auth.Config{
		Enabled:   true,
		IssuerURL: "https://login.example.com",
		ClientID:  "haccp",
	}
	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"spec is public", "/api/openapi.json", http.StatusOK},
		{"plans require discovery", "/api/plans", http.StatusServiceUnavailable},
		{"exports require discovery", "/api/exports/" + "00000000-0000-0000-0000-000000000001", http.StatusServiceUnavailable},
	}

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

	var spec openapi.Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}
	if len(spec.Security) != 1 || spec.Components.SecuritySchemes["bearerAuth"] == nil {
		t.Errorf("spec does not declare bearer security: %+v", spec.Security)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.Header.Set("Authorization", "Bearer token")
			rec := httptest.NewRecorder()
			m.Serve(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
