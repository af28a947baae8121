package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/haccp/internal/config"
	"github.com/JaimeStill/haccp/internal/infrastructure"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.EnvHaccpConfigDir, t.TempDir())
	t.Setenv("HACCP_DB_NAME", "haccp")
	t.Setenv("HACCP_DB_USER", "haccp")
	t.Setenv("HACCP_STORAGE_CONNECTION_STRING",
		"DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;")
	t.Setenv("HACCP_LOG_LEVEL", "error")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestProbes(t *testing.T) {
	cfg := testConfig(t)
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New: %v", err)
	}
	t.Cleanup(func() { infra.Database.Connection().Close() })

	router := buildRouter(infra, cfg)

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/readyz", http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}

			var body probe
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.want || body.Version != cfg.Version {
				t.Errorf("body = %+v, want status %q version %q", body, tt.want, cfg.Version)
			}
		})
	}
}

func TestModulesMount(t *testing.T) {
	cfg := testConfig(t)
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New: %v", err)
	}
	t.Cleanup(func() { infra.Database.Connection().Close() })

	modules, err := NewModules(infra, cfg)
	if err != nil {
		t.Fatalf("NewModules: %v", err)
	}

	router := buildRouter(infra, cfg)
	modules.Mount(router)

	for _, path := range []string{"/api/openapi.json", "/scalar/"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}
