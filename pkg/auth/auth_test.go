package auth_test

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/haccp/pkg/auth"
	"github.com/JaimeStill/haccp/pkg/lifecycle"
)

const (
	issuer   = "https://idp.example.test"
	clientID = "haccp"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sign(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()

	enc := base64.RawURLEncoding
	header, _ := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}

	signingInput := enc.EncodeToString(header) + "." + enc.EncodeToString(payload)
	digest := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signingInput + "." + enc.EncodeToString(sig)
}

func claims(aud string, exp time.Time) map[string]any {
	return map[string]any{
		"iss":   issuer,
		"aud":   aud,
		"sub":   "user-42",
		"email": "qa@plant.example",
		"iat":   time.Now().Unix(),
		"exp":   exp.Unix(),
	}
}

func TestMiddleware(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	verifier := oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: clientID})
	sys := auth.NewWithVerifier(verifier, discard())

	var actor string
	handler := sys.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = auth.Actor(r.Context())
	}))

	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		header    string
		want      int
		wantActor string
	}{
		{"valid", "Bearer " + sign(t, key, claims(clientID, future)), http.StatusOK, "user-42"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong audience", "Bearer " + sign(t, key, claims("other", future)), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + sign(t, key, claims(clientID, time.Now().Add(-time.Hour))), http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + sign(t, other, claims(clientID, future)), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor = ""
			req := httptest.NewRequest(http.MethodGet, "/plans", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if actor != tt.wantActor {
				t.Errorf("actor = %q, want %q", actor, tt.wantActor)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate challenge")
			}
		})
	}
}

func TestDisabledPassesThrough(t *testing.T) {
	sys := auth.New(&auth.Config{}, discard())
	if err := sys.Start(lifecycle.New()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sys.Ready() {
		t.Error("disabled auth should report ready")
	}

	var actor string
	handler := sys.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = auth.Actor(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if actor != "anonymous" {
		t.Errorf("actor = %q, want anonymous", actor)
	}
}

func TestEnabledBeforeDiscovery(t *testing.T) {
	sys := auth.New(&auth.Config{Enabled: true, IssuerURL: issuer, ClientID: clientID}, discard())
	if sys.Ready() {
		t.Error("should not be ready before discovery")
	}

	handler := sys.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     auth.Config
		wantErr bool
	}{
		{"disabled needs nothing", auth.Config{}, false},
		{"enabled complete", auth.Config{Enabled: true, IssuerURL: issuer, ClientID: clientID}, false},
		{"enabled without issuer", auth.Config{Enabled: true, ClientID: clientID}, true},
		{"enabled without client", auth.Config{Enabled: true, IssuerURL: issuer}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("env", func(t *testing.T) {
		t.Setenv("TEST_AUTH_ENABLED", "true")
		t.Setenv("TEST_AUTH_ISSUER", issuer)
		t.Setenv("TEST_AUTH_CLIENT", clientID)

		var cfg auth.Config
		err := cfg.Finalize(&auth.Env{
			Enabled:   "TEST_AUTH_ENABLED",
			IssuerURL: "TEST_AUTH_ISSUER",
			ClientID:  "TEST_AUTH_CLIENT",
		})
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if !cfg.Enabled || cfg.IssuerURL != issuer || cfg.ClientID != clientID {
			t.Errorf("env not applied: %+v", cfg)
		}
	})
}
