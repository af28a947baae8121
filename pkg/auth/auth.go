// Package auth validates OpenID Connect bearer tokens on inbound requests
// and exposes the authenticated principal through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/haccp/pkg/handlers"
	"github.com/JaimeStill/haccp/pkg/lifecycle"
)

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrUnavailable indicates the identity provider has not been discovered yet.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Principal identifies the caller behind a verified token.
type Principal struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// System authenticates requests and reports readiness.
type System interface {
	lifecycle.ReadinessChecker
	// Start registers a startup hook that performs OIDC discovery.
	Start(lc *lifecycle.Coordinator) error
	// Middleware rejects requests without a valid bearer token.
	// When auth is disabled it passes every request through.
	Middleware() func(http.Handler) http.Handler
}

type oidcAuth struct {
	cfg      *Config
	verifier atomic.Pointer[oidc.IDTokenVerifier]
	logger   *slog.Logger
}

// New creates an auth system. Discovery against the issuer is deferred to Start.
func New(cfg *Config, logger *slog.Logger) System {
	return &oidcAuth{
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}
}

// NewWithVerifier creates an enabled auth system around an existing verifier,
// skipping discovery.
func NewWithVerifier(verifier *oidc.IDTokenVerifier, logger *slog.Logger) System {
	a := &oidcAuth{
		cfg:    &Config{Enabled: true},
		logger: logger.With("system", "auth"),
	}
	a.verifier.Store(verifier)
	return a
}

func (a *oidcAuth) Start(lc *lifecycle.Coordinator) error {
	if !a.cfg.Enabled {
		a.logger.Info("authentication disabled")
		return nil
	}

	a.logger.Info("starting auth system", "issuer", a.cfg.IssuerURL)

	lc.OnStartup(func() {
		provider, err := oidc.NewProvider(lc.Context(), a.cfg.IssuerURL)
		if err != nil {
			a.logger.Error("oidc discovery failed", "issuer", a.cfg.IssuerURL, "error", err)
			return
		}
		a.verifier.Store(provider.Verifier(&oidc.Config{ClientID: a.cfg.ClientID}))
		a.logger.Info("oidc provider discovered", "issuer", a.cfg.IssuerURL)
	})

	return nil
}

func (a *oidcAuth) Ready() bool {
	return !a.cfg.Enabled || a.verifier.Load() != nil
}

func (a *oidcAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !a.cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.authenticate(r)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, ErrUnavailable) {
					status = http.StatusServiceUnavailable
				} else {
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				}
				handlers.RespondError(w, a.logger, status, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func (a *oidcAuth) authenticate(r *http.Request) (*Principal, error) {
	verifier := a.verifier.Load()
	if verifier == nil {
		return nil, ErrUnavailable
	}

	raw, ok := bearerToken(r)
	if !ok {
		return nil, ErrMissingToken
	}

	token, err := verifier.Verify(r.Context(), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var p Principal
	if err := token.Claims(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	p.Subject = token.Subject
	return &p, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type principalKey struct{}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Actor returns the subject recorded as the author of changes made within ctx.
// Unauthenticated contexts report "anonymous".
func Actor(ctx context.Context) string {
	if p, ok := PrincipalFrom(ctx); ok && p.Subject != "" {
		return p.Subject
	}
	return "anonymous"
}
