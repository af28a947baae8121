// Package module mounts self-contained HTTP handlers under single-level path
// prefixes, each carrying its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/haccp/pkg/middleware"
)

// Module strips its prefix from inbound requests and hands them to an inner
// router wrapped in the module's middleware.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.Stack

	once    sync.Once
	handler http.Handler
}

// New creates a Module with the given single-level prefix (e.g. "/api").
// Panics if the prefix is empty, missing a leading slash, or multi-level.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
	}
}

// Handler returns the inner router wrapped with the module's middleware.
// The chain is built on first use; later calls to Use panic.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.router)
	})
	return m.handler
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Serve strips the module prefix from the request path and dispatches to the inner router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

// Use adds middleware to the module's stack. Middleware runs in the order added.
func (m *Module) Use(fn middleware.Func) {
	if m.handler != nil {
		panic(fmt.Sprintf("module %s: middleware added after serving began", m.prefix))
	}
	m.middleware.Use(fn)
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	r := new(http.Request)
	*r = *req
	u := *req.URL
	r.URL = &u

	r.URL.Path = strings.TrimPrefix(req.URL.Path, prefix)
	if r.URL.Path == "" {
		r.URL.Path = "/"
	}
	if req.URL.RawPath != "" {
		r.URL.RawPath = strings.TrimPrefix(req.URL.RawPath, prefix)
		if r.URL.RawPath == "" {
			r.URL.RawPath = "/"
		}
	}
	return r
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}
