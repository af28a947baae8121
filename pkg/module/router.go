package module

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Router sends each request to the module mounted at its first path segment.
// Paths no module claims fall through to a plain ServeMux used for probes.
type Router struct {
	modules  map[string]*Module
	fallback *http.ServeMux
}

// NewRouter creates a Router with no modules mounted.
func NewRouter() *Router {
	return &Router{
		modules:  make(map[string]*Module),
		fallback: http.NewServeMux(),
	}
}

// HandleNative registers a handler for paths outside every module.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.fallback.HandleFunc(pattern, handler)
}

// Mount claims the module's prefix. Mounting two modules at one prefix panics.
func (r *Router) Mount(m *Module) {
	if _, taken := r.modules[m.prefix]; taken {
		panic(fmt.Sprintf("module already mounted at %s", m.prefix))
	}
	r.modules[m.prefix] = m
}

// Prefixes lists the mounted prefixes in sorted order.
func (r *Router) Prefixes() []string {
	return slices.Sorted(maps.Keys(r.modules))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	req = trimTrailingSlash(req)

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.Serve(w, req)
		return
	}
	r.fallback.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	rest, _ := strings.CutPrefix(path, "/")
	head, _, _ := strings.Cut(rest, "/")
	return "/" + head
}

// trimTrailingSlash returns a shallow copy of req without a trailing slash
// so "/api/plans/" and "/api/plans" resolve to the same route.
func trimTrailingSlash(req *http.Request) *http.Request {
	path := req.URL.Path
	if len(path) <= 1 || !strings.HasSuffix(path, "/") {
		return req
	}

	r := new(http.Request)
	*r = *req
	u := *req.URL
	u.Path = strings.TrimSuffix(path, "/")
	u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	r.URL = &u
	return r
}
