// Package routes declares route groups and registers them on a ServeMux and
// an OpenAPI spec.
package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/haccp/pkg/openapi"
)

// Group organizes routes under a common prefix with shared tags.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
	Schemas     map[string]*openapi.Schema
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, child)
	}
}

// Document adds every route that carries an Operation, plus each group's
// schemas, to spec. basePath is the module prefix (e.g. "/api") and is
// prepended to paths but left out of generated operation IDs.
func Document(spec *openapi.Spec, basePath string, groups ...Group) {
	for _, group := range groups {
		documentGroup(spec, basePath, "", nil, group)
	}
}

func documentGroup(spec *openapi.Spec, basePath, parentPrefix string, parentTags []string, group Group) {
	prefix := parentPrefix + group.Prefix
	tags := group.Tags
	if len(tags) == 0 {
		tags = parentTags
	}

	if len(group.Schemas) > 0 {
		spec.Components.AddSchemas(group.Schemas)
	}

	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}
		op := *route.OpenAPI
		path := openAPIPath(prefix + route.Pattern)
		if len(op.Tags) == 0 {
			op.Tags = tags
		}
		if op.OperationID == "" {
			op.OperationID = operationID(route.Method, path)
		}
		spec.AddOperation(openAPIPath(basePath+prefix+route.Pattern), route.Method, &op)
	}

	for _, child := range group.Children {
		documentGroup(spec, basePath, prefix, tags, child)
	}
}

// openAPIPath converts ServeMux wildcards ("{id}", "{path...}") to OpenAPI
// templates and drops the exact-match marker "{$}".
func openAPIPath(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "{$}", "")
	pattern = strings.ReplaceAll(pattern, "...}", "}")
	if pattern == "" {
		return "/"
	}
	return pattern
}

// operationID derives a camel-case ID from method and path:
// PUT /plans/{id}/hazards/{hazardId}/answers becomes
// putPlansByIdHazardsByHazardIdAnswers.
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for seg := range strings.SplitSeq(path, "/") {
		if seg == "" {
			continue
		}
		if name, ok := strings.CutPrefix(seg, "{"); ok {
			b.WriteString("By")
			seg = strings.TrimSuffix(name, "}")
		}
		for word := range strings.SplitSeq(seg, "-") {
			if word == "" {
				continue
			}
			b.WriteString(strings.ToUpper(word[:1]) + word[1:])
		}
	}
	return b.String()
}
