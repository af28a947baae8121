package routes

import (
	"net/http"

	"github.com/JaimeStill/haccp/pkg/openapi"
)

// Route binds a method and a ServeMux pattern, relative to its group, to a
// handler. Routes with a nil OpenAPI operation are served but undocumented.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}
