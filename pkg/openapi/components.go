package openapi

import "maps"

// NewComponents creates Components with shared schemas and error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Minimum: Ptr(1.0), Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Minimum: Ptr(1.0), Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending. Example: name,-created_at"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":    errorResponse("Invalid request"),
			"Unauthorized":  errorResponse("Missing or invalid bearer token"),
			"NotFound":      errorResponse("Resource not found"),
			"Conflict":      errorResponse("Request conflicts with current resource state"),
			"TooLarge":      errorResponse("Request body exceeds the configured limit"),
			"Unprocessable": errorResponse("Request is well formed but cannot be carried out in this deployment"),
			"Unavailable":   errorResponse("A dependency such as the identity provider is not ready"),
		},
		SecuritySchemes: map[string]*SecurityScheme{},
	}
}

func errorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: mediaTypes(map[string]*Schema{
			"application/json": SchemaRef("Error"),
		}),
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
