package exports

import "github.com/JaimeStill/haccp/pkg/openapi"

var idParam = openapi.PathParam("id", "Export ID")

var planIDParam = openapi.PathParam("id", "Plan ID")

var schemas = map[string]*openapi.Schema{
	"Export": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":           {Type: "string", Format: "uuid", ReadOnly: true},
			"plan_id":      {Type: "string", Format: "uuid"},
			"format":       {Type: "string", Enum: []any{"pdf", "docx", "html"}},
			"pipeline":     {Type: "string", Enum: []any{"standard", "conversion", "legacy"}},
			"filename":     {Type: "string"},
			"content_type": {Type: "string"},
			"size_bytes":   {Type: "integer", Format: "int64"},
			"page_count":   {Type: "integer", Nullable: true, Description: "Set for PDF exports"},
			"storage_key":  {Type: "string"},
			"created_at":   {Type: "string", Format: "date-time"},
			"created_by":   {Type: "string"},
		},
	},
	"ExportList": {
		Type:  "array",
		Items: openapi.SchemaRef("Export"),
	},
	"CreateExport": {
		Type:     "object",
		Required: []string{"formats"},
		Properties: map[string]*openapi.Schema{
			"formats": {
				Type:        "array",
				MinItems:    openapi.Ptr(1),
				Description: "docx requires docx conversion; html is unavailable in production unless the legacy pipeline is allowed",
				Items:       &openapi.Schema{Type: "string", Enum: []any{"pdf", "docx", "html"}},
			},
		},
	},
}

var listOp = &openapi.Operation{
	Summary:    "List plan exports",
	Parameters: []*openapi.Parameter{planIDParam},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Exports, newest first", "ExportList"),
	},
}

var createOp = &openapi.Operation{
	Summary:     "Export plan",
	Description: "Renders the plan in each requested format. The plan must be exportable: at least one hazard and no indeterminate classifications.",
	Parameters:  []*openapi.Parameter{planIDParam},
	RequestBody: openapi.RequestBodyJSON("CreateExport", true),
	Responses: map[int]*openapi.Response{
		201: openapi.ResponseJSON("Created exports", "ExportList"),
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
		409: openapi.ResponseRef("Conflict"),
		422: openapi.ResponseRef("Unprocessable"),
	},
}

var findOp = &openapi.Operation{
	Summary:    "Get export",
	Parameters: []*openapi.Parameter{idParam},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Export", "Export"),
		404: openapi.ResponseRef("NotFound"),
	},
}

var deleteOp = &openapi.Operation{
	Summary:    "Delete export",
	Parameters: []*openapi.Parameter{idParam},
	Responses: map[int]*openapi.Response{
		204: {Description: "Deleted"},
		404: openapi.ResponseRef("NotFound"),
	},
}

var downloadOp = &openapi.Operation{
	Summary:    "Download export",
	Parameters: []*openapi.Parameter{idParam},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseBinary("Rendered document", contentTypes()...),
		404: openapi.ResponseRef("NotFound"),
	},
}
