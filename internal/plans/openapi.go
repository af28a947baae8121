package plans

import "github.com/JaimeStill/haccp/pkg/openapi"

var (
	planIDParam   = openapi.PathParam("id", "Plan ID")
	hazardIDParam = openapi.PathPatternParam("hazardId", "Hazard ID, unique within the plan", hazardIDPattern.String())
	answerEnum    = []any{"unknown", "yes", "no"}
)

var schemas = map[string]*openapi.Schema{
	"Plan": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":                  {Type: "string", Format: "uuid", ReadOnly: true},
			"name":                {Type: "string"},
			"description":         {Type: "string"},
			"hazard_count":        {Type: "integer"},
			"ccp_count":           {Type: "integer"},
			"oprp_count":          {Type: "integer"},
			"prp_count":           {Type: "integer"},
			"indeterminate_count": {Type: "integer"},
			"exportable":          {Type: "boolean"},
			"created_at":          {Type: "string", Format: "date-time"},
			"updated_at":          {Type: "string", Format: "date-time"},
			"updated_by":          {Type: "string"},
		},
	},
	"PlanPage": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef("Plan")},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
			"has_next":    {Type: "boolean"},
		},
	},
	"PlanDetail": {
		Type:        "object",
		Description: "Plan fields plus hazards and summary",
		Properties: map[string]*openapi.Schema{
			"id":      {Type: "string", Format: "uuid"},
			"name":    {Type: "string"},
			"hazards": {Type: "array", Items: openapi.SchemaRef("Hazard")},
			"summary": openapi.SchemaRef("Summary"),
		},
	},
	"Answers": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"q1": {Type: "string", Enum: answerEnum, Description: "Is a control measure required for this hazard at this step?"},
			"q2": {Type: "string", Enum: answerEnum, Description: "Is this step specifically designed to eliminate or reduce the hazard?"},
			"q3": {Type: "string", Enum: answerEnum, Description: "Could contamination occur at or increase to an unacceptable level?"},
			"q4": {Type: "string", Enum: answerEnum, Description: "Will a subsequent step eliminate or reduce the hazard?"},
		},
	},
	"Hazard": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"hazard_id":      {Type: "string"},
			"position":       {Type: "integer"},
			"description":    {Type: "string"},
			"step":           {Type: "string"},
			"category":       {Type: "string", Enum: []any{"biological", "chemical", "physical", "allergen"}},
			"answers":        openapi.SchemaRef("Answers"),
			"classification": {Type: "string", Enum: []any{"CCP", "OPRP", "PRP", "INDETERMINATE"}},
			"updated_at":     {Type: "string", Format: "date-time"},
			"updated_by":     {Type: "string"},
		},
	},
	"Summary": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"is_complete":              {Type: "boolean"},
			"ccp_count":                {Type: "integer"},
			"oprp_count":               {Type: "integer"},
			"prp_count":                {Type: "integer"},
			"indeterminate_hazard_ids": {Type: "array", Items: &openapi.Schema{Type: "string"}},
		},
	},
	"Gate": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"exportable": {Type: "boolean"},
			"summary":    openapi.SchemaRef("Summary"),
		},
	},
	"CreatePlan": {
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*openapi.Schema{
			"name":        {Type: "string", MinLength: openapi.Ptr(1)},
			"description": {Type: "string"},
		},
	},
	"UpdatePlan": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"name":        {Type: "string"},
			"description": {Type: "string"},
		},
	},
	"AddHazard": {
		Type:     "object",
		Required: []string{"hazard_id", "category"},
		Properties: map[string]*openapi.Schema{
			"hazard_id":   {Type: "string", Pattern: hazardIDPattern.String(), MaxLength: openapi.Ptr(maxHazardIDLength)},
			"description": {Type: "string"},
			"step":        {Type: "string"},
			"category":    {Type: "string", Enum: []any{"biological", "chemical", "physical", "allergen"}},
			"answers":     openapi.SchemaRef("Answers"),
		},
	},
	"Answer": {
		Type:     "object",
		Required: []string{"question", "answer"},
		Properties: map[string]*openapi.Schema{
			"question": {Type: "string", Enum: []any{"q1", "q2", "q3", "q4"}},
			"answer":   {Type: "string", Enum: answerEnum, Description: "Booleans are also accepted"},
		},
	},
	"AnswerResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"hazard":  openapi.SchemaRef("Hazard"),
			"summary": openapi.SchemaRef("Summary"),
		},
	},
}

var listOp = &openapi.Operation{
	Summary: "List plans",
	Parameters: []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number", false),
		openapi.QueryParam("page_size", "integer", "Results per page", false),
		openapi.QueryParam("search", "string", "Search name and description", false),
		openapi.QueryParam("sort", "string", "Sort fields, e.g. -updated_at", false),
		openapi.QueryParam("name", "string", "Name contains", false),
		openapi.QueryParam("updated_by", "string", "Last editor contains", false),
		openapi.QueryParam("complete", "boolean", "Only plans with (false) or without (true) indeterminate hazards", false),
		openapi.QueryParam("has_ccp", "boolean", "Only plans with (true) or without (false) a CCP", false),
	},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Plan page", "PlanPage"),
	},
}

var searchOp = &openapi.Operation{
	Summary:     "Search plans",
	RequestBody: openapi.RequestBodyJSON("PageRequest", true),
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Plan page", "PlanPage"),
		400: openapi.ResponseRef("BadRequest"),
	},
}

var createOp = &openapi.Operation{
	Summary:     "Create plan",
	RequestBody: openapi.RequestBodyJSON("CreatePlan", true),
	Responses: map[int]*openapi.Response{
		201: openapi.ResponseJSON("Created plan", "PlanDetail"),
		400: openapi.ResponseRef("BadRequest"),
		409: openapi.ResponseRef("Conflict"),
	},
}

var importOp = &openapi.Operation{
	Summary:     "Import plan document",
	Description: "Creates a plan and its hazards from a YAML or JSON document.",
	RequestBody: openapi.RequestBodyContent(true, map[string]*openapi.Schema{
		"application/yaml": {Type: "string"},
		"application/json": {Type: "object"},
	}),
	Responses: map[int]*openapi.Response{
		201: openapi.ResponseJSON("Imported plan", "PlanDetail"),
		400: openapi.ResponseRef("BadRequest"),
		409: openapi.ResponseRef("Conflict"),
		413: openapi.ResponseRef("TooLarge"),
	},
}

var findOp = &openapi.Operation{
	Summary:    "Get plan",
	Parameters: []*openapi.Parameter{planIDParam},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Plan with hazards", "PlanDetail"),
		404: openapi.ResponseRef("NotFound"),
	},
}

var updateOp = &openapi.Operation{
	Summary:     "Update plan",
	Parameters:  []*openapi.Parameter{planIDParam},
	RequestBody: openapi.RequestBodyJSON("UpdatePlan", true),
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Updated plan", "PlanDetail"),
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
		409: openapi.ResponseRef("Conflict"),
	},
}

var deleteOp = &openapi.Operation{
	Summary:    "Delete plan",
	Parameters: []*openapi.Parameter{planIDParam},
	Responses: map[int]*openapi.Response{
		204: {Description: "Deleted"},
		404: openapi.ResponseRef("NotFound"),
		409: openapi.ResponseRef("Conflict"),
	},
}

var summaryOp = &openapi.Operation{
	Summary:    "Plan summary",
	Parameters: []*openapi.Parameter{planIDParam},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Summary", "Summary"),
		404: openapi.ResponseRef("NotFound"),
	},
}

var exportableOp = &openapi.Operation{
	Summary:    "Export gate",
	Parameters: []*openapi.Parameter{planIDParam},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Gate decision", "Gate"),
		404: openapi.ResponseRef("NotFound"),
	},
}

var addHazardOp = &openapi.Operation{
	Summary:     "Add hazard",
	Parameters:  []*openapi.Parameter{planIDParam},
	RequestBody: openapi.RequestBodyJSON("AddHazard", true),
	Responses: map[int]*openapi.Response{
		201: openapi.ResponseJSON("Added hazard", "Hazard"),
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
		409: openapi.ResponseRef("Conflict"),
	},
}

var classificationOp = &openapi.Operation{
	Summary:    "Get hazard classification",
	Parameters: []*openapi.Parameter{planIDParam, hazardIDParam},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Hazard", "Hazard"),
		404: openapi.ResponseRef("NotFound"),
	},
}

var removeHazardOp = &openapi.Operation{
	Summary:    "Remove hazard",
	Parameters: []*openapi.Parameter{planIDParam, hazardIDParam},
	Responses: map[int]*openapi.Response{
		204: {Description: "Removed"},
		404: openapi.ResponseRef("NotFound"),
	},
}

var updateAnswerOp = &openapi.Operation{
	Summary:     "Record answer",
	Parameters:  []*openapi.Parameter{planIDParam, hazardIDParam},
	RequestBody: openapi.RequestBodyJSON("Answer", true),
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Hazard and plan summary after the change", "AnswerResult"),
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
	},
}
