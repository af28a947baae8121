package plans

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/pkg/handlers"
	"github.com/JaimeStill/haccp/pkg/pagination"
	"github.com/JaimeStill/haccp/pkg/routes"
)

// ErrInvalidID indicates a malformed plan id path parameter.
var ErrInvalidID = errors.New("invalid plan id")

// Handler provides HTTP endpoints for plan operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "plans"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for plan endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/plans",
		Tags:        []string{"Plans"},
		Description: "HACCP plans, their hazards, and decision-tree answers",
		Schemas:     schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: listOp},
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: createOp},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: searchOp},
			{Method: "POST", Pattern: "/import", Handler: h.Import, OpenAPI: importOp},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: findOp},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update, OpenAPI: updateOp},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: deleteOp},
			{Method: "GET", Pattern: "/{id}/summary", Handler: h.Summary, OpenAPI: summaryOp},
			{Method: "GET", Pattern: "/{id}/exportable", Handler: h.Exportable, OpenAPI: exportableOp},
			{Method: "POST", Pattern: "/{id}/hazards", Handler: h.AddHazard, OpenAPI: addHazardOp},
			{Method: "GET", Pattern: "/{id}/hazards/{hazardId}", Handler: h.Classification, OpenAPI: classificationOp},
			{Method: "DELETE", Pattern: "/{id}/hazards/{hazardId}", Handler: h.RemoveHazard, OpenAPI: removeHazardOp},
			{Method: "PUT", Pattern: "/{id}/hazards/{hazardId}/answers", Handler: h.UpdateAnswer, OpenAPI: updateAnswerOp},
		},
	}
}

// List returns a paginated list of plans with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching plans.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a plan with its hazards and summary.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	d, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Create registers a new, empty plan.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), err)
		return
	}

	d, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, d)
}

// Import creates a plan and its hazards from a YAML or JSON document body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	doc, err := ParseDocument(r.Body, r.Header.Get("Content-Type"))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = handlers.DecodeError(err)
			handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), err)
			return
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	d, err := h.sys.Import(r.Context(), doc)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, d)
}

// Update changes a plan's name or description.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	var cmd UpdateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), err)
		return
	}

	d, err := h.sys.Update(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Delete removes a plan and its hazards.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Summary returns the plan's classification summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	s, err := h.sys.Summary(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Exportable reports whether the plan may be exported now.
func (h *Handler) Exportable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	g, err := h.sys.Exportable(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, g)
}

// AddHazard appends a hazard to the plan.
func (h *Handler) AddHazard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	var cmd AddHazardCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), err)
		return
	}

	hz, err := h.sys.AddHazard(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, hz)
}

// Classification returns one hazard with its answers and current classification.
func (h *Handler) Classification(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	hz, err := h.sys.Classification(r.Context(), id, r.PathValue("hazardId"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, hz)
}

// RemoveHazard drops a hazard from the plan.
func (h *Handler) RemoveHazard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	if err := h.sys.RemoveHazard(r.Context(), id, r.PathValue("hazardId")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateAnswer records one decision-tree answer for a hazard.
func (h *Handler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	var cmd AnswerCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), err)
		return
	}

	res, err := h.sys.UpdateAnswer(r.Context(), id, r.PathValue("hazardId"), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, res)
}

func (h *Handler) planID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
