package exports

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/pkg/handlers"
	"github.com/JaimeStill/haccp/pkg/routes"
)

// ErrInvalidID indicates a malformed id path parameter.
var ErrInvalidID = errors.New("invalid id")

// Handler provides HTTP endpoints for export operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "exports"),
	}
}

// Routes returns the route group for export endpoints. Plan-scoped routes
// live under /plans/{id}/exports; the rest address exports directly.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "",
		Tags:        []string{"Exports"},
		Description: "Rendered plan documents",
		Schemas:     schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/plans/{id}/exports", Handler: h.List, OpenAPI: listOp},
			{Method: "POST", Pattern: "/plans/{id}/exports", Handler: h.Create, OpenAPI: createOp},
			{Method: "GET", Pattern: "/exports/{id}", Handler: h.Find, OpenAPI: findOp},
			{Method: "DELETE", Pattern: "/exports/{id}", Handler: h.Delete, OpenAPI: deleteOp},
			{Method: "GET", Pattern: "/exports/{id}/download", Handler: h.Download, OpenAPI: downloadOp},
		},
	}
}

// List returns the exports of a plan.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	planID, ok := h.id(w, r)
	if !ok {
		return
	}

	out, err := h.sys.List(r.Context(), planID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, out)
}

// Create renders the requested formats of a plan.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	planID, ok := h.id(w, r)
	if !ok {
		return
	}

	var cmd CreateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), err)
		return
	}

	out, err := h.sys.Create(r.Context(), planID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, out)
}

// Find returns one export record.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	e, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, e)
}

// Delete removes an export record and its blob.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download streams the rendered document as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	e, blob, err := h.sys.Download(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = e.ContentType
	}
	w.Header().Set("Content-Type", contentType)

	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", e.Filename))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("download interrupted", "id", id, "error", err)
	}
}

func (h *Handler) id(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
