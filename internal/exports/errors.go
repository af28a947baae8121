package exports

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/haccp/internal/plans"
)

// Domain errors for export operations.
var (
	ErrNotFound          = errors.New("export not found")
	ErrDuplicate         = errors.New("export already exists")
	ErrNotExportable     = errors.New("plan is not exportable: every hazard needs a classification")
	ErrPlanChanged       = errors.New("plan changed while the export was rendering")
	ErrNoFormats         = errors.New("at least one export format is required")
	ErrUnknownFormat     = errors.New("unknown export format")
	ErrFormatUnavailable = errors.New("export format is not enabled")
	ErrRender            = errors.New("render failed")
)

// MapHTTPStatus maps export domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, plans.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotExportable), errors.Is(err, ErrPlanChanged):
		return http.StatusConflict
	case errors.Is(err, ErrNoFormats), errors.Is(err, ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrFormatUnavailable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
