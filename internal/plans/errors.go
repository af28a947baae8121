package plans

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/haccp/internal/hazards"
)

// Domain errors for plan operations.
var (
	ErrNotFound         = errors.New("plan not found")
	ErrDuplicate        = errors.New("plan name already exists")
	ErrInvalidPlan      = errors.New("plan name is required")
	ErrHasExports       = errors.New("plan has exports; delete them first")
	ErrHazardNotFound   = errors.New("hazard not found")
	ErrHazardExists     = errors.New("hazard already exists in plan")
	ErrInvalidHazard    = errors.New("invalid hazard id or category")
	ErrInvalidDocument  = errors.New("invalid plan document")
	ErrUnsupportedMedia = errors.New("unsupported plan document media type")
)

// MapHTTPStatus maps plan domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrHazardNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrHazardExists), errors.Is(err, ErrHasExports):
		return http.StatusConflict
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrInvalidPlan),
		errors.Is(err, ErrInvalidHazard),
		errors.Is(err, ErrInvalidDocument),
		errors.Is(err, hazards.ErrInvalidQuestion),
		errors.Is(err, hazards.ErrInvalidAnswer):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
