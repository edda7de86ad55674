package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrInternal          = errors.New("internal server error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrConflict          = errors.New("conflict")
)

// Karma/like domain errors. They wrap the generic sentinels above so
// MapErrorToStatus keeps working without knowing about them.
var (
	ErrTargetNotFound    = fmt.Errorf("target not found: %w", ErrNotFound)
	ErrInvalidTargetKind = fmt.Errorf("invalid target kind: %w", ErrInvalidInput)
	ErrInvalidWindow     = fmt.Errorf("invalid time window: %w", ErrInvalidInput)
	ErrInvalidLimit      = fmt.Errorf("invalid limit: %w", ErrInvalidInput)
	ErrDataIntegrity     = fmt.Errorf("data integrity violation: %w", ErrConflict)
)

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
