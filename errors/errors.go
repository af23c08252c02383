package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrForbidden        = fmt.Errorf("forbidden")
	ErrInvalidState     = fmt.Errorf("invalid state")
	ErrDuplicateRequest = fmt.Errorf("duplicate request")
	ErrValidation       = fmt.Errorf("validation error")

	ErrInvalidToken = fmt.Errorf("invalid or expired token")
	ErrUnknownRole  = fmt.Errorf("unknown role")
	ErrWorkerPanic  = fmt.Errorf("worker panic")
	ErrSlowConsumer = fmt.Errorf("slow consumer")
)

// HTTPStatus maps a domain error to the status code returned by the HTTP surface.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, ErrInvalidState), stderrors.Is(err, ErrDuplicateRequest):
		return http.StatusConflict
	case stderrors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Code maps a domain error to the machine-readable code carried by socket error frames.
func Code(err error) string {
	switch {
	case stderrors.Is(err, ErrNotFound):
		return "not_found"
	case stderrors.Is(err, ErrForbidden):
		return "forbidden"
	case stderrors.Is(err, ErrInvalidState):
		return "invalid_state"
	case stderrors.Is(err, ErrDuplicateRequest):
		return "duplicate_request"
	case stderrors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "internal"
	}
}

// Public hides internal failure details from clients.
func Public(err error) string {
	if Code(err) == "internal" {
		return "internal error"
	}
	return err.Error()
}
