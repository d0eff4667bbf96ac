// Package httperrors maps domain errors onto the public error payload.
package httperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/karlivory/SiGa/internal/types"
)

// HTTPError carries the response status together with the public payload
// fields. It implements error so handlers can return it directly.
type HTTPError struct {
	Code      int
	Type      types.PublicHTTPErrorType
	ErrorCode string
	Message   string
	Internal  error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.ErrorCode, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// NewHTTPError creates an error with an explicit status and message.
func NewHTTPError(code int, errType types.PublicHTTPErrorType, message string) *HTTPError {
	return &HTTPError{
		Code:      code,
		Type:      errType,
		ErrorCode: errdefs.CodeInternal,
		Message:   message,
	}
}

// FromDomain maps a gateway error to its HTTP representation. Unknown errors
// become opaque 500s.
func FromDomain(err error) *HTTPError {
	var e *errdefs.Error
	if !errors.As(err, &e) {
		return &HTTPError{
			Code:      http.StatusInternalServerError,
			Type:      types.PublicHTTPErrorTypeGeneric,
			ErrorCode: errdefs.CodeInternal,
			Message:   "internal server error",
			Internal:  err,
		}
	}

	status := http.StatusBadRequest
	switch e.Kind {
	case errdefs.KindNotFound:
		status = http.StatusNotFound
	case errdefs.KindInternal:
		status = http.StatusInternalServerError
	}

	return &HTTPError{
		Code:      status,
		Type:      types.PublicHTTPErrorTypeGeneric,
		ErrorCode: e.Code,
		Message:   e.Message,
		Internal:  e.Original,
	}
}
