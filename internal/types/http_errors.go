package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
)

// PublicHTTPErrorType groups error payloads for clients.
type PublicHTTPErrorType string

const (
	PublicHTTPErrorTypeGeneric PublicHTTPErrorType = "generic"
)

// PublicHTTPError is the error payload returned by every endpoint.
// ErrorCode is stable and machine readable; ErrorMessage is human readable.
type PublicHTTPError struct {
	ErrorCode    *string `json:"errorCode"`
	ErrorMessage *string `json:"errorMessage"`
}

func (e *PublicHTTPError) Validate(formats strfmt.Registry) error {
	if e.ErrorCode == nil {
		return errors.Required("errorCode", "body", nil)
	}
	if e.ErrorMessage == nil {
		return errors.Required("errorMessage", "body", nil)
	}
	return nil
}
