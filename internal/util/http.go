package util

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request/response payloads that carry their
// own structural validation.
type Validatable interface {
	Validate(formats strfmt.Registry) error
}

// BindAndValidateBody binds the request body into v and runs its validation.
// Validation failures are returned as echo HTTP errors with status 400.
func BindAndValidateBody(c echo.Context, v Validatable) error {
	binder := c.Echo().Binder.(*echo.DefaultBinder)
	if err := binder.BindBody(c, v); err != nil {
		return err
	}
	if err := v.Validate(strfmt.Default); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ValidateAndReturn validates the response payload and writes it as JSON.
// An invalid response payload is a server-side bug and yields a 500.
func ValidateAndReturn(c echo.Context, code int, v Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(code, v)
}
