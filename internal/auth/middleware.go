package auth

import (
	"net/http"
	"strings"

	"github.com/karlivory/SiGa/internal/gateway/admission"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Middleware returns an echo middleware that requires a valid bearer token
// and stores the tenant identity in the request context.
func Middleware(manager *JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := manager.Validate(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			tenant := admission.Tenant{
				ClientName:  claims.ClientName,
				ServiceName: claims.ServiceName,
				ServiceUUID: claims.ServiceUUID,
			}

			ctx := WithTenant(c.Request().Context(), tenant)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
