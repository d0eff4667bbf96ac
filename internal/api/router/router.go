// Package router assembles the echo instance: middleware, error rendering,
// route groups and management endpoints.
package router

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/handlers"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/auth"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Init builds the echo server and registers all routes on s.
func Init(s *api.Server) {
	s.Echo = echo.New()
	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.Logger.SetOutput(&echoLogAdapter{})

	s.Echo.HTTPErrorHandler = errorHandler(s)

	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(middleware.Recover())
	}
	if s.Config.Echo.EnableRequestIDMiddleware {
		s.Echo.Use(middleware.RequestID())
		s.Echo.Use(enrichRequestContext())
	}
	if s.Config.Echo.EnableLoggerMiddleware {
		s.Echo.Use(requestLogger())
	}

	s.Router = &api.Router{
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
		APIV1Containers: s.Echo.Group("/api/v1/containers",
			auth.Middleware(s.JWT)),
	}

	attachManagementRoutes(s)
	handlers.AttachAllRoutes(s)
}

func attachManagementRoutes(s *api.Server) {
	s.Router.Management.GET("/ready", func(c echo.Context) error {
		if !s.Ready() {
			return c.String(http.StatusServiceUnavailable, "Not ready.")
		}
		return c.String(http.StatusOK, "Ready.")
	})

	s.Router.Management.GET("/healthy", func(c echo.Context) error {
		if c.QueryParam("mgmt-secret") != s.Config.Management.Secret {
			return c.String(http.StatusUnauthorized, "Unauthorized.")
		}
		if !s.Ready() {
			return c.String(http.StatusServiceUnavailable, "Not healthy.")
		}
		return c.String(http.StatusOK, "Healthy.")
	})

	s.Router.Management.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// errorHandler renders every error as the public error payload. Internal
// details are hidden when configured.
func errorHandler(s *api.Server) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		errorCode := errdefs.CodeInternal
		message := "internal server error"

		switch e := err.(type) {
		case *httperrors.HTTPError:
			code = e.Code
			errorCode = e.ErrorCode
			message = e.Message
			if e.Internal != nil {
				log.Warn().
					Err(e.Internal).
					Str("error_code", errorCode).
					Str("request_id", util.RequestIDFromContext(c.Request().Context())).
					Msg("Request failed")
			}
		case *echo.HTTPError:
			code = e.Code
			errorCode = errdefs.CodeInvalidSessionData
			if msg, ok := e.Message.(string); ok {
				message = msg
			}
			if code >= http.StatusInternalServerError {
				errorCode = errdefs.CodeInternal
			}
		default:
			log.Error().Err(err).Msg("Unhandled error")
		}

		if code >= http.StatusInternalServerError && s.Config.Echo.HideInternalServerErrorDetails {
			message = "internal server error"
		}

		payload := &types.PublicHTTPError{
			ErrorCode:    swag.String(errorCode),
			ErrorMessage: swag.String(message),
		}
		if err := c.JSON(code, payload); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
	}
}

// enrichRequestContext attaches the request id and a request-scoped logger
// to the request context so downstream code can correlate its log lines.
func enrichRequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)

			ctx := util.WithRequestID(c.Request().Context(), id)
			l := log.With().Str("request_id", id).Logger()
			ctx = l.WithContext(ctx)

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRequestID: true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("request_id", v.RequestID).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// echoLogAdapter silences echo's internal logger; zerolog is the single
// logging backend.
type echoLogAdapter struct{}

func (a *echoLogAdapter) Write(p []byte) (int, error) {
	log.Debug().Msg(string(p))
	return len(p), nil
}
