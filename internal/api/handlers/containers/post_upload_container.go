package containers

import (
	"encoding/base64"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/auth"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func PostUploadContainerRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.POST("/upload", postUploadContainerHandler(s))
}

func postUploadContainerHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostUploadContainerPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		tenant, ok := auth.TenantFromContext(ctx)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing tenant")
		}

		raw, err := base64.StdEncoding.DecodeString(swag.StringValue(body.Container))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "container must be base64 encoded")
		}

		sessionID, err := s.Containers.Upload(ctx, tenant, body.ContainerName, raw)
		if err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.ContainerIDResponse{
			ContainerID: swag.String(sessionID),
		})
	}
}
