package containers

import (
	"encoding/base64"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/auth"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func PostCreateContainerRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.POST("", postCreateContainerHandler(s))
}

func postCreateContainerHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostCreateContainerPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		tenant, ok := auth.TenantFromContext(ctx)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing tenant")
		}

		files := make([]digidoc.DataFile, 0, len(body.DataFiles))
		for _, f := range body.DataFiles {
			content, err := base64.StdEncoding.DecodeString(swag.StringValue(f.FileContent))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "fileContent must be base64 encoded")
			}
			files = append(files, digidoc.DataFile{
				Name:     swag.StringValue(f.FileName),
				Content:  content,
				MimeType: f.MimeType,
			})
		}

		sessionID, err := s.Containers.Create(ctx, tenant, body.ContainerName, files)
		if err != nil {
			return httperrors.FromDomain(err)
		}

		util.LogFromContext(ctx).Info().
			Str("container_id", sessionID).
			Str("service_uuid", tenant.ServiceUUID).
			Msg("Created container")

		return util.ValidateAndReturn(c, http.StatusOK, &types.ContainerIDResponse{
			ContainerID: swag.String(sessionID),
		})
	}
}
