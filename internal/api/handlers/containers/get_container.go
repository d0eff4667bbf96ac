package containers

import (
	"encoding/base64"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func GetContainerRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.GET("/:containerId", getContainerHandler(s))
}

func getContainerHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		name, raw, err := s.Containers.Get(ctx, c.Param("containerId"))
		if err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GetContainerResponse{
			ContainerName: name,
			Container:     swag.String(base64.StdEncoding.EncodeToString(raw)),
		})
	}
}
