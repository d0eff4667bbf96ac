package containers

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func DeleteContainerRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.DELETE("/:containerId", deleteContainerHandler(s))
}

func deleteContainerHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		containerID := c.Param("containerId")
		s.Containers.Close(ctx, containerID)
		util.LogFromContext(ctx).Info().Str("container_id", containerID).Msg("Closed container")

		return util.ValidateAndReturn(c, http.StatusOK, &types.ResultResponse{
			Result: swag.String("OK"),
		})
	}
}
