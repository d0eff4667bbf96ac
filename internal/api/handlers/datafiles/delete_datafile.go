package datafiles

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func DeleteDataFileRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.DELETE("/:containerId/datafiles/:fileName", deleteDataFileHandler(s))
}

func deleteDataFileHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := s.Containers.RemoveDataFile(ctx, c.Param("containerId"), c.Param("fileName")); err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.ResultResponse{
			Result: swag.String("OK"),
		})
	}
}
