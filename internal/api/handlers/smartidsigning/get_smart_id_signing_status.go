package smartidsigning

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func GetSmartIDSigningStatusRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.GET("/:containerId/smartidsigning/:signatureId/status", getSmartIDSigningStatusHandler(s))
}

func getSmartIDSigningStatusHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		result, err := s.Signing.Status(ctx, c.Param("containerId"), c.Param("signatureId"))
		if err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GetSigningStatusResponse{
			Status: swag.String(result.Status),
		})
	}
}
