package augmentation

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func PutAugmentContainerRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.PUT("/:containerId/augmentation", putAugmentContainerHandler(s))
}

func putAugmentContainerHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := s.Augment.Augment(ctx, c.Param("containerId")); err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.ResultResponse{
			Result: swag.String("OK"),
		})
	}
}
