package remotesigning

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

func PutRemoteSigningFinishRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.PUT("/:containerId/remotesigning/:signatureId", putRemoteSigningFinishHandler(s))
}

func putRemoteSigningFinishHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PutRemoteSigningFinishPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		value, err := base64.StdEncoding.DecodeString(swag.StringValue(body.SignatureValue))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "signatureValue must be base64 encoded")
		}

		if err := s.Signing.FinishRemoteSigning(ctx, c.Param("containerId"), c.Param("signatureId"), value); err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.ResultResponse{
			Result: swag.String("OK"),
		})
	}
}
