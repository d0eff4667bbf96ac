package remotesigning

import (
	"encoding/base64"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func PostRemoteSigningInitRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.POST("/:containerId/remotesigning", postRemoteSigningInitHandler(s))
}

func postRemoteSigningInitHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostRemoteSigningInitPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		cert, err := base64.StdEncoding.DecodeString(swag.StringValue(body.SigningCertificate))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "signingCertificate must be base64 encoded")
		}

		result, err := s.Signing.InitRemoteSigning(ctx, c.Param("containerId"), cert, digidoc.Profile(swag.StringValue(body.SignatureProfile)))
		if err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.PostRemoteSigningInitResponse{
			GeneratedSignatureID: swag.String(result.GeneratedSignatureID),
			DataToSign:           swag.String(base64.StdEncoding.EncodeToString(result.DataToSign)),
			DigestAlgorithm:      "SHA256",
		})
	}
}
