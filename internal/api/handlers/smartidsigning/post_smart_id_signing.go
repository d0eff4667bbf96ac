package smartidsigning

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/gateway/signing"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func PostSmartIDSigningRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.POST("/:containerId/smartidsigning", postSmartIDSigningHandler(s))
}

func postSmartIDSigningHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostSmartIDSigningPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		identity := signing.SignerIdentity{
			PersonIdentifier: swag.StringValue(body.PersonIdentifier),
			Country:          body.Country,
		}

		result, err := s.Signing.InitSigning(ctx, signing.MethodSmartID, c.Param("containerId"), identity, digidoc.Profile(swag.StringValue(body.SignatureProfile)))
		if err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.PostProviderSigningResponse{
			GeneratedSignatureID: swag.String(result.GeneratedSignatureID),
			ChallengeID:          result.ChallengeID,
		})
	}
}
