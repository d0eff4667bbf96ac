package signatures

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/httperrors"
	"github.com/karlivory/SiGa/internal/types"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
)

func GetSignatureRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.GET("/:containerId/signatures/:signatureId", getSignatureHandler(s))
}

func getSignatureHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		signatureID := c.Param("signatureId")

		sig, err := s.Containers.Signature(ctx, c.Param("containerId"), signatureID)
		if err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.SignatureResponse{
			ID:               swag.String(signatureID),
			SignatureProfile: swag.String(string(sig.Profile)),
			SignerInfo:       sig.SignerInfo,
			SigningTime:      strfmt.DateTime(sig.SignedAt),
		})
	}
}
