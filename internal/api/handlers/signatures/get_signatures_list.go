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

func GetSignaturesListRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.GET("/:containerId/signatures", getSignaturesListHandler(s))
}

func getSignaturesListHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		sessionID := c.Param("containerId")

		sigs, err := s.Containers.Signatures(ctx, sessionID)
		if err != nil {
			return httperrors.FromDomain(err)
		}

		// Signatures created through this session are reported under their
		// generated id, pre-existing ones under the container-internal id.
		sess, err := s.Sessions.Get(ctx, sessionID)
		if err != nil {
			return httperrors.FromDomain(err)
		}
		generatedByIndex := make(map[int]string, len(sess.SignatureIDs))
		for generated, index := range sess.SignatureIDs {
			generatedByIndex[index] = generated
		}

		response := &types.GetSignaturesResponse{
			Signatures: make([]*types.SignatureResponse, 0, len(sigs)),
		}
		for i, sig := range sigs {
			id := sig.ID
			if generated, ok := generatedByIndex[i]; ok {
				id = generated
			}
			response.Signatures = append(response.Signatures, &types.SignatureResponse{
				ID:               swag.String(id),
				SignatureProfile: swag.String(string(sig.Profile)),
				SignerInfo:       sig.SignerInfo,
				SigningTime:      strfmt.DateTime(sig.SignedAt),
			})
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
