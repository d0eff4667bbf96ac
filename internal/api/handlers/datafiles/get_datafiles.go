package datafiles

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

func GetDataFilesRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.GET("/:containerId/datafiles", getDataFilesHandler(s))
}

func getDataFilesHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		files, err := s.Containers.DataFiles(ctx, c.Param("containerId"))
		if err != nil {
			return httperrors.FromDomain(err)
		}

		response := &types.GetDataFilesResponse{
			DataFiles: make([]*types.DataFileResponse, 0, len(files)),
		}
		for _, f := range files {
			response.DataFiles = append(response.DataFiles, &types.DataFileResponse{
				FileName:    swag.String(f.Name),
				FileContent: swag.String(base64.StdEncoding.EncodeToString(f.Content)),
				MimeType:    f.MimeType,
			})
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
