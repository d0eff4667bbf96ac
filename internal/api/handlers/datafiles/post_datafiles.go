package datafiles

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

func PostDataFilesRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Containers.POST("/:containerId/datafiles", postDataFilesHandler(s))
}

func postDataFilesHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostDataFilesPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		files := make([]digidoc.DataFile, 0, len(body.DataFiles))
		for _, f := range body.DataFiles {
			content, err := base64.StdEncoding.DecodeString(swag.StringValue(f.FileContent))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "fileContent must be base64 encoded")
			}
			files = append(files, digidoc.DataFile{
				Name:     swag.StringValue(f.FileName),
				Content:  content,
				MimeType: f.MimeType,
			})
		}

		if err := s.Containers.AddDataFiles(ctx, c.Param("containerId"), files); err != nil {
			return httperrors.FromDomain(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.ResultResponse{
			Result: swag.String("OK"),
		})
	}
}
