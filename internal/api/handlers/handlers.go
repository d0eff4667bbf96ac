// Package handlers wires every route onto the server's router groups.
package handlers

import (
	"github.com/karlivory/SiGa/internal/api"
	"github.com/karlivory/SiGa/internal/api/handlers/augmentation"
	"github.com/karlivory/SiGa/internal/api/handlers/containers"
	"github.com/karlivory/SiGa/internal/api/handlers/datafiles"
	"github.com/karlivory/SiGa/internal/api/handlers/mobileidsigning"
	"github.com/karlivory/SiGa/internal/api/handlers/remotesigning"
	"github.com/karlivory/SiGa/internal/api/handlers/signatures"
	"github.com/karlivory/SiGa/internal/api/handlers/smartidsigning"
	"github.com/labstack/echo/v4"
)

// AttachAllRoutes registers every API route and records them on the router.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		containers.PostCreateContainerRoute(s),
		containers.PostUploadContainerRoute(s),
		containers.GetContainerRoute(s),
		containers.DeleteContainerRoute(s),
		datafiles.GetDataFilesRoute(s),
		datafiles.PostDataFilesRoute(s),
		datafiles.DeleteDataFileRoute(s),
		signatures.GetSignaturesListRoute(s),
		signatures.GetSignatureRoute(s),
		remotesigning.PostRemoteSigningInitRoute(s),
		remotesigning.PutRemoteSigningFinishRoute(s),
		mobileidsigning.PostMobileIDSigningRoute(s),
		mobileidsigning.GetMobileIDSigningStatusRoute(s),
		smartidsigning.PostSmartIDSigningRoute(s),
		smartidsigning.GetSmartIDSigningStatusRoute(s),
		augmentation.PutAugmentContainerRoute(s),
	}
}
