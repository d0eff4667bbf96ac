package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropbox/godropbox/time2"
	"github.com/karlivory/SiGa/internal/auth"
	"github.com/karlivory/SiGa/internal/config"
	"github.com/karlivory/SiGa/internal/gateway/admission"
	"github.com/karlivory/SiGa/internal/gateway/augment"
	"github.com/karlivory/SiGa/internal/gateway/containers"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/gateway/event"
	"github.com/karlivory/SiGa/internal/gateway/session"
	"github.com/karlivory/SiGa/internal/gateway/signing"
	"github.com/karlivory/SiGa/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type Router struct {
	Routes          []*echo.Route
	Root            *echo.Group
	Management      *echo.Group
	APIV1Containers *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	Config config.Server
	Clock  time2.Clock
	JWT    *auth.JWTManager

	Admission  *admission.Controller
	Sessions   *session.Store
	DigiDoc    digidoc.Service
	Containers *containers.Service
	Signing    *signing.Service
	Augment    *augment.Service
	Events     *event.Recorder

	cancelSweeper context.CancelFunc `wire:"-"`
}

// newServerWithComponents is used by wire to initialize the server components.
// Components not listed here won't be handled by wire and should be initialized separately.
// Components which shouldn't be handled must be labeled `wire:"-"` in Server struct.
func newServerWithComponents(
	cfg config.Server,
	clock time2.Clock,
	jwtManager *auth.JWTManager,
	admissionController *admission.Controller,
	sessions *session.Store,
	digidocService digidoc.Service,
	containerService *containers.Service,
	signingService *signing.Service,
	augmentService *augment.Service,
	events *event.Recorder,
) *Server {
	return &Server{
		Config:     cfg,
		Clock:      clock,
		JWT:        jwtManager,
		Admission:  admissionController,
		Sessions:   sessions,
		DigiDoc:    digidocService,
		Containers: containerService,
		Signing:    signingService,
		Augment:    augmentService,
		Events:     events,
	}
}

func NewServer(cfg config.Server) *Server {
	return &Server{
		Config: cfg,
	}
}

func (s *Server) Ready() bool {
	if err := util.IsStructInitialized(s); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}
	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	s.cancelSweeper = cancel
	s.Sessions.StartSweeper(sweepCtx, s.Config.Gateway.SweepInterval)

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.cancelSweeper != nil {
		s.cancelSweeper()
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")
		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	return errs
}
