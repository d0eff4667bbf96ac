package api

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/karlivory/SiGa/internal/auth"
	"github.com/karlivory/SiGa/internal/config"
	"github.com/karlivory/SiGa/internal/gateway/admission"
	"github.com/karlivory/SiGa/internal/gateway/augment"
	"github.com/karlivory/SiGa/internal/gateway/containers"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/gateway/event"
	"github.com/karlivory/SiGa/internal/gateway/providers/mobileid"
	"github.com/karlivory/SiGa/internal/gateway/providers/mockprovider"
	"github.com/karlivory/SiGa/internal/gateway/providers/smartid"
	"github.com/karlivory/SiGa/internal/gateway/session"
	"github.com/karlivory/SiGa/internal/gateway/signing"
	"github.com/karlivory/SiGa/internal/gateway/tsa"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

func NoTest() []*testing.T {
	return nil
}

func NewJWTManager(cfg config.Server) *auth.JWTManager {
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenDuration)
}

func NewAdmissionController(cfg config.Server) *admission.Controller {
	return admission.NewController(admission.Limits{
		MaxSessionsPerService: cfg.Gateway.MaxSessionsPerService,
		MaxServiceBytes:       cfg.Gateway.MaxServiceBytes,
		MaxGlobalBytes:        cfg.Gateway.MaxGlobalBytes,
	})
}

func NewEventRecorder(clock time2.Clock) *event.Recorder {
	return event.NewRecorder(event.NewZerologSink(log.With().Str("component", "audit").Logger()), clock)
}

func NewDigiDocService() digidoc.Service {
	return digidoc.NewMemService()
}

// NewSnapshotter returns the redis-backed session mirror, or nil when no
// redis endpoint is configured.
func NewSnapshotter(cfg config.Server) (session.Snapshotter, error) {
	if cfg.Gateway.RedisEndpoint == "" {
		log.Info().Msg("No redis endpoint configured, session snapshots disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Gateway.RedisEndpoint,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	var sealer *session.Sealer
	if cfg.Gateway.SnapshotSecret != "" {
		var err error
		sealer, err = session.NewSealer([]byte(cfg.Gateway.SnapshotSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot sealer: %w", err)
		}
	} else {
		log.Warn().Msg("No snapshot secret configured, session snapshots stored unencrypted")
	}

	return session.NewRedisSnapshotter(client, cfg.Gateway.SnapshotTTL, sealer), nil
}

func NewSessionStore(cfg config.Server, controller *admission.Controller, snapshots session.Snapshotter, clock time2.Clock) *session.Store {
	return session.NewStore(controller, snapshots, clock, cfg.Gateway.SessionExpiry)
}

func NewTSAService(cfg config.Server) tsa.Service {
	if cfg.Gateway.UseMockProviders || cfg.Gateway.TSAEndpoint == "" {
		log.Warn().Msg("Initializing mock TSA service")
		return tsa.NewMockService()
	}
	return tsa.NewHTTPClient(cfg.Gateway.TSAEndpoint)
}

func NewSigningService(cfg config.Server, sessions *session.Store, digidocService digidoc.Service, events *event.Recorder, clock time2.Clock) *signing.Service {
	svc := signing.NewService(sessions, digidocService, events, clock, signing.Config{
		MaxPollAttempts: cfg.Gateway.MaxPollAttempts,
		MaxPollElapsed:  cfg.Gateway.MaxPollElapsed,
	})

	if cfg.Gateway.UseMockProviders {
		log.Warn().Msg("Initializing mock signing providers")
		svc.RegisterProvider(signing.MethodMobileID, mockprovider.New(3))
		svc.RegisterProvider(signing.MethodSmartID, mockprovider.New(3))
		return svc
	}

	if cfg.Gateway.MobileIDEndpoint != "" {
		svc.RegisterProvider(signing.MethodMobileID, mobileid.NewClient(mobileid.Config{
			Endpoint:         cfg.Gateway.MobileIDEndpoint,
			RelyingPartyUUID: cfg.Gateway.MobileIDRelyingPartyUUID,
			RelyingPartyName: cfg.Gateway.MobileIDRelyingPartyName,
		}))
	}
	if cfg.Gateway.SmartIDEndpoint != "" {
		svc.RegisterProvider(signing.MethodSmartID, smartid.NewClient(smartid.Config{
			Endpoint:         cfg.Gateway.SmartIDEndpoint,
			RelyingPartyUUID: cfg.Gateway.SmartIDRelyingPartyUUID,
			RelyingPartyName: cfg.Gateway.SmartIDRelyingPartyName,
		}))
	}
	return svc
}

func NewContainerService(sessions *session.Store, digidocService digidoc.Service, events *event.Recorder) *containers.Service {
	return containers.NewService(sessions, digidocService, events)
}

func NewAugmentService(cfg config.Server, sessions *session.Store, digidocService digidoc.Service, timestamper tsa.Service, events *event.Recorder) *augment.Service {
	augmentCfg := augment.DefaultConfig()
	if len(cfg.Gateway.AugmentableProfiles) > 0 {
		profiles := make([]digidoc.Profile, 0, len(cfg.Gateway.AugmentableProfiles))
		for _, p := range cfg.Gateway.AugmentableProfiles {
			profiles = append(profiles, digidoc.Profile(p))
		}
		augmentCfg.AugmentableProfiles = profiles
	}
	return augment.NewService(sessions, digidocService, timestamper, events, augmentCfg)
}
