// Package config assembles the full server configuration from environment
// variables with development-friendly defaults.
package config

import (
	"time"

	"github.com/karlivory/SiGa/internal/util"
)

type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableLoggerMiddleware         bool
}

type Logger struct {
	Level              string
	PrettyPrintConsole bool
}

type Auth struct {
	JWTSecret     string
	JWTIssuer     string
	TokenDuration time.Duration
}

// Gateway holds the signing gateway's domain configuration.
type Gateway struct {
	// Admission limits. Zero disables the corresponding limit.
	MaxSessionsPerService int
	MaxServiceBytes       int64
	MaxGlobalBytes        int64

	// Session lifecycle.
	SessionExpiry time.Duration
	SweepInterval time.Duration

	// Signing flow poll budget.
	MaxPollAttempts int
	MaxPollElapsed  time.Duration

	// Signature profiles eligible for augmentation.
	AugmentableProfiles []string

	// Redis session snapshot mirror. Empty endpoint disables snapshots.
	// A non-empty SnapshotSecret encrypts snapshots at rest.
	RedisEndpoint  string
	SnapshotTTL    time.Duration
	SnapshotSecret string

	// External services.
	TSAEndpoint              string
	MobileIDEndpoint         string
	MobileIDRelyingPartyUUID string
	MobileIDRelyingPartyName string
	SmartIDEndpoint          string
	SmartIDRelyingPartyUUID  string
	SmartIDRelyingPartyName  string

	// UseMockProviders swaps the remote signing providers and TSA for
	// in-process fakes. Development and test only.
	UseMockProviders bool
}

type Management struct {
	Secret string
}

// Server is the root configuration consumed by wire providers.
type Server struct {
	Echo       EchoServer
	Logger     Logger
	Auth       Auth
	Gateway    Gateway
	Management Management
}

// DefaultServiceConfigFromEnv returns the server config populated from the
// environment.
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Echo: EchoServer{
			ListenAddress:                  util.GetEnv("SIGA_SERVER_LISTEN_ADDRESS", ":8080"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SIGA_SERVER_HIDE_INTERNAL_ERROR_DETAILS", true),
			EnableRecoverMiddleware:        util.GetEnvAsBool("SIGA_SERVER_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableRequestIDMiddleware:      util.GetEnvAsBool("SIGA_SERVER_ENABLE_REQUEST_ID_MIDDLEWARE", true),
			EnableLoggerMiddleware:         util.GetEnvAsBool("SIGA_SERVER_ENABLE_LOGGER_MIDDLEWARE", true),
		},
		Logger: Logger{
			Level:              util.GetEnv("SIGA_LOGGER_LEVEL", "info"),
			PrettyPrintConsole: util.GetEnvAsBool("SIGA_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Auth: Auth{
			JWTSecret:     util.GetEnv("SIGA_AUTH_JWT_SECRET", "development-secret"),
			JWTIssuer:     util.GetEnv("SIGA_AUTH_JWT_ISSUER", "siga"),
			TokenDuration: util.GetEnvAsDuration("SIGA_AUTH_TOKEN_DURATION", 24*time.Hour),
		},
		Gateway: Gateway{
			MaxSessionsPerService: util.GetEnvAsInt("SIGA_GATEWAY_MAX_SESSIONS_PER_SERVICE", 5),
			MaxServiceBytes:       util.GetEnvAsInt64("SIGA_GATEWAY_MAX_SERVICE_BYTES", 64*1024*1024),
			MaxGlobalBytes:        util.GetEnvAsInt64("SIGA_GATEWAY_MAX_GLOBAL_BYTES", 1024*1024*1024),
			SessionExpiry:         util.GetEnvAsDuration("SIGA_GATEWAY_SESSION_EXPIRY", 5*time.Minute),
			SweepInterval:         util.GetEnvAsDuration("SIGA_GATEWAY_SWEEP_INTERVAL", 30*time.Second),
			MaxPollAttempts:       util.GetEnvAsInt("SIGA_GATEWAY_MAX_POLL_ATTEMPTS", 30),
			MaxPollElapsed:        util.GetEnvAsDuration("SIGA_GATEWAY_MAX_POLL_ELAPSED", 3*time.Minute),
			AugmentableProfiles:   util.GetEnvAsStringSlice("SIGA_GATEWAY_AUGMENTABLE_PROFILES", []string{"LT", "LTA"}),
			RedisEndpoint:         util.GetEnv("SIGA_GATEWAY_REDIS_ENDPOINT", ""),
			SnapshotTTL:           util.GetEnvAsDuration("SIGA_GATEWAY_SNAPSHOT_TTL", 10*time.Minute),
			SnapshotSecret:        util.GetEnv("SIGA_GATEWAY_SNAPSHOT_SECRET", ""),

			TSAEndpoint:              util.GetEnv("SIGA_GATEWAY_TSA_ENDPOINT", ""),
			MobileIDEndpoint:         util.GetEnv("SIGA_GATEWAY_MID_ENDPOINT", ""),
			MobileIDRelyingPartyUUID: util.GetEnv("SIGA_GATEWAY_MID_RELYING_PARTY_UUID", ""),
			MobileIDRelyingPartyName: util.GetEnv("SIGA_GATEWAY_MID_RELYING_PARTY_NAME", ""),
			SmartIDEndpoint:          util.GetEnv("SIGA_GATEWAY_SID_ENDPOINT", ""),
			SmartIDRelyingPartyUUID:  util.GetEnv("SIGA_GATEWAY_SID_RELYING_PARTY_UUID", ""),
			SmartIDRelyingPartyName:  util.GetEnv("SIGA_GATEWAY_SID_RELYING_PARTY_NAME", ""),

			UseMockProviders: util.GetEnvAsBool("SIGA_GATEWAY_USE_MOCK_PROVIDERS", false),
		},
		Management: Management{
			Secret: util.GetEnv("SIGA_MANAGEMENT_SECRET", "mgmtpass"),
		},
	}
}
