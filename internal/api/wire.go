//go:build wireinject

//go:generate wire

package api

import (
	"testing"

	"github.com/google/wire"
	"github.com/karlivory/SiGa/internal/config"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewClock,
	NewJWTManager,
	NewAdmissionController,
	NewEventRecorder,
	NewDigiDocService,
	NewSnapshotter,
	NewSessionStore,
	NewTSAService,
	NewSigningService,
	NewContainerService,
	NewAugmentService,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NoTest)
	return new(Server), nil
}

// InitNewTestServer returns a new Server instance using a mock clock.
func InitNewTestServer(
	_ config.Server,
	t ...*testing.T,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
