//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/steerkit/internal/config"
	"github.com/zeusync/steerkit/internal/core/simulation"
)

// InitializeWorld builds a headless world ticking on clock.
func InitializeWorld(cfg *config.Config, clock simulation.Clock) (*simulation.World, error) {
	wire.Build(WorldSet)
	return nil, nil
}

// InitializeApp builds a world on the wall clock plus its stream server.
func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(WorldSet, ProvideWallClock, ProvideServer, wire.Struct(new(App), "*"))
	return nil, nil
}
