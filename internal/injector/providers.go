package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/steerkit/internal/config"
	"github.com/zeusync/steerkit/internal/core/events/bus"
	"github.com/zeusync/steerkit/internal/core/observability/log"
	"github.com/zeusync/steerkit/internal/core/simulation"
	"github.com/zeusync/steerkit/internal/core/systems/physics"
	"github.com/zeusync/steerkit/internal/server"
)

// App is a populated world together with its stream server.
type App struct {
	Config *config.Config
	Log    log.Log
	World  *simulation.World
	Server *server.Server
}

// WorldSet builds a populated simulation world from a config and a clock.
var WorldSet = wire.NewSet(
	ProvideLogger,
	physics.NewWorld,
	bus.New,
	ProvideWorld,
)

func ProvideLogger(cfg *config.Config) log.Log {
	return log.New(cfg.Level())
}

// ProvideWorld wires the simulation and fills it from cfg.
func ProvideWorld(logger log.Log, pw *physics.World, events bus.EventBus, clock simulation.Clock, cfg *config.Config) (*simulation.World, error) {
	w, err := simulation.NewWorld(logger, pw, events, clock)
	if err != nil {
		return nil, err
	}
	if err := cfg.Populate(w); err != nil {
		return nil, err
	}
	logger.Info("world ready",
		log.Int("entities", w.Len()),
		log.Int("colliders", pw.Len()),
		log.Float64("tick_rate", cfg.TickRate),
	)
	return w, nil
}

// ProvideWallClock clamps steps to four tick intervals.
func ProvideWallClock(cfg *config.Config) simulation.Clock {
	return simulation.NewWallClock(4 * cfg.TickInterval())
}

func ProvideServer(cfg *config.Config, w *simulation.World, logger log.Log) (*server.Server, error) {
	return server.New(cfg.Server, w, logger)
}
