package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/zeusync/steerkit/internal/core/events/bus"
	"github.com/zeusync/steerkit/internal/core/observability/log"
	"github.com/zeusync/steerkit/internal/core/simulation"
	"github.com/zeusync/steerkit/internal/injector"
)

func RunCmd() *cobra.Command {
	var (
		configFile string
		ticks      int
		loadAgents string
		saveAgents string
	)
	c := &cobra.Command{
		Use:   "run",
		Short: "run a scenario headless on a fixed clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if ticks > 0 {
				cfg.Ticks = ticks
			}
			if cfg.Ticks == 0 {
				cfg.Ticks = 100
			}

			w, err := injector.InitializeWorld(cfg, simulation.NewFixedClock(cfg.TickInterval(), time.Now()))
			if err != nil {
				return err
			}
			logger := log.Provide()
			if loadAgents != "" {
				b, err := os.ReadFile(loadAgents)
				if err != nil {
					return err
				}
				n, err := w.LoadAgents(b)
				if err != nil {
					return err
				}
				logger.Info("agents restored", log.String("from", loadAgents), log.Int("agents", n))
			}
			sub, err := w.Events().SubscribeTopic(bus.TopicAgents, bus.Wildcard, func(e bus.Event) error {
				logger.Info("agent event", log.String("type", e.Type()), log.String("source", e.Source()))
				return nil
			})
			if err != nil {
				return err
			}
			defer func() { _ = w.Events().Unsubscribe(sub) }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for range cfg.Ticks {
				frame, err := w.Tick(ctx)
				if err != nil {
					return err
				}
				logger.Debug("frame",
					log.Uint64("tick", frame.Tick),
					log.Float64("time", frame.Time),
					log.Int("entities", len(frame.Entities)),
				)
				if ctx.Err() != nil {
					break
				}
			}
			report(logger, w.LastFrame())

			if saveAgents != "" {
				b, err := w.SaveAgents()
				if err != nil {
					return err
				}
				if err = os.WriteFile(saveAgents, b, 0o644); err != nil {
					return err
				}
				logger.Info("agents saved", log.String("to", saveAgents))
			}
			return nil
		},
	}
	c.Flags().StringVar(&configFile, "config", "", "scenario file (YAML)")
	c.Flags().IntVar(&ticks, "ticks", 0, "override the scenario tick count")
	c.Flags().StringVar(&loadAgents, "load-agents", "", "restore agent state saved by --save-agents before ticking")
	c.Flags().StringVar(&saveAgents, "save-agents", "", "write agent state to this file after the run")
	return c
}

func report(logger log.Log, frame simulation.Frame) {
	logger.Info("run finished", log.Uint64("tick", frame.Tick), log.Float64("time", frame.Time))
	for _, e := range frame.Entities {
		logger.Info("entity",
			log.String("name", e.Name),
			log.String("controller", e.Controller),
			log.Vec2("position", mgl64.Vec2(e.Position)),
			log.Vec2("velocity", mgl64.Vec2(e.Velocity)),
		)
	}
}
