package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeusync/steerkit/internal/core/observability/log"
	"github.com/zeusync/steerkit/internal/injector"
)

func ServeCmd() *cobra.Command {
	var (
		configFile string
		addr       string
	)
	c := &cobra.Command{
		Use:   "serve",
		Short: "tick a scenario in real time and stream frames over websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			app, err := injector.InitializeApp(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.Server.Start(ctx); err != nil {
				return err
			}
			runErr := app.World.Run(ctx, cfg.Ticks, cfg.TickInterval())
			if errors.Is(runErr, context.Canceled) {
				runErr = nil
			}

			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := app.Server.Stop(shutdown); err != nil {
				app.Log.Error("server stop", log.Error(err))
			}
			return runErr
		},
	}
	c.Flags().StringVar(&configFile, "config", "", "scenario file (YAML)")
	c.Flags().StringVar(&addr, "addr", "", "override server.addr")
	return c
}
