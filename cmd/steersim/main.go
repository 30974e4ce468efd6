package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zeusync/steerkit/internal/config"
	"github.com/zeusync/steerkit/internal/core/observability/log"
)

func main() {
	root := &cobra.Command{
		Use:           "steersim",
		Short:         "steering and behaviour tree simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(RunCmd(), ServeCmd(), PresetsCmd())

	if err := root.Execute(); err != nil {
		log.Provide().Error("steersim failed", log.Error(err))
		os.Exit(1)
	}
}

// loadConfig reads path, or returns the default scenario when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
