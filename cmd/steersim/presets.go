package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/steerkit/internal/core/npc"
)

// PresetsCmd lists the embedded behaviour presets, or prints one.
func PresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "list or show embedded behaviour presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range npc.Presets() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			cfg, err := npc.Preset(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
