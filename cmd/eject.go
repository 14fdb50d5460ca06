package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arun4infra/zerotouch-engine/internal/app"
)

func newEjectCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "eject",
		Short: "Bundle the rendered pipeline and scripts for a ztc-free bootstrap host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &app.Config{PlatformDir: platformDir, Debug: debug}
			if err := app.EjectPlatform(cfg, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bundle written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "./ztc-bundle", "directory to write the bundle into")
	return cmd
}
