package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arun4infra/zerotouch-engine/internal/app"
	"github.com/arun4infra/zerotouch-engine/internal/lock"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the live tree and config against the last render's lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &app.Config{PlatformDir: platformDir, Debug: debug}
			result, err := app.ValidatePlatform(cfg)
			if err != nil {
				return err
			}
			if result.Drift != lock.DriftNone {
				return fmt.Errorf("unreachable: drift without error")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "no drift detected")
			return nil
		},
	}
}
