package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arun4infra/zerotouch-engine/internal/app"
	"github.com/arun4infra/zerotouch-engine/internal/bootstrap"
)

func newBootstrapCmd() *cobra.Command {
	var env string
	var skipCache bool
	var rescueHost string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Execute the rendered pipeline against real infrastructure",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &app.Config{
				PlatformDir: platformDir,
				Debug:       debug,
				Env:         env,
				SkipCache:   skipCache,
				RescueHost:  rescueHost,
			}

			out := cmd.OutOrStdout()
			result, err := app.BootstrapPlatform(cmd.Context(), cfg, func(r bootstrap.StageResult) {
				fmt.Fprintf(out, "[%s] %s (attempt %d)\n", r.State, r.StageName, r.Attempt)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "bootstrap complete: %d stages, metrics written to %s\n", result.StageCount, result.MetricsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&env, "env", "", "environment name, e.g. production or staging")
	cmd.Flags().BoolVar(&skipCache, "skip-cache", false, "clear the stage cache before running")
	cmd.Flags().StringVar(&rescueHost, "rescue-host", "", "host:port a rescue-ready barrier dials")
	return cmd
}
