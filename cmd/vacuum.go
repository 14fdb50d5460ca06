package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/arun4infra/zerotouch-engine/internal/app"
)

func newVacuumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim orphaned secure workspaces left behind by crashed runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &app.Config{PlatformDir: platformDir, Debug: debug}
			results, err := app.VacuumWorkspaces(cfg)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Path", "Removed", "Reason"})
			for _, r := range results {
				t.AppendRow(table.Row{r.Path, r.Removed, r.Reason})
			}
			t.Render()
			return nil
		},
	}
}
