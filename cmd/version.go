package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/arun4infra/zerotouch-engine/internal/app"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine version and every compiled-in adapter's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := app.ReportVersion()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "ztc %s\n", info.EngineVersion)

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"Adapter", "Version", "Phase"})
			for _, a := range info.Adapters {
				t.AppendRow(table.Row{a.Name, a.Version, a.Phase})
			}
			t.Render()
			return nil
		},
	}
}
