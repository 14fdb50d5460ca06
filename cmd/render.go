package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/arun4infra/zerotouch-engine/internal/app"
)

func newRenderCmd() *cobra.Command {
	var partial []string
	var watch bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render platform.yaml into the generated tree and lock file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &app.Config{PlatformDir: platformDir, Debug: debug, Partial: partial}

			if !watch {
				return renderOnce(cmd, cfg)
			}
			return renderWatch(cmd, cfg)
		},
	}

	cmd.Flags().StringSliceVar(&partial, "partial", nil, "render only the named adapters instead of the full plan")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-render automatically whenever platform.yaml changes")
	return cmd
}

func renderOnce(cmd *cobra.Command, cfg *app.Config) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " rendering platform..."
	s.Start()
	result, err := app.RenderPlatform(cmd.Context(), cfg)
	s.Stop()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Adapter"})
	for i, name := range result.Plan {
		t.AppendRow(table.Row{i + 1, name})
	}
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "lock written to %s\n", cfg.LockPath())
	return nil
}

// renderWatch re-renders whenever platform.yaml changes, for fast local
// iteration on adapter config. A failed render is reported and the watch
// loop continues rather than exiting, since the most common cause is a
// typo the user is about to fix.
func renderWatch(cmd *cobra.Command, cfg *app.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.PlatformConfigPath()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes (ctrl-c to stop)\n", cfg.PlatformConfigPath())
	if err := renderOnce(cmd, cfg); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "render failed: %v\n", err)
	}

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := renderOnce(cmd, cfg); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "render failed: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watch error: %v\n", err)
		}
	}
}
