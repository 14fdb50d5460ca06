package cmd

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/arun4infra/zerotouch-engine/internal/app"
)

func newInitCmd() *cobra.Command {
	var organization, appName string
	var adapters []string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new platform.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &app.Config{PlatformDir: platformDir, Debug: debug}

			if organization == "" || appName == "" || len(adapters) == 0 {
				answers, err := runInitWizard(organization, appName, adapters)
				if err != nil {
					return err
				}
				organization, appName, adapters = answers.organization, answers.appName, answers.adapters
			}

			if err := app.InitPlatform(cfg, organization, appName, adapters); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfg.PlatformConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&organization, "organization", "", "platform.organization value")
	cmd.Flags().StringVar(&appName, "app-name", "", "platform.app_name value")
	cmd.Flags().StringSliceVar(&adapters, "adapters", nil, "comma-separated adapter names to scaffold")
	return cmd
}

type initAnswers struct {
	organization string
	appName      string
	adapters     []string
}

// runInitWizard fills in whatever flags the caller omitted by prompting
// interactively, using readline so the adapter list can be edited in place
// rather than retyped on a rejected answer.
func runInitWizard(organization, appName string, adapters []string) (initAnswers, error) {
	rl, err := readline.New("ztc init> ")
	if err != nil {
		return initAnswers{}, err
	}
	defer rl.Close()

	if organization == "" {
		organization, err = promptLine(rl, "organization: ")
		if err != nil {
			return initAnswers{}, err
		}
	}
	if appName == "" {
		appName, err = promptLine(rl, "app name: ")
		if err != nil {
			return initAnswers{}, err
		}
	}
	if len(adapters) == 0 {
		rl.SetPrompt("adapters (comma-separated, e.g. hetzner,talos,cilium): ")
		line, err := rl.Readline()
		if err != nil {
			return initAnswers{}, err
		}
		for _, a := range strings.Split(line, ",") {
			a = strings.TrimSpace(a)
			if a != "" {
				adapters = append(adapters, a)
			}
		}
	}

	return initAnswers{organization: organization, appName: appName, adapters: adapters}, nil
}

func promptLine(rl *readline.Instance, prompt string) (string, error) {
	rl.SetPrompt(prompt)
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
