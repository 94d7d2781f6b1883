package cmd

import (
	"errors"
	"fmt"

	"github.com/brogergvhs/pagedetect/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func pickProfile() (string, error) {
	list, err := config.ListConfigs()
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", errors.New("no profiles yet, run `pagedetect config init`")
	}

	prompt := promptui.Select{
		Label: "Profile",
		Items: list,
		Templates: &promptui.SelectTemplates{
			Active:   `> {{ .Label | cyan }}{{ if .Active }} (active){{ end }}`,
			Inactive: `  {{ .Label }}{{ if .Active }} (active){{ end }}`,
			Selected: `{{ "Profile:" | faint }} {{ .Label }}`,
			Details:  `{{ "Path:" | faint }} {{ .Path }}`,
		},
		Size: 10,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}

	return list[idx].Label, nil
}

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Make another profile the active one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := ""
		if len(args) == 1 {
			label = args[0]
		} else {
			picked, err := pickProfile()
			if err != nil {
				return err
			}
			label = picked
		}

		if err := config.SwitchConfig(label); err != nil {
			return err
		}

		// A profile that fails to load is reported here.
		cfg, _, err := config.LoadMerged(config.Options{})
		if err != nil {
			return fmt.Errorf("switched to %s, but it does not load: %w", label, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Switched to: %s (min_confidence %.2f, min_group_count %d)\n",
			label, cfg.MinConfidence, cfg.Detect.MinGroupCount)

		return nil
	},
}

func init() {
	configCmd.AddCommand(configSwitchCmd)
}
