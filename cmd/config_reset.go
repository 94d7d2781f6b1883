package cmd

import (
	"fmt"

	"github.com/brogergvhs/pagedetect/internal/config"

	"github.com/spf13/cobra"
)

var configResetCmd = &cobra.Command{
	Use:   "reset [label]",
	Short: "Reset the current or the given config to default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := config.DefaultLabel
		if len(args) == 1 {
			label = args[0]
		} else if cur, err := config.CurrentLabel(); err == nil {
			label = cur
		}

		path, err := config.ResetConfig(label)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Reset config %q: %s\n", label, path)

		return nil
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
}
