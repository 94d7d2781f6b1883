package cmd

import (
	"fmt"

	"github.com/brogergvhs/pagedetect/internal/config"

	"github.com/spf13/cobra"
)

var configRenameCmd = &cobra.Command{
	Use:   "rename <old_label> <new_label>",
	Short: "Rename a config profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to := args[0], args[1]

		if err := config.RenameConfig(from, to); err != nil {
			return fmt.Errorf("rename %s: %w", from, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Renamed %q to %q\n  %s\n", from, to, config.PathForLabel(to))
		if active, _ := config.CurrentLabel(); active == to {
			fmt.Fprintln(out, "  (still the active profile)")
		}

		return nil
	},
}

func init() {
	configCmd.AddCommand(configRenameCmd)
}
