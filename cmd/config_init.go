package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/pagedetect/internal/config"

	"github.com/spf13/cobra"
)

var flagInitYes bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := config.PathForLabel(config.DefaultLabel)

		if !flagInitYes {
			fmt.Fprintln(out, "Default configuration:")
			config.DefaultConfig().Print(out)
			fmt.Fprintf(out, "\nCreate Default config at %s? [y/N]: ", path)

			resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			resp = strings.TrimSpace(strings.ToLower(resp))
			if resp != "y" && resp != "yes" {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		path, err := config.InitDefaultConfig()
		switch {
		case errors.Is(err, os.ErrExist):
			fmt.Fprintf(out, "Configuration already exists at:\n  %s\n", path)
			fmt.Fprintln(out, "Use `pagedetect config reset` to recreate it.")
			return nil
		case err != nil:
			return fmt.Errorf("failed to create Default config: %w", err)
		}

		fmt.Fprintln(out, "Config created at:", path)
		fmt.Fprintln(out, "This config is now active (label: Default).")

		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&flagInitYes, "yes", "y", false, "do not ask for confirmation")
	configCmd.AddCommand(configInitCmd)
}
