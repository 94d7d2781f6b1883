package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/pagedetect/internal/config"

	"github.com/spf13/cobra"
)

var flagAddFrom string

var configAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Create a new config from defaults or from an existing YAML file (--from)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			fmt.Fprint(cmd.OutOrStdout(), "Enter label for new config: ")
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			label = line
		}

		label = strings.TrimSpace(label)
		if label == "" {
			return fmt.Errorf("label cannot be empty")
		}

		path, err := config.AddConfig(label, flagAddFrom)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created new config: %s\n", path)

		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&flagAddFrom, "from", "", "import settings from this YAML file")
	configCmd.AddCommand(configAddCmd)
}
