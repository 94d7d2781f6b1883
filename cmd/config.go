package cmd

import (
	"fmt"

	"github.com/brogergvhs/pagedetect/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var flagShowDetect bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active config or manage config profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if flagShowDetect {
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(map[string]any{"detect": cfg.Detect}); err != nil {
				return err
			}

			return enc.Close()
		}

		fmt.Fprintf(out, "Loaded config from:\n  %s\n\n", used)
		cfg.Print(out)

		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&flagShowDetect, "detect", false, "print the full detection tuning block as YAML")
	rootCmd.AddCommand(configCmd)
}
