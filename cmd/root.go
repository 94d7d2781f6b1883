package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool
)

var rootCmd = &cobra.Command{
	Use:   "pagedetect",
	Short: "Find the chapter pages among the images of a manga reader page",
	Long: `pagedetect scores every image of a reader page, groups them by URL lineage
and size, and picks the group that forms the chapter. It can classify a
candidate list, scan a page, download whole chapters as CBZ or serve the
engine over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging and the per-image audit")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
