package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brogergvhs/pagedetect/internal/config"
	"github.com/brogergvhs/pagedetect/internal/providers"
	"github.com/brogergvhs/pagedetect/internal/ui"

	"github.com/spf13/cobra"
)

var flagScanURL string

var scanCmd = &cobra.Command{
	Use:   "scan [url]",
	Short: "Scan a chapter page and show which images were detected as pages",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagScanURL, "url", "", "chapter page URL")
	scanCmd.Flags().BoolVar(&flagJSON, "json", false, "print the full result as JSON")
	scanCmd.Flags().BoolVar(&flagGlobalFallback, "global-fallback", false, "always build the size-only fallback groups")
	addFetchFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	target := flagScanURL
	if len(args) == 1 {
		target = args[0]
	}
	if target == "" {
		return fmt.Errorf("missing chapter URL (argument or --url)")
	}

	cfg, _, err := config.LoadMerged(fetchOptions(config.Options{}))
	if err != nil {
		return err
	}
	applyAllowExt(cfg)

	log := ui.NewLogger(cfg.Debug)

	client, err := newHTTPClient(cfg, log)
	if err != nil {
		return err
	}

	src, release := pageSource(cfg, newScraper(cfg, client, log), log)
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := detectOptions(cfg)
	opts.AlwaysGlobalFallback = flagGlobalFallback

	ps, err := providers.DetectPages(ctx, src, target, opts)
	if err != nil {
		return err
	}
	log.Debugf("%s: %s", target, ps.Result.Reason)

	return printResult(cmd.OutOrStdout(), ps.Result, cfg.Debug)
}
