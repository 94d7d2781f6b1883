package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/brogergvhs/pagedetect/internal/config"
	"github.com/brogergvhs/pagedetect/internal/server"
	"github.com/brogergvhs/pagedetect/internal/ui"

	"github.com/spf13/cobra"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve page detection over HTTP (POST /v1/detect, POST /v1/scan)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default from config, :8080)")
	addFetchFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, used, err := config.LoadMerged(fetchOptions(config.Options{ServeAddr: flagAddr}))
	if err != nil {
		return err
	}
	applyAllowExt(cfg)

	log := ui.NewLogger(cfg.Debug)
	log.Infof("config: %s", used)

	client, err := newHTTPClient(cfg, log)
	if err != nil {
		return err
	}

	src, release := pageSource(cfg, newScraper(cfg, client, log), log)
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Addr:   cfg.ServeAddr,
		Tuning: cfg.Detect,
		Source: src,
		Logger: log.Slog(),
	})

	return srv.Run(ctx)
}
