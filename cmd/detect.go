package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/brogergvhs/pagedetect/internal/config"
	"github.com/brogergvhs/pagedetect/internal/detect"
	"github.com/brogergvhs/pagedetect/internal/ui"

	"github.com/spf13/cobra"
)

var (
	flagJSON           bool
	flagGlobalFallback bool
)

var detectCmd = &cobra.Command{
	Use:   "detect [file|-]",
	Short: "Classify a JSON list of image candidates read from a file or stdin",
	Long: `detect reads either a JSON array of candidates or an object with a
"candidates" array. Each candidate carries url or src and any of
naturalWidth/naturalHeight, width/height and displayWidth/displayHeight.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&flagJSON, "json", false, "print the full result as JSON")
	detectCmd.Flags().BoolVar(&flagGlobalFallback, "global-fallback", false, "always build the size-only fallback groups")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, _, err := config.LoadMerged(config.Options{IgnoreConfig: flagIgnoreConfig, Debug: flagDebug})
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}

	cands, err := decodeCandidates(data)
	if err != nil {
		return err
	}

	opts := detectOptions(cfg)
	opts.AlwaysGlobalFallback = flagGlobalFallback

	return printResult(cmd.OutOrStdout(), detect.AutoDetectPages(cands, opts), cfg.Debug)
}

// decodeCandidates accepts a bare array or {"candidates": [...]}.
func decodeCandidates(data []byte) ([]detect.Candidate, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("no input")
	}

	var cands []detect.Candidate
	if data[0] == '[' {
		if err := json.Unmarshal(data, &cands); err != nil {
			return nil, fmt.Errorf("decode candidates: %w", err)
		}
		return cands, nil
	}

	var wrapped struct {
		Candidates []detect.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}

	return wrapped.Candidates, nil
}

// printResult renders a result as JSON (--json) or as the text report, with
// the per-image audit when debug is on.
func printResult(w io.Writer, res detect.Result, debug bool) error {
	if flagJSON {
		if !debug {
			res.Debug = nil
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(res)
	}

	ui.PrintResult(w, res)
	if !debug {
		return nil
	}

	_, _ = fmt.Fprintln(w)
	if err := ui.PrintGroups(w, res); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)

	return ui.PrintAudit(w, res)
}
