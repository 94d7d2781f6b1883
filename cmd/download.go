package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/brogergvhs/pagedetect/internal/chapters"
	"github.com/brogergvhs/pagedetect/internal/config"
	"github.com/brogergvhs/pagedetect/internal/downloader"
	"github.com/brogergvhs/pagedetect/internal/providers"
	"github.com/brogergvhs/pagedetect/internal/ui"
	"github.com/brogergvhs/pagedetect/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagURL     string
	flagChapter string
	flagRange   string
	flagList    string

	// runtime
	flagOutput         string
	flagImageWorkers   int
	flagChapterWorkers int
	flagKeepFolders    bool
	flagDryRun         bool
	flagSkipBroken     bool
	flagMinConfidence  float64
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Detect the pages of each chapter and save them as CBZ files. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVar(&flagURL, "url", "", "manga series page URL")
	downloadCmd.Flags().StringVar(&flagChapter, "chapter", "", "download single chapter by label or index (e.g. 28.5 or 5)")
	downloadCmd.Flags().StringVar(&flagRange, "range", "", "download range of chapters by index (e.g. 5-12 or 5-)")
	downloadCmd.Flags().StringVar(&flagList, "list", "", "download specific chapter indices (e.g. 1,3,5)")

	// runtime
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for CBZ files")
	downloadCmd.Flags().IntVar(&flagImageWorkers, "image-workers", 5, "parallel image downloads per chapter")
	downloadCmd.Flags().IntVar(&flagChapterWorkers, "chapter-workers", 2, "parallel chapter downloads")
	downloadCmd.Flags().BoolVar(&flagKeepFolders, "keep-folders", false, "keep temporary folders")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list the selected chapters without downloading")
	downloadCmd.Flags().BoolVar(&flagSkipBroken, "skip-broken", false, "skip failed images instead of failing the whole chapter")
	downloadCmd.Flags().Float64Var(&flagMinConfidence, "min-confidence", 0, "skip chapters whose detection confidence is below this (default from config, 0.35)")

	addFetchFlags(downloadCmd)
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg, usedPath, err := config.LoadMerged(fetchOptions(config.Options{
		Output:        flagOutput,
		KeepFolders:   flagKeepFolders,
		DefaultURL:    flagURL,
		DefaultRange:  flagRange,
		DefaultList:   flagList,
		SkipBroken:    flagSkipBroken,
		MinConfidence: flagMinConfidence,
	}))
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("image-workers") {
		cfg.ImageWorkers = max(1, flagImageWorkers)
	}
	if cmd.Flags().Changed("chapter-workers") {
		cfg.ChapterWorkers = max(1, flagChapterWorkers)
	}
	applyAllowExt(cfg)

	log := ui.NewLogger(cfg.Debug)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Config file: %s\n", usedPath)
	fmt.Fprintln(out, "Full config:")
	cfg.Print(out)
	fmt.Fprintln(out)

	if cfg.DefaultURL == "" {
		return fmt.Errorf("missing --url and no default_url in config")
	}
	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	client, err := newHTTPClient(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scr := newScraper(cfg, client, log)
	src, release := pageSource(cfg, scr, log)
	defer release()

	listed, err := scr.GetChapters(ctx, cfg.DefaultURL)
	if err != nil {
		return err
	}
	all := chapters.Wrap(listed)
	fmt.Fprintf(out, "Found %d chapters on the site.\n\n", len(all))

	// --chapter beats a stored range or list
	sel := chapters.Selection{Chapter: flagChapter}
	if sel.Chapter == "" {
		sel.Range, sel.List = cfg.DefaultRange, cfg.DefaultList
	}

	selected, err := chapters.Select(all, sel)
	if err != nil {
		return err
	}

	if flagDryRun {
		fmt.Fprintf(out, "Dry-run: %d chapters selected.\n\n", len(selected))
		for i, ch := range selected {
			fmt.Fprintf(out, "%3d) %s  [%s]\n    %s\n", i+1, ch.Title, ch.Label, ch.URL)
		}
		return nil
	}

	pm := ui.NewProgressManager(out)
	stats := &ui.Stats{}
	dl := downloader.New(client, downloader.Options{
		Workers:    cfg.ImageWorkers,
		SkipBroken: cfg.SkipBroken,
	})
	start := time.Now()

	sem := make(chan struct{}, cfg.ChapterWorkers)
	var wg sync.WaitGroup

	for _, ch := range selected {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			downloadChapter(ctx, chapterJob{
				ch:    ch,
				cfg:   cfg,
				src:   src,
				dl:    dl,
				pm:    pm,
				stats: stats,
				log:   log.With("chapter", ch.Label),
			})
		}()
	}
	wg.Wait()
	pm.Close()

	stats.Print(out, time.Since(start))

	if err := ctx.Err(); err != nil {
		util.CleanupUnfinishedTempFolders(cfg.Output, log)
		return fmt.Errorf("interrupted: %w", err)
	}
	if n := stats.FailedChapters.Load(); n > 0 {
		return fmt.Errorf("%d chapters failed", n)
	}

	fmt.Fprintln(out, "\nAll done.")

	return nil
}

type chapterJob struct {
	ch    chapters.Chapter
	cfg   *config.Config
	src   providers.CandidateSource
	dl    *downloader.Downloader
	pm    *ui.ProgressManager
	stats *ui.Stats
	log   *ui.Logger
}

func downloadChapter(ctx context.Context, j chapterJob) {
	ps, err := providers.DetectPages(ctx, j.src, j.ch.URL, detectOptions(j.cfg))
	switch {
	case errors.Is(err, providers.ErrNoImages):
		j.log.Warnf("no images on %s", j.ch.URL)
		j.stats.SkippedChapters.Add(1)
		return
	case err != nil:
		j.log.Errorf("scan %s: %v", j.ch.URL, err)
		j.stats.FailedChapters.Add(1)
		return
	}

	res := ps.Result
	j.log.Debugf("%s", res.Reason)
	if res.Confidence < j.cfg.MinConfidence || len(ps.URLs) == 0 {
		j.log.Warnf("skipped: confidence %.2f below %.2f (%s)", res.Confidence, j.cfg.MinConfidence, res.Reason)
		j.stats.SkippedChapters.Add(1)
		return
	}

	handle := j.pm.Register("Ch."+j.ch.Label, res.Confidence)
	handle.SetTotal(len(ps.URLs))

	folder := filepath.Join(j.cfg.Output, j.ch.FolderName())
	rep, err := j.dl.Download(ctx, ps.URLs, folder, j.ch.URL, handle)
	if err != nil {
		handle.Abort()
		j.log.Errorf("download failed: %v", err)
		_ = os.RemoveAll(folder)
		j.stats.FailedChapters.Add(1)
		return
	}
	for _, f := range rep.Failed {
		j.log.Warnf("skipped broken %v", f)
	}

	if err := util.CreateCBZ(rep.Files, j.ch.OutputCBZPath(j.cfg.Output)); err != nil {
		handle.Abort()
		j.log.Errorf("CBZ failed: %v", err)
		_ = os.RemoveAll(folder)
		j.stats.FailedChapters.Add(1)
		return
	}

	if !j.cfg.KeepFolders {
		util.CleanupFolder(folder)
	}

	handle.MarkDone()
	j.stats.TotalChapters.Add(1)
	j.stats.TotalImages.Add(int64(len(rep.Files)))
	j.stats.TotalBytes.Add(rep.Bytes)
}
