package cmd

import (
	"net/http"
	"strings"
	"time"

	"github.com/brogergvhs/pagedetect/internal/browser"
	"github.com/brogergvhs/pagedetect/internal/config"
	"github.com/brogergvhs/pagedetect/internal/detect"
	"github.com/brogergvhs/pagedetect/internal/providers"
	"github.com/brogergvhs/pagedetect/internal/providers/generic"
	"github.com/brogergvhs/pagedetect/internal/ui"
	"github.com/brogergvhs/pagedetect/internal/util"

	"github.com/spf13/cobra"
)

// fetch flags shared by scan, serve and download
var (
	flagAllowExt      string
	flagCookie        string
	flagCookieFile    string
	flagUserAgent     string
	flagCheckJS       bool
	flagCFBypass      bool
	flagBrowser       bool
	flagRemoteBrowser string
)

func addFetchFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagAllowExt, "allow-ext", "", "allowed image extensions (e.g. \"webp|jpg|png\")")
	c.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	c.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	c.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	c.Flags().BoolVar(&flagCheckJS, "check-js", false, "probe endpoints referenced by inline scripts")
	c.Flags().BoolVar(&flagCFBypass, "cf-bypass", false, "use a browser-like TLS fingerprint against Cloudflare")
	c.Flags().BoolVar(&flagBrowser, "browser", false, "scan pages in headless Chrome instead of parsing HTML")
	c.Flags().StringVar(&flagRemoteBrowser, "remote-browser", "", "DevTools WebSocket URL of a running Chrome (implies --browser)")
}

func fetchOptions(base config.Options) config.Options {
	base.IgnoreConfig = flagIgnoreConfig
	base.Debug = flagDebug
	base.Cookie = flagCookie
	base.CookieFile = flagCookieFile
	base.UserAgent = flagUserAgent
	base.CheckJS = flagCheckJS
	base.CloudflareBypass = flagCFBypass
	base.Browser = flagBrowser || flagRemoteBrowser != ""

	return base
}

// applyAllowExt overrides the profile's extension list when --allow-ext is
// given.
func applyAllowExt(cfg *config.Config) {
	if flagAllowExt != "" {
		cfg.AllowExt = splitExt(flagAllowExt)
	}
}

func splitExt(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})

	out := []string{}
	for _, f := range fields {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f != "" {
			out = append(out, f)
		}
	}

	return out
}

func detectOptions(cfg *config.Config) detect.Options {
	return detect.Options{Tuning: cfg.Detect}
}

func newHTTPClient(cfg *config.Config, log *ui.Logger) (*http.Client, error) {
	opts := util.HTTPClientOptions{
		Timeout:          30 * time.Second,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
	}
	if cfg.Debug {
		opts.DebugLogger = log
	}

	return util.NewHTTPClient(opts)
}

func newScraper(cfg *config.Config, client *http.Client, log *ui.Logger) *generic.Scraper {
	return generic.NewScraper(client, generic.Options{
		AllowExt: cfg.AllowExt,
		CheckJS:  cfg.CheckJS,
		Detect:   detectOptions(cfg),
		Logger:   log.With("component", "scraper"),
	})
}

// pageSource picks where page candidates come from: headless Chrome when
// enabled, the HTML scraper otherwise. The returned func releases it.
func pageSource(cfg *config.Config, scr *generic.Scraper, log *ui.Logger) (providers.CandidateSource, func()) {
	if !cfg.Browser {
		return scr, func() {}
	}

	b := browser.New(browser.Config{
		RemoteURL: flagRemoteBrowser,
		Logger:    log.Slog().With("component", "browser"),
	})

	return b, func() {
		if err := b.Close(); err != nil {
			log.Warnf("closing browser: %v", err)
		}
	}
}
