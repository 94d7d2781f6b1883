package generic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/brogergvhs/pagedetect/internal/detect"
	"github.com/brogergvhs/pagedetect/internal/providers"
	"github.com/brogergvhs/pagedetect/internal/util"

	"github.com/PuerkitoBio/goquery"
)

const maxPageBody = 16 << 20

type Logger interface {
	Debugf(string, ...any)
	Warnf(string, ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

type Options struct {
	// AllowExt restricts candidates to these extensions. Empty means the
	// common image formats.
	AllowExt []string
	// CheckJS probes endpoints referenced by inline scripts.
	CheckJS bool
	Detect  detect.Options
	Logger  Logger
}

type Scraper struct {
	client  *http.Client
	allowed *regexp.Regexp
	checkJS bool
	detect  detect.Options
	log     Logger
}

var _ providers.Scraper = (*Scraper)(nil)

func NewScraper(c *http.Client, opts Options) *Scraper {
	s := &Scraper{
		client:  c,
		allowed: buildExtRegex(normalizeExtList(opts.AllowExt)),
		checkJS: opts.CheckJS,
		detect:  opts.Detect,
		log:     opts.Logger,
	}
	if s.log == nil {
		s.log = nopLogger{}
	}

	return s
}

func (s *Scraper) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	resp, err := util.DoWithRetry(ctx, s.client, req, 3, 500*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: HTTP %d", target, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", target, err)
	}

	return string(b), nil
}

// GetChapters lists the chapter links of a series page, sorted by number.
func (s *Scraper) GetChapters(ctx context.Context, seriesURL string) ([]providers.Chapter, error) {
	body, err := s.fetch(ctx, seriesURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", seriesURL, err)
	}

	var out []providers.Chapter
	seen := map[string]bool{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := attr(a, "href")
		text := strings.Join(strings.Fields(a.Text()), " ")
		if !looksLikeChapterLink(href, text) {
			return
		}

		l, ok := parseChapterLabel(href, text)
		if !ok {
			return
		}

		u := resolve(seriesURL, href)
		if seen[u] {
			return
		}
		seen[u] = true

		title := text
		if title == "" {
			title = "Chapter " + l.label
		}

		out = append(out, providers.Chapter{
			URL:        u,
			Title:      title,
			NumMain:    l.main,
			SuffixType: l.suffixType,
			SuffixNum:  l.suffixNum,
			Label:      l.label,
		})
	})

	sort.SliceStable(out, func(i, j int) bool { return lessChapter(out[i], out[j]) })
	s.log.Debugf("found %d chapters on %s", len(out), seriesURL)

	return out, nil
}

// Candidates returns every image candidate of a reader page in page order.
func (s *Scraper) Candidates(ctx context.Context, pageURL string) ([]detect.Candidate, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	col := newImageCollector(s.allowed)
	s.log.Debugf("dom scan %s: %v", pageURL, col.scanDocument(doc, pageURL))

	for _, raw := range embeddedJSON(doc, body) {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			s.log.Debugf("embedded state: %v", err)
			continue
		}
		col.ScanEmbeddedJSON(v, pageURL)
	}

	s.log.Debugf("loose urls: +%d", col.ScanLooseURLs(body))

	if s.checkJS {
		s.probeEndpoints(ctx, pageURL, analyzeScripts(doc), col)
	}

	cands := col.Finalize()
	if len(cands) == 0 {
		return nil, fmt.Errorf("%s: %w", pageURL, providers.ErrNoImages)
	}

	return cands, nil
}

// GetImages scans a chapter page and returns the detected page set.
func (s *Scraper) GetImages(ctx context.Context, chapterURL string) (providers.PageSet, error) {
	ps, err := providers.DetectPages(ctx, s, chapterURL, s.detect)
	if err != nil {
		return ps, err
	}

	s.log.Debugf("%s: %s", chapterURL, ps.Result.Reason)

	return ps, nil
}

// embeddedJSON returns SSR state blobs: window.__NUXT__ assignments and JSON
// script tags such as __NEXT_DATA__.
func embeddedJSON(doc *goquery.Document, body string) []string {
	var out []string
	if m := reNuxt.FindStringSubmatch(body); len(m) > 1 {
		out = append(out, m[1])
	}

	doc.Find(`script[type="application/json"], script#__NEXT_DATA__`).Each(func(_ int, sc *goquery.Selection) {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			out = append(out, t)
		}
	})

	return out
}
