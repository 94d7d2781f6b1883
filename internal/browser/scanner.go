// Package browser scans a live page with headless Chrome. It reports every
// <img> with its intrinsic, declared and rendered size once lazy loaders have
// run, which is more than static HTML can tell.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/pagedetect/internal/detect"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// ErrNoBrowser is returned when Chrome can neither be launched nor reached.
var ErrNoBrowser = errors.New("browser: chrome not available")

type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local headless instance.
	RemoteURL string

	// ScrollSteps bounds how many viewport heights are scrolled to wake lazy
	// loaders. Default: 40.
	ScrollSteps int
	ScrollDelay time.Duration // default 250ms
	NavTimeout  time.Duration // default 45s

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ScrollSteps <= 0 {
		c.ScrollSteps = 40
	}
	if c.ScrollDelay <= 0 {
		c.ScrollDelay = 250 * time.Millisecond
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 45 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scanner starts Chrome on first use and reuses it for later scans. Safe for
// concurrent use; every scan gets its own tab.
type Scanner struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func New(cfg Config) *Scanner {
	cfg.defaults()
	return &Scanner{cfg: cfg}
}

func (s *Scanner) connect() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	log := s.cfg.Logger
	wsURL := s.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: launch: %v", ErrNoBrowser, err)
		}
		wsURL = u
		s.lnch = l
		log.Debug("browser: launched local chrome", "url", wsURL)
	} else {
		log.Debug("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if s.lnch != nil {
			s.lnch.Cleanup()
			s.lnch = nil
		}
		return nil, fmt.Errorf("%w: connect: %v", ErrNoBrowser, err)
	}
	s.browser = b

	return b, nil
}

// Candidates opens pageURL in a stealth tab, scrolls through it and returns
// its images in document order.
func (s *Scanner) Candidates(ctx context.Context, pageURL string) ([]detect.Candidate, error) {
	b, err := s.connect()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer func() { _ = page.Close() }()

	log := s.cfg.Logger.With("url", pageURL)

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		log.Warn("browser: wait load", "error", err)
	}

	steps := s.scroll(ctx, page)
	log.Debug("browser: scrolled", "steps", steps)

	if err := page.Context(navCtx).WaitIdle(5 * time.Second); err != nil {
		log.Debug("browser: wait idle", "error", err)
	}

	res, err := page.Context(navCtx).Eval(collectImagesJS)
	if err != nil {
		return nil, fmt.Errorf("browser: collect images: %w", err)
	}

	cands, err := parseCandidates(res.Value.Str())
	if err != nil {
		return nil, err
	}
	log.Debug("browser: collected", "candidates", len(cands))

	return cands, nil
}

// scroll moves down one viewport at a time until the bottom is reached or
// ScrollSteps runs out, and returns the number of steps taken.
func (s *Scanner) scroll(ctx context.Context, page *rod.Page) int {
	for i := 1; i <= s.cfg.ScrollSteps; i++ {
		res, err := page.Context(ctx).Eval(scrollStepJS)
		if err != nil || res.Value.Int() <= 0 {
			return i
		}

		select {
		case <-ctx.Done():
			return i
		case <-time.After(s.cfg.ScrollDelay):
		}
	}

	return s.cfg.ScrollSteps
}

func (s *Scanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}

	return err
}

// imageRecord is what collectImagesJS reports per element.
type imageRecord struct {
	Src           string `json:"src"`
	CurrentSrc    string `json:"currentSrc"`
	NaturalWidth  int    `json:"naturalWidth"`
	NaturalHeight int    `json:"naturalHeight"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	DisplayWidth  int    `json:"displayWidth"`
	DisplayHeight int    `json:"displayHeight"`
	Alt           string `json:"alt"`
}

func parseCandidates(raw string) ([]detect.Candidate, error) {
	var recs []imageRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("browser: decode images: %w", err)
	}

	out := make([]detect.Candidate, 0, len(recs))
	for _, r := range recs {
		src := strings.TrimSpace(r.CurrentSrc)
		if src == "" {
			src = strings.TrimSpace(r.Src)
		}
		if src == "" || strings.HasPrefix(src, "about:") {
			continue
		}

		out = append(out, detect.Candidate{
			Src:           src,
			NaturalWidth:  r.NaturalWidth,
			NaturalHeight: r.NaturalHeight,
			Width:         r.Width,
			Height:        r.Height,
			DisplayWidth:  r.DisplayWidth,
			DisplayHeight: r.DisplayHeight,
			Alt:           r.Alt,
		})
	}

	return out, nil
}

const scrollStepJS = `() => {
	window.scrollBy(0, window.innerHeight);
	const el = document.scrollingElement || document.documentElement;
	return Math.max(0, el.scrollHeight - (window.scrollY + window.innerHeight));
}`

// Declared sizes come from the attributes only; the width/height properties
// would report the rendered size.
const collectImagesJS = `async () => {
	const imgs = Array.from(document.querySelectorAll('img'));
	await Promise.all(imgs.map((img) => img.complete ? null : new Promise((resolve) => {
		img.addEventListener('load', resolve, { once: true });
		img.addEventListener('error', resolve, { once: true });
		setTimeout(resolve, 3000);
	})));
	const attr = (img, name) => parseInt(img.getAttribute(name) || '0', 10) || 0;
	return JSON.stringify(imgs.map((img) => {
		const rect = img.getBoundingClientRect();
		return {
			src: img.src || '',
			currentSrc: img.currentSrc || '',
			naturalWidth: img.naturalWidth || 0,
			naturalHeight: img.naturalHeight || 0,
			width: attr(img, 'width'),
			height: attr(img, 'height'),
			displayWidth: Math.round(rect.width),
			displayHeight: Math.round(rect.height),
			alt: img.alt || '',
		};
	}));
}`
