package downloader

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/pagedetect/internal/util"
)

// Progress receives page counts and bytes written. *ui.ProgressHandle
// satisfies it; finishing the bar is left to the caller.
type Progress interface {
	Update(done, total int, bytes int64)
}

type nopProgress struct{}

func (nopProgress) Update(int, int, int64) {}

type Options struct {
	Workers    int
	SkipBroken bool
	// Attempts per page, including the first one.
	Attempts    int
	Backoff     time.Duration
	PageTimeout time.Duration
}

type Downloader struct {
	client *http.Client
	opts   Options
}

func New(c *http.Client, opts Options) *Downloader {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}

	return &Downloader{client: c, opts: opts}
}

// PageError is a page that could not be fetched.
type PageError struct {
	Page int // 1-based
	URL  string
	Err  error
}

func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() error { return e.Err }

type Report struct {
	// Files are the written pages in page order.
	Files  []string
	Bytes  int64
	Failed []PageError
}

// Download writes pages into folder as page_001.ext, page_002.ext and so on,
// keeping the order of pages. Inline data: pages are decoded instead of
// fetched. Failed pages are an error unless SkipBroken is set.
func (d *Downloader) Download(ctx context.Context, pages []string, folder, referer string, p Progress) (Report, error) {
	if p == nil {
		p = nopProgress{}
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return Report{}, err
	}

	var (
		mu     sync.Mutex
		done   int
		bytes  int64
		files  = make([]string, len(pages))
		failed []PageError
	)
	total := len(pages)
	p.Update(0, total, 0)

	addBytes := func(n int64) {
		mu.Lock()
		bytes += n
		p.Update(done, total, bytes)
		mu.Unlock()
	}

	runPool(ctx, total, d.opts.Workers, func(i int) {
		name := filepath.Join(folder, fmt.Sprintf("page_%03d", i+1))
		file, err := d.fetchPage(ctx, pages[i], name, referer, addBytes)

		mu.Lock()
		defer mu.Unlock()
		done++
		if err != nil {
			failed = append(failed, PageError{Page: i + 1, URL: pages[i], Err: err})
		} else {
			files[i] = file
		}
		p.Update(done, total, bytes)
	})

	rep := Report{Bytes: bytes, Failed: failed}
	for _, f := range files {
		if f != "" {
			rep.Files = append(rep.Files, f)
		}
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if len(failed) > 0 && !d.opts.SkipBroken {
		errs := make([]error, len(failed))
		for i, f := range failed {
			errs[i] = f
		}

		return rep, fmt.Errorf("failed %d/%d pages (use --skip-broken to continue): %w", len(failed), total, errors.Join(errs...))
	}

	return rep, nil
}

// fetchPage writes one page to base plus an extension and returns the
// final path.
func (d *Downloader) fetchPage(ctx context.Context, src, base, referer string, progress func(int64)) (string, error) {
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return writeDataURI(src, base, progress)
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.PageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := util.DoWithRetry(ctx, d.client, req, d.opts.Attempts, d.opts.Backoff)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	mt := mediaType(resp.Header.Get("Content-Type"))
	if mt != "" && !strings.HasPrefix(mt, "image/") && mt != "application/octet-stream" {
		return "", fmt.Errorf("unexpected content type %s", mt)
	}

	return writeFile(base+pageExt(src, mt), resp.Body, progress)
}

func writeDataURI(src, base string, progress func(int64)) (string, error) {
	meta, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok {
		return "", errors.New("malformed data URI")
	}

	var r io.Reader = strings.NewReader(payload)
	if strings.HasSuffix(meta, ";base64") {
		r = base64.NewDecoder(base64.StdEncoding, r)
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return "", err
		}
		r = strings.NewReader(s)
	}

	mt := mediaType(strings.TrimSuffix(meta, ";base64"))
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("data URI is not an image: %q", mt)
	}

	return writeFile(base+pageExt("", mt), r, progress)
}

func writeFile(name string, r io.Reader, progress func(int64)) (_ string, err error) {
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(name)
		}
	}()

	if _, err := io.Copy(&progressWriter{w: f, report: progress}, r); err != nil {
		return "", err
	}

	return name, nil
}

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

func mediaType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}

	return strings.ToLower(mt)
}

// pageExt prefers the extension in the URL path, then the content type,
// then .jpg.
func pageExt(src, mt string) string {
	if u, err := url.Parse(src); err == nil && src != "" {
		ext := strings.ToLower(path.Ext(u.Path))
		if ext == ".jpeg" {
			ext = ".jpg"
		}
		for _, known := range extByType {
			if ext == known {
				return ext
			}
		}
	}
	if ext, ok := extByType[mt]; ok {
		return ext
	}

	return ".jpg"
}
