package generic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxProbes    = 8
	maxProbeBody = 4 << 20
)

// probeEndpoints calls the endpoints found in inline scripts and scans
// whatever JSON or HTML they return.
func (s *Scraper) probeEndpoints(ctx context.Context, pageURL string, h scriptHints, col *imageCollector) {
	endpoints := h.endpoints()
	if len(endpoints) > maxProbes {
		endpoints = endpoints[:maxProbes]
	}
	s.log.Debugf("dynamic endpoint candidates: %v", endpoints)

	for _, p := range endpoints {
		full := resolve(pageURL, p)

		body, err := s.fetchXHR(ctx, http.MethodPost, full)
		if err != nil {
			body, err = s.fetchXHR(ctx, http.MethodGet, full)
		}
		if err != nil {
			s.log.Debugf("probe %s: %v", full, err)
			continue
		}

		before := len(col.items)
		trimmed := strings.TrimSpace(body)
		switch {
		case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
			var v any
			if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
				col.ScanEmbeddedJSON(v, pageURL)
			}
		case looksLikeHTML(trimmed):
			if doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed)); err == nil {
				col.scanDocument(doc, pageURL)
			}
		}
		s.log.Debugf("probe %s: +%d candidates", full, len(col.items)-before)
	}
}

func (s *Scraper) fetchXHR(ctx context.Context, method, target string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return "", err
	}

	return string(b), nil
}
