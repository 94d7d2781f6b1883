package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brogergvhs/pagedetect/internal/detect"
)

type staticSource struct {
	cands []detect.Candidate
	err   error
}

func (s staticSource) Candidates(context.Context, string) ([]detect.Candidate, error) {
	return s.cands, s.err
}

func TestDetectPages(t *testing.T) {
	var cands []detect.Candidate
	for i := 1; i <= 8; i++ {
		cands = append(cands, detect.Candidate{
			Src:    fmt.Sprintf("https://img.example.org/series/ch-9/%02d.webp", i),
			Width:  900,
			Height: 1300,
		})
	}
	cands = append(cands, detect.Candidate{Src: "https://img.example.org/ui/banner.png", Width: 728, Height: 90})

	ps, err := DetectPages(context.Background(), staticSource{cands: cands}, "https://example.org/ch-9", detect.Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(ps.URLs) != 8 {
		t.Fatalf("Expected 8 pages, got %d: %v", len(ps.URLs), ps.URLs)
	}
	if ps.URLs[0] != cands[0].Src {
		t.Errorf("Expected reading order, got %q first", ps.URLs[0])
	}
	if ps.Result.Confidence <= 0 {
		t.Errorf("Expected positive confidence, got %v", ps.Result.Confidence)
	}
}

func TestDetectPages_Errors(t *testing.T) {
	if _, err := DetectPages(context.Background(), staticSource{}, "u", detect.Options{}); !errors.Is(err, ErrNoImages) {
		t.Errorf("Expected ErrNoImages, got %v", err)
	}

	boom := errors.New("boom")
	if _, err := DetectPages(context.Background(), staticSource{err: boom}, "u", detect.Options{}); !errors.Is(err, boom) {
		t.Errorf("Expected source error, got %v", err)
	}
}
