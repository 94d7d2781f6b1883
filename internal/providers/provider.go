package providers

import (
	"context"
	"errors"

	"github.com/brogergvhs/pagedetect/internal/detect"
)

// ErrNoImages is returned when a page yields no image candidates at all.
var ErrNoImages = errors.New("no image candidates found")

type Chapter struct {
	URL        string
	Title      string
	NumMain    int
	SuffixType string
	SuffixNum  int
	Label      string
}

// CandidateSource extracts every image candidate of a reader page in
// document order.
type CandidateSource interface {
	Candidates(ctx context.Context, pageURL string) ([]detect.Candidate, error)
}

type Scraper interface {
	CandidateSource
	GetChapters(ctx context.Context, seriesURL string) ([]Chapter, error)
}

// PageSet is the detected page list of one chapter together with the full
// detection outcome.
type PageSet struct {
	URLs   []string
	Result detect.Result
}

func DetectPages(ctx context.Context, src CandidateSource, pageURL string, opts detect.Options) (PageSet, error) {
	cands, err := src.Candidates(ctx, pageURL)
	if err != nil {
		return PageSet{}, err
	}
	if len(cands) == 0 {
		return PageSet{}, ErrNoImages
	}

	res := detect.AutoDetectPages(cands, opts)

	return PageSet{URLs: res.SelectedLocators(), Result: res}, nil
}
