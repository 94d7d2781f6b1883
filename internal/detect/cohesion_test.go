package detect

import (
	"fmt"
	"math"
	"testing"
)

func TestNumericSequenceStrength(t *testing.T) {
	testCases := []struct {
		name string
		nums []int
		want float64
	}{
		{"consecutive", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1},
		{"unordered consecutive", []int{5, 3, 1, 4, 2}, 1},
		{"too few values", []int{1, 2, 3}, 0},
		{"one missing page", []int{1, 2, 3, 5, 6}, 0.85},
		{"even pages", []int{2, 4, 6, 8, 10}, 0.4},
		{"wide gaps", []int{10, 20, 30, 40, 50}, 0.08},
		{"all duplicates", []int{1, 1, 1, 1, 1}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := numericSequenceStrength(tc.nums, MinSequenceValues); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAnalyzeCohesion(t *testing.T) {
	tn := DefaultTuning()

	var cands []Candidate
	for i := 1; i <= 10; i++ {
		cands = append(cands, Candidate{URL: fmt.Sprintf("https://cdn.site.com/manga/ch-1/%03d.jpg", i)})
	}
	cands = append(cands,
		Candidate{URL: "https://site.com/assets/logo.png"},
		Candidate{URL: "https://site.com/assets/avatar.png"},
	)

	ls := analyzeCohesion(normalize(cands, tn), tn)

	if len(ls.order) != 2 {
		t.Fatalf("Expected 2 lineages, got %v", ls.order)
	}
	if ls.order[0] != "cdn.site.com/manga/ch-1" {
		t.Errorf("Expected page lineage first, got %q", ls.order[0])
	}

	pages := ls.get("cdn.site.com/manga/ch-1")
	if math.Abs(pages.urlCohesion-0.925) > 1e-9 {
		t.Errorf("Expected page cohesion 0.925, got %v", pages.urlCohesion)
	}
	if pages.bonus != 9 {
		t.Errorf("Expected page bonus 9, got %d", pages.bonus)
	}

	assets := ls.get("site.com/assets")
	if math.Abs(assets.urlCohesion-0.425) > 1e-9 {
		t.Errorf("Expected asset cohesion 0.425, got %v", assets.urlCohesion)
	}
	if assets.sequenceStrength != 0 {
		t.Errorf("Expected no sequence for assets, got %v", assets.sequenceStrength)
	}
}

func TestReadingOrderCoherence(t *testing.T) {
	testCases := []struct {
		name    string
		indices []int
		want    float64
	}{
		{"single", []int{5}, 1},
		{"adjacent", []int{3, 0, 2, 1}, 0.9},
		{"scattered", []int{0, 20}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := readingOrderCoherence(tc.indices); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestURLSimilarity(t *testing.T) {
	tn := DefaultTuning()
	sig := BuildSignature("https://cdn.site.com/manga/chapter-1/001.jpg", tn)
	ref := winnerRef{
		prefixSig:   sig.PrefixSig,
		fullSig:     sig.FullSig,
		basePattern: sig.BasePattern,
		ext:         sig.Ext,
		dirs:        dirSegments(sig),
	}

	testCases := []struct {
		name    string
		locator string
		want    float64
	}{
		{"same shape", "https://cdn.site.com/manga/chapter-1/014.jpg", 1},
		{"unrelated host", "https://other.net/x/y/z.png", 0},
		{"nested variant", "https://cdn.site.com/manga/chapter-1/hd/001.jpg", 0.35*(0.5+0.5*2.0/3) + 0.15*2.0/3},
		{"inline payload", "data:image/png;base64,AAAA", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := urlSimilarity(BuildSignature(tc.locator, tn), ref)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}
