package detect

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
)

func pages(base, pattern string, n, w, h int) []Candidate {
	out := make([]Candidate, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Candidate{Src: base + "/" + fmt.Sprintf(pattern, i), Width: w, Height: h})
	}

	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func TestAutoDetectPages_Empty(t *testing.T) {
	res := AutoDetectPages(nil, Options{})

	if res.Reason != "no images" {
		t.Errorf("Expected reason 'no images', got %q", res.Reason)
	}
	if res.Confidence != 0 || len(res.Selected) != 0 || len(res.Groups) != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

func TestAutoDetectPages_HighCohesionSequence(t *testing.T) {
	cands := pages("https://cdn.example.com/manga/title/chapter1", "%03d.png", 20, 800, 1200)

	res := AutoDetectPages(cands, Options{})

	if res.Confidence <= 0.75 {
		t.Errorf("Expected confidence > 0.75, got %.3f (%s)", res.Confidence, res.Reason)
	}
	if len(res.Selected) != 20 {
		t.Errorf("Expected all 20 pages selected, got %d", len(res.Selected))
	}
	if !strings.HasPrefix(res.Reason, "best group cdn.example.com/manga/title/chapter1|800|1200 count=20") {
		t.Errorf("Unexpected reason: %q", res.Reason)
	}
}

func TestAutoDetectPages_Noise(t *testing.T) {
	cands := []Candidate{
		{Src: "https://site.com/logo.png", Width: 64, Height: 64},
		{Src: "https://site.com/ads/banner.gif", Width: 728, Height: 90},
		{Src: "https://site.com/avatar/user123.jpg", Width: 48, Height: 48},
	}

	res := AutoDetectPages(cands, Options{})

	if res.Confidence >= 0.45 {
		t.Errorf("Expected confidence < 0.45, got %.3f", res.Confidence)
	}
	if len(res.Selected) != 0 {
		t.Errorf("Expected nothing selected, got %v", res.SelectedLocators())
	}
}

func TestAutoDetectPages_CompetingLineages(t *testing.T) {
	var cands []Candidate
	cands = append(cands, pages("https://cdn.example.com/series/vol1", "page_%d.jpg", 10, 800, 1200)...)
	cands = append(cands, pages("https://cdn.example.com/series/vol2", "page_%d.jpg", 10, 800, 1200)...)

	res := AutoDetectPages(cands, Options{})

	if len(res.Selected) == 0 {
		t.Fatal("Expected a selection")
	}
	if len(res.Groups) < 2 {
		t.Fatalf("Expected two competing groups, got %d", len(res.Groups))
	}

	top, second := res.Groups[0], res.Groups[1]
	clearCohesion := top.URLCohesion-second.URLCohesion > CohesionClearWin
	clearCount := float64(top.Count) >= CountClearWinRatio*float64(second.Count)
	if top.Confidence-second.Confidence < AmbiguityThreshold && !clearCohesion && !clearCount {
		want := top.Confidence - AmbiguityPenalty
		if math.Abs(res.Confidence-want) > 1e-9 {
			t.Errorf("Expected penalized confidence %.4f, got %.4f", want, res.Confidence)
		}
		if !res.Debug.AmbiguityPenalized {
			t.Error("Expected debug to flag the ambiguity penalty")
		}
	} else {
		t.Errorf("Fixture should be ambiguous: %+v vs %+v", top, second)
	}

	for _, loc := range res.SelectedLocators() {
		if !strings.Contains(loc, "/vol1/") {
			t.Errorf("Selection mixes lineages: %s", loc)
		}
	}
}

func TestAutoDetectPages_OrientationInvariantSpread(t *testing.T) {
	base := "https://cdn.read-demonslayer.com/images/manga/demonslayer/chapter-140"
	var cands []Candidate
	for i := 1; i <= 20; i++ {
		cands = append(cands, Candidate{
			Src:   fmt.Sprintf("%s/p%02d%s.jpg", base, i, strings.Repeat("a", 30)),
			Width: 800, Height: 1168,
		})
	}
	spread := base + "/spread" + strings.Repeat("b", 28) + ".jpg"
	cands = append(cands, Candidate{Src: spread, Width: 1096, Height: 800})

	res := AutoDetectPages(cands, Options{})

	if !contains(res.SelectedLocators(), spread) {
		t.Errorf("Expected spread to be selected, reason=%s", res.Reason)
	}
}

func TestAutoDetectPages_CrossBucketSpreadViaPostPass(t *testing.T) {
	base := "https://cdn.example.com/manga/title/chapter-140"
	cands := pages(base, "page_%03d.jpg", 18, 800, 1200)
	spread := base + "/page_spread_001.jpg"
	cands = append(cands, Candidate{Src: spread, Width: 600, Height: 1000})

	res := AutoDetectPages(cands, Options{})

	if !contains(res.SelectedLocators(), spread) {
		t.Fatalf("Expected spread selected via post-pass, reason=%s", res.Reason)
	}
	if !res.Debug.PostPassRan {
		t.Error("Expected post-pass to run")
	}
	if res.SpreadIncludedCount != 1 {
		t.Errorf("Expected 1 spread inclusion, got %d", res.SpreadIncludedCount)
	}
	if !strings.Contains(res.Reason, "spreadIncluded=1") {
		t.Errorf("Expected reason to mention the spread, got %q", res.Reason)
	}

	last := res.Debug.Candidates[len(cands)-1]
	if last.IncludedBy != IncludedBySpread {
		t.Errorf("Expected includedBy=spread, got %q", last.IncludedBy)
	}
}

func TestAutoDetectPages_SpreadDifferentBucketSeriesFolder(t *testing.T) {
	base := "https://cdn.example.com/series/vol1/chapter"
	cands := pages(base, "page_%d.jpg", 20, 800, 1200)
	spread := base + "/spread_001.jpg"
	cands = append(cands, Candidate{Src: spread, Width: 600, Height: 1000})

	res := AutoDetectPages(cands, Options{})

	if !contains(res.SelectedLocators(), spread) {
		t.Errorf("Expected spread selected, reason=%s", res.Reason)
	}
}

func TestAutoDetectPages_LineageIsolation(t *testing.T) {
	cands := pages("https://cdn.example.com/manga/a/chapter-1", "p%d.jpg", 15, 800, 1200)
	other := Candidate{Src: "https://cdn.example.com/manga/b/chapter-1/spread.jpg", Width: 600, Height: 1000}
	same := Candidate{Src: "https://cdn.example.com/manga/b/chapter-1/p99.jpg", Width: 800, Height: 1200}
	cands = append(cands, other, same)

	res := AutoDetectPages(cands, Options{})

	sel := res.SelectedLocators()
	if contains(sel, other.Src) || contains(sel, same.Src) {
		t.Errorf("Foreign lineage pulled into selection: %v", sel)
	}
	if len(sel) != 15 {
		t.Errorf("Expected 15 pages, got %d", len(sel))
	}
}

func TestAutoDetectPages_JunkIsolation(t *testing.T) {
	base := "https://cdn.example.com/manga/ch1"
	cands := pages(base, "page_%d.jpg", 18, 800, 1200)
	junk := []Candidate{
		{Src: "https://cdn.example.com/ads/banner.gif", Width: 728, Height: 90},
		{Src: base + "/logo_page.jpg", Width: 800, Height: 1200},
	}
	cands = append(cands, junk...)

	res := AutoDetectPages(cands, Options{})

	sel := res.SelectedLocators()
	for _, j := range junk {
		if contains(sel, j.Src) {
			t.Errorf("Junk candidate selected: %s", j.Src)
		}
	}
	if got := res.Debug.Candidates[len(cands)-1].ExclusionReason; got != ReasonJunk {
		t.Errorf("Expected exclusion reason junk, got %q", got)
	}
}

func TestAutoDetectPages_OpaqueIDCollapsing(t *testing.T) {
	tokens := []string{
		"a1b2c3d4e5f6g7h8i9j0k1",
		"x9y8z7w6v5u4t3s2r1q0p9",
		"Mn2Op4Qr6St8Uv0Wx1Yz3Ab",
		"Pq5Rs7Tu9Vw1Xy3Za5Bc7De",
		"Fg9Hi1Jk3Lm5No7Pq9Rs1Tu",
	}

	t.Run("filename tokens", func(t *testing.T) {
		var cands []Candidate
		for _, tok := range tokens {
			cands = append(cands, Candidate{Src: "https://cdn.example.com/images/chapter/" + tok + ".jpg", Width: 800, Height: 1200})
		}

		res := AutoDetectPages(cands, Options{})

		sigs := map[string]bool{}
		for _, c := range res.Debug.Candidates {
			sigs[c.PrefixSig] = true
		}
		if len(sigs) != 1 {
			t.Errorf("Expected one prefixSig, got %v", sigs)
		}
		if len(res.Selected) != len(tokens) {
			t.Errorf("Expected all %d selected, got %d", len(tokens), len(res.Selected))
		}
	})

	t.Run("directory tokens", func(t *testing.T) {
		var cands []Candidate
		for _, tok := range tokens {
			cands = append(cands, Candidate{Src: "https://cdn.example.com/images/" + tok + "/page.jpg", Width: 800, Height: 1200})
		}

		res := AutoDetectPages(cands, Options{})

		for _, c := range res.Debug.Candidates {
			if c.PrefixSig != "cdn.example.com/images/{id}" {
				t.Errorf("Expected collapsed prefix, got %q", c.PrefixSig)
			}
		}
		if len(res.Selected) != len(tokens) {
			t.Errorf("Expected all %d selected, got %d", len(tokens), len(res.Selected))
		}
	})

	t.Run("different structure stays apart", func(t *testing.T) {
		cands := []Candidate{
			{Src: "https://cdn.example.com/manga/series-a/chapter/abc123def456ghi789jkl012.jpg", Width: 800, Height: 1200},
			{Src: "https://cdn.example.com/manga/series-b/chapter/xyz789uvw456rst123opq012.jpg", Width: 800, Height: 1200},
		}

		res := AutoDetectPages(cands, Options{})

		if res.Debug.Candidates[0].PrefixSig == res.Debug.Candidates[1].PrefixSig {
			t.Errorf("Expected distinct prefixSigs, got %q", res.Debug.Candidates[0].PrefixSig)
		}
	})
}

func TestAutoDetectPages_Dedup(t *testing.T) {
	t.Run("query string duplicates collapse", func(t *testing.T) {
		base := "https://cdn.example.com/page"
		cands := []Candidate{
			{Src: base + "/001.jpg", Width: 800, Height: 1200},
			{Src: base + "/002.jpg", Width: 800, Height: 1200},
			{Src: base + "/003.jpg", Width: 800, Height: 1200},
			{Src: base + "/001.jpg?t=1", Width: 800, Height: 1200},
		}

		res := AutoDetectPages(cands, Options{})

		if len(res.Selected) != 3 {
			t.Fatalf("Expected 3 selected, got %v", res.SelectedLocators())
		}
		dup := res.Debug.Candidates[3]
		if !dup.DroppedDueToKeyCollision || !dup.InWinningGroup {
			t.Errorf("Expected duplicate to be flagged, got %+v", dup)
		}
		if dup.ExclusionReason != ReasonBelowMinScore {
			t.Errorf("Expected reason %q for a dropped duplicate, got %q", ReasonBelowMinScore, dup.ExclusionReason)
		}
	})

	t.Run("distinct hex names stay distinct", func(t *testing.T) {
		base := "https://cdn.example.com/folder/chapter"
		hexes := []string{
			"1489e3a26b6275a0d2a9681514361123",
			"56e20e0c267e214a0f4d364c99fd46a9",
			"a1b2c3d4e5f6789012345678abcdef12",
			"fedcba9876543210fedcba9876543210",
		}
		var cands []Candidate
		for _, h := range hexes {
			cands = append(cands, Candidate{Src: base + "/" + h + ".jpg", Width: 800, Height: 1200})
		}

		res := AutoDetectPages(cands, Options{})

		if len(res.Selected) != 4 {
			t.Errorf("Expected 4 selected, got %v", res.SelectedLocators())
		}
	})
}

func TestAutoDetectPages_DebugCompleteness(t *testing.T) {
	var cands []Candidate
	cands = append(cands, pages("https://cdn.example.com/manga/ch1", "p%d.jpg", 10, 800, 1200)...)
	cands = append(cands,
		Candidate{Src: "https://site.com/logo.png", Width: 64, Height: 64},
		Candidate{Src: "data:image/png;base64,AAAA"},
	)

	res := AutoDetectPages(cands, Options{})

	if len(res.Debug.Candidates) != len(cands) {
		t.Fatalf("Expected %d debug entries, got %d", len(cands), len(res.Debug.Candidates))
	}

	selected := 0
	for _, e := range res.Debug.Candidates {
		if e.ExclusionReason == "" {
			t.Errorf("Missing exclusion reason for %s", e.RawURL)
		}
		if e.ExclusionReason == ReasonSelected {
			selected++
		}
	}
	if selected != len(res.Selected) {
		t.Errorf("Expected %d selected entries, got %d", len(res.Selected), selected)
	}
	if res.Debug.WinningGroupKey == "" || res.Debug.WinningCount != 10 {
		t.Errorf("Unexpected winner info: %+v", res.Debug)
	}
	if got := res.Debug.Candidates[11].PrefixSig; got != InlineSig {
		t.Errorf("Expected inline payload to use the data signature, got %q", got)
	}
}

func TestAutoDetectPages_Deterministic(t *testing.T) {
	var cands []Candidate
	cands = append(cands, pages("https://cdn.example.com/series/vol1", "page_%d.jpg", 12, 800, 1200)...)
	cands = append(cands, pages("https://img.example.org/x", "%d.webp", 6, 700, 1000)...)
	cands = append(cands, Candidate{Src: "https://cdn.example.com/series/vol1/spread.jpg", Width: 1400, Height: 1000})

	first := AutoDetectPages(cands, Options{})
	for i := 0; i < 5; i++ {
		again := AutoDetectPages(cands, Options{})
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Run %d differs from the first run", i)
		}
	}
}

func TestAutoDetectPages_DoesNotMutateInput(t *testing.T) {
	cands := pages("https://cdn.example.com/manga/ch1", "p%d.jpg", 8, 800, 1200)
	before := append([]Candidate(nil), cands...)

	_ = AutoDetectPages(cands, Options{})

	if !reflect.DeepEqual(before, cands) {
		t.Error("Input candidates were modified")
	}
}

func TestAutoDetectPages_DimensionBlindLineage(t *testing.T) {
	cands := pages("https://cdn.example.com/reader/ch7", "%d.jpg", 10, 0, 0)

	res := AutoDetectPages(cands, Options{})

	if len(res.Selected) != 10 {
		t.Errorf("Expected dimension-blind pages selected, got %d (%s)", len(res.Selected), res.Reason)
	}
	if !strings.HasSuffix(res.Debug.WinningGroupKey, "|any") {
		t.Errorf("Expected lineage-wide group, got %q", res.Debug.WinningGroupKey)
	}
}

func TestAutoDetectPages_GlobalFallback(t *testing.T) {
	var cands []Candidate
	hosts := []string{"a.example.com", "b.example.net", "c.example.org", "d.example.io", "e.example.dev"}
	for i, h := range hosts {
		cands = append(cands, Candidate{Src: fmt.Sprintf("https://%s/p/%d.jpg", h, i), Width: 800, Height: 1200})
	}

	res := AutoDetectPages(cands, Options{})

	if !strings.HasPrefix(res.Debug.WinningGroupKey, GlobalPrefix+"|") {
		t.Fatalf("Expected global fallback winner, got %q", res.Debug.WinningGroupKey)
	}
	if res.Debug.PostPassRan {
		t.Error("Post-pass must not run for the global fallback")
	}

	lineage := pages("https://cdn.example.com/manga/ch1", "p%d.jpg", 5, 800, 1200)
	res = AutoDetectPages(append(lineage, cands...), Options{})
	for _, g := range res.Groups {
		if g.Global {
			t.Errorf("Global group built although a lineage is usable: %s", g.Key)
		}
	}

	res = AutoDetectPages(append(lineage, cands...), Options{AlwaysGlobalFallback: true})
	found := false
	for _, g := range res.Groups {
		found = found || g.Global
	}
	if !found {
		t.Error("Expected a global group with AlwaysGlobalFallback")
	}
}

func TestAutoDetectPages_CustomTuning(t *testing.T) {
	cands := pages("https://cdn.example.com/manga/ch1", "p%d.jpg", 3, 800, 1200)

	if res := AutoDetectPages(cands, Options{}); len(res.Selected) != 0 {
		t.Errorf("Expected no group below the default minimum, got %d", len(res.Selected))
	}

	tn := DefaultTuning()
	tn.MinGroupCount = 3
	if res := AutoDetectPages(cands, Options{Tuning: tn}); len(res.Selected) != 3 {
		t.Errorf("Expected 3 selected with min_group_count=3, got %d", len(res.Selected))
	}
}

// alternatingPages builds a strongly cohesive lineage whose page areas vary
// enough to give the post-pass a wide MAD window.
func alternatingPages(base string, n int) []Candidate {
	out := make([]Candidate, 0, n)
	for i := 1; i <= n; i++ {
		w, h := 400, 600
		if i%2 == 0 {
			w, h = 599, 799
		}
		out = append(out, Candidate{Src: fmt.Sprintf("%s/%03d.jpg", base, i), Width: w, Height: h})
	}

	return out
}

func TestAutoDetectPages_PostPass(t *testing.T) {
	base := "https://cdn.example.com/manga/ch1"
	extra := base + "/021.jpg"

	testCases := []struct {
		name       string
		w, h       int
		includedBy string
		reasonPart string
	}{
		{"similarity override", 250, 400, IncludedBySimilarity, " similarityIncluded=1"},
		{"spread area window", 700, 900, IncludedBySpread, " spreadIncluded=1"},
		{"outside the MAD window", 40, 60, "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cands := append(alternatingPages(base, 20), Candidate{Src: extra, Width: tc.w, Height: tc.h})

			res := AutoDetectPages(cands, Options{})

			if !res.Debug.PostPassRan {
				t.Fatal("Expected the post-pass to run")
			}
			if !strings.HasPrefix(res.Reason, "best group cdn.example.com/manga/ch1|400|600 count=20") {
				t.Fatalf("Unexpected winner: %q", res.Reason)
			}

			e := res.Debug.Candidates[20]
			if e.IncludedBy != tc.includedBy {
				t.Errorf("Expected includedBy %q, got %q", tc.includedBy, e.IncludedBy)
			}

			if tc.includedBy == "" {
				if contains(res.SelectedLocators(), extra) {
					t.Errorf("Expected %s to stay out, reason %q", extra, res.Reason)
				}
				if e.ExclusionReason != ReasonBelowMinScore {
					t.Errorf("Expected %q, got %q", ReasonBelowMinScore, e.ExclusionReason)
				}
				if strings.Contains(res.Reason, "Included=") || len(res.SimilarityIncludedReasons) != 0 {
					t.Errorf("Expected no post-pass inclusions, got %q %v", res.Reason, res.SimilarityIncludedReasons)
				}

				return
			}

			if len(res.Selected) != 21 || e.ExclusionReason != ReasonSelected {
				t.Errorf("Expected %s selected, got %d pages and reason %q", extra, len(res.Selected), e.ExclusionReason)
			}
			if !strings.HasSuffix(res.Reason, tc.reasonPart) {
				t.Errorf("Expected reason to end with %q, got %q", tc.reasonPart, res.Reason)
			}

			switch tc.includedBy {
			case IncludedBySimilarity:
				if len(res.SimilarityIncludedReasons) != 1 || !strings.HasPrefix(res.SimilarityIncludedReasons[0], extra+" similarity=1.00") {
					t.Errorf("Unexpected similarity reasons: %v", res.SimilarityIncludedReasons)
				}
				if res.SpreadIncludedCount != 0 {
					t.Errorf("Expected no spread inclusions, got %d", res.SpreadIncludedCount)
				}
			case IncludedBySpread:
				if res.SpreadIncludedCount != 1 || len(res.SimilarityIncludedReasons) != 0 {
					t.Errorf("Expected one spread inclusion, got %d and %v", res.SpreadIncludedCount, res.SimilarityIncludedReasons)
				}
			}
		})
	}
}

func TestAutoDetectPages_ExclusionReasons(t *testing.T) {
	t.Run("competing group", func(t *testing.T) {
		cands := pages("https://cdn.example.com/manga/ch1", "%03d.jpg", 12, 800, 1200)
		cands = append(cands, pages("https://img.other.net/series/ch9", "%03d.jpg", 5, 800, 1200)...)

		res := AutoDetectPages(cands, Options{})

		if res.Debug.WinningGroupKey != "cdn.example.com/manga/ch1|800|1200" {
			t.Fatalf("Unexpected winner %q", res.Debug.WinningGroupKey)
		}
		for _, e := range res.Debug.Candidates[12:] {
			if e.ExclusionReason != ReasonCompetingGroup {
				t.Errorf("%s: expected %q, got %q", e.RawURL, ReasonCompetingGroup, e.ExclusionReason)
			}
			if e.GroupKey != "img.other.net/series/ch9|800|1200" || e.InWinningGroup {
				t.Errorf("%s: unexpected group %q inWinning=%t", e.RawURL, e.GroupKey, e.InWinningGroup)
			}
		}
	})

	t.Run("no winner", func(t *testing.T) {
		cands := []Candidate{
			{Src: "https://a.com/photo.jpg", Width: 300, Height: 300},
			{Src: "https://b.net/x/pic.png", Width: 500, Height: 200},
			{Src: "https://c.org/y/z/w.gif", Width: 100, Height: 100},
		}

		res := AutoDetectPages(cands, Options{})

		if res.Reason != "no suitable group" || res.Confidence != 0 || len(res.Groups) != 0 {
			t.Fatalf("Expected no groups, got %+v", res)
		}
		for _, e := range res.Debug.Candidates {
			if e.ExclusionReason != ReasonNoWinner {
				t.Errorf("%s: expected %q, got %q", e.RawURL, ReasonNoWinner, e.ExclusionReason)
			}
		}
	})
}

func TestAutoDetectPages_JunkTokenInsideWord(t *testing.T) {
	base := "https://x.com/chapter1"
	cands := pages(base, "%03d.jpg", 20, 800, 1200)
	ad := base + "/googleads-021.jpg"
	cands = append(cands, Candidate{Src: ad, Width: 800, Height: 1200})

	res := AutoDetectPages(cands, Options{})

	if contains(res.SelectedLocators(), ad) {
		t.Errorf("Expected %s to be rejected as junk", ad)
	}
	if got := res.Debug.Candidates[20].ExclusionReason; got != ReasonJunk {
		t.Errorf("Expected %q, got %q", ReasonJunk, got)
	}
	if len(res.Selected) != 20 {
		t.Errorf("Expected 20 pages, got %d", len(res.Selected))
	}
}
