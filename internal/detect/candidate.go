package detect

import "strings"

// Candidate is one extracted image. The field names follow what page scanners
// report: the locator can come as url or src, and sizes as intrinsic
// (natural), declared or display dimensions.
type Candidate struct {
	URL string `json:"url,omitempty"`
	Src string `json:"src,omitempty"`

	NaturalWidth  int `json:"naturalWidth,omitempty"`
	NaturalHeight int `json:"naturalHeight,omitempty"`
	Width         int `json:"width,omitempty"`
	Height        int `json:"height,omitempty"`
	DisplayWidth  int `json:"displayWidth,omitempty"`
	DisplayHeight int `json:"displayHeight,omitempty"`

	Alt string `json:"alt,omitempty"`
}

// Locator returns URL, falling back to Src.
func (c Candidate) Locator() string {
	if c.URL != "" {
		return c.URL
	}

	return c.Src
}

// Dimensions returns the best available width/height pair: intrinsic first,
// then declared, then display. Missing sizes yield 0x0.
func (c Candidate) Dimensions() (int, int) {
	pairs := [][2]int{
		{c.NaturalWidth, c.NaturalHeight},
		{c.Width, c.Height},
		{c.DisplayWidth, c.DisplayHeight},
	}
	for _, p := range pairs {
		if p[0] > 0 && p[1] > 0 {
			return p[0], p[1]
		}
	}

	return 0, 0
}

func isInline(locator string) bool {
	l := strings.ToLower(strings.TrimSpace(locator))
	return strings.HasPrefix(l, "data:") || strings.HasPrefix(l, "blob:")
}

// queryless strips the query string and fragment of a network locator.
// Inline payloads are returned untouched.
func queryless(locator string) string {
	if isInline(locator) {
		return locator
	}
	if i := strings.IndexAny(locator, "?#"); i >= 0 {
		return locator[:i]
	}

	return locator
}

func locatorType(locator string) string {
	if isInline(locator) {
		return "data"
	}

	return "url"
}

func dedupKey(locator string) string {
	return queryless(locator) + "|" + locatorType(locator)
}

// candidateInfo is the normalized, derived view of one candidate.
type candidateInfo struct {
	index     int
	locator   string
	queryless string
	width     int
	height    int
	sig       Signature
	bucket    string
	junk      int
}

func (ci candidateInfo) area() int {
	return ci.width * ci.height
}

func (ci candidateInfo) hasDims() bool {
	return ci.width > 0 && ci.height > 0
}

func normalize(cands []Candidate, t Tuning) []candidateInfo {
	out := make([]candidateInfo, len(cands))
	for i, c := range cands {
		loc := c.Locator()
		w, h := c.Dimensions()
		out[i] = candidateInfo{
			index:     i,
			locator:   loc,
			queryless: queryless(loc),
			width:     w,
			height:    h,
			sig:       BuildSignature(loc, t),
			bucket:    SizeBucket(w, h, t.SizeBucketStep),
			junk:      junkMatches(loc),
		}
	}

	return out
}
