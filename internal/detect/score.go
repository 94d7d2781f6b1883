package detect

import (
	"math"
	"regexp"
)

var (
	// Tokens match anywhere in the locator, so "uploads" counts as well.
	reJunk     = regexp.MustCompile(`(?i)logo|avatar|icon|sprite|emoji|ads|advert|banner|tracking|analytics|pixel|beacon`)
	reWeakHint = regexp.MustCompile(`(?i)chapter|page|manga|comic|webtoon|reader|cdn|image`)
	reExtHint  = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)(?:[?#]|$)`)
)

const (
	maxAreaPoints     = 30
	maxHintPoints     = 8
	maxCohesionPoints = 10
	maxJunkPenalty    = 35
	tinyPenalty       = 25
	maxRepeatPenalty  = 20
	repeatAllowance   = 3
)

func junkMatches(locator string) int {
	return len(reJunk.FindAllStringIndex(locator, -1))
}

// ScoreBreakdown lists the signed contribution of every scoring signal.
type ScoreBreakdown struct {
	Area     int `json:"area"`
	MinDim   int `json:"minDim"`
	Aspect   int `json:"aspect"`
	Ext      int `json:"ext"`
	Hints    int `json:"hints"`
	Cohesion int `json:"cohesion"`
	Junk     int `json:"junk"`
	Tiny     int `json:"tiny"`
	Repeat   int `json:"repeat"`
	Total    int `json:"total"`
}

type batchStats struct {
	maxArea   int
	urlCounts map[string]int
}

func collectBatchStats(infos []candidateInfo) batchStats {
	st := batchStats{maxArea: 1, urlCounts: make(map[string]int, len(infos))}
	for _, ci := range infos {
		st.maxArea = max(st.maxArea, ci.area())
		st.urlCounts[ci.queryless]++
	}

	return st
}

// scoreCandidate rates how page-like a single candidate looks on a 0..100
// scale. cohesionBonus is the lineage bonus from analyzeCohesion.
func scoreCandidate(ci candidateInfo, st batchStats, cohesionBonus int, t Tuning) ScoreBreakdown {
	var b ScoreBreakdown
	w, h := ci.width, ci.height

	if area := ci.area(); st.maxArea > 0 && area > 0 {
		ratio := math.Min(1, float64(area)/float64(st.maxArea))
		b.Area = int(math.Round(maxAreaPoints * ratio))
	}

	switch minDim := min(w, h); {
	case minDim >= 800:
		b.MinDim = 10
	case minDim >= 400:
		b.MinDim = 7
	case minDim >= 200:
		b.MinDim = 4
	}

	if w > 0 && h > 0 {
		portrait := float64(h) / float64(w)
		landscape := float64(w) / float64(h)
		switch {
		case portrait >= 1.2 && portrait <= 1.9:
			b.Aspect = 10
		case portrait > 2.0:
			b.Aspect = 10
		case landscape > 1.2:
			b.Aspect = 5
		}
	}

	if reExtHint.MatchString(ci.locator) {
		b.Ext = 2
	}

	if n := len(reWeakHint.FindAllStringIndex(ci.locator, -1)); n > 0 {
		b.Hints = min(maxHintPoints, 2*n)
	}

	b.Cohesion = min(maxCohesionPoints, max(0, cohesionBonus))

	if ci.junk > 0 {
		b.Junk = -min(maxJunkPenalty, 10+5*ci.junk)
	}

	if maxDim := max(w, h); maxDim > 0 && maxDim < t.TinySize {
		b.Tiny = -tinyPenalty
	}

	if n := st.urlCounts[ci.queryless]; n > repeatAllowance {
		b.Repeat = -min(maxRepeatPenalty, (n-repeatAllowance)*5)
	}

	sum := b.Area + b.MinDim + b.Aspect + b.Ext + b.Hints + b.Cohesion + b.Junk + b.Tiny + b.Repeat
	b.Total = max(0, min(100, sum))

	return b
}
