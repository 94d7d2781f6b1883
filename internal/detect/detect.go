package detect

import (
	"fmt"
	"math"
	"sort"
)

// AutoDetectPages selects the candidates that form the sequential pages of a
// chapter. Empty input yields a "no images" result with zero confidence.
func AutoDetectPages(cands []Candidate, opts Options) Result {
	if len(cands) == 0 {
		return emptyResult("no images")
	}

	t := opts.tuning()
	infos := normalize(cands, t)
	ls := analyzeCohesion(infos, t)
	st := collectBatchStats(infos)

	breakdowns := make([]ScoreBreakdown, len(infos))
	scores := make([]int, len(infos))
	for i, ci := range infos {
		breakdowns[i] = scoreCandidate(ci, st, ls.get(ci.sig.PrefixSig).bonus, t)
		scores[i] = breakdowns[i].Total
	}

	groups := buildGroups(infos, ls, scores, opts, t)
	for _, g := range groups {
		g.metrics = scoreGroup(g, infos, t)
	}

	sel := selectPages(infos, scores, groups, t)
	final := dedupe(infos, sel.included)

	res := Result{
		Selected:                  make([]Candidate, 0, len(final)),
		SelectedIndices:           final,
		Confidence:                sel.confidence,
		Groups:                    summarize(groups),
		Reason:                    sel.reason(),
		SpreadIncludedCount:       sel.spreadCount,
		SimilarityIncludedReasons: sel.similarityReasons,
	}
	for _, idx := range final {
		res.Selected = append(res.Selected, cands[idx])
	}
	res.Debug = buildDebug(infos, breakdowns, groups, sel, final)

	return res
}

type selection struct {
	winner   *group
	runnerUp *group

	similarity []float64
	effective  []int
	included   map[int]string

	postPassRan       bool
	spreadCount       int
	similarityReasons []string

	rawConfidence float64
	confidence    float64
	penalized     bool
}

func (s *selection) reason() string {
	if s.winner == nil {
		return "no suitable group"
	}

	r := fmt.Sprintf("best group %s count=%d confidence=%.2f", s.winner.key, s.winner.count(), s.confidence)
	if s.spreadCount > 0 {
		r += fmt.Sprintf(" spreadIncluded=%d", s.spreadCount)
	}
	if n := len(s.similarityReasons); n > 0 {
		r += fmt.Sprintf(" similarityIncluded=%d", n)
	}

	return r
}

// pickWinner returns the most confident group and the best of the rest.
// Ties keep the group built first.
func pickWinner(groups []*group) (*group, *group) {
	var winner *group
	for _, g := range groups {
		if g.metrics.confidence > 0 && (winner == nil || g.metrics.confidence > winner.metrics.confidence) {
			winner = g
		}
	}
	if winner == nil {
		return nil, nil
	}

	var runnerUp *group
	for _, g := range groups {
		if g == winner {
			continue
		}
		if runnerUp == nil || g.metrics.confidence > runnerUp.metrics.confidence {
			runnerUp = g
		}
	}

	return winner, runnerUp
}

func selectPages(infos []candidateInfo, scores []int, groups []*group, t Tuning) *selection {
	s := &selection{
		similarity:        make([]float64, len(infos)),
		effective:         append([]int(nil), scores...),
		included:          map[int]string{},
		similarityReasons: []string{},
	}

	s.winner, s.runnerUp = pickWinner(groups)
	if s.winner == nil {
		return s
	}

	ref := referenceFor(s.winner, infos)
	for i, ci := range infos {
		s.similarity[i] = urlSimilarity(ci.sig, ref)
	}

	w := s.winner
	boost := !w.global && w.urlCohesion >= t.BoostMinCohesion && w.count() >= t.BoostMinCount

	for _, it := range w.items {
		ci := infos[it.index]
		if ci.junk > 0 {
			continue
		}
		if boost {
			bonus := int(math.Round(float64(t.SimilarityBoostMax) * s.similarity[it.index]))
			s.effective[it.index] = min(100, it.score+bonus)
		}
		if s.effective[it.index] >= t.MinPageScore {
			s.included[it.index] = IncludedByGroup
		}
	}

	if boost {
		s.postPass(infos, scores, t)
	}

	s.rawConfidence = w.metrics.confidence
	s.confidence = s.rawConfidence
	if s.ambiguous(t) {
		s.penalized = true
		s.confidence = clamp01(s.rawConfidence - t.AmbiguityPenalty)
	}

	return s
}

// ambiguous reports whether the runner-up is too close to call: the margin
// is small and the winner has neither clearly better URL cohesion nor
// clearly more members.
func (s *selection) ambiguous(t Tuning) bool {
	if s.runnerUp == nil {
		return false
	}

	w, r := s.winner, s.runnerUp
	if w.metrics.confidence-r.metrics.confidence >= t.AmbiguityThreshold {
		return false
	}
	if w.urlCohesion-r.urlCohesion > t.CohesionClearWin {
		return false
	}
	if float64(w.count()) >= t.CountClearWinRatio*float64(r.count()) {
		return false
	}

	return true
}

// postPass pulls back same-lineage candidates the strict group filter left
// out: spreads whose area is close to a page's, and differently sized
// variants that look like the winner by URL. Junk is never reconsidered.
func (s *selection) postPass(infos []candidateInfo, scores []int, t Tuning) {
	s.postPassRan = true

	var areas []float64
	for idx := range s.included {
		areas = append(areas, float64(infos[idx].area()))
	}
	medArea := median(areas)
	madArea := mad(areas)
	if medArea <= 0 {
		return
	}

	w := s.winner
	for _, ci := range infos {
		if _, ok := s.included[ci.index]; ok {
			continue
		}
		if ci.junk > 0 || ci.sig.PrefixSig != w.prefixSig {
			continue
		}

		area := float64(ci.area())
		score := scores[ci.index]
		sim := s.similarity[ci.index]

		switch {
		case area >= t.SpreadAreaMin*medArea && area <= t.SpreadAreaMax*medArea && score >= t.MinPageScore:
			s.included[ci.index] = IncludedBySpread
			s.spreadCount++
		case area > 0 && math.Abs(area-medArea) <= t.MADMultiplier*madArea &&
			w.urlCohesion >= t.OverrideMinCohesion &&
			sim >= t.OverrideMinSimilarity &&
			score >= t.OverrideMinScore:
			s.included[ci.index] = IncludedBySimilarity
			s.similarityReasons = append(s.similarityReasons,
				fmt.Sprintf("%s similarity=%.2f area=%.0f median=%.0f", ci.locator, sim, area, medArea))
		}
	}
}

// dedupe orders the selection by input position and keeps the first
// candidate per dedup key.
func dedupe(infos []candidateInfo, included map[int]string) []int {
	idx := make([]int, 0, len(included))
	for i := range included {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	seen := map[string]bool{}
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		k := dedupKey(infos[i].locator)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, i)
	}

	return out
}

func summarize(groups []*group) []GroupSummary {
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupSummary{
			Key:                     g.key,
			PrefixSig:               g.prefixSig,
			SizeBucket:              g.bucket,
			Global:                  g.global,
			Count:                   g.count(),
			Confidence:              g.metrics.confidence,
			MeanScore:               g.metrics.meanScore,
			URLCohesion:             g.urlCohesion,
			NumericSequenceStrength: g.sequenceStrength,
			MedianWidth:             g.medianWidth,
			SizeConsistency:         g.metrics.sizeConsistency,
			Dominance:               g.metrics.dominance,
			Coherence:               g.metrics.coherence,
			JunkRate:                g.metrics.junkRate,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })

	return out
}
