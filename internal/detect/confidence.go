package detect

import (
	"math"
	"sort"
)

type groupMetrics struct {
	countScore      float64
	dominance       float64
	sizeConsistency float64
	avgScore        float64
	junkRate        float64
	coherence       float64
	confidence      float64
	meanScore       float64
}

// scoreGroup computes the 0..1 confidence that a group is the chapter.
func scoreGroup(g *group, infos []candidateInfo, t Tuning) groupMetrics {
	var m groupMetrics
	count := g.count()
	if count == 0 {
		return m
	}

	m.countScore = math.Min(1, float64(count)/15)
	m.dominance = float64(count) / float64(len(infos))
	m.sizeConsistency = sizeConsistency(g, infos, t)

	var sum float64
	junk := 0
	indices := make([]int, 0, count)
	for _, it := range g.items {
		sum += float64(it.score)
		if infos[it.index].junk > 0 {
			junk++
		}
		indices = append(indices, it.index)
	}
	m.meanScore = sum / float64(count)
	m.avgScore = m.meanScore / 100
	m.junkRate = float64(junk) / float64(count)
	m.coherence = readingOrderCoherence(indices)

	m.confidence = clamp01(0.22*m.avgScore +
		0.16*m.sizeConsistency +
		0.18*m.dominance +
		0.18*m.countScore +
		0.12*m.coherence +
		0.22*g.urlCohesion -
		0.22*m.junkRate)

	return m
}

// sizeConsistency is 1 - CV of member widths. Groups mostly lacking
// dimensions get a neutral 0.5, and strongly cohesive lineages are floored
// at 0.5.
func sizeConsistency(g *group, infos []candidateInfo, t Tuning) float64 {
	var widths []float64
	for _, it := range g.items {
		if infos[it.index].hasDims() {
			widths = append(widths, float64(infos[it.index].width))
		}
	}

	sc := 0.5
	if len(widths) > 0 {
		if med := median(widths); med > 0 {
			sc = math.Max(0, 1-stddev(widths)/med)
		}
	}

	missing := g.count() - len(widths)
	if missing*2 > g.count() {
		sc = 0.5
	}
	if g.urlCohesion >= t.BoostMinCohesion && g.count() >= t.BoostMinCount {
		sc = math.Max(sc, 0.5)
	}

	return sc
}

// readingOrderCoherence rewards groups whose members sit close together in
// document order.
func readingOrderCoherence(indices []int) float64 {
	if len(indices) < 2 {
		return 1
	}

	s := append([]int(nil), indices...)
	sort.Ints(s)

	gaps := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		gaps = append(gaps, float64(s[i]-s[i-1]))
	}

	mg := median(gaps)
	if mg == 0 {
		return 1
	}
	maxGap := math.Max(10, float64(len(s)))

	return math.Max(0, 1-mg/maxGap)
}
