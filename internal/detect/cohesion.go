package detect

import (
	"math"
	"sort"
)

// lineage aggregates the candidates sharing one PrefixSig.
type lineage struct {
	prefixSig string
	members   []int

	dominance        float64
	extConsistency   float64
	depthConsistency float64
	sequenceStrength float64
	urlCohesion      float64
	bonus            int
}

type lineageSet struct {
	order []string
	byKey map[string]*lineage
}

func (ls lineageSet) get(prefixSig string) *lineage {
	return ls.byKey[prefixSig]
}

// analyzeCohesion measures, per lineage, how much its candidates behave like
// one coherent chapter: share of the batch, extension and depth agreement,
// and how sequential the file numbers are.
func analyzeCohesion(infos []candidateInfo, t Tuning) lineageSet {
	ls := lineageSet{byKey: map[string]*lineage{}}
	for _, ci := range infos {
		l, ok := ls.byKey[ci.sig.PrefixSig]
		if !ok {
			l = &lineage{prefixSig: ci.sig.PrefixSig}
			ls.byKey[ci.sig.PrefixSig] = l
			ls.order = append(ls.order, ci.sig.PrefixSig)
		}
		l.members = append(l.members, ci.index)
	}

	total := float64(len(infos))
	for _, key := range ls.order {
		l := ls.byKey[key]
		n := float64(len(l.members))

		exts := map[string]int{}
		depths := make([]float64, 0, len(l.members))
		var nums []int
		for _, idx := range l.members {
			sig := infos[idx].sig
			exts[sig.Ext]++
			depths = append(depths, float64(sig.Depth))
			if sig.FileNum != nil {
				nums = append(nums, *sig.FileNum)
			}
		}

		top := 0
		for _, c := range exts {
			top = max(top, c)
		}

		l.dominance = n / total
		l.extConsistency = float64(top) / n
		l.depthConsistency = math.Max(0, 1-stddev(depths)/3)
		l.sequenceStrength = numericSequenceStrength(nums, t.MinSequenceValues)
		l.urlCohesion = clamp01(0.45*l.dominance +
			0.20*l.extConsistency +
			0.15*l.depthConsistency +
			0.20*l.sequenceStrength)
		l.bonus = int(math.Round(10 * l.urlCohesion))
	}

	return ls
}

// numericSequenceStrength rates how close the file numbers of a lineage are
// to a run of consecutive pages. Fewer than minValues numbers is not enough
// evidence and yields 0. Missing numbers are tolerated through the median gap.
func numericSequenceStrength(nums []int, minValues int) float64 {
	if len(nums) < minValues {
		return 0
	}

	seen := make(map[int]bool, len(nums))
	uniq := make([]int, 0, len(nums))
	for _, n := range nums {
		if !seen[n] {
			seen[n] = true
			uniq = append(uniq, n)
		}
	}
	sort.Ints(uniq)

	if len(uniq) < 2 {
		return 0
	}

	gaps := make([]float64, 0, len(uniq)-1)
	ones := 0
	for i := 1; i < len(uniq); i++ {
		g := uniq[i] - uniq[i-1]
		if g == 1 {
			ones++
		}
		gaps = append(gaps, float64(g))
	}

	ratioOnes := float64(ones) / float64(len(gaps))

	smallGap := 1.0
	if mg := median(gaps); mg > 2 {
		smallGap = math.Max(0, 1-(mg-2)/10)
	}

	return 0.6*ratioOnes + 0.4*smallGap
}
