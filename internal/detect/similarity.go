package detect

// winnerRef is the URL shape the winning group is compared against.
type winnerRef struct {
	prefixSig   string
	fullSig     string
	basePattern string
	ext         string
	dirs        []string
}

// referenceFor picks the most common full signature of the group; ties go to
// the one seen first.
func referenceFor(g *group, infos []candidateInfo) winnerRef {
	counts := map[string]int{}
	var order []string
	first := map[string]int{}
	for _, it := range g.items {
		fs := infos[it.index].sig.FullSig
		if _, ok := counts[fs]; !ok {
			order = append(order, fs)
			first[fs] = it.index
		}
		counts[fs]++
	}

	best := ""
	for _, fs := range order {
		if best == "" || counts[fs] > counts[best] {
			best = fs
		}
	}

	sig := infos[first[best]].sig

	return winnerRef{
		prefixSig:   g.prefixSig,
		fullSig:     sig.FullSig,
		basePattern: sig.BasePattern,
		ext:         sig.Ext,
		dirs:        dirSegments(sig),
	}
}

func dirSegments(sig Signature) []string {
	if len(sig.PathSegments) == 0 {
		return nil
	}

	return sig.PathSegments[:len(sig.PathSegments)-1]
}

// segmentOverlap is the share of positions holding the same normalized
// directory segment.
func segmentOverlap(a, b []string) float64 {
	n := max(len(a), len(b))
	if n == 0 {
		return 1
	}

	same := 0
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] == b[i] {
			same++
		}
	}

	return float64(same) / float64(n)
}

// urlSimilarity blends exact lineage match, full-signature agreement and
// directory overlap into a 0..1 similarity to the winning group.
func urlSimilarity(sig Signature, ref winnerRef) float64 {
	exact := 0.0
	if sig.PrefixSig == ref.prefixSig {
		exact = 1
	}

	overlap := segmentOverlap(dirSegments(sig), ref.dirs)

	full := overlap
	switch {
	case sig.FullSig == ref.fullSig:
		full = 1
	case sig.BasePattern == ref.basePattern && sig.Ext == ref.ext:
		full = 0.5 + 0.5*overlap
	}

	return clamp01(0.35*exact + 0.35*full + 0.15*overlap + 0.15*exact*overlap)
}
