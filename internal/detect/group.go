package detect

// GlobalPrefix is the lineage label of the size-only fallback groups.
const GlobalPrefix = "global"

const anyBucket = "any"

type groupItem struct {
	index int
	score int
}

// group is one candidate set competing to be "the chapter".
type group struct {
	key       string
	prefixSig string
	bucket    string
	items     []groupItem
	global    bool

	urlCohesion      float64
	sequenceStrength float64
	medianWidth      float64

	metrics groupMetrics
}

func (g *group) count() int {
	return len(g.items)
}

func (g *group) contains(idx int) bool {
	for _, it := range g.items {
		if it.index == idx {
			return true
		}
	}

	return false
}

type bucketed struct {
	order []string
	items map[string][]groupItem
}

func (b *bucketed) add(key string, it groupItem) {
	if b.items == nil {
		b.items = map[string][]groupItem{}
	}
	if _, ok := b.items[key]; !ok {
		b.order = append(b.order, key)
	}
	b.items[key] = append(b.items[key], it)
}

// buildGroups partitions candidates by lineage, then by size bucket inside
// each lineage. Lineages without any dimensions form a single group. When no
// lineage reaches MinGroupCount (or AlwaysGlobalFallback is set) a size-only
// clustering over every dimensioned candidate is added.
func buildGroups(infos []candidateInfo, ls lineageSet, scores []int, opts Options, t Tuning) []*group {
	var groups []*group
	usable := false

	for _, key := range ls.order {
		l := ls.get(key)

		dimmed := 0
		for _, idx := range l.members {
			if infos[idx].hasDims() {
				dimmed++
			}
		}

		if dimmed == 0 {
			items := make([]groupItem, 0, len(l.members))
			for _, idx := range l.members {
				items = append(items, groupItem{index: idx, score: scores[idx]})
			}
			groups = append(groups, newGroup(key+"|"+anyBucket, l, anyBucket, items, infos))
			if len(items) >= t.MinGroupCount {
				usable = true
			}

			continue
		}

		var b bucketed
		for _, idx := range l.members {
			b.add(infos[idx].bucket, groupItem{index: idx, score: scores[idx]})
		}
		for _, bk := range b.order {
			items := b.items[bk]
			if len(items) < t.MinGroupCount {
				continue
			}
			groups = append(groups, newGroup(key+"|"+bk, l, bk, items, infos))
			usable = true
		}
	}

	if usable && !opts.AlwaysGlobalFallback {
		return groups
	}

	var b bucketed
	for _, ci := range infos {
		if ci.hasDims() {
			b.add(ci.bucket, groupItem{index: ci.index, score: scores[ci.index]})
		}
	}
	for _, bk := range b.order {
		items := b.items[bk]
		if len(items) < t.MinGroupCount {
			continue
		}
		g := newGroup(GlobalPrefix+"|"+bk, nil, bk, items, infos)
		g.prefixSig = GlobalPrefix
		g.global = true
		groups = append(groups, g)
	}

	return groups
}

func newGroup(key string, l *lineage, bucket string, items []groupItem, infos []candidateInfo) *group {
	g := &group{key: key, bucket: bucket, items: items}
	if l != nil {
		g.prefixSig = l.prefixSig
		g.urlCohesion = l.urlCohesion
		g.sequenceStrength = l.sequenceStrength
	}

	var widths []float64
	for _, it := range items {
		if w := infos[it.index].width; w > 0 && infos[it.index].hasDims() {
			widths = append(widths, float64(w))
		}
	}
	g.medianWidth = median(widths)

	return g
}
