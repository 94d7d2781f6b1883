package detect

// buildDebug walks every input candidate and records why it was or was not
// selected.
func buildDebug(infos []candidateInfo, breakdowns []ScoreBreakdown, groups []*group, s *selection, final []int) *Debug {
	d := &Debug{
		Candidates:         make([]DebugEntry, 0, len(infos)),
		RawConfidence:      s.rawConfidence,
		AmbiguityPenalized: s.penalized,
		PostPassRan:        s.postPassRan,
	}
	if s.winner != nil {
		d.WinningGroupKey = s.winner.key
		d.WinningURLCohesion = s.winner.urlCohesion
		d.WinningCount = s.winner.count()
	}
	if s.runnerUp != nil {
		d.RunnerUpGroupKey = s.runnerUp.key
	}

	selected := make(map[int]bool, len(final))
	selectedKeys := make(map[string]bool, len(final))
	for _, idx := range final {
		selected[idx] = true
		selectedKeys[dedupKey(infos[idx].locator)] = true
	}

	firstGroup := map[int]string{}
	for _, g := range groups {
		for _, it := range g.items {
			if _, ok := firstGroup[it.index]; !ok {
				firstGroup[it.index] = g.key
			}
		}
	}

	for _, ci := range infos {
		key := dedupKey(ci.locator)
		e := DebugEntry{
			Index:              ci.index,
			RawURL:             ci.locator,
			QuerylessURL:       ci.queryless,
			PrefixSig:          ci.sig.PrefixSig,
			FullSig:            ci.sig.FullSig,
			SizeBucketKey:      ci.bucket,
			Width:              ci.width,
			Height:             ci.height,
			PerImageScore:      breakdowns[ci.index].Total,
			EffectiveScore:     s.effective[ci.index],
			ScoreComponents:    breakdowns[ci.index],
			GroupKey:           firstGroup[ci.index],
			SimilarityToWinner: s.similarity[ci.index],
			DedupKey:           key,
		}

		if s.winner != nil && s.winner.contains(ci.index) {
			e.InWinningGroup = true
			e.GroupKey = s.winner.key
		}
		if by, ok := s.included[ci.index]; ok && selected[ci.index] {
			e.IncludedBy = by
		}
		if !selected[ci.index] && selectedKeys[key] {
			e.DroppedDueToKeyCollision = true
		}

		e.ExclusionReason = exclusionReason(ci, e, s, selected[ci.index])
		d.Candidates = append(d.Candidates, e)
	}

	return d
}

// exclusionReason picks one reason per candidate. Dedup losers are reported
// through DroppedDueToKeyCollision and otherwise follow the same order.
func exclusionReason(ci candidateInfo, e DebugEntry, s *selection, selected bool) string {
	switch {
	case selected:
		return ReasonSelected
	case ci.junk > 0:
		return ReasonJunk
	case e.InWinningGroup:
		return ReasonBelowMinScore
	case e.GroupKey != "":
		return ReasonCompetingGroup
	case s.winner == nil:
		return ReasonNoWinner
	}

	return ReasonBelowMinScore
}
