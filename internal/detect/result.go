package detect

// Exclusion reasons reported per candidate in Debug.
const (
	ReasonSelected       = "selected"
	ReasonJunk           = "junk"
	ReasonBelowMinScore  = "below_min_score"
	ReasonCompetingGroup = "competing_group"
	ReasonNoWinner       = "no_winner"
)

// Ways a candidate can enter the selection.
const (
	IncludedByGroup      = "group"
	IncludedBySpread     = "spread"
	IncludedBySimilarity = "similarity"
)

// GroupSummary describes one competing group.
type GroupSummary struct {
	Key        string `json:"key"`
	PrefixSig  string `json:"prefixSig"`
	SizeBucket string `json:"sizeBucket"`
	Global     bool   `json:"global,omitempty"`

	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
	MeanScore  float64 `json:"meanScore"`

	URLCohesion             float64 `json:"urlCohesion"`
	NumericSequenceStrength float64 `json:"numericSequenceStrength"`
	MedianWidth             float64 `json:"medianWidth"`
	SizeConsistency         float64 `json:"sizeConsistency"`
	Dominance               float64 `json:"dominance"`
	Coherence               float64 `json:"coherence"`
	JunkRate                float64 `json:"junkRate"`
}

// DebugEntry is the audit record of one input candidate.
type DebugEntry struct {
	Index        int    `json:"index"`
	RawURL       string `json:"rawUrl"`
	QuerylessURL string `json:"querylessUrl"`

	PrefixSig     string `json:"prefixSig"`
	FullSig       string `json:"fullSig"`
	SizeBucketKey string `json:"sizeBucketKey"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`

	PerImageScore   int            `json:"perImageScore"`
	EffectiveScore  int            `json:"effectiveScore"`
	ScoreComponents ScoreBreakdown `json:"scoreComponents"`

	GroupKey           string  `json:"groupKey"`
	InWinningGroup     bool    `json:"inWinningGroup"`
	SimilarityToWinner float64 `json:"similarityToWinner"`

	DedupKey                 string `json:"dedupKey"`
	DroppedDueToKeyCollision bool   `json:"droppedDueToKeyCollision"`

	IncludedBy      string `json:"includedBy,omitempty"`
	ExclusionReason string `json:"exclusionReason"`
}

// Debug is the full audit trail of one detection run.
type Debug struct {
	Candidates []DebugEntry `json:"candidates"`

	WinningGroupKey    string  `json:"winningGroupKey"`
	WinningURLCohesion float64 `json:"winningUrlCohesion"`
	WinningCount       int     `json:"winningCount"`
	RunnerUpGroupKey   string  `json:"runnerUpGroupKey"`

	RawConfidence      float64 `json:"rawConfidence"`
	AmbiguityPenalized bool    `json:"ambiguityPenalized"`
	PostPassRan        bool    `json:"postPassRan"`
}

// Result is the outcome of AutoDetectPages. It is built fresh on every call.
type Result struct {
	Selected        []Candidate    `json:"selected"`
	SelectedIndices []int          `json:"selectedIndices"`
	Confidence      float64        `json:"confidence"`
	Groups          []GroupSummary `json:"groups"`
	Reason          string         `json:"reason"`

	SpreadIncludedCount       int      `json:"spreadIncludedCount"`
	SimilarityIncludedReasons []string `json:"similarityIncludedReasons"`

	Debug *Debug `json:"debug,omitempty"`
}

// SelectedLocators returns the locators of the selected candidates in order.
func (r Result) SelectedLocators() []string {
	out := make([]string, len(r.Selected))
	for i, c := range r.Selected {
		out[i] = c.Locator()
	}

	return out
}

func emptyResult(reason string) Result {
	return Result{
		Selected:                  []Candidate{},
		SelectedIndices:           []int{},
		Groups:                    []GroupSummary{},
		Reason:                    reason,
		SimilarityIncludedReasons: []string{},
		Debug:                     &Debug{Candidates: []DebugEntry{}},
	}
}
