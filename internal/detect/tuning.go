package detect

import "fmt"

// Default heuristic thresholds.
const (
	MinPageScore   = 20
	MinGroupCount  = 4
	TinySize       = 200
	SizeBucketStep = 200

	SpreadAreaMin = 0.6
	SpreadAreaMax = 1.8
	MADMultiplier = 2.5

	AmbiguityThreshold = 0.08
	AmbiguityPenalty   = 0.06
	CohesionClearWin   = 0.15
	CountClearWinRatio = 1.5

	BoostMinCohesion   = 0.75
	BoostMinCount      = 8
	SimilarityBoostMax = 10

	OverrideMinCohesion   = 0.85
	OverrideMinSimilarity = 0.90
	OverrideMinScore      = 10

	MinSequenceValues = 5
	OpaqueIDMinLen    = 20
	HexMinLen         = 16
)

// Tuning holds every heuristic constant used by the engine. The zero value is
// not usable on its own; AutoDetectPages substitutes DefaultTuning for it.
type Tuning struct {
	MinPageScore   int `yaml:"min_page_score" json:"minPageScore"`
	MinGroupCount  int `yaml:"min_group_count" json:"minGroupCount"`
	TinySize       int `yaml:"tiny_size" json:"tinySize"`
	SizeBucketStep int `yaml:"size_bucket_step" json:"sizeBucketStep"`

	SpreadAreaMin float64 `yaml:"spread_area_min" json:"spreadAreaMin"`
	SpreadAreaMax float64 `yaml:"spread_area_max" json:"spreadAreaMax"`
	MADMultiplier float64 `yaml:"mad_multiplier" json:"madMultiplier"`

	AmbiguityThreshold float64 `yaml:"ambiguity_threshold" json:"ambiguityThreshold"`
	AmbiguityPenalty   float64 `yaml:"ambiguity_penalty" json:"ambiguityPenalty"`
	CohesionClearWin   float64 `yaml:"cohesion_clear_win" json:"cohesionClearWin"`
	CountClearWinRatio float64 `yaml:"count_clear_win_ratio" json:"countClearWinRatio"`

	BoostMinCohesion   float64 `yaml:"boost_min_cohesion" json:"boostMinCohesion"`
	BoostMinCount      int     `yaml:"boost_min_count" json:"boostMinCount"`
	SimilarityBoostMax int     `yaml:"similarity_boost_max" json:"similarityBoostMax"`

	OverrideMinCohesion   float64 `yaml:"override_min_cohesion" json:"overrideMinCohesion"`
	OverrideMinSimilarity float64 `yaml:"override_min_similarity" json:"overrideMinSimilarity"`
	OverrideMinScore      int     `yaml:"override_min_score" json:"overrideMinScore"`

	MinSequenceValues int `yaml:"min_sequence_values" json:"minSequenceValues"`
	OpaqueIDMinLen    int `yaml:"opaque_id_min_len" json:"opaqueIdMinLen"`
	HexMinLen         int `yaml:"hex_min_len" json:"hexMinLen"`
}

func DefaultTuning() Tuning {
	return Tuning{
		MinPageScore:          MinPageScore,
		MinGroupCount:         MinGroupCount,
		TinySize:              TinySize,
		SizeBucketStep:        SizeBucketStep,
		SpreadAreaMin:         SpreadAreaMin,
		SpreadAreaMax:         SpreadAreaMax,
		MADMultiplier:         MADMultiplier,
		AmbiguityThreshold:    AmbiguityThreshold,
		AmbiguityPenalty:      AmbiguityPenalty,
		CohesionClearWin:      CohesionClearWin,
		CountClearWinRatio:    CountClearWinRatio,
		BoostMinCohesion:      BoostMinCohesion,
		BoostMinCount:         BoostMinCount,
		SimilarityBoostMax:    SimilarityBoostMax,
		OverrideMinCohesion:   OverrideMinCohesion,
		OverrideMinSimilarity: OverrideMinSimilarity,
		OverrideMinScore:      OverrideMinScore,
		MinSequenceValues:     MinSequenceValues,
		OpaqueIDMinLen:        OpaqueIDMinLen,
		HexMinLen:             HexMinLen,
	}
}

// IsZero reports whether no field has been set.
func (t Tuning) IsZero() bool {
	return t == Tuning{}
}

// Validate rejects settings the pipeline cannot work with.
func (t Tuning) Validate() error {
	switch {
	case t.MinGroupCount < 1:
		return fmt.Errorf("min_group_count must be >= 1, got %d", t.MinGroupCount)
	case t.SizeBucketStep < 1:
		return fmt.Errorf("size_bucket_step must be >= 1, got %d", t.SizeBucketStep)
	case t.MinPageScore < 0 || t.MinPageScore > 100:
		return fmt.Errorf("min_page_score must be within 0..100, got %d", t.MinPageScore)
	case t.SpreadAreaMin <= 0 || t.SpreadAreaMax < t.SpreadAreaMin:
		return fmt.Errorf("spread area bounds invalid: %.2f..%.2f", t.SpreadAreaMin, t.SpreadAreaMax)
	case t.MADMultiplier < 0:
		return fmt.Errorf("mad_multiplier must be >= 0, got %.2f", t.MADMultiplier)
	case t.OpaqueIDMinLen < 1 || t.HexMinLen < 1:
		return fmt.Errorf("segment length thresholds must be >= 1")
	}

	return nil
}

// Options controls one AutoDetectPages call.
type Options struct {
	Tuning Tuning

	// AlwaysGlobalFallback builds the size-only fallback groups even when a
	// URL lineage already reaches MinGroupCount.
	AlwaysGlobalFallback bool
}

func (o Options) tuning() Tuning {
	if o.Tuning.IsZero() {
		return DefaultTuning()
	}

	return o.Tuning
}
