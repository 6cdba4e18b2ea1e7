package domain

// RerankWeights controls how the remote reranker's relevance score is fused
// with the vector similarity scores.
type RerankWeights struct {
	Base            float64 `toml:"base"`
	VectorHybrid    float64 `toml:"vector_hybrid"`
	HybridImage     float64 `toml:"hybrid_image"`
	HybridText      float64 `toml:"hybrid_text"`
	HighVectorBonus float64 `toml:"high_vector_bonus"`
	HighVectorFloor float64 `toml:"high_vector_floor"`
}

// Validate checks the rerank weights are usable.
func (rw RerankWeights) Validate() error {
	if rw.Base < 0 || rw.VectorHybrid < 0 || rw.Base+rw.VectorHybrid <= 0 {
		return NewValidationErr("rerank base/vector_hybrid weights must be non-negative and not both zero")
	}
	if rw.HybridImage < 0 || rw.HybridText < 0 {
		return NewValidationErr("rerank hybrid modality weights must be non-negative")
	}
	if rw.HighVectorBonus < 0 || rw.HighVectorFloor < 0 || rw.HighVectorFloor > 1 {
		return NewValidationErr("rerank high-vector bonus/floor out of range")
	}
	return nil
}

// HeuristicBonuses are the small additive score bonuses, each capped. The
// magnitudes are recalibrated offline from logged user acceptance, so they
// are injected configuration, never constants in scoring code.
type HeuristicBonuses struct {
	CleanTitleMax   float64  `toml:"clean_title_max"`
	PricePresent    float64  `toml:"price_present"`
	ReputableHost   float64  `toml:"reputable_host"`
	TokenOverlapMax float64  `toml:"token_overlap_max"`
	ReputableHosts  []string `toml:"reputable_hosts"`
}

// Validate checks the bonuses are usable.
func (hb HeuristicBonuses) Validate() error {
	for _, v := range []float64{hb.CleanTitleMax, hb.PricePresent, hb.ReputableHost, hb.TokenOverlapMax} {
		if v < 0 || v > 1 {
			return NewValidationErr("heuristic bonuses must lie in [0,1]")
		}
	}
	return nil
}

// FuzzyTitlePolicy is the decision policy over fuzzy title similarity scores.
type FuzzyTitlePolicy struct {
	// AutoMatch: top similarity strictly above this is a confident single match.
	AutoMatch float64 `toml:"auto_match"`
	// Review: similarities strictly above this (but not auto) need human review.
	Review float64 `toml:"review"`
}

// Validate checks the fuzzy title thresholds.
func (fp FuzzyTitlePolicy) Validate() error {
	if fp.Review < 0 || fp.AutoMatch > 1 || fp.Review > fp.AutoMatch {
		return NewValidationErr("fuzzy title policy must satisfy 0 <= review <= auto_match <= 1")
	}
	return nil
}

// ScoringPolicy centralizes every tunable threshold, weight and bonus used by
// the matching engine so they can be recalibrated offline without code
// changes. Loaded once at startup; invalid policy is fatal.
type ScoringPolicy struct {
	Fusion     FusionWeights        `toml:"fusion"`
	Rerank     RerankWeights        `toml:"rerank"`
	Bonuses    HeuristicBonuses     `toml:"bonuses"`
	Confidence ConfidenceThresholds `toml:"confidence"`
	FuzzyTitle FuzzyTitlePolicy     `toml:"fuzzy_title"`
}

// DefaultScoringPolicy returns the calibrated defaults.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Fusion: FusionWeights{
			Image: 0.7,
			Text:  0.3,
		},
		Rerank: RerankWeights{
			Base:            0.5,
			VectorHybrid:    0.5,
			HybridImage:     0.6,
			HybridText:      0.4,
			HighVectorBonus: 0.15,
			HighVectorFloor: 0.60,
		},
		Bonuses: HeuristicBonuses{
			CleanTitleMax:   0.03,
			PricePresent:    0.05,
			ReputableHost:   0.08,
			TokenOverlapMax: 0.10,
		},
		Confidence: ConfidenceThresholds{
			NoMatchFloor: 0.35,
			Medium:       0.50,
			High:         0.80,
		},
		FuzzyTitle: FuzzyTitlePolicy{
			AutoMatch: 0.8,
			Review:    0.5,
		},
	}
}

// Validate checks every section of the policy.
func (p ScoringPolicy) Validate() error {
	if err := p.Fusion.Validate(); err != nil {
		return err
	}
	if err := p.Rerank.Validate(); err != nil {
		return err
	}
	if err := p.Bonuses.Validate(); err != nil {
		return err
	}
	if err := p.Confidence.Validate(); err != nil {
		return err
	}
	return p.FuzzyTitle.Validate()
}
