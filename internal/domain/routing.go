package domain

// ConfidenceTier is a coarse bucket summarizing match certainty.
type ConfidenceTier string

const (
	// ConfidenceTier_High indicates a single confident match.
	ConfidenceTier_High ConfidenceTier = "HIGH"
	// ConfidenceTier_Medium indicates plausible but ambiguous matches.
	ConfidenceTier_Medium ConfidenceTier = "MEDIUM"
	// ConfidenceTier_Low indicates no trustworthy match.
	ConfidenceTier_Low ConfidenceTier = "LOW"
)

// SystemAction is the recommended next step for a scored result set.
type SystemAction string

const (
	// SystemAction_ShowSingleMatch presents the top candidate as the match.
	SystemAction_ShowSingleMatch SystemAction = "SHOW_SINGLE_MATCH"
	// SystemAction_ShowMultipleCandidates presents candidates for review.
	SystemAction_ShowMultipleCandidates SystemAction = "SHOW_MULTIPLE_CANDIDATES"
	// SystemAction_FallbackToExternal routes the input to external search.
	SystemAction_FallbackToExternal SystemAction = "FALLBACK_TO_EXTERNAL"
	// SystemAction_FallbackToManual routes the input to manual triage.
	SystemAction_FallbackToManual SystemAction = "FALLBACK_TO_MANUAL"
)

// ConfidenceThresholds are the calibrated routing thresholds. They sit
// deliberately lower than a naive "0.95 = certain" scheme because reranker
// score fusion already discounts the remote reranker's unreliability.
type ConfidenceThresholds struct {
	NoMatchFloor float64 `toml:"no_match_floor"`
	Medium       float64 `toml:"medium"`
	High         float64 `toml:"high"`
}

// Validate checks threshold ordering and range.
func (ct ConfidenceThresholds) Validate() error {
	if ct.NoMatchFloor < 0 || ct.High > 1 {
		return NewValidationErr("confidence thresholds must lie in [0,1]")
	}
	if !(ct.NoMatchFloor <= ct.Medium && ct.Medium <= ct.High) {
		return NewValidationErr("confidence thresholds must satisfy no_match_floor <= medium <= high")
	}
	return nil
}

// RouteConfidence maps a top adjusted score to a confidence tier. Monotonic:
// a higher score never yields a lower tier.
func RouteConfidence(topScore float64, th ConfidenceThresholds) ConfidenceTier {
	if topScore < th.NoMatchFloor {
		return ConfidenceTier_Low
	}
	if topScore >= th.High {
		return ConfidenceTier_High
	}
	if topScore >= th.Medium {
		return ConfidenceTier_Medium
	}
	return ConfidenceTier_Low
}

// RouteAction maps a confidence tier and candidate count to a system action.
func RouteAction(tier ConfidenceTier, candidateCount int) SystemAction {
	if candidateCount == 0 {
		return SystemAction_FallbackToManual
	}
	switch tier {
	case ConfidenceTier_High:
		return SystemAction_ShowSingleMatch
	case ConfidenceTier_Medium:
		return SystemAction_ShowMultipleCandidates
	default:
		return SystemAction_FallbackToExternal
	}
}
