package domain

import (
	"sort"

	"github.com/google/uuid"
)

// CatalogRef identifies one catalog entity a candidate points at.
type CatalogRef struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

// Candidate is a catalog entity proposed as a possible match for an input,
// plus the display snapshot and raw vector scores from the search that
// produced it. Candidates are transient: they never outlive the scoring pass.
type Candidate struct {
	Ref         CatalogRef
	Title       string
	Description string
	Price       *float64
	ImageURL    string
	SourceURL   string

	// Raw similarity scores in [0,1] from the vector index.
	CombinedScore float64
	ImageScore    float64
	TextScore     float64
}

// RankedCandidate is a Candidate with an adjusted score, a dense 1-based
// rank, and a human-readable explanation of how the score was produced.
type RankedCandidate struct {
	Candidate
	AdjustedScore float64
	Rank          int
	Explanation   string
}

// RankByAdjustedScore sorts candidates by adjusted score descending, breaking
// ties by raw combined vector score descending, and re-numbers ranks 1..N.
// Sorting is stable so equal candidates keep their input order.
func RankByAdjustedScore(candidates []RankedCandidate) []RankedCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].AdjustedScore != candidates[j].AdjustedScore {
			return candidates[i].AdjustedScore > candidates[j].AdjustedScore
		}
		return candidates[i].CombinedScore > candidates[j].CombinedScore
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}
