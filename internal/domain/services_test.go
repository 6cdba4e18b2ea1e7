package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewStatusFor(t *testing.T) {
	policy := FuzzyTitlePolicy{AutoMatch: 0.8, Review: 0.5}

	tests := map[string]struct {
		confidence float64
		want       ReviewStatus
	}{
		"sku-confidence-auto-matches":   {confidence: 1.0, want: ReviewStatus_AutoMatched},
		"just-above-auto-threshold":     {confidence: 0.81, want: ReviewStatus_AutoMatched},
		"at-auto-threshold-needs-review": {confidence: 0.8, want: ReviewStatus_NeedsReview},
		"mid-band-needs-review":         {confidence: 0.65, want: ReviewStatus_NeedsReview},
		"at-review-threshold-no-match":  {confidence: 0.5, want: ReviewStatus_NoMatch},
		"below-review-no-match":         {confidence: 0.2, want: ReviewStatus_NoMatch},
		"zero-no-match":                 {confidence: 0, want: ReviewStatus_NoMatch},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := ReviewStatusFor(tt.confidence, policy)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideFuzzyOutcome(t *testing.T) {
	policy := FuzzyTitlePolicy{AutoMatch: 0.8, Review: 0.5}
	variantA := CatalogVariant{Title: "Wireless Mouse Black"}
	variantB := CatalogVariant{Title: "Wireless Mouse White"}
	variantC := CatalogVariant{Title: "USB Hub"}

	tests := map[string]struct {
		matches     []TitleMatch
		wantKind    FuzzyOutcomeKind
		wantMatches int
	}{
		"no-candidates-is-none": {
			matches:  nil,
			wantKind: FuzzyOutcome_None,
		},
		"top-below-review-is-none": {
			matches:  []TitleMatch{{Variant: variantA, Similarity: 0.4}},
			wantKind: FuzzyOutcome_None,
		},
		"top-at-review-is-none": {
			matches:  []TitleMatch{{Variant: variantA, Similarity: 0.5}},
			wantKind: FuzzyOutcome_None,
		},
		"top-above-auto-is-single-match": {
			matches: []TitleMatch{
				{Variant: variantA, Similarity: 0.92},
				{Variant: variantB, Similarity: 0.70},
			},
			wantKind:    FuzzyOutcome_Auto,
			wantMatches: 1,
		},
		"ambiguous-records-all-plausible": {
			matches: []TitleMatch{
				{Variant: variantA, Similarity: 0.65},
				{Variant: variantB, Similarity: 0.55},
				{Variant: variantC, Similarity: 0.30},
			},
			wantKind:    FuzzyOutcome_Ambiguous,
			wantMatches: 2,
		},
		"top-at-auto-threshold-is-ambiguous": {
			matches: []TitleMatch{
				{Variant: variantA, Similarity: 0.8},
			},
			wantKind:    FuzzyOutcome_Ambiguous,
			wantMatches: 1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := DecideFuzzyOutcome(tt.matches, policy)

			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Len(t, got.Matches, tt.wantMatches)
		})
	}
}

func TestDecideFuzzyOutcome_Idempotent(t *testing.T) {
	policy := FuzzyTitlePolicy{AutoMatch: 0.8, Review: 0.5}
	matches := []TitleMatch{
		{Variant: CatalogVariant{Title: "A"}, Similarity: 0.65},
		{Variant: CatalogVariant{Title: "B"}, Similarity: 0.55},
	}

	first := DecideFuzzyOutcome(matches, policy)
	second := DecideFuzzyOutcome(matches, policy)

	assert.Equal(t, first, second, "identical inputs must produce identical outcomes")
}

func TestProgressPercent(t *testing.T) {
	tests := map[string]struct {
		processed int
		total     int
		want      int
	}{
		"zero-of-ten":        {processed: 0, total: 10, want: 0},
		"half-way":           {processed: 5, total: 10, want: 50},
		"rounds-down":        {processed: 1, total: 3, want: 33},
		"complete":           {processed: 10, total: 10, want: 100},
		"over-complete-caps": {processed: 12, total: 10, want: 100},
		"empty-batch-is-100": {processed: 0, total: 0, want: 100},
		"negative-processed": {processed: -1, total: 10, want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := ProgressPercent(tt.processed, tt.total)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProgressPercent_Monotone(t *testing.T) {
	previous := 0
	for processed := 0; processed <= 120; processed++ {
		p := ProgressPercent(processed, 117)
		assert.GreaterOrEqual(t, p, previous)
		previous = p
	}
	assert.Equal(t, 100, previous)
}

func TestTokenOverlap(t *testing.T) {
	tests := map[string]struct {
		query string
		text  string
		want  float64
	}{
		"identical-strings":       {query: "wireless mouse", text: "wireless mouse", want: 1.0},
		"case-insensitive":        {query: "Wireless MOUSE", text: "wireless mouse", want: 1.0},
		"half-overlap":            {query: "wireless mouse", text: "wireless keyboard", want: 0.5},
		"no-overlap":              {query: "usb hub", text: "desk lamp", want: 0},
		"empty-query":             {query: "", text: "anything", want: 0},
		"punctuation-is-ignored":  {query: "mouse, wireless!", text: "(wireless) mouse", want: 1.0},
		"duplicate-query-tokens":  {query: "mouse mouse mouse", text: "mouse pad", want: 1.0},
		"numbers-count-as-tokens": {query: "iphone 15 pro", text: "apple iphone 15 pro max", want: 1.0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := TokenOverlap(tt.query, tt.text)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPunctuationDensity(t *testing.T) {
	tests := map[string]struct {
		title string
		want  float64
	}{
		"clean-title":     {title: "Wireless Mouse", want: 0},
		"empty-title":     {title: "", want: 0},
		"all-punctuation": {title: "***!!!", want: 1.0},
		"half-and-half":   {title: "ab!?", want: 0.5},
		"spaces-excluded": {title: "a b !", want: 1.0 / 3.0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := PunctuationDensity(tt.title)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
