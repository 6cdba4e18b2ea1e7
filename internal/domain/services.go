package domain

import (
	"strings"
	"unicode"
)

// ReviewStatusFor derives the review routing for one match confidence using
// the configured fuzzy-title policy: strictly above AutoMatch is automatic,
// strictly above Review needs a human, anything else is no match.
func ReviewStatusFor(confidence float64, policy FuzzyTitlePolicy) ReviewStatus {
	if confidence > policy.AutoMatch {
		return ReviewStatus_AutoMatched
	}
	if confidence > policy.Review {
		return ReviewStatus_NeedsReview
	}
	return ReviewStatus_NoMatch
}

// FuzzyOutcomeKind classifies the fuzzy matcher's decision for one row.
type FuzzyOutcomeKind string

const (
	// FuzzyOutcome_Auto is a confident single title match.
	FuzzyOutcome_Auto FuzzyOutcomeKind = "AUTO"
	// FuzzyOutcome_Ambiguous is several plausible candidates needing review.
	FuzzyOutcome_Ambiguous FuzzyOutcomeKind = "AMBIGUOUS"
	// FuzzyOutcome_None is no plausible candidate at all.
	FuzzyOutcome_None FuzzyOutcomeKind = "NONE"
)

// FuzzyOutcome is the decision over a fuzzy title result list.
type FuzzyOutcome struct {
	Kind    FuzzyOutcomeKind
	Matches []TitleMatch
}

// DecideFuzzyOutcome applies the fuzzy title decision policy to a
// descending-by-similarity match list:
//
//   - top similarity > AutoMatch: confident single match;
//   - top similarity in (Review, AutoMatch]: every candidate above Review is
//     recorded for human review, none picked automatically;
//   - otherwise: no match.
func DecideFuzzyOutcome(matches []TitleMatch, policy FuzzyTitlePolicy) FuzzyOutcome {
	if len(matches) == 0 || matches[0].Similarity <= policy.Review {
		return FuzzyOutcome{Kind: FuzzyOutcome_None}
	}

	if matches[0].Similarity > policy.AutoMatch {
		return FuzzyOutcome{
			Kind:    FuzzyOutcome_Auto,
			Matches: matches[:1],
		}
	}

	var plausible []TitleMatch
	for _, m := range matches {
		if m.Similarity > policy.Review {
			plausible = append(plausible, m)
		}
	}
	return FuzzyOutcome{
		Kind:    FuzzyOutcome_Ambiguous,
		Matches: plausible,
	}
}

// ProgressPercent converts a processed/total pair into a whole percentage.
// Monotone in processed and clamped to [0,100].
func ProgressPercent(processed, total int) int {
	if total <= 0 {
		return 100
	}
	if processed >= total {
		return 100
	}
	if processed <= 0 {
		return 0
	}
	return processed * 100 / total
}

// TokenOverlap is the share of query tokens that also appear in the
// candidate text, in [0,1]. It is the local degraded-mode substitute for the
// remote reranker.
func TokenOverlap(query, text string) float64 {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}

	textTokens := map[string]struct{}{}
	for _, tok := range tokenize(text) {
		textTokens[tok] = struct{}{}
	}

	overlap := 0
	seen := map[string]struct{}{}
	for _, tok := range queryTokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, found := textTokens[tok]; found {
			overlap++
		}
	}
	return float64(overlap) / float64(len(seen))
}

// PunctuationDensity is the share of punctuation/symbol runes in a title,
// used by the clean-title bonus. Titles stuffed with separators and promo
// symbols tend to be scraped noise.
func PunctuationDensity(title string) float64 {
	total := 0
	punct := 0
	for _, r := range title {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			punct++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(punct) / float64(total)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
