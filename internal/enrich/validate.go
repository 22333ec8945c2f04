package enrich

import (
	"errors"

	"currents/internal/core"
)

// The canned response some providers return instead of failing carries
// exactly this score triple. A card accompanied by it is placeholder
// output, not analysis, and must not be persisted.
const (
	sentinelFactual    = 30
	sentinelAnalytical = 25
	sentinelRelevance  = 35
)

var (
	// ErrEmptyHeadline rejects cards without a headline.
	ErrEmptyHeadline = errors.New("card has empty headline")
	// ErrNoFacts rejects cards without key facts.
	ErrNoFacts = errors.New("card has no facts")
	// ErrSentinelCard rejects the known canned fallback response.
	ErrSentinelCard = errors.New("card carries the provider fallback sentinel scores")
)

// ValidateCard checks a generated card and the scores reported with it.
func ValidateCard(card core.KnowledgeCard, score core.Pass1Result) error {
	if card.Headline == "" {
		return ErrEmptyHeadline
	}
	if len(card.Facts) == 0 {
		return ErrNoFacts
	}
	if score.FactualScore == sentinelFactual &&
		score.AnalyticalScore == sentinelAnalytical &&
		score.Relevance == sentinelRelevance {
		return ErrSentinelCard
	}
	return nil
}
