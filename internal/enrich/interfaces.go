// Package enrich implements the two-pass enrichment flow: batch relevance
// scoring, threshold filtering with must-know overrides, balanced
// selection, and per-article knowledge card generation with validation.
package enrich

import (
	"context"

	"currents/internal/core"
)

// Scorer produces pass 1 results for a batch of articles, keyed by
// lower-cased article URL. A whole-batch failure returns an error; the
// engine then falls back to the heuristic scorer for every member.
type Scorer interface {
	ScoreBatch(ctx context.Context, articles []core.RawArticle) (map[string]core.Pass1Result, error)
}

// CardGenerator produces a knowledge card for one scored article. The
// returned Pass1Result carries the scores reported alongside the card,
// which validation inspects for the provider's canned fallback.
type CardGenerator interface {
	Name() string
	GenerateCard(ctx context.Context, article core.RawArticle, score core.Pass1Result) (core.KnowledgeCard, core.Pass1Result, error)
}

// Selector picks at most target articles from the scored pool. The output
// must be a subset of the input.
type Selector interface {
	Select(ctx context.Context, scored []core.ScoredArticle, target int) ([]core.ScoredArticle, error)
}
