package enrich

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"currents/internal/core"
	"currents/internal/logger"
)

// Options configures the enrichment engine.
type Options struct {
	BatchSize          int             // Pass 1 batch size
	RelevanceThreshold int             // Minimum relevance to survive pass 1
	SelectionTarget    int             // Default selection size when the caller passes none
	CardConcurrency    int             // Pass 2 fan-out limit
	MustKnow           map[string]bool // "site/section" pairs that bypass the threshold
}

// DefaultOptions returns the standard enrichment knobs.
func DefaultOptions() Options {
	return Options{
		BatchSize:          10,
		RelevanceThreshold: 55,
		SelectionTarget:    30,
		CardConcurrency:    3,
		MustKnow:           map[string]bool{},
	}
}

// Stats carries per-stage enrichment counters.
type Stats struct {
	Scored         int
	FallbackScored int
	BelowThreshold int
	Selected       int
	CardErrors     int
	CardRejected   int
}

// Engine runs the two-pass enrichment flow.
type Engine struct {
	scorer    Scorer
	heuristic *HeuristicScorer
	generator CardGenerator
	selector  Selector
	opts      Options
	log       *slog.Logger
}

// NewEngine wires the enrichment capabilities together. A nil scorer
// sends every article through the heuristic; a nil selector uses the
// balanced default.
func NewEngine(scorer Scorer, heuristic *HeuristicScorer, generator CardGenerator, selector Selector, opts Options) *Engine {
	if selector == nil {
		selector = NewBalancedSelector()
	}
	return &Engine{
		scorer:    scorer,
		heuristic: heuristic,
		generator: generator,
		selector:  selector,
		opts:      opts,
		log:       logger.Get(),
	}
}

// Enrich scores, filters, selects, and generates cards for the given
// articles. target caps the selection size; zero means the configured
// default. No article error aborts the run.
func (e *Engine) Enrich(ctx context.Context, articles []core.RawArticle, target int) ([]core.EnrichedArticle, Stats, error) {
	stats := Stats{}

	scored := e.scoreAll(ctx, articles, &stats)
	kept := e.filterByThreshold(scored, &stats)

	if target <= 0 {
		target = e.opts.SelectionTarget
	}
	selected, err := e.selector.Select(ctx, kept, target)
	if err != nil {
		e.log.Warn("Selector failed, falling back to top-N by score", "error", err.Error())
		selected, _ = (&TopNSelector{}).Select(ctx, kept, target)
	}
	stats.Selected = len(selected)

	enriched := e.generateCards(ctx, selected, &stats)

	e.log.Info("Enrichment completed",
		"scored", stats.Scored,
		"fallback_scored", stats.FallbackScored,
		"below_threshold", stats.BelowThreshold,
		"selected", stats.Selected,
		"enriched", len(enriched),
		"card_errors", stats.CardErrors,
		"card_rejected", stats.CardRejected,
	)

	return enriched, stats, nil
}

// scoreAll runs pass 1 in batches. A failed batch falls back to the
// heuristic for every member; a missing entry in a successful batch
// response falls back for that article alone.
func (e *Engine) scoreAll(ctx context.Context, articles []core.RawArticle, stats *Stats) []core.ScoredArticle {
	scored := make([]core.ScoredArticle, 0, len(articles))

	batchSize := e.opts.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	for start := 0; start < len(articles); start += batchSize {
		end := start + batchSize
		if end > len(articles) {
			end = len(articles)
		}
		batch := articles[start:end]

		var results map[string]core.Pass1Result
		if e.scorer != nil {
			var err error
			results, err = e.scorer.ScoreBatch(ctx, batch)
			if err != nil {
				e.log.Warn("Batch scoring failed, using heuristic fallback", "batch_size", len(batch), "error", err.Error())
				results = nil
			}
		}

		for _, article := range batch {
			result, ok := results[strings.ToLower(article.URL)]
			if !ok {
				result = e.heuristic.Score(article)
				stats.FallbackScored++
			}
			stats.Scored++
			scored = append(scored, core.ScoredArticle{Article: article, Score: result})
		}
	}

	return scored
}

// filterByThreshold drops articles below the relevance threshold unless
// they come from a must-know source/section.
func (e *Engine) filterByThreshold(scored []core.ScoredArticle, stats *Stats) []core.ScoredArticle {
	kept := make([]core.ScoredArticle, 0, len(scored))
	for _, sa := range scored {
		if sa.Score.Relevance >= e.opts.RelevanceThreshold || e.isMustKnow(sa.Article) {
			kept = append(kept, sa)
			continue
		}
		stats.BelowThreshold++
		e.log.Debug("Article below relevance threshold",
			"url", sa.Article.URL, "relevance", sa.Score.Relevance)
	}
	return kept
}

func (e *Engine) isMustKnow(article core.RawArticle) bool {
	key := strings.ToLower(article.SourceSite + "/" + article.Section)
	return e.opts.MustKnow[key]
}

// generateCards runs pass 2 with bounded concurrency. Each article's
// generator chain is sequential; failures and rejected cards drop the
// single article.
func (e *Engine) generateCards(ctx context.Context, selected []core.ScoredArticle, stats *Stats) []core.EnrichedArticle {
	results := make([]*core.EnrichedArticle, len(selected))

	concurrency := e.opts.CardConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, sa := range selected {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, sa core.ScoredArticle) {
			defer wg.Done()
			defer func() { <-sem }()

			card, updated, err := e.generator.GenerateCard(ctx, sa.Article, sa.Score)
			if err != nil {
				mu.Lock()
				stats.CardErrors++
				mu.Unlock()
				e.log.Error("Card generation failed", "error", err.Error(), "url", sa.Article.URL)
				return
			}

			score := mergeScores(sa.Score, updated)
			if err := ValidateCard(card, score); err != nil {
				mu.Lock()
				stats.CardRejected++
				mu.Unlock()
				e.log.Warn("Card rejected by validation", "url", sa.Article.URL, "reason", err.Error())
				return
			}

			results[idx] = &core.EnrichedArticle{
				Article:    sa.Article,
				Score:      score,
				Card:       card,
				Tier:       e.triage(sa.Article, score),
				Status:     core.ProcessingStatus(score),
				EnrichedAt: time.Now().UTC(),
			}
		}(i, sa)
	}

	wg.Wait()

	enriched := make([]core.EnrichedArticle, 0, len(selected))
	for _, r := range results {
		if r != nil {
			enriched = append(enriched, *r)
		}
	}
	return enriched
}

// mergeScores prefers the scores reported with the card, keeping the
// pass 1 result when the generator reported none.
func mergeScores(original, updated core.Pass1Result) core.Pass1Result {
	if updated.Relevance == 0 && updated.FactualScore == 0 && updated.AnalyticalScore == 0 {
		return original
	}
	merged := original
	merged.Relevance = updated.Relevance
	merged.FactualScore = updated.FactualScore
	merged.AnalyticalScore = updated.AnalyticalScore
	if len(updated.KeyFacts) > 0 {
		merged.KeyFacts = updated.KeyFacts
	}
	return merged
}

// triage assigns the study tier: very high relevance or a must-know
// source is must_know, moderate relevance is should_know, the rest is
// good_to_know.
func (e *Engine) triage(article core.RawArticle, score core.Pass1Result) core.TriageTier {
	switch {
	case score.Relevance >= 80:
		return core.TierMustKnow
	case e.isMustKnow(article):
		return core.TierMustKnow
	case score.Relevance >= 65:
		return core.TierShouldKnow
	default:
		return core.TierGoodToKnow
	}
}
