// Package pipeline wires fetch, extraction, enrichment, and persistence
// into one Run entry point.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"currents/internal/core"
	"currents/internal/logger"
)

// Config holds the controller-level knobs.
type Config struct {
	MaxArticleAge   time.Duration  // Articles older than this are dropped; zero disables the filter
	PrepTitleFilter *regexp.Regexp // Titles matching this are dropped; nil disables the filter
}

// DefaultConfig returns the standard controller settings.
func DefaultConfig() Config {
	return Config{
		MaxArticleAge:   36 * time.Hour,
		PrepTitleFilter: regexp.MustCompile(`(?i)UPSC\s+(Key|Essentials|Weekly|Prelims\s*Ready|Quiz|Simplified)`),
	}
}

// Pipeline is the batch controller. All collaborators arrive through the
// constructor; there are no globals.
type Pipeline struct {
	fetcher    Fetcher
	extractor  Extractor
	enricher   Enricher
	repository Repository
	cfg        Config
	log        *slog.Logger
	now        func() time.Time
}

// NewPipeline creates a pipeline over the given collaborators.
func NewPipeline(fetcher Fetcher, extractor Extractor, enricher Enricher, repository Repository, cfg Config) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		extractor:  extractor,
		enricher:   enricher,
		repository: repository,
		cfg:        cfg,
		log:        logger.Get(),
		now:        time.Now,
	}
}

// Run executes one batch: fetch and dedup, age and title filters, body
// extraction, two-pass enrichment, and optional persistence. maxArticles
// caps the selection size. Only a misconfigured source layer is fatal;
// everything else degrades into counters.
func (p *Pipeline) Run(ctx context.Context, maxArticles int, persist bool) (core.RunSummary, error) {
	summary := core.RunSummary{RunID: uuid.NewString()}
	stats := core.RunStats{}

	p.log.Info("Pipeline run starting", "run_id", summary.RunID, "max_articles", maxArticles, "persist", persist)

	fetched, err := p.fetcher.FetchAll(ctx)
	if err != nil {
		return summary, fmt.Errorf("source fetch failed: %w", err)
	}
	stats.AdapterErrors = fetched.AdapterErrors
	stats.DuplicateURLs = fetched.Duplicates
	stats.EmptyURLs = fetched.EmptyURLs

	articles := fetched.Articles
	summary.TotalFetched = len(articles)

	articles = p.filterByAge(articles, &stats)
	articles = p.filterPrepTitles(articles, &stats)
	articles = p.fillBodies(ctx, articles, &stats)

	enriched, enrichStats, err := p.enricher.Enrich(ctx, articles, maxArticles)
	if err != nil {
		return summary, fmt.Errorf("enrichment failed: %w", err)
	}
	stats.FallbackScored = enrichStats.FallbackScored
	stats.BelowThreshold = enrichStats.BelowThreshold
	stats.CardRejected = enrichStats.CardRejected
	stats.CardErrors = enrichStats.CardErrors

	summary.TotalEnriched = len(enriched)
	summary.Filtered = summary.TotalFetched - summary.TotalEnriched
	summary.Errors = stats.AdapterErrors + stats.CardErrors

	if persist && len(enriched) > 0 {
		repoStats := p.repository.BulkUpsert(enriched)
		summary.Saved = repoStats.Saved
		summary.Errors += repoStats.Errors
		p.log.Info("Persistence completed",
			"saved", repoStats.Saved,
			"duplicates", repoStats.Duplicates,
			"errors", repoStats.Errors,
		)
	}

	p.log.Info("Pipeline run completed",
		"run_id", summary.RunID,
		"total_fetched", summary.TotalFetched,
		"total_enriched", summary.TotalEnriched,
		"filtered", summary.Filtered,
		"saved", summary.Saved,
		"errors", summary.Errors,
		"age_filtered", stats.AgeFiltered,
		"title_filtered", stats.TitleFiltered,
		"extraction_failed", stats.ExtractionFailed,
		"fallback_scored", stats.FallbackScored,
		"below_threshold", stats.BelowThreshold,
		"card_rejected", stats.CardRejected,
	)

	return summary, nil
}

// filterByAge drops articles older than the configured horizon. Undated
// articles are kept and stamped with the current time.
func (p *Pipeline) filterByAge(articles []core.RawArticle, stats *core.RunStats) []core.RawArticle {
	if p.cfg.MaxArticleAge <= 0 {
		return articles
	}
	cutoff := p.now().Add(-p.cfg.MaxArticleAge)

	kept := articles[:0]
	for _, article := range articles {
		if article.PublishedAt.IsZero() {
			p.log.Warn("Article has no publication date, keeping", "url", article.URL)
			article.PublishedAt = p.now()
			kept = append(kept, article)
			continue
		}
		if article.PublishedAt.Before(cutoff) {
			stats.AgeFiltered++
			continue
		}
		kept = append(kept, article)
	}
	return kept
}

// filterPrepTitles drops exam-coaching content that looks like news.
func (p *Pipeline) filterPrepTitles(articles []core.RawArticle, stats *core.RunStats) []core.RawArticle {
	if p.cfg.PrepTitleFilter == nil {
		return articles
	}

	kept := articles[:0]
	for _, article := range articles {
		if p.cfg.PrepTitleFilter.MatchString(article.Title) {
			stats.TitleFiltered++
			p.log.Debug("Dropping prep article", "title", article.Title)
			continue
		}
		kept = append(kept, article)
	}
	return kept
}

// fillBodies extracts content for articles the adapters delivered without
// a body. Extraction failures drop the single article.
func (p *Pipeline) fillBodies(ctx context.Context, articles []core.RawArticle, stats *core.RunStats) []core.RawArticle {
	var missing []int
	var urls []string
	for i, article := range articles {
		if article.Body == "" && article.URL != "" {
			missing = append(missing, i)
			urls = append(urls, article.URL)
		}
	}
	if len(missing) == 0 {
		return articles
	}

	p.log.Info("Extracting bodies for adapter-delivered URLs", "count", len(missing))
	results := p.extractor.ExtractBatch(ctx, urls)

	failed := make(map[int]bool)
	for slot, idx := range missing {
		result := results[slot]
		if result.Err != nil {
			stats.ExtractionFailed++
			failed[idx] = true
			p.log.Warn("Dropping article after extraction failure", "url", articles[idx].URL, "error", result.Err.Error())
			continue
		}
		articles[idx].Body = result.Content.Body
		if articles[idx].Title == "" {
			articles[idx].Title = result.Content.Title
		}
		if articles[idx].PublishedAt.IsZero() && !result.Content.PublishedAt.IsZero() {
			articles[idx].PublishedAt = result.Content.PublishedAt
		}
	}

	kept := articles[:0]
	for i, article := range articles {
		if failed[i] {
			continue
		}
		kept = append(kept, article)
	}
	return kept
}
