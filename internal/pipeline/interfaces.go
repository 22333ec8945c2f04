package pipeline

import (
	"context"

	"currents/internal/core"
	"currents/internal/enrich"
	"currents/internal/extract"
	"currents/internal/repo"
	"currents/internal/sources"
)

// Fetcher aggregates articles across source adapters.
type Fetcher interface {
	FetchAll(ctx context.Context) (*sources.FetchResult, error)
}

// Extractor fills article bodies from their URLs.
type Extractor interface {
	ExtractBatch(ctx context.Context, urls []string) []extract.BatchResult
}

// Enricher runs the two-pass enrichment flow.
type Enricher interface {
	Enrich(ctx context.Context, articles []core.RawArticle, target int) ([]core.EnrichedArticle, enrich.Stats, error)
}

// Repository persists enriched articles.
type Repository interface {
	BulkUpsert(articles []core.EnrichedArticle) repo.Stats
}
