package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"currents/internal/cache"
	"currents/internal/core"
	"currents/internal/logger"
)

// FetchOptions configures one FetchAll invocation.
type FetchOptions struct {
	MaxConcurrency int           // Number of adapters fetched concurrently
	AdapterTimeout time.Duration // Per-adapter fetch timeout
	MaxFailures    int           // Consecutive failures before an adapter is skipped (0 = never skip)
}

// DefaultFetchOptions returns sensible defaults.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		MaxConcurrency: 5,
		AdapterTimeout: 30 * time.Second,
		MaxFailures:    3,
	}
}

// FetchResult contains the aggregated articles and per-run statistics.
type FetchResult struct {
	Articles      []core.RawArticle
	AdapterErrors int
	Skipped       int // Adapters skipped by backoff
	Duplicates    int // Articles dropped as duplicate URLs
	EmptyURLs     int // Articles dropped for missing URL
	Errors        []error
}

// Orchestrator fans fetches out across registered adapters and merges the
// results into a single deduplicated slice.
type Orchestrator struct {
	adapters []Adapter
	cache    cache.Cache // nil disables caching
	opts     FetchOptions
	log      *slog.Logger

	mu     sync.Mutex
	health map[string]*health
}

// NewOrchestrator creates an orchestrator over the given adapters.
// A nil cache disables TTL caching.
func NewOrchestrator(adapters []Adapter, c cache.Cache, opts FetchOptions) *Orchestrator {
	return &Orchestrator{
		adapters: adapters,
		cache:    c,
		opts:     opts,
		log:      logger.Get(),
		health:   make(map[string]*health),
	}
}

// FetchAll fetches from every adapter concurrently, records per-adapter
// failures without aborting, and deduplicates by lower-cased URL keeping
// the first occurrence. Articles without a URL are dropped and counted.
func (o *Orchestrator) FetchAll(ctx context.Context) (*FetchResult, error) {
	if len(o.adapters) == 0 {
		return nil, ErrNoAdapters
	}

	o.log.Info("Starting source fetch", "adapter_count", len(o.adapters), "max_concurrency", o.opts.MaxConcurrency)

	result := &FetchResult{}
	type adapterBatch struct {
		name     string
		articles []core.RawArticle
	}
	var batches []adapterBatch

	sem := make(chan struct{}, o.opts.MaxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	cancelled := false
	for _, adapter := range o.adapters {
		if o.shouldSkip(adapter.Name()) {
			o.log.Warn("Skipping adapter after repeated failures", "adapter", adapter.Name())
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}

		select {
		case <-ctx.Done():
			cancelled = true
		case sem <- struct{}{}:
			wg.Add(1)
			go func(a Adapter) {
				defer wg.Done()
				defer func() { <-sem }()

				articles, err := o.fetchOne(ctx, a)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.AdapterErrors++
					result.Errors = append(result.Errors, fmt.Errorf("adapter %s: %w", a.Name(), err))
					return
				}
				batches = append(batches, adapterBatch{name: a.Name(), articles: articles})
			}(adapter)
		}

		if cancelled {
			o.log.Warn("Fetch cancelled, draining in-flight adapters", "reason", ctx.Err())
			break
		}
	}

	// Spawned goroutines must finish before the result is safe to read.
	wg.Wait()

	if cancelled {
		return result, ctx.Err()
	}

	// Merge in registration order so dedup keeps a deterministic winner.
	order := make(map[string]int, len(o.adapters))
	for i, a := range o.adapters {
		order[a.Name()] = i
	}
	for i := 0; i < len(batches); i++ {
		for j := i + 1; j < len(batches); j++ {
			if order[batches[j].name] < order[batches[i].name] {
				batches[i], batches[j] = batches[j], batches[i]
			}
		}
	}

	seen := make(map[string]bool)
	for _, batch := range batches {
		for _, article := range batch.articles {
			if article.URL == "" {
				result.EmptyURLs++
				o.log.Warn("Dropping article without URL", "adapter", batch.name, "title", article.Title)
				continue
			}
			key := strings.ToLower(article.URL)
			if seen[key] {
				result.Duplicates++
				continue
			}
			seen[key] = true
			result.Articles = append(result.Articles, article)
		}
	}

	o.log.Info("Source fetch completed",
		"articles", len(result.Articles),
		"duplicates", result.Duplicates,
		"empty_urls", result.EmptyURLs,
		"adapter_errors", result.AdapterErrors,
		"skipped", result.Skipped,
	)

	return result, nil
}

// fetchOne runs a single adapter under its timeout, consulting the TTL
// cache for adapters that declare one and updating health counters.
func (o *Orchestrator) fetchOne(ctx context.Context, a Adapter) ([]core.RawArticle, error) {
	if articles, ok := o.cachedArticles(a); ok {
		o.log.Debug("Cache hit for adapter", "adapter", a.Name(), "count", len(articles))
		return articles, nil
	}

	fetchCtx := ctx
	if o.opts.AdapterTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, o.opts.AdapterTimeout)
		defer cancel()
	}

	articles, err := a.Fetch(fetchCtx)
	if err != nil {
		o.recordFailure(a.Name(), err)
		o.log.Error("Adapter fetch failed", "error", err.Error(), "adapter", a.Name())
		return nil, err
	}

	o.recordSuccess(a.Name())
	o.storeCache(a, articles)
	o.log.Info("Adapter fetch completed", "adapter", a.Name(), "count", len(articles))
	return articles, nil
}

func (o *Orchestrator) cachedArticles(a Adapter) ([]core.RawArticle, bool) {
	if o.cache == nil {
		return nil, false
	}
	c, ok := a.(Cacheable)
	if !ok || c.CacheTTL() <= 0 {
		return nil, false
	}
	v, ok := o.cache.Get("adapter:" + a.Name())
	if !ok {
		return nil, false
	}
	articles, ok := v.([]core.RawArticle)
	return articles, ok
}

func (o *Orchestrator) storeCache(a Adapter, articles []core.RawArticle) {
	if o.cache == nil {
		return
	}
	c, ok := a.(Cacheable)
	if !ok || c.CacheTTL() <= 0 {
		return
	}
	o.cache.Set("adapter:"+a.Name(), articles, c.CacheTTL())
}

func (o *Orchestrator) shouldSkip(name string) bool {
	if o.opts.MaxFailures <= 0 {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.health[name]
	return ok && h.consecutiveFailures >= o.opts.MaxFailures
}

func (o *Orchestrator) recordFailure(name string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.health[name]
	if !ok {
		h = &health{}
		o.health[name] = h
	}
	h.consecutiveFailures++
	h.lastError = err.Error()
}

func (o *Orchestrator) recordSuccess(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if h, ok := o.health[name]; ok && h.consecutiveFailures > 0 {
		h.consecutiveFailures = 0
		h.lastError = ""
	}
}
