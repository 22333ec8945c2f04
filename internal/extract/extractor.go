// Package extract turns article URLs into sanitized article text through
// an ordered chain of extraction strategies behind a quality gate.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"currents/internal/core"
	"currents/internal/logger"
)

// ErrNoUsableContent is returned when every strategy failed or every
// candidate was rejected by the quality gate.
var ErrNoUsableContent = errors.New("no strategy produced usable content")

// Options configures the extraction engine.
type Options struct {
	Timeout        time.Duration // Per-strategy HTTP timeout
	UserAgent      string
	MinContentLen  int     // Minimum body text length
	MinTitleLen    int     // Minimum title length
	MaxContentLen  int     // Maximum body text length
	MinQuality     float64 // Minimum quality score
	MaxConcurrency int     // Batch fan-out limit
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		Timeout:        20 * time.Second,
		UserAgent:      "Currents/1.0",
		MinContentLen:  100,
		MinTitleLen:    8,
		MaxContentLen:  50000,
		MinQuality:     0.2,
		MaxConcurrency: 5,
	}
}

// Engine tries strategies in order and returns the first candidate that
// passes the quality gate.
type Engine struct {
	strategies []Strategy
	sanitizer  *Sanitizer
	opts       Options
	log        *slog.Logger
}

// NewEngine creates an engine with the default strategy order:
// readability, selector scraping, plain-text fallback.
func NewEngine(opts Options) *Engine {
	sanitizer := NewSanitizer()
	return NewEngineWithStrategies(opts, sanitizer,
		newReadabilityStrategy(opts.Timeout, opts.UserAgent),
		newSelectorStrategy(opts.Timeout, opts.UserAgent),
		newPlainTextStrategy(opts.Timeout, opts.UserAgent, sanitizer),
	)
}

// NewEngineWithStrategies creates an engine over an explicit strategy list.
func NewEngineWithStrategies(opts Options, sanitizer *Sanitizer, strategies ...Strategy) *Engine {
	return &Engine{
		strategies: strategies,
		sanitizer:  sanitizer,
		opts:       opts,
		log:        logger.Get(),
	}
}

// Extract runs the strategy chain for one URL. Strategy errors and gate
// rejections move on to the next strategy; only exhausting the chain is
// an error.
func (e *Engine) Extract(ctx context.Context, url string) (core.ExtractedContent, error) {
	for _, strategy := range e.strategies {
		select {
		case <-ctx.Done():
			return core.ExtractedContent{}, ctx.Err()
		default:
		}

		cand, err := strategy.Extract(ctx, url)
		if err != nil {
			e.log.Debug("Extraction strategy failed", "strategy", strategy.Name(), "url", url, "error", err.Error())
			continue
		}

		content, ok := e.gate(url, strategy.Name(), cand)
		if !ok {
			continue
		}
		e.log.Debug("Extraction succeeded", "strategy", strategy.Name(), "url", url, "quality", content.Quality)
		return content, nil
	}

	return core.ExtractedContent{}, ErrNoUsableContent
}

// gate sanitizes a candidate and applies the acceptance thresholds.
func (e *Engine) gate(url, strategyName string, cand candidate) (core.ExtractedContent, bool) {
	body := e.sanitizer.Sanitize(cand.body)
	text := e.sanitizer.StripTags(body)

	if len(text) < e.opts.MinContentLen || len(text) > e.opts.MaxContentLen {
		e.log.Debug("Candidate rejected on length", "strategy", strategyName, "url", url, "length", len(text))
		return core.ExtractedContent{}, false
	}
	if len(cand.title) < e.opts.MinTitleLen {
		e.log.Debug("Candidate rejected on title", "strategy", strategyName, "url", url, "title", cand.title)
		return core.ExtractedContent{}, false
	}

	quality := QualityScore(cand.title, body, text)
	if quality < e.opts.MinQuality {
		e.log.Debug("Candidate rejected on quality", "strategy", strategyName, "url", url, "quality", quality)
		return core.ExtractedContent{}, false
	}

	return core.ExtractedContent{
		URL:      url,
		Title:    cand.title,
		Body:     body,
		Quality:  quality,
		Strategy: strategyName,
	}, true
}

// BatchResult is one slot of an ExtractBatch call, index-aligned with the
// input URLs.
type BatchResult struct {
	Content core.ExtractedContent
	Err     error
}

// ExtractBatch extracts many URLs under a concurrency limit. The result
// slice always has one entry per input URL, in input order.
func (e *Engine) ExtractBatch(ctx context.Context, urls []string) []BatchResult {
	results := make([]BatchResult, len(urls))

	maxConcurrency := e.opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, u string) {
			defer wg.Done()
			defer func() { <-sem }()

			content, err := e.Extract(ctx, u)
			results[idx] = BatchResult{Content: content, Err: err}
		}(i, url)
	}

	wg.Wait()
	return results
}
