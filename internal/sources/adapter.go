// Package sources provides the source adapter contract and the concurrent
// fetch orchestrator that aggregates articles across adapters.
package sources

import (
	"context"
	"errors"
	"time"

	"currents/internal/core"
)

// ErrNoAdapters is returned when FetchAll is invoked with no registered adapters.
var ErrNoAdapters = errors.New("no source adapters registered")

// Adapter fetches candidate articles from one news source.
// Implementations own their transport, parsing, and credentials.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]core.RawArticle, error)
}

// Cacheable is implemented by adapters whose results may be reused within
// a TTL instead of re-fetching (rate-limited or expensive sources).
type Cacheable interface {
	CacheTTL() time.Duration
}

// health tracks consecutive failures for one adapter. An adapter is skipped
// once it crosses the failure limit; any success resets the counter.
type health struct {
	consecutiveFailures int
	lastError           string
}
