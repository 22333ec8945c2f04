package enrich

import (
	"context"
	"errors"
	"fmt"

	"currents/internal/core"
)

// Chain tries each generator in order and returns the first success.
// When every generator fails, the joined errors come back so the caller
// can see each provider's failure.
type Chain struct {
	generators []CardGenerator
}

// NewChain builds a fallback chain over the given generators.
func NewChain(generators ...CardGenerator) *Chain {
	return &Chain{generators: generators}
}

// Name identifies the chain in logs and on generated cards.
func (c *Chain) Name() string { return "chain" }

// GenerateCard runs the generators sequentially for one article.
func (c *Chain) GenerateCard(ctx context.Context, article core.RawArticle, score core.Pass1Result) (core.KnowledgeCard, core.Pass1Result, error) {
	if len(c.generators) == 0 {
		return core.KnowledgeCard{}, core.Pass1Result{}, errors.New("no card generators configured")
	}

	var errs []error
	for _, generator := range c.generators {
		select {
		case <-ctx.Done():
			return core.KnowledgeCard{}, core.Pass1Result{}, ctx.Err()
		default:
		}

		card, updated, err := generator.GenerateCard(ctx, article, score)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", generator.Name(), err))
			continue
		}
		if card.Provider == "" {
			card.Provider = generator.Name()
		}
		return card, updated, nil
	}

	return core.KnowledgeCard{}, core.Pass1Result{}, errors.Join(errs...)
}
