package enrich

import (
	"context"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"currents/internal/core"
)

// ExtractiveCards builds knowledge cards from the article text alone,
// without a model. It serves as the last generator in the chain and as
// the only one when no API key is configured.
type ExtractiveCards struct {
	maxFacts int
	strip    *bluemonday.Policy
}

// NewExtractiveCards creates the extractive generator.
func NewExtractiveCards() *ExtractiveCards {
	return &ExtractiveCards{maxFacts: 4, strip: bluemonday.StrictPolicy()}
}

// Name implements CardGenerator.
func (g *ExtractiveCards) Name() string { return "extractive" }

// GenerateCard takes the headline from the article title and the facts
// from the pass 1 key facts, falling back to leading sentences of the
// body. The body arrives as sanitized HTML, so it is stripped to plain
// text before sentence splitting. It reports no scores, so the pass 1
// result stands.
func (g *ExtractiveCards) GenerateCard(ctx context.Context, article core.RawArticle, score core.Pass1Result) (core.KnowledgeCard, core.Pass1Result, error) {
	facts := score.KeyFacts
	if len(facts) == 0 {
		text := html.UnescapeString(g.strip.Sanitize(article.Body))
		facts = leadingSentences(text, g.maxFacts)
	}
	if len(facts) > g.maxFacts {
		facts = facts[:g.maxFacts]
	}

	card := core.KnowledgeCard{
		Headline: strings.TrimSpace(article.Title),
		Facts:    facts,
		Context:  article.SourceSite + "/" + article.Section,
		Provider: g.Name(),
	}
	return card, core.Pass1Result{}, nil
}

// leadingSentences splits text on sentence terminators and returns up to
// max non-trivial sentences.
func leadingSentences(text string, max int) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			sentence := strings.TrimSpace(current.String())
			current.Reset()
			if len(sentence) < 20 {
				continue
			}
			sentences = append(sentences, sentence)
			if len(sentences) == max {
				return sentences
			}
		}
	}
	return sentences
}
