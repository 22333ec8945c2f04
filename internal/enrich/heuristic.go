package enrich

import (
	"context"
	"strings"

	"currents/internal/core"
)

// HeuristicScorer is the deterministic keyword fallback used when the
// model scorer is unavailable. Scores land in [45,65]:
// min(65, max(45, matches*5+35)).
type HeuristicScorer struct {
	keywords []string
}

// NewHeuristicScorer creates a scorer over the given keyword list.
// Keywords are matched case-insensitively against title and body.
func NewHeuristicScorer(keywords []string) *HeuristicScorer {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &HeuristicScorer{keywords: lowered}
}

// Score rates a single article from keyword matches.
func (h *HeuristicScorer) Score(article core.RawArticle) core.Pass1Result {
	haystack := strings.ToLower(article.Title + " " + article.Body)

	matches := 0
	var matched []string
	for _, keyword := range h.keywords {
		if strings.Contains(haystack, keyword) {
			matches++
			matched = append(matched, keyword)
		}
	}

	score := matches*5 + 35
	if score < 45 {
		score = 45
	}
	if score > 65 {
		score = 65
	}

	return core.Pass1Result{
		Relevance: score,
		Category:  "general",
		GSPaper:   "GS2",
		Keywords:  matched,
		Fallback:  true,
	}
}

// ScoreBatch implements Scorer and never fails.
func (h *HeuristicScorer) ScoreBatch(ctx context.Context, articles []core.RawArticle) (map[string]core.Pass1Result, error) {
	results := make(map[string]core.Pass1Result, len(articles))
	for _, article := range articles {
		results[strings.ToLower(article.URL)] = h.Score(article)
	}
	return results, nil
}
