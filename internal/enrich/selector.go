package enrich

import (
	"context"
	"sort"
	"strings"

	"currents/internal/core"
)

// gsMinQuotas reserves minimum slots per GS paper before the score top-up.
// GS4 (ethics) rarely appears in daily news, so its quota stays low.
var gsMinQuotas = map[string]int{
	"GS1": 5,
	"GS2": 5,
	"GS3": 5,
	"GS4": 1,
}

// BalancedSelector picks the selection pool deterministically: per-paper
// minimum quotas first, then the highest-scored remainder.
type BalancedSelector struct{}

// NewBalancedSelector creates the default selector.
func NewBalancedSelector() *BalancedSelector {
	return &BalancedSelector{}
}

// Select returns at most target articles. When the pool already fits, it
// is returned unchanged. Ties break on URL so repeated runs agree.
func (s *BalancedSelector) Select(ctx context.Context, scored []core.ScoredArticle, target int) ([]core.ScoredArticle, error) {
	if target <= 0 || len(scored) <= target {
		return scored, nil
	}

	byPaper := make(map[string][]core.ScoredArticle)
	for _, sa := range scored {
		byPaper[gsPaper(sa)] = append(byPaper[gsPaper(sa)], sa)
	}
	for paper := range byPaper {
		sortByRelevance(byPaper[paper])
	}

	reserved := make([]core.ScoredArticle, 0, target)
	reservedURLs := make(map[string]bool)

	for _, paper := range []string{"GS1", "GS2", "GS3", "GS4"} {
		quota := gsMinQuotas[paper]
		for _, sa := range byPaper[paper] {
			if quota == 0 || len(reserved) >= target {
				break
			}
			key := strings.ToLower(sa.Article.URL)
			if reservedURLs[key] {
				continue
			}
			reserved = append(reserved, sa)
			reservedURLs[key] = true
			quota--
		}
	}

	// Top up the remaining slots by score across the whole pool.
	all := make([]core.ScoredArticle, len(scored))
	copy(all, scored)
	sortByRelevance(all)
	for _, sa := range all {
		if len(reserved) >= target {
			break
		}
		key := strings.ToLower(sa.Article.URL)
		if reservedURLs[key] {
			continue
		}
		reserved = append(reserved, sa)
		reservedURLs[key] = true
	}

	return reserved, nil
}

func gsPaper(sa core.ScoredArticle) string {
	if sa.Score.GSPaper == "" {
		return "GS2"
	}
	return sa.Score.GSPaper
}

func sortByRelevance(articles []core.ScoredArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Score.Relevance != articles[j].Score.Relevance {
			return articles[i].Score.Relevance > articles[j].Score.Relevance
		}
		return articles[i].Article.URL < articles[j].Article.URL
	})
}

// TopNSelector is the deterministic fallback selector: highest relevance
// first, no paper balancing.
type TopNSelector struct{}

// Select returns the target highest-scored articles.
func (s *TopNSelector) Select(ctx context.Context, scored []core.ScoredArticle, target int) ([]core.ScoredArticle, error) {
	if target <= 0 || len(scored) <= target {
		return scored, nil
	}
	all := make([]core.ScoredArticle, len(scored))
	copy(all, scored)
	sortByRelevance(all)
	return all[:target], nil
}
