package enrich

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"currents/internal/core"
)

func scoredPool(counts map[string]int, baseScore int) []core.ScoredArticle {
	var pool []core.ScoredArticle
	for _, paper := range []string{"GS1", "GS2", "GS3", "GS4"} {
		for i := 0; i < counts[paper]; i++ {
			pool = append(pool, core.ScoredArticle{
				Article: core.RawArticle{URL: fmt.Sprintf("https://example.com/%s/%d", paper, i)},
				Score:   core.Pass1Result{Relevance: baseScore + i, GSPaper: paper},
			})
		}
	}
	return pool
}

func TestBalancedSelectSmallPoolUnchanged(t *testing.T) {
	pool := scoredPool(map[string]int{"GS1": 3, "GS2": 2}, 60)
	s := NewBalancedSelector()

	selected, err := s.Select(context.Background(), pool, 30)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(selected) != len(pool) {
		t.Errorf("expected pool returned unchanged, got %d of %d", len(selected), len(pool))
	}
}

func TestBalancedSelectSizeAndSubset(t *testing.T) {
	pool := scoredPool(map[string]int{"GS1": 15, "GS2": 15, "GS3": 15, "GS4": 5}, 50)
	s := NewBalancedSelector()

	selected, err := s.Select(context.Background(), pool, 30)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if len(selected) != 30 {
		t.Fatalf("expected exactly 30 selected, got %d", len(selected))
	}

	inPool := make(map[string]bool)
	for _, sa := range pool {
		inPool[sa.Article.URL] = true
	}
	seen := make(map[string]bool)
	for _, sa := range selected {
		if !inPool[sa.Article.URL] {
			t.Errorf("selected article %s not in input pool", sa.Article.URL)
		}
		if seen[sa.Article.URL] {
			t.Errorf("article %s selected twice", sa.Article.URL)
		}
		seen[sa.Article.URL] = true
	}
}

func TestBalancedSelectHonorsQuotas(t *testing.T) {
	// GS4 scores far below everything else; the quota must still carry one in.
	pool := scoredPool(map[string]int{"GS1": 20, "GS2": 20, "GS3": 20}, 70)
	pool = append(pool, core.ScoredArticle{
		Article: core.RawArticle{URL: "https://example.com/gs4/ethics"},
		Score:   core.Pass1Result{Relevance: 40, GSPaper: "GS4"},
	})

	s := NewBalancedSelector()
	selected, err := s.Select(context.Background(), pool, 30)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	counts := make(map[string]int)
	for _, sa := range selected {
		counts[sa.Score.GSPaper]++
	}
	if counts["GS4"] < 1 {
		t.Errorf("expected GS4 quota honored, got distribution %v", counts)
	}
	for _, paper := range []string{"GS1", "GS2", "GS3"} {
		if counts[paper] < 5 {
			t.Errorf("expected at least 5 %s articles, got %d", paper, counts[paper])
		}
	}
}

func TestBalancedSelectDeterministic(t *testing.T) {
	pool := scoredPool(map[string]int{"GS1": 12, "GS2": 12, "GS3": 12, "GS4": 2}, 55)
	s := NewBalancedSelector()

	first, _ := s.Select(context.Background(), pool, 20)
	second, _ := s.Select(context.Background(), pool, 20)

	if len(first) != len(second) {
		t.Fatalf("selection size differs across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Article.URL != second[i].Article.URL {
			t.Fatalf("selection order differs at %d: %s vs %s", i, first[i].Article.URL, second[i].Article.URL)
		}
	}
}

func TestBalancedSelectDefaultsMissingPaperToGS2(t *testing.T) {
	pool := make([]core.ScoredArticle, 0, 40)
	for i := 0; i < 40; i++ {
		pool = append(pool, core.ScoredArticle{
			Article: core.RawArticle{URL: fmt.Sprintf("https://example.com/%d", i)},
			Score:   core.Pass1Result{Relevance: 50 + i%20},
		})
	}

	s := NewBalancedSelector()
	selected, err := s.Select(context.Background(), pool, 10)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(selected) != 10 {
		t.Errorf("expected 10 selected, got %d", len(selected))
	}
}

func TestTopNSelector(t *testing.T) {
	pool := scoredPool(map[string]int{"GS1": 10, "GS2": 10}, 50)
	s := &TopNSelector{}

	selected, err := s.Select(context.Background(), pool, 5)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(selected) != 5 {
		t.Fatalf("expected 5 selected, got %d", len(selected))
	}
	for i := 1; i < len(selected); i++ {
		if selected[i].Score.Relevance > selected[i-1].Score.Relevance {
			t.Error("expected selection ordered by relevance desc")
		}
	}
}

func TestSelectorOutputNeverInventsArticles(t *testing.T) {
	pool := scoredPool(map[string]int{"GS2": 8}, 60)
	for _, s := range []Selector{NewBalancedSelector(), &TopNSelector{}} {
		selected, err := s.Select(context.Background(), pool, 100)
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		for _, sa := range selected {
			if !strings.HasPrefix(sa.Article.URL, "https://example.com/GS2/") {
				t.Errorf("unexpected article %s in output", sa.Article.URL)
			}
		}
	}
}
