package pipeline

import (
	"context"
	"testing"
	"time"

	"currents/internal/core"
	"currents/internal/enrich"
	"currents/internal/extract"
	"currents/internal/repo"
	"currents/internal/sources"
)

type fakeAdapter struct {
	name     string
	articles []core.RawArticle
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]core.RawArticle, error) {
	return f.articles, nil
}

type fakeExtractor struct {
	bodies map[string]string
}

func (f *fakeExtractor) ExtractBatch(ctx context.Context, urls []string) []extract.BatchResult {
	results := make([]extract.BatchResult, len(urls))
	for i, url := range urls {
		body, ok := f.bodies[url]
		if !ok {
			results[i] = extract.BatchResult{Err: extract.ErrNoUsableContent}
			continue
		}
		results[i] = extract.BatchResult{Content: core.ExtractedContent{
			URL:   url,
			Title: "Extracted title for testing purposes",
			Body:  body,
		}}
	}
	return results
}

type fakeScorer struct {
	scores map[string]int
}

func (f *fakeScorer) ScoreBatch(ctx context.Context, articles []core.RawArticle) (map[string]core.Pass1Result, error) {
	results := make(map[string]core.Pass1Result)
	for _, article := range articles {
		if score, ok := f.scores[article.URL]; ok {
			results[article.URL] = core.Pass1Result{
				Relevance:       score,
				FactualScore:    score,
				AnalyticalScore: score,
				GSPaper:         "GS2",
			}
		}
	}
	return results, nil
}

type fakeGenerator struct{}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) GenerateCard(ctx context.Context, article core.RawArticle, score core.Pass1Result) (core.KnowledgeCard, core.Pass1Result, error) {
	return core.KnowledgeCard{
		Headline: "Card for " + article.URL,
		Facts:    []string{"fact one", "fact two"},
	}, core.Pass1Result{}, nil
}

type recordingRepo struct {
	articles []core.EnrichedArticle
}

func (r *recordingRepo) BulkUpsert(articles []core.EnrichedArticle) repo.Stats {
	r.articles = append(r.articles, articles...)
	return repo.Stats{Saved: len(articles)}
}

var testKeywords = []string{"government", "policy", "parliament"}

func newTestEnricher(scores map[string]int) *enrich.Engine {
	opts := enrich.DefaultOptions()
	return enrich.NewEngine(
		&fakeScorer{scores: scores},
		enrich.NewHeuristicScorer(testKeywords),
		&fakeGenerator{},
		nil,
		opts,
	)
}

func TestRunEndToEnd(t *testing.T) {
	// Three adapters where one article appears twice; scores 80/40/60
	// against threshold 55 leave two articles standing.
	now := time.Now().UTC()
	adapterA := &fakeAdapter{name: "a", articles: []core.RawArticle{
		{URL: "https://example.com/a", Title: "Article A headline", Body: "body a", PublishedAt: now},
		{URL: "https://example.com/b", Title: "Article B headline", Body: "body b", PublishedAt: now},
	}}
	adapterB := &fakeAdapter{name: "b", articles: []core.RawArticle{
		{URL: "https://example.com/b", Title: "Article B duplicate", Body: "body b", PublishedAt: now},
	}}
	adapterC := &fakeAdapter{name: "c", articles: []core.RawArticle{
		{URL: "https://example.com/c", Title: "Article C headline", Body: "body c", PublishedAt: now},
	}}

	orchestrator := sources.NewOrchestrator([]sources.Adapter{adapterA, adapterB, adapterC}, nil, sources.DefaultFetchOptions())
	enricher := newTestEnricher(map[string]int{
		"https://example.com/a": 80,
		"https://example.com/b": 40,
		"https://example.com/c": 60,
	})
	repository := &recordingRepo{}

	p := NewPipeline(orchestrator, &fakeExtractor{}, enricher, repository, DefaultConfig())
	summary, err := p.Run(context.Background(), 30, true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.TotalFetched != 3 {
		t.Errorf("expected total_fetched=3, got %d", summary.TotalFetched)
	}
	if summary.TotalEnriched != 2 {
		t.Errorf("expected total_enriched=2, got %d", summary.TotalEnriched)
	}
	if summary.Filtered != 1 {
		t.Errorf("expected filtered=1, got %d", summary.Filtered)
	}
	if summary.Saved != 2 {
		t.Errorf("expected saved=2, got %d", summary.Saved)
	}
	if summary.Errors != 0 {
		t.Errorf("expected errors=0, got %d", summary.Errors)
	}
	if len(repository.articles) != 2 {
		t.Errorf("expected 2 persisted articles, got %d", len(repository.articles))
	}
}

func TestRunWithoutPersist(t *testing.T) {
	now := time.Now().UTC()
	adapter := &fakeAdapter{name: "a", articles: []core.RawArticle{
		{URL: "https://example.com/a", Title: "Article A headline", Body: "body a", PublishedAt: now},
	}}

	orchestrator := sources.NewOrchestrator([]sources.Adapter{adapter}, nil, sources.DefaultFetchOptions())
	enricher := newTestEnricher(map[string]int{"https://example.com/a": 90})
	repository := &recordingRepo{}

	p := NewPipeline(orchestrator, &fakeExtractor{}, enricher, repository, DefaultConfig())
	summary, err := p.Run(context.Background(), 30, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Saved != 0 {
		t.Errorf("expected saved=0 without persist, got %d", summary.Saved)
	}
	if len(repository.articles) != 0 {
		t.Errorf("expected repository untouched, got %d writes", len(repository.articles))
	}
}

func TestRunNoAdaptersIsFatal(t *testing.T) {
	orchestrator := sources.NewOrchestrator(nil, nil, sources.DefaultFetchOptions())
	p := NewPipeline(orchestrator, &fakeExtractor{}, newTestEnricher(nil), &recordingRepo{}, DefaultConfig())

	if _, err := p.Run(context.Background(), 30, false); err == nil {
		t.Fatal("expected error with no registered adapters")
	}
}

func TestRunZeroArticlesReturnsSummary(t *testing.T) {
	adapter := &fakeAdapter{name: "empty"}
	orchestrator := sources.NewOrchestrator([]sources.Adapter{adapter}, nil, sources.DefaultFetchOptions())
	p := NewPipeline(orchestrator, &fakeExtractor{}, newTestEnricher(nil), &recordingRepo{}, DefaultConfig())

	summary, err := p.Run(context.Background(), 30, true)
	if err != nil {
		t.Fatalf("expected zero articles to be a normal run, got %v", err)
	}
	if summary.TotalFetched != 0 || summary.TotalEnriched != 0 || summary.Saved != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestRunAgeFilter(t *testing.T) {
	now := time.Now().UTC()
	adapter := &fakeAdapter{name: "a", articles: []core.RawArticle{
		{URL: "https://example.com/fresh", Title: "Fresh article headline", Body: "body", PublishedAt: now.Add(-2 * time.Hour)},
		{URL: "https://example.com/stale", Title: "Stale article headline", Body: "body stale", PublishedAt: now.Add(-72 * time.Hour)},
		{URL: "https://example.com/undated", Title: "Undated article headline", Body: "body undated"},
	}}

	orchestrator := sources.NewOrchestrator([]sources.Adapter{adapter}, nil, sources.DefaultFetchOptions())
	enricher := newTestEnricher(map[string]int{
		"https://example.com/fresh":   90,
		"https://example.com/stale":   90,
		"https://example.com/undated": 90,
	})

	p := NewPipeline(orchestrator, &fakeExtractor{}, enricher, &recordingRepo{}, DefaultConfig())
	summary, err := p.Run(context.Background(), 30, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Stale dropped, undated kept.
	if summary.TotalEnriched != 2 {
		t.Errorf("expected 2 enriched (fresh + undated), got %d", summary.TotalEnriched)
	}
}

func TestRunPrepTitleFilter(t *testing.T) {
	now := time.Now().UTC()
	adapter := &fakeAdapter{name: "a", articles: []core.RawArticle{
		{URL: "https://example.com/news", Title: "Parliament clears the data bill", Body: "body", PublishedAt: now},
		{URL: "https://example.com/prep", Title: "UPSC Key Terms of the week", Body: "body prep", PublishedAt: now},
		{URL: "https://example.com/quiz", Title: "UPSC Quiz on current affairs", Body: "body quiz", PublishedAt: now},
	}}

	orchestrator := sources.NewOrchestrator([]sources.Adapter{adapter}, nil, sources.DefaultFetchOptions())
	enricher := newTestEnricher(map[string]int{
		"https://example.com/news": 90,
		"https://example.com/prep": 90,
		"https://example.com/quiz": 90,
	})

	p := NewPipeline(orchestrator, &fakeExtractor{}, enricher, &recordingRepo{}, DefaultConfig())
	summary, err := p.Run(context.Background(), 30, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.TotalEnriched != 1 {
		t.Errorf("expected only the news article enriched, got %d", summary.TotalEnriched)
	}
}

func TestRunFillsMissingBodies(t *testing.T) {
	now := time.Now().UTC()
	adapter := &fakeAdapter{name: "a", articles: []core.RawArticle{
		{URL: "https://example.com/nobody", Title: "Linked article headline", PublishedAt: now},
		{URL: "https://example.com/broken", Title: "Unreachable article headline", PublishedAt: now},
	}}

	orchestrator := sources.NewOrchestrator([]sources.Adapter{adapter}, nil, sources.DefaultFetchOptions())
	extractor := &fakeExtractor{bodies: map[string]string{
		"https://example.com/nobody": "<p>extracted body</p>",
	}}
	enricher := newTestEnricher(map[string]int{
		"https://example.com/nobody": 90,
		"https://example.com/broken": 90,
	})

	p := NewPipeline(orchestrator, extractor, enricher, &recordingRepo{}, DefaultConfig())
	summary, err := p.Run(context.Background(), 30, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.TotalEnriched != 1 {
		t.Errorf("expected the extractable article enriched and the broken one dropped, got %d", summary.TotalEnriched)
	}
	if summary.Filtered != 1 {
		t.Errorf("expected filtered=1, got %d", summary.Filtered)
	}
}
