package repo

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"currents/internal/core"
)

// Column bounds enforced before any write.
const (
	maxTitleLen   = 500
	maxSourceLen  = 100
	maxURLLen     = 500
	maxGSPaperLen = 10
)

// row is the flat persisted form of an enriched article.
type row struct {
	URL              string
	Title            string
	Source           string
	Section          string
	Category         string
	GSPaper          string
	Relevance        int
	FactualScore     int
	AnalyticalScore  int
	Importance       string
	Status           string
	ProcessingStatus string
	CardJSON         string
	TagsJSON         string
	ContentHash      string
	PublishedAt      time.Time
	EnrichedAt       time.Time
}

// mapRow validates and normalizes one article into its persisted form:
// strings truncated to column bounds, scores clamped to [0,100], tags
// coerced to a JSON list even when empty.
func mapRow(article core.EnrichedArticle) (row, error) {
	if article.Article.URL == "" {
		return row{}, fmt.Errorf("article has no URL")
	}
	if article.Card.Headline == "" {
		return row{}, fmt.Errorf("article %s has no card headline", article.Article.URL)
	}

	cardJSON, err := json.Marshal(article.Card)
	if err != nil {
		return row{}, fmt.Errorf("failed to encode card for %s: %w", article.Article.URL, err)
	}

	tags := article.Score.Keywords
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return row{}, fmt.Errorf("failed to encode tags for %s: %w", article.Article.URL, err)
	}

	title := article.Article.Title
	if title == "" {
		title = article.Card.Headline
	}

	return row{
		URL:              truncate(article.Article.URL, maxURLLen),
		Title:            truncate(title, maxTitleLen),
		Source:           truncate(article.Article.SourceSite, maxSourceLen),
		Section:          article.Article.Section,
		Category:         article.Score.Category,
		GSPaper:          truncate(article.Score.GSPaper, maxGSPaperLen),
		Relevance:        clamp(article.Score.Relevance),
		FactualScore:     clamp(article.Score.FactualScore),
		AnalyticalScore:  clamp(article.Score.AnalyticalScore),
		Importance:       article.Tier.Importance(),
		Status:           "published",
		ProcessingStatus: article.Status,
		CardJSON:         string(cardJSON),
		TagsJSON:         string(tagsJSON),
		ContentHash:      core.ContentHash(article.Article.Body),
		PublishedAt:      article.Article.PublishedAt,
		EnrichedAt:       article.EnrichedAt,
	}, nil
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
