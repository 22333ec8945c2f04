package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RawArticle represents an article as delivered by a source adapter,
// before extraction or enrichment.
type RawArticle struct {
	URL         string    `json:"url"`          // Canonical article URL (identity for dedup)
	Title       string    `json:"title"`        // Headline as reported by the source
	Body        string    `json:"body"`         // Full text if the adapter already has it (can be empty)
	Author      string    `json:"author"`       // Byline (can be empty)
	PublishedAt time.Time `json:"published_at"` // Publication timestamp (zero value if the source had none)
	SourceSite  string    `json:"source_site"`  // Publishing site identifier (e.g., "indianexpress")
	Section     string    `json:"section"`      // Site section the article came from (e.g., "explained")
}

// ExtractedContent represents the output of the content extraction engine
// for a single URL.
type ExtractedContent struct {
	URL         string    `json:"url"`          // URL the content was extracted from
	Title       string    `json:"title"`        // Extracted title
	Body        string    `json:"body"`         // Sanitized article body
	Author      string    `json:"author"`       // Extracted byline (can be empty)
	PublishedAt time.Time `json:"published_at"` // Extracted publication timestamp (zero if unknown)
	Quality     float64   `json:"quality"`      // Quality score in [0,1]
	Strategy    string    `json:"strategy"`     // Name of the strategy that produced this content
}

// Pass1Result holds the batch-scoring output for one article.
type Pass1Result struct {
	Relevance       int      `json:"relevance"`        // Exam relevance score 0-100
	FactualScore    int      `json:"factual_score"`    // Factual density sub-score 0-100
	AnalyticalScore int      `json:"analytical_score"` // Analytical depth sub-score 0-100
	Category        string   `json:"category"`         // Broad category (polity, economy, environment, ...)
	GSPaper         string   `json:"gs_paper"`         // Primary GS paper tag (GS1..GS4)
	KeyFacts        []string `json:"key_facts"`        // Short factual statements worth retaining
	Keywords        []string `json:"keywords"`         // Topic keywords
	SyllabusTopics  []string `json:"syllabus_topics"`  // Matched syllabus topics
	Fallback        bool     `json:"fallback"`         // True when produced by the heuristic scorer, not the model
}

// KnowledgeCard is the per-article study artifact produced in pass 2.
type KnowledgeCard struct {
	Headline    string   `json:"headline"`    // One-line distilled headline
	Facts       []string `json:"facts"`       // Key facts to memorize
	Context     string   `json:"context"`     // Background context paragraph
	Connections []string `json:"connections"` // Links to related syllabus themes
	ExamAngle   string   `json:"exam_angle"`  // How the topic could be asked in the exam
	Provider    string   `json:"provider"`    // Name of the generator that produced the card
}

// ScoredArticle pairs an article with its pass 1 result.
type ScoredArticle struct {
	Article RawArticle  `json:"article"`
	Score   Pass1Result `json:"score"`
}

// EnrichedArticle is a fully enriched article ready for persistence.
type EnrichedArticle struct {
	Article    RawArticle    `json:"article"`
	Score      Pass1Result   `json:"score"`
	Card       KnowledgeCard `json:"card"`
	Tier       TriageTier    `json:"tier"`   // Triage tier assigned after pass 2
	Status     string        `json:"status"` // Processing status (premium, quality, preliminary)
	EnrichedAt time.Time     `json:"enriched_at"`
}

// TriageTier classifies how urgently an article should be studied.
type TriageTier string

const (
	TierMustKnow   TriageTier = "must_know"
	TierShouldKnow TriageTier = "should_know"
	TierGoodToKnow TriageTier = "good_to_know"
)

// Importance maps a triage tier to the persisted importance level.
func (t TriageTier) Importance() string {
	switch t {
	case TierMustKnow:
		return "high"
	case TierShouldKnow:
		return "medium"
	default:
		return "low"
	}
}

// ProcessingStatus derives the stored status from the combined sub-scores.
func ProcessingStatus(s Pass1Result) string {
	combined := s.FactualScore + s.AnalyticalScore
	switch {
	case combined >= 140:
		return "premium"
	case combined >= 100:
		return "quality"
	default:
		return "preliminary"
	}
}

// ContentHash returns the hex SHA-256 of the final article body, used for
// duplicate detection across URLs.
func ContentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// RunSummary is the result of one pipeline run.
type RunSummary struct {
	RunID         string `json:"run_id"`         // Unique identifier for this run
	TotalFetched  int    `json:"total_fetched"`  // Unique articles after fetch + dedup
	TotalEnriched int    `json:"total_enriched"` // Articles that survived enrichment with a valid card
	Filtered      int    `json:"filtered"`       // TotalFetched - TotalEnriched
	Saved         int    `json:"saved"`          // Rows written by the repository
	Errors        int    `json:"errors"`         // Stage-level errors recorded during the run
}

// RunStats carries per-stage counters for logging and the stats command.
type RunStats struct {
	AdapterErrors    int `json:"adapter_errors"`    // Adapters that returned an error
	DuplicateURLs    int `json:"duplicate_urls"`    // Articles dropped as duplicate URLs
	EmptyURLs        int `json:"empty_urls"`        // Articles dropped for missing URL
	AgeFiltered      int `json:"age_filtered"`      // Articles dropped as too old
	TitleFiltered    int `json:"title_filtered"`    // Articles dropped by the prep-title filter
	ExtractionFailed int `json:"extraction_failed"` // Articles dropped because no strategy produced usable content
	FallbackScored   int `json:"fallback_scored"`   // Articles scored by the heuristic instead of the model
	BelowThreshold   int `json:"below_threshold"`   // Articles dropped by the relevance threshold
	CardRejected     int `json:"card_rejected"`     // Articles dropped by card validation
	CardErrors       int `json:"card_errors"`       // Articles whose generator chain failed entirely
}
