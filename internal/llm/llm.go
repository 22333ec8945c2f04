// Package llm provides the Gemini-backed scoring and card generation
// providers used by the enrichment engine.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"google.golang.org/genai"

	"currents/internal/core"
)

const (
	// DefaultModel is the default Gemini model for scoring and cards.
	DefaultModel = "gemini-2.0-flash"
	// DefaultFallbackModel serves card generation when the primary model fails.
	DefaultFallbackModel = "gemini-1.5-flash"
)

// Client wraps the Gemini SDK for one model.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
}

// NewClient creates a new LLM client.
// It supports multiple ways to get the API key (in order of preference):
// 1. Environment variable: GEMINI_API_KEY (or alternatives)
// 2. Viper configuration: ai.gemini.api_key
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("ai.gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:    apiKey,
		modelName: modelName,
		gClient:   gClient,
	}, nil
}

// ModelName returns the model this client talks to.
func (c *Client) ModelName() string { return c.modelName }

// generateContent wraps the SDK's GenerateContent call for one prompt.
func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// stripFences removes markdown code fences models sometimes wrap JSON in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}

// BatchScorer scores article batches with one model call per batch.
type BatchScorer struct {
	client *Client
}

// NewBatchScorer creates a scorer over the given client.
func NewBatchScorer(client *Client) *BatchScorer {
	return &BatchScorer{client: client}
}

type scoringInput struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Excerpt string `json:"excerpt"`
}

type scoringOutput struct {
	Index           int      `json:"index"`
	Relevance       int      `json:"relevance"`
	FactualScore    int      `json:"factual_score"`
	AnalyticalScore int      `json:"analytical_score"`
	Category        string   `json:"category"`
	GSPaper         string   `json:"gs_paper"`
	KeyFacts        []string `json:"key_facts"`
	Keywords        []string `json:"keywords"`
	SyllabusTopics  []string `json:"syllabus_topics"`
}

// ScoreBatch sends one indexed JSON request for the whole batch and maps
// the responses back by index. A response that cannot be parsed fails the
// batch so the caller can fall back.
func (s *BatchScorer) ScoreBatch(ctx context.Context, articles []core.RawArticle) (map[string]core.Pass1Result, error) {
	if len(articles) == 0 {
		return map[string]core.Pass1Result{}, nil
	}

	inputs := make([]scoringInput, len(articles))
	for i, article := range articles {
		inputs[i] = scoringInput{
			Index:   i,
			Title:   article.Title,
			Source:  article.SourceSite + "/" + article.Section,
			Excerpt: excerpt(article.Body, 1200),
		}
	}
	payload, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scoring payload: %w", err)
	}

	text, err := s.client.generateContent(ctx, fmt.Sprintf(batchScoringPromptTemplate, string(payload)))
	if err != nil {
		return nil, err
	}

	var outputs []scoringOutput
	if err := json.Unmarshal([]byte(stripFences(text)), &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	results := make(map[string]core.Pass1Result, len(outputs))
	for _, out := range outputs {
		if out.Index < 0 || out.Index >= len(articles) {
			continue
		}
		results[strings.ToLower(articles[out.Index].URL)] = core.Pass1Result{
			Relevance:       clampScore(out.Relevance),
			FactualScore:    clampScore(out.FactualScore),
			AnalyticalScore: clampScore(out.AnalyticalScore),
			Category:        out.Category,
			GSPaper:         out.GSPaper,
			KeyFacts:        out.KeyFacts,
			Keywords:        out.Keywords,
			SyllabusTopics:  out.SyllabusTopics,
		}
	}
	return results, nil
}

// CardProvider generates knowledge cards with one model call per article.
// Two providers on independent models form the fallback chain.
type CardProvider struct {
	client *Client
}

// NewCardProvider creates a card generator over the given client.
func NewCardProvider(client *Client) *CardProvider {
	return &CardProvider{client: client}
}

// Name identifies the provider by its model.
func (p *CardProvider) Name() string { return "gemini/" + p.client.modelName }

type cardOutput struct {
	Headline        string   `json:"headline"`
	Facts           []string `json:"facts"`
	Context         string   `json:"context"`
	Connections     []string `json:"connections"`
	ExamAngle       string   `json:"exam_angle"`
	Relevance       int      `json:"relevance"`
	FactualScore    int      `json:"factual_score"`
	AnalyticalScore int      `json:"analytical_score"`
}

// GenerateCard produces the card and the refreshed scores reported with it.
func (p *CardProvider) GenerateCard(ctx context.Context, article core.RawArticle, score core.Pass1Result) (core.KnowledgeCard, core.Pass1Result, error) {
	prompt := fmt.Sprintf(cardPromptTemplate,
		article.Title,
		article.SourceSite+"/"+article.Section,
		score.Relevance, score.FactualScore, score.AnalyticalScore,
		excerpt(article.Body, 6000),
	)

	text, err := p.client.generateContent(ctx, prompt)
	if err != nil {
		return core.KnowledgeCard{}, core.Pass1Result{}, err
	}

	var out cardOutput
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return core.KnowledgeCard{}, core.Pass1Result{}, fmt.Errorf("failed to parse card response: %w", err)
	}

	card := core.KnowledgeCard{
		Headline:    out.Headline,
		Facts:       out.Facts,
		Context:     out.Context,
		Connections: out.Connections,
		ExamAngle:   out.ExamAngle,
		Provider:    p.Name(),
	}
	updated := core.Pass1Result{
		Relevance:       clampScore(out.Relevance),
		FactualScore:    clampScore(out.FactualScore),
		AnalyticalScore: clampScore(out.AnalyticalScore),
	}
	return card, updated, nil
}

func excerpt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
