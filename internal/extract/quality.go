package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// QualityScore rates extracted content in [0,1] from graduated weights:
// content length (0.3), title length (0.2), paragraph count (0.3), and
// sentence count (0.2). Deterministic for identical input.
func QualityScore(title, body, text string) float64 {
	score := 0.0

	switch n := len(text); {
	case n >= 500:
		score += 0.3
	case n >= 200:
		score += 0.2
	default:
		score += 0.1
	}

	switch n := len(title); {
	case n >= 30:
		score += 0.2
	case n >= 10:
		score += 0.1
	}

	switch n := countParagraphs(body, text); {
	case n >= 3:
		score += 0.3
	case n == 2:
		score += 0.2
	default:
		score += 0.1
	}

	switch n := countSentences(text); {
	case n >= 10:
		score += 0.2
	case n >= 5:
		score += 0.1
	}

	return score
}

// countParagraphs counts structural paragraph markers in the HTML body,
// falling back to blank-line separation for plain-text bodies.
func countParagraphs(body, text string) int {
	if strings.Contains(body, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
			if n := doc.Find("p").Length(); n > 0 {
				return n
			}
		}
	}
	n := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			n++
		}
	}
	return n
}

func countSentences(text string) int {
	n := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	return n
}
