package extract

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer normalizes extracted article HTML down to a fixed allow-list
// of structural and inline elements. Scripts, iframes, styles, and event
// handler attributes never survive. Newlines inside text nodes are kept.
type Sanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer with the article policy.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote",
		"strong", "em", "b", "i", "a", "br",
		"table", "thead", "tbody", "tr", "td", "th",
	)
	p.AllowAttrs("href", "title").OnElements("a")

	return &Sanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize returns html reduced to the allow-list, trimmed.
func (s *Sanitizer) Sanitize(html string) string {
	return strings.TrimSpace(s.policy.Sanitize(html))
}

// StripTags removes every tag and returns plain text.
func (s *Sanitizer) StripTags(html string) string {
	return strings.TrimSpace(s.strict.Sanitize(html))
}
