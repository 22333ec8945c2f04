package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

// Strategy attempts to produce an article candidate for a URL. Each
// strategy owns its transport and fetches independently, so a slow or
// failing strategy never taints the next one.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, url string) (candidate, error)
}

// candidate is a raw extraction result before sanitization and gating.
type candidate struct {
	title string
	body  string // HTML or plain text depending on strategy
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func fetchHTML(ctx context.Context, client *http.Client, userAgent, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	return string(body), nil
}

// extractTitle tries common title locations in priority order:
// head title, og:title, first h1.
func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("head title").First().Text())
	if title != "" {
		return title
	}

	ogTitle, _ := doc.Find("meta[property='og:title']").Attr("content")
	if strings.TrimSpace(ogTitle) != "" {
		return strings.TrimSpace(ogTitle)
	}

	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// preClean removes non-content elements before readability parsing.
func preClean(doc *goquery.Document) {
	doc.Find("script, style, noscript, nav, header, footer, aside, form, iframe").Remove()
	doc.Find("[class*='social'], [class*='share'], [class*='comment'], [id*='comment']").Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("style")
		s.RemoveAttr("onclick")
		s.RemoveAttr("onload")
		s.RemoveAttr("onerror")
	})
}

// readabilityStrategy runs go-readability over a pre-cleaned document.
type readabilityStrategy struct {
	client    *http.Client
	userAgent string
}

func newReadabilityStrategy(timeout time.Duration, userAgent string) *readabilityStrategy {
	return &readabilityStrategy{client: newHTTPClient(timeout), userAgent: userAgent}
}

func (s *readabilityStrategy) Name() string { return "readability" }

func (s *readabilityStrategy) Extract(ctx context.Context, url string) (candidate, error) {
	html, err := fetchHTML(ctx, s.client, s.userAgent, url)
	if err != nil {
		return candidate{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return candidate{}, fmt.Errorf("failed to parse HTML from %s: %w", url, err)
	}
	title := extractTitle(doc)
	preClean(doc)

	cleaned, err := doc.Html()
	if err != nil || cleaned == "" {
		cleaned = html
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), nil)
	if err != nil {
		return candidate{}, fmt.Errorf("readability failed for %s: %w", url, err)
	}

	var htmlBuf strings.Builder
	if err := article.RenderHTML(&htmlBuf); err != nil {
		return candidate{}, fmt.Errorf("readability render failed for %s: %w", url, err)
	}

	body := strings.TrimSpace(htmlBuf.String())
	if body == "" {
		return candidate{}, fmt.Errorf("readability produced no content for %s", url)
	}
	return candidate{title: title, body: body}, nil
}

// selectorStrategy scrapes content out of common article containers.
type selectorStrategy struct {
	client    *http.Client
	userAgent string
}

func newSelectorStrategy(timeout time.Duration, userAgent string) *selectorStrategy {
	return &selectorStrategy{client: newHTTPClient(timeout), userAgent: userAgent}
}

func (s *selectorStrategy) Name() string { return "selector" }

var contentSelectors = []string{
	"article", "main", ".main-content", ".entry-content", ".post-content",
	".post-body", ".article-body", "[role='main']", ".content", "#content",
}

func (s *selectorStrategy) Extract(ctx context.Context, url string) (candidate, error) {
	html, err := fetchHTML(ctx, s.client, s.userAgent, url)
	if err != nil {
		return candidate{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return candidate{}, fmt.Errorf("failed to parse HTML from %s: %w", url, err)
	}
	title := extractTitle(doc)
	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript").Remove()

	var bodyBuilder strings.Builder
	for _, selector := range contentSelectors {
		doc.Find(selector).First().Find("p, h2, h3, h4, li, blockquote").Each(func(_ int, item *goquery.Selection) {
			text := strings.TrimSpace(item.Text())
			if text == "" {
				return
			}
			tag := goquery.NodeName(item)
			bodyBuilder.WriteString("<" + tag + ">" + text + "</" + tag + ">\n")
		})
		if bodyBuilder.Len() > 0 {
			break
		}
	}

	if bodyBuilder.Len() == 0 {
		return candidate{}, fmt.Errorf("no content selector matched for %s", url)
	}
	return candidate{title: title, body: bodyBuilder.String()}, nil
}

// plainTextStrategy strips the whole page down to text paragraphs. Last
// resort: low structure, but it keeps articles alive on hostile markup.
type plainTextStrategy struct {
	client    *http.Client
	userAgent string
	sanitizer *Sanitizer
}

func newPlainTextStrategy(timeout time.Duration, userAgent string, sanitizer *Sanitizer) *plainTextStrategy {
	return &plainTextStrategy{client: newHTTPClient(timeout), userAgent: userAgent, sanitizer: sanitizer}
}

func (s *plainTextStrategy) Name() string { return "plaintext" }

func (s *plainTextStrategy) Extract(ctx context.Context, url string) (candidate, error) {
	html, err := fetchHTML(ctx, s.client, s.userAgent, url)
	if err != nil {
		return candidate{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return candidate{}, fmt.Errorf("failed to parse HTML from %s: %w", url, err)
	}
	title := extractTitle(doc)
	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript").Remove()

	var paragraphs []string
	doc.Find("p, h2, h3, li, blockquote").Each(func(_ int, item *goquery.Selection) {
		text := strings.TrimSpace(item.Text())
		if text != "" {
			paragraphs = append(paragraphs, "<p>"+text+"</p>")
		}
	})

	if len(paragraphs) == 0 {
		text := s.sanitizer.StripTags(html)
		if text == "" {
			return candidate{}, fmt.Errorf("no text content in %s", url)
		}
		return candidate{title: title, body: "<p>" + text + "</p>"}, nil
	}
	return candidate{title: title, body: strings.Join(paragraphs, "\n")}, nil
}
