package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"currents/internal/core"
)

// rss represents an RSS feed structure
type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Creator     string `xml:"creator"`
}

// atom represents an Atom feed structure
type atom struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Link      []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// RSSAdapter fetches one RSS/Atom feed and maps its items to raw
// articles tagged with the configured site and section. Bodies stay
// empty; the extraction engine fills them later.
type RSSAdapter struct {
	name      string
	site      string
	section   string
	feedURL   string
	userAgent string
	ttl       time.Duration
	client    *http.Client
}

// NewRSSAdapter creates an adapter for one feed. A positive ttl makes
// the adapter cacheable by the orchestrator.
func NewRSSAdapter(name, site, section, feedURL, userAgent string, ttl time.Duration) *RSSAdapter {
	return &RSSAdapter{
		name:      name,
		site:      site,
		section:   section,
		feedURL:   feedURL,
		userAgent: userAgent,
		ttl:       ttl,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Adapter.
func (a *RSSAdapter) Name() string { return a.name }

// CacheTTL implements Cacheable.
func (a *RSSAdapter) CacheTTL() time.Duration { return a.ttl }

// Fetch downloads and parses the feed.
func (a *RSSAdapter) Fetch(ctx context.Context) ([]core.RawArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	articles, err := a.parse(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", a.feedURL, err)
	}
	return articles, nil
}

// parse tries RSS first, then Atom.
func (a *RSSAdapter) parse(payload []byte) ([]core.RawArticle, error) {
	var r rss
	if err := xml.Unmarshal(payload, &r); err == nil && len(r.Channel.Items) > 0 {
		articles := make([]core.RawArticle, 0, len(r.Channel.Items))
		for _, item := range r.Channel.Items {
			articles = append(articles, core.RawArticle{
				URL:         item.Link,
				Title:       item.Title,
				Author:      item.Creator,
				PublishedAt: parseFeedDate(item.PubDate),
				SourceSite:  a.site,
				Section:     a.section,
			})
		}
		return articles, nil
	}

	var f atom
	if err := xml.Unmarshal(payload, &f); err == nil && len(f.Entries) > 0 {
		articles := make([]core.RawArticle, 0, len(f.Entries))
		for _, entry := range f.Entries {
			var link string
			for _, l := range entry.Link {
				if l.Rel == "" || l.Rel == "alternate" {
					link = l.Href
					break
				}
			}
			published := entry.Published
			if published == "" {
				published = entry.Updated
			}
			articles = append(articles, core.RawArticle{
				URL:         link,
				Title:       entry.Title,
				PublishedAt: parseFeedDate(published),
				SourceSite:  a.site,
				Section:     a.section,
			})
		}
		return articles, nil
	}

	return nil, fmt.Errorf("unable to parse as RSS or Atom feed")
}

var feedDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// parseFeedDate tries the date formats feeds actually use. An
// unparseable date comes back as the zero value; the pipeline's age
// filter stamps those.
func parseFeedDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
