package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Explained</title>
    <item>
      <title>How the new data bill changes compliance</title>
      <link>https://example.com/explained/data-bill</link>
      <description>A look at the bill.</description>
      <pubDate>Mon, 31 Aug 2026 09:15:00 +0530</pubDate>
    </item>
    <item>
      <title>Monsoon outlook for the sowing season</title>
      <link>https://example.com/explained/monsoon</link>
      <pubDate>Sun, 30 Aug 2026 18:00:00 +0530</pubDate>
    </item>
  </channel>
</rss>`

const sampleAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Editorials</title>
  <entry>
    <title>On fiscal federalism</title>
    <link rel="alternate" href="https://example.com/editorial/fiscal"/>
    <published>2026-08-31T06:00:00Z</published>
  </entry>
</feed>`

func TestRSSAdapterParsesRSS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "Currents/1.0" {
			t.Errorf("expected User-Agent header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	adapter := NewRSSAdapter("test-feed", "indianexpress", "explained", server.URL, "Currents/1.0", 0)
	articles, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	first := articles[0]
	if first.URL != "https://example.com/explained/data-bill" {
		t.Errorf("unexpected URL: %s", first.URL)
	}
	if first.Title != "How the new data bill changes compliance" {
		t.Errorf("unexpected title: %s", first.Title)
	}
	if first.SourceSite != "indianexpress" || first.Section != "explained" {
		t.Errorf("expected site/section tagging, got %s/%s", first.SourceSite, first.Section)
	}
	if first.PublishedAt.IsZero() {
		t.Error("expected parsed publication date")
	}
	if first.Body != "" {
		t.Errorf("expected empty body from feed, got %q", first.Body)
	}
}

func TestRSSAdapterParsesAtom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleAtom))
	}))
	defer server.Close()

	adapter := NewRSSAdapter("atom-feed", "hindu", "editorial", server.URL, "", 0)
	articles, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].URL != "https://example.com/editorial/fiscal" {
		t.Errorf("unexpected URL: %s", articles[0].URL)
	}
	want := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)
	if !articles[0].PublishedAt.Equal(want) {
		t.Errorf("expected %v, got %v", want, articles[0].PublishedAt)
	}
}

func TestRSSAdapterRejectsNonFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>not a feed</body></html>"))
	}))
	defer server.Close()

	adapter := NewRSSAdapter("bad", "site", "section", server.URL, "", 0)
	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected parse error for non-feed payload")
	}
}

func TestRSSAdapterStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewRSSAdapter("down", "site", "section", server.URL, "", 0)
	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestParseFeedDateFormats(t *testing.T) {
	cases := []string{
		"Mon, 31 Aug 2026 09:15:00 +0530",
		"Mon, 31 Aug 2026 09:15:00 GMT",
		"2026-08-31T09:15:00Z",
		"2026-08-31T09:15:00+05:30",
	}
	for _, value := range cases {
		if parseFeedDate(value).IsZero() {
			t.Errorf("failed to parse %q", value)
		}
	}
	if !parseFeedDate("garbage").IsZero() {
		t.Error("expected zero time for unparseable date")
	}
	if !parseFeedDate("").IsZero() {
		t.Error("expected zero time for empty date")
	}
}
