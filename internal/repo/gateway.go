// Package repo persists enriched articles to SQLite through a dedup-aware
// gateway with a bulk write path and per-row fallback.
package repo

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"currents/internal/core"
	"currents/internal/logger"
)

// Stats summarizes the outcome of a write batch.
type Stats struct {
	Saved      int
	Duplicates int
	Errors     int
}

// Gateway is the SQLite article repository.
type Gateway struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// NewGateway opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewGateway(dbPath string) (*Gateway, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	g := &Gateway{db: db, path: dbPath, log: logger.Get()}
	if err := g.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return g, nil
}

// initialize creates the necessary tables
func (g *Gateway) initialize() error {
	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		url TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		source TEXT,
		section TEXT,
		category TEXT,
		gs_paper TEXT,
		relevance INTEGER,
		factual_score INTEGER,
		analytical_score INTEGER,
		importance TEXT,
		status TEXT,
		processing_status TEXT,
		card TEXT,
		tags TEXT,
		content_hash TEXT,
		published_at DATETIME,
		enriched_at DATETIME
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_content_hash ON articles (content_hash);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_enriched_at ON articles (enriched_at);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles (source);`,
	}

	if _, err := g.db.Exec(articlesTable); err != nil {
		return fmt.Errorf("failed to create articles table: %w", err)
	}
	for _, idx := range indexes {
		if _, err := g.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (g *Gateway) Close() error {
	return g.db.Close()
}

const insertQuery = `
INSERT OR REPLACE INTO articles
(url, title, source, section, category, gs_paper, relevance, factual_score,
 analytical_score, importance, status, processing_status, card, tags,
 content_hash, published_at, enriched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Upsert writes one article. An existing row with the same content hash
// or URL makes it a duplicate, which is skipped, not an error.
func (g *Gateway) Upsert(article core.EnrichedArticle) (saved bool, duplicate bool, err error) {
	r, err := mapRow(article)
	if err != nil {
		return false, false, err
	}

	dup, err := g.isDuplicate(r)
	if err != nil {
		return false, false, err
	}
	if dup {
		g.log.Debug("Skipping duplicate article", "url", r.URL)
		return false, true, nil
	}

	if _, err := g.db.Exec(insertQuery, rowArgs(r)...); err != nil {
		return false, false, fmt.Errorf("failed to insert article %s: %w", r.URL, err)
	}
	return true, false, nil
}

// BulkUpsert writes a batch in one transaction. A failed transaction, or
// zero rows written for non-empty input, falls back to per-row writes so
// a single malformed row cannot blank the whole batch.
func (g *Gateway) BulkUpsert(articles []core.EnrichedArticle) Stats {
	stats := Stats{}
	if len(articles) == 0 {
		return stats
	}

	rows := make([]row, 0, len(articles))
	valid := make([]core.EnrichedArticle, 0, len(articles))
	for _, article := range articles {
		r, err := mapRow(article)
		if err != nil {
			stats.Errors++
			g.log.Warn("Dropping unmappable article", "error", err.Error())
			continue
		}
		rows = append(rows, r)
		valid = append(valid, article)
	}
	if len(rows) == 0 {
		return stats
	}

	bulkStats, err := g.bulkInsert(rows)
	if err == nil && (bulkStats.Saved > 0 || bulkStats.Duplicates == len(rows)) {
		stats.Saved += bulkStats.Saved
		stats.Duplicates += bulkStats.Duplicates
		return stats
	}
	if err != nil {
		g.log.Warn("Bulk insert failed, falling back to individual writes", "error", err.Error())
	} else {
		g.log.Warn("Bulk insert wrote no rows, falling back to individual writes", "rows", len(rows))
	}

	for _, article := range valid {
		saved, duplicate, err := g.Upsert(article)
		switch {
		case err != nil:
			stats.Errors++
			g.log.Error("Individual insert failed", "error", err.Error(), "url", article.Article.URL)
		case duplicate:
			stats.Duplicates++
		case saved:
			stats.Saved++
		}
	}
	return stats
}

func (g *Gateway) bulkInsert(rows []row) (Stats, error) {
	stats := Stats{}

	tx, err := g.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, r := range rows {
		var dup bool
		dup, err = g.isDuplicateTx(tx, r)
		if err != nil {
			return Stats{}, err
		}
		if dup {
			stats.Duplicates++
			continue
		}
		if _, err = tx.Exec(insertQuery, rowArgs(r)...); err != nil {
			err = fmt.Errorf("failed to insert article %s: %w", r.URL, err)
			return Stats{}, err
		}
		stats.Saved++
	}

	if err = tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stats, nil
}

const duplicateQuery = `SELECT COUNT(1) FROM articles WHERE content_hash = ? OR url = ?`

func (g *Gateway) isDuplicate(r row) (bool, error) {
	var count int
	if err := g.db.QueryRow(duplicateQuery, r.ContentHash, r.URL).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check duplicates for %s: %w", r.URL, err)
	}
	return count > 0, nil
}

func (g *Gateway) isDuplicateTx(tx *sql.Tx, r row) (bool, error) {
	var count int
	if err := tx.QueryRow(duplicateQuery, r.ContentHash, r.URL).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check duplicates for %s: %w", r.URL, err)
	}
	return count > 0, nil
}

func rowArgs(r row) []any {
	return []any{
		r.URL, r.Title, r.Source, r.Section, r.Category, r.GSPaper,
		r.Relevance, r.FactualScore, r.AnalyticalScore, r.Importance,
		r.Status, r.ProcessingStatus, r.CardJSON, r.TagsJSON,
		r.ContentHash, r.PublishedAt, r.EnrichedAt,
	}
}

// ArticleRecord is the reporting view of one persisted article.
type ArticleRecord struct {
	URL        string
	Title      string
	Source     string
	GSPaper    string
	Relevance  int
	Importance string
	EnrichedAt time.Time
}

// CountByDate returns the number of articles enriched on the given day.
func (g *Gateway) CountByDate(date time.Time) (int, error) {
	var count int
	err := g.db.QueryRow(
		`SELECT COUNT(1) FROM articles WHERE date(enriched_at) = date(?)`,
		date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// GetByDate returns the articles enriched on the given day, highest
// relevance first.
func (g *Gateway) GetByDate(date time.Time) ([]ArticleRecord, error) {
	rows, err := g.db.Query(
		`SELECT url, title, source, gs_paper, relevance, importance, enriched_at
		 FROM articles WHERE date(enriched_at) = date(?)
		 ORDER BY relevance DESC, url`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var records []ArticleRecord
	for rows.Next() {
		var r ArticleRecord
		if err := rows.Scan(&r.URL, &r.Title, &r.Source, &r.GSPaper, &r.Relevance, &r.Importance, &r.EnrichedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SourceBreakdown returns the article count per source.
func (g *Gateway) SourceBreakdown() (map[string]int, error) {
	rows, err := g.db.Query(`SELECT source, COUNT(1) FROM articles GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to query source breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		breakdown[source] = count
	}
	return breakdown, rows.Err()
}
