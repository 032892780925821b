// Package storage persists crawl output. It implements a SQLite-backed page
// store that the crawler uses as its result sink.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kumocrawl/kumo/internal/crawler"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// SQLiteStore implements crawler.PageSink on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// PageSummary is one row of the post-crawl page listing.
type PageSummary struct {
	URL        string
	Size       int64
	StatusCode int
	Depth      int
	CrawledAt  time.Time
}

// NewSQLiteStore opens or creates the page database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts between workers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SavePage stores one fetched page, replacing any previous row for the URL.
func (s *SQLiteStore) SavePage(page *crawler.PageRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO pages
			(url, body, status_code, depth, ttfb_ms, download_time_ms, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, page.URL, page.Body, page.StatusCode, page.Depth,
		page.TTFB.Milliseconds(), page.DownloadTime.Milliseconds(), page.CrawledAt)

	if err != nil {
		return fmt.Errorf("failed to save page %s: %w", page.URL, err)
	}
	return nil
}

// GetPage returns the stored body for url, or sql.ErrNoRows if absent.
func (s *SQLiteStore) GetPage(url string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM pages WHERE url = ?`, url).Scan(&body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// PageCount reports the number of stored pages.
func (s *SQLiteStore) PageCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// ListPages returns a summary of every stored page, oldest first.
func (s *SQLiteStore) ListPages() ([]PageSummary, error) {
	rows, err := s.db.Query(`
		SELECT url, LENGTH(body), status_code, depth, crawled_at
		FROM pages
		ORDER BY crawled_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []PageSummary
	for rows.Next() {
		var p PageSummary
		if err := rows.Scan(&p.URL, &p.Size, &p.StatusCode, &p.Depth, &p.CrawledAt); err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
