// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists processing history and generated briefings in
// a local SQLite database. The processed-paper table keeps repeated
// runs from re-judging papers already seen; the briefing table keeps
// every generated digest retrievable by date.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

const dbFile = "briefings.db"

// dateLayout is the canonical date key for both tables.
const dateLayout = "2006-01-02"

// ErrNotFound is returned by LoadBriefing when no briefing exists for
// the requested date.
var ErrNotFound = errors.New("briefing not found")

// Store manages the briefing history SQLite database.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the database at dir/briefings.db, creating
// the schema if it does not exist.
func NewStore(cfg types.StorageConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage dir not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: cfg.Dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS processed_papers (
			paper_id TEXT PRIMARY KEY,
			processed_date TEXT NOT NULL,
			metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_date ON processed_papers(processed_date)`,
		`CREATE TABLE IF NOT EXISTS briefings (
			date TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			paper_count INTEGER NOT NULL,
			platforms TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IsProcessed reports whether the paper ID has been seen before.
func (s *Store) IsProcessed(paperID string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM processed_papers WHERE paper_id = ?`, paperID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying processed_papers: %w", err)
	}
	return true, nil
}

// FilterNew returns the papers not yet marked processed, preserving
// input order.
func (s *Store) FilterNew(papers []types.Paper) ([]types.Paper, error) {
	var fresh []types.Paper
	for _, p := range papers {
		seen, err := s.IsProcessed(p.ID)
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, p)
		}
	}
	return fresh, nil
}

// processedMetadata is the per-paper JSON stored alongside the ID, kept
// small on purpose: enough to identify the paper without reloading it.
type processedMetadata struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Relevant bool   `json:"relevant"`
}

// MarkProcessed records the papers as seen on the given day in one
// transaction. Re-marking an already processed paper is a no-op.
func (s *Store) MarkProcessed(papers []types.Paper, day time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO processed_papers (paper_id, processed_date, metadata) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	date := day.Format(dateLayout)
	for _, p := range papers {
		meta, err := json.Marshal(processedMetadata{
			Title:    p.Title,
			Platform: p.Platform,
			URL:      p.URL,
			Relevant: p.Relevant,
		})
		if err != nil {
			return fmt.Errorf("marshaling metadata for %s: %w", p.ID, err)
		}
		if _, err := stmt.Exec(p.ID, date, string(meta)); err != nil {
			return fmt.Errorf("inserting %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// SaveBriefing stores the briefing under its date, replacing any
// earlier briefing generated for the same day.
func (s *Store) SaveBriefing(b types.Briefing) error {
	content, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling briefing: %w", err)
	}
	platforms, err := json.Marshal(b.Platforms)
	if err != nil {
		return fmt.Errorf("marshaling platforms: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO briefings (date, content, paper_count, platforms) VALUES (?, ?, ?, ?)`,
		b.Date, string(content), len(b.Papers), string(platforms))
	if err != nil {
		return fmt.Errorf("saving briefing: %w", err)
	}
	return nil
}

// LoadBriefing retrieves the briefing for a date (YYYY-MM-DD), or
// ErrNotFound.
func (s *Store) LoadBriefing(date string) (*types.Briefing, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM briefings WHERE date = ?`, date).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying briefings: %w", err)
	}
	var b types.Briefing
	if err := json.Unmarshal([]byte(content), &b); err != nil {
		return nil, fmt.Errorf("parsing stored briefing for %s: %w", date, err)
	}
	return &b, nil
}

// LatestBriefingDate returns the date of the most recent stored
// briefing, or ErrNotFound when none exist.
func (s *Store) LatestBriefingDate() (string, error) {
	var date string
	err := s.db.QueryRow(`SELECT date FROM briefings ORDER BY date DESC LIMIT 1`).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying briefings: %w", err)
	}
	return date, nil
}

// Cleanup deletes history older than retainDays relative to now and
// returns the number of rows removed across both tables.
func (s *Store) Cleanup(retainDays int, now time.Time) (int64, error) {
	if retainDays <= 0 {
		return 0, fmt.Errorf("retain_days must be positive, got %d", retainDays)
	}
	cutoff := now.AddDate(0, 0, -retainDays).Format(dateLayout)

	var removed int64
	res, err := s.db.Exec(`DELETE FROM processed_papers WHERE processed_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning processed_papers: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		removed += n
	}

	res, err = s.db.Exec(`DELETE FROM briefings WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning briefings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		removed += n
	}
	return removed, nil
}

// Statistics summarizes the stored history.
type Statistics struct {
	ProcessedPapers int            `json:"processed_papers"`
	Briefings       int            `json:"briefings"`
	ByPlatform      map[string]int `json:"by_platform"`
	OldestProcessed string         `json:"oldest_processed,omitempty"`
	LatestBriefing  string         `json:"latest_briefing,omitempty"`
}

// Stats computes counts over both tables.
func (s *Store) Stats() (Statistics, error) {
	stats := Statistics{ByPlatform: map[string]int{}}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM processed_papers`).Scan(&stats.ProcessedPapers); err != nil {
		return stats, fmt.Errorf("counting processed_papers: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM briefings`).Scan(&stats.Briefings); err != nil {
		return stats, fmt.Errorf("counting briefings: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT json_extract(metadata, '$.platform'), COUNT(*) FROM processed_papers GROUP BY 1`)
	if err != nil {
		return stats, fmt.Errorf("grouping by platform: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var platform sql.NullString
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return stats, fmt.Errorf("scanning platform row: %w", err)
		}
		if platform.Valid && platform.String != "" {
			stats.ByPlatform[platform.String] = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var oldest sql.NullString
	if err := s.db.QueryRow(`SELECT MIN(processed_date) FROM processed_papers`).Scan(&oldest); err == nil && oldest.Valid {
		stats.OldestProcessed = oldest.String
	}
	if latest, err := s.LatestBriefingDate(); err == nil {
		stats.LatestBriefing = latest
	}
	return stats, nil
}

// Optimize compacts the database file and refreshes planner statistics.
func (s *Store) Optimize() error {
	for _, stmt := range []string{`VACUUM`, `ANALYZE`} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing %s: %w", stmt, err)
		}
	}
	return nil
}
