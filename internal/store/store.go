// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists collected papers in a SQLite database. The
// schema keeps one row per paper plus a generic indexable-content table
// shared with other collectors through source_types.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-collector/internal/dedupe"
)

// UpsertOutcome reports whether an upsert created or refreshed a row.
type UpsertOutcome int

const (
	Inserted UpsertOutcome = iota
	Updated
)

func (o UpsertOutcome) String() string {
	if o == Inserted {
		return "inserted"
	}
	return "updated"
}

// PaperRecord is one row of the research_papers table.
type PaperRecord struct {
	ID        string
	Title     string
	Published time.Time
	Authors   []string
	Abstract  string
	FullText  string
	SourceURL string
	PDFURL    string
	Source    string
}

// IndexableContent is one row of the shared ai_content table.
type IndexableContent struct {
	SourceType  string
	SourceID    string
	Title       string
	Description string
	URL         string
	Content     string
	Metadata    map[string]any
	DateCreated time.Time
}

// Store wraps the collector SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath, creating parent
// directories and the schema as needed.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.EnsureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates missing tables and columns. It is idempotent and
// safe to run against a database created by an older build: columns
// added later (pdf_url, last_crawled) are bolted on when absent.
func (s *Store) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS research_papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			pub_date TEXT,
			authors TEXT,
			abstract TEXT,
			full_text TEXT,
			url TEXT,
			pdf_url TEXT,
			source_id INTEGER,
			collected_date TEXT,
			last_crawled TEXT,
			embedding BLOB
		)`,
		`CREATE TABLE IF NOT EXISTS source_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS ai_content (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_type_id INTEGER NOT NULL REFERENCES source_types(id),
			source_id TEXT NOT NULL,
			title TEXT,
			description TEXT,
			url TEXT,
			content TEXT,
			metadata TEXT,
			is_indexed INTEGER DEFAULT 0,
			date_created TEXT,
			date_collected TEXT,
			UNIQUE(source_type_id, source_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_research_papers_last_crawled
			ON research_papers(last_crawled)`,
		`INSERT OR IGNORE INTO source_types (name) VALUES ('arxiv'), ('web'), ('research_paper')`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	for _, col := range []string{"pdf_url TEXT", "last_crawled TEXT"} {
		if err := s.addColumnIfMissing("research_papers", col); err != nil {
			return err
		}
	}
	for _, col := range []string{"description TEXT", "url TEXT", "date_created TEXT", "date_collected TEXT"} {
		if err := s.addColumnIfMissing("ai_content", col); err != nil {
			return err
		}
	}
	return nil
}

// addColumnIfMissing adds a column to table when an older schema lacks it.
func (s *Store) addColumnIfMissing(table, colDef string) error {
	name := colDef
	for i, c := range colDef {
		if c == ' ' {
			name = colDef[:i]
			break
		}
	}

	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("reading schema of %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			colName string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scanning schema of %s: %w", table, err)
		}
		if colName == name {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading schema of %s: %w", table, err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, colDef)); err != nil {
		return fmt.Errorf("adding column %s to %s: %w", name, table, err)
	}
	return nil
}

// SourceTypeID returns the ID for a source type name, creating the row
// if it does not exist.
func (s *Store) SourceTypeID(name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM source_types WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up source type %q: %w", name, err)
	}

	res, err := s.db.Exec(`INSERT INTO source_types (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("creating source type %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("creating source type %q: %w", name, err)
	}
	return id, nil
}

// HasPaper reports whether a paper ID already exists in the database.
func (s *Store) HasPaper(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM research_papers WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking paper %s: %w", id, err)
	}
	return n > 0, nil
}

// UpsertPaper inserts a new paper row or refreshes an existing one.
// The ID and collected_date never change after insert; last_crawled is
// bumped to the current time on every call.
func (s *Store) UpsertPaper(rec PaperRecord) (UpsertOutcome, error) {
	authors, err := json.Marshal(rec.Authors)
	if err != nil {
		return Inserted, fmt.Errorf("encoding authors for %s: %w", rec.ID, err)
	}

	sourceID, err := s.SourceTypeID(sourceTypeName(rec.Source))
	if err != nil {
		return Inserted, err
	}

	exists, err := s.HasPaper(rec.ID)
	if err != nil {
		return Inserted, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	pubDate := ""
	if !rec.Published.IsZero() {
		pubDate = rec.Published.UTC().Format("2006-01-02")
	}

	if exists {
		_, err = s.db.Exec(`
			UPDATE research_papers
			SET title = ?, pub_date = ?, authors = ?, abstract = ?,
				full_text = ?, url = ?, pdf_url = ?, source_id = ?, last_crawled = ?
			WHERE id = ?`,
			rec.Title, pubDate, string(authors), rec.Abstract,
			rec.FullText, rec.SourceURL, rec.PDFURL, sourceID, now, rec.ID)
		if err != nil {
			return Updated, fmt.Errorf("updating paper %s: %w", rec.ID, err)
		}
		return Updated, nil
	}

	_, err = s.db.Exec(`
		INSERT INTO research_papers
			(id, title, pub_date, authors, abstract, full_text, url, pdf_url,
			 source_id, collected_date, last_crawled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, pubDate, string(authors), rec.Abstract,
		rec.FullText, rec.SourceURL, rec.PDFURL, sourceID, now, now)
	if err != nil {
		return Inserted, fmt.Errorf("inserting paper %s: %w", rec.ID, err)
	}
	return Inserted, nil
}

// GetPaper loads one paper row by ID.
func (s *Store) GetPaper(id string) (PaperRecord, error) {
	var (
		rec     PaperRecord
		pubDate sql.NullString
		authors sql.NullString
		source  sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT p.id, p.title, p.pub_date, p.authors, p.abstract,
			p.full_text, p.url, p.pdf_url, st.name
		FROM research_papers p
		LEFT JOIN source_types st ON st.id = p.source_id
		WHERE p.id = ?`, id).Scan(
		&rec.ID, &rec.Title, &pubDate, &authors, &rec.Abstract,
		&rec.FullText, &rec.SourceURL, &rec.PDFURL, &source)
	if err != nil {
		return PaperRecord{}, fmt.Errorf("loading paper %s: %w", id, err)
	}

	if pubDate.Valid && pubDate.String != "" {
		if t, perr := time.Parse("2006-01-02", pubDate.String); perr == nil {
			rec.Published = t
		}
	}
	if authors.Valid && authors.String != "" {
		if jerr := json.Unmarshal([]byte(authors.String), &rec.Authors); jerr != nil {
			return PaperRecord{}, fmt.Errorf("decoding authors for %s: %w", id, jerr)
		}
	}
	rec.Source = source.String
	return rec, nil
}

// UpsertIndexable inserts or refreshes a row in the shared ai_content
// table, resetting is_indexed so downstream indexing picks it up again.
func (s *Store) UpsertIndexable(c IndexableContent) error {
	typeID, err := s.SourceTypeID(c.SourceType)
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", c.SourceID, err)
	}

	var created string
	if !c.DateCreated.IsZero() {
		created = c.DateCreated.Format("2006-01-02")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`
		INSERT INTO ai_content (source_type_id, source_id, title, description, url, content, metadata, is_indexed, date_created, date_collected)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(source_type_id, source_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			url = excluded.url,
			content = excluded.content,
			metadata = excluded.metadata,
			is_indexed = 0,
			date_collected = excluded.date_collected`,
		typeID, c.SourceID, c.Title, c.Description, c.URL, c.Content, string(metadata), created, now)
	if err != nil {
		return fmt.Errorf("upserting content for %s: %w", c.SourceID, err)
	}
	return nil
}

// RecentPapers returns up to n of the most recently crawled papers as
// comparison records for duplicate detection.
func (s *Store) RecentPapers(n int) ([]dedupe.Record, error) {
	rows, err := s.db.Query(`
		SELECT id, title, full_text
		FROM research_papers
		ORDER BY last_crawled DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("listing recent papers: %w", err)
	}
	defer rows.Close()

	var records []dedupe.Record
	for rows.Next() {
		var (
			rec  dedupe.Record
			text sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &text); err != nil {
			return nil, fmt.Errorf("scanning recent paper: %w", err)
		}
		rec.Text = text.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing recent papers: %w", err)
	}
	return records, nil
}

// CountPapers returns the total number of stored papers.
func (s *Store) CountPapers() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM research_papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// sourceTypeName maps a paper source to a source_types name, defaulting
// to arxiv for legacy records without one.
func sourceTypeName(source string) string {
	if source == "" {
		return "arxiv"
	}
	return source
}
