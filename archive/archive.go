// Package archive keeps a history of built digests in SQLite so they can be
// listed and re-rendered later.
package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/headlines"
)

// ErrDigestNotFound is returned when no digest has the requested ID.
var ErrDigestNotFound = errors.New("digest not found")

// Store manages archived digests using SQLite.
type Store struct {
	db *sql.DB
}

// Entry is one archived digest.
type Entry struct {
	DigestID      uuid.UUID         `json:"digest_id"`
	Title         string            `json:"title"`
	CreatedAt     time.Time         `json:"created_at"`
	SiteCount     int               `json:"site_count"`
	HeadlineCount int               `json:"headline_count"`
	Digest        *headlines.Digest `json:"digest"`
}

// NewStore opens (creating if needed) the archive database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the digests table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS digests (
		digest_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL,
		site_count INTEGER NOT NULL,
		headline_count INTEGER NOT NULL,
		content TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_digests_created_at ON digests (created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives a digest under a new ID.
func (s *Store) Save(title string, d *headlines.Digest) (*Entry, error) {
	if d == nil {
		d = headlines.NewDigest()
	}

	entry := &Entry{
		DigestID:      uuid.New(),
		Title:         title,
		CreatedAt:     time.Now().Truncate(0),
		SiteCount:     len(d.Sites),
		HeadlineCount: d.HeadlineCount(),
		Digest:        d,
	}

	content, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal digest: %w", err)
	}

	query := `
		INSERT INTO digests (
			digest_id, title, created_at, site_count, headline_count, content
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		entry.DigestID.String(),
		entry.Title,
		formatTime(entry.CreatedAt),
		entry.SiteCount,
		entry.HeadlineCount,
		string(content),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert digest: %w", err)
	}

	return entry, nil
}

// Get retrieves an archived digest by ID.
func (s *Store) Get(digestID uuid.UUID) (*Entry, error) {
	query := `
		SELECT digest_id, title, created_at, site_count, headline_count, content
		FROM digests
		WHERE digest_id = ?
	`

	entry, err := scanEntry(s.db.QueryRow(query, digestID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDigestNotFound
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Latest retrieves the most recently archived digest.
func (s *Store) Latest() (*Entry, error) {
	entries, err := s.List(1, 0)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrDigestNotFound
	}
	return &entries[0], nil
}

// List returns archived digests, newest first. A limit of zero or less means
// no limit.
func (s *Store) List(limit, offset int) ([]Entry, error) {
	query := `
		SELECT digest_id, title, created_at, site_count, headline_count, content
		FROM digests
		ORDER BY created_at DESC, rowid DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", offset)
		}
	} else if offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query digests: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate digests: %w", err)
	}

	return entries, nil
}

// Count returns the number of archived digests.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM digests").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count digests: %w", err)
	}
	return count, nil
}

// Delete removes an archived digest.
func (s *Store) Delete(digestID uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM digests WHERE digest_id = ?", digestID.String())
	if err != nil {
		return fmt.Errorf("failed to delete digest: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDigestNotFound
	}

	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var idStr, title, createdAtStr, content string
	var siteCount, headlineCount int

	err := row.Scan(&idStr, &title, &createdAtStr, &siteCount, &headlineCount, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan digest: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse digest ID: %w", err)
	}

	digest := headlines.NewDigest()
	if err := json.Unmarshal([]byte(content), digest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal digest %s: %w", idStr, err)
	}

	return &Entry{
		DigestID:      id,
		Title:         title,
		CreatedAt:     parseTime(createdAtStr),
		SiteCount:     siteCount,
		HeadlineCount: headlineCount,
		Digest:        digest,
	}, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	// Try RFC3339Nano first, fall back to RFC3339 for compatibility
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
