package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joescharf/cq/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no
// CGO). The connection pool is limited to a single connection, which
// serializes all writes — a stricter guarantee than the required
// per-key serialization, at a cost that only matters for very large
// concurrent scans.
type SQLiteStore struct {
	db  *sql.DB
	cap int
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path
// with the given per-artifact history cap.
func NewSQLiteStore(dbPath string, maxPerArtifact int) (*SQLiteStore, error) {
	if maxPerArtifact <= 0 {
		maxPerArtifact = models.DefaultMaxHistory
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// prevents "database is locked" errors from concurrent appends.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db, cap: maxPerArtifact}, nil
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Append inserts the result and trims the key's history to the cap in
// the same transaction, so a reader never observes an over-cap history.
func (s *SQLiteStore) Append(ctx context.Context, key string, result *models.ReviewResult) error {
	if result.ID == "" {
		result.ID = newULID()
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}

	issuesJSON, err := json.Marshal(result.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	suggestionsJSON, err := json.Marshal(result.Suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO review_results
		(id, artifact_key, score, approved, summary, timestamp, issues, suggestions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, key, result.Score, boolToInt(result.Approved), result.Summary,
		result.Timestamp.UTC().Format(time.RFC3339Nano), string(issuesJSON), string(suggestionsJSON))
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	// FIFO eviction: keep only the newest cap entries for this key.
	_, err = tx.ExecContext(ctx, `DELETE FROM review_results
		WHERE artifact_key = ? AND id NOT IN (
			SELECT id FROM review_results
			WHERE artifact_key = ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?
		)`, key, key, s.cap)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	return tx.Commit()
}

// Latest returns the newest result for the key, or (nil, nil).
func (s *SQLiteStore) Latest(ctx context.Context, key string) (*models.ReviewResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, artifact_key, score, approved, summary, timestamp, issues, suggestions
		FROM review_results WHERE artifact_key = ?
		ORDER BY timestamp DESC, id DESC LIMIT 1`, key)

	result, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest for %s: %w", key, err)
	}
	return result, nil
}

// All returns the key's history, oldest first.
func (s *SQLiteStore) All(ctx context.Context, key string) ([]*models.ReviewResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, artifact_key, score, approved, summary, timestamp, issues, suggestions
		FROM review_results WHERE artifact_key = ?
		ORDER BY timestamp ASC, id ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", key, err)
	}
	defer rows.Close()

	var results []*models.ReviewResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Keys returns every artifact key with stored history, sorted.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT artifact_key FROM review_results ORDER BY artifact_key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner abstracts sql.Row and sql.Rows for scanResult.
type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*models.ReviewResult, error) {
	var r models.ReviewResult
	var approved int
	var ts, issuesJSON, suggestionsJSON string

	if err := row.Scan(&r.ID, &r.ArtifactKey, &r.Score, &approved, &r.Summary, &ts, &issuesJSON, &suggestionsJSON); err != nil {
		return nil, err
	}

	r.Approved = approved != 0
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	r.Timestamp = parsed

	if err := json.Unmarshal([]byte(issuesJSON), &r.Issues); err != nil {
		return nil, fmt.Errorf("unmarshal issues: %w", err)
	}
	if err := json.Unmarshal([]byte(suggestionsJSON), &r.Suggestions); err != nil {
		return nil, fmt.Errorf("unmarshal suggestions: %w", err)
	}
	return &r, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
