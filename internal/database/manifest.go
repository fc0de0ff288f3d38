package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/audiophile/internal/model"
)

// FileName is the manifest database file name inside the database directory.
const FileName = "audiophile.db"

// Manifest provides SQLite-based storage for session results and downloaded
// artifacts.
type Manifest struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Manifest behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the manifest in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Manifest, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	m := &Manifest{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := m.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return m, nil
}

// Close closes the database connection.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Path returns the database file path.
func (m *Manifest) Path() string {
	return m.dbPath
}

// createTables creates the database schema if it doesn't exist.
//
// Timestamps are stored as RFC 3339 text so they sort lexically and read back
// the same way regardless of driver type mapping.
func (m *Manifest) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		query_type TEXT NOT NULL,
		pages INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		index_pages INTEGER NOT NULL DEFAULT 0,
		result_urls INTEGER NOT NULL DEFAULT 0,
		download_urls INTEGER NOT NULL DEFAULT 0,
		artifacts INTEGER NOT NULL DEFAULT 0,
		rejected INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_query ON sessions(query);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id),
		query TEXT NOT NULL,
		number INTEGER NOT NULL,
		source_row INTEGER NOT NULL,
		url TEXT NOT NULL,
		format TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		sha256 TEXT NOT NULL,
		skipped INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_query ON artifacts(query);
	CREATE INDEX IF NOT EXISTS idx_artifacts_sha256 ON artifacts(sha256);
	`

	_, err := m.db.ExecContext(context.Background(), schema)
	return err
}

// SaveSession stores a finished session and its artifacts in one transaction
// and returns the new session ID.
func (m *Manifest) SaveSession(ctx context.Context, report *model.SessionReport) (id int64, err error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	finishedAt := report.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	result, err := tx.ExecContext(ctx, `
	INSERT INTO sessions (query, query_type, pages, started_at, finished_at,
		index_pages, result_urls, download_urls, artifacts, rejected, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Query,
		report.QueryType.String(),
		report.Pages,
		formatTimestamp(report.StartedAt),
		formatTimestamp(finishedAt),
		report.IndexPages,
		report.ResultURLs,
		report.DownloadURLs,
		len(report.Artifacts),
		report.Rejected,
		report.ErrorMessage,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save session: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO artifacts (session_id, query, number, source_row, url, format, path, size, sha256, skipped, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare artifact insert: %w", err)
	}
	defer stmt.Close()

	created := formatTimestamp(finishedAt)
	for _, a := range report.Artifacts {
		if _, err = stmt.ExecContext(ctx,
			id, report.Query, a.Number, a.SourceRow, a.URL, a.Format, a.Path, a.Size, a.SHA256, a.Skipped, created,
		); err != nil {
			return 0, fmt.Errorf("failed to save artifact %s: %w", a.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session: %w", err)
	}
	return id, nil
}

// ArtifactRecord is a stored artifact with its session context.
type ArtifactRecord struct {
	model.Artifact

	// SessionID is the session that produced the file.
	SessionID int64 `json:"session_id"`

	// Query is the session's query.
	Query string `json:"query"`

	// CreatedAt is when the session finished.
	CreatedAt time.Time `json:"created_at"`
}

// ListArtifacts returns stored artifacts, newest session first and in file
// order within a session. An empty query lists every query.
func (m *Manifest) ListArtifacts(ctx context.Context, query string) ([]ArtifactRecord, error) {
	stmt := `
	SELECT session_id, query, number, source_row, url, format, path, size, sha256, skipped, created_at
	FROM artifacts
	WHERE (? = '' OR query = ?)
	ORDER BY session_id DESC, number ASC
	`

	rows, err := m.db.QueryContext(ctx, stmt, query, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	records := make([]ArtifactRecord, 0)
	for rows.Next() {
		var (
			r       ArtifactRecord
			created string
		)
		if err := rows.Scan(
			&r.SessionID,
			&r.Query,
			&r.Number,
			&r.SourceRow,
			&r.URL,
			&r.Format,
			&r.Path,
			&r.Size,
			&r.SHA256,
			&r.Skipped,
			&created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		r.CreatedAt = parseTimestamp(created)
		records = append(records, r)
	}

	return records, rows.Err()
}

// QuerySummary aggregates all sessions of one query.
type QuerySummary struct {
	// Query is the scraped term.
	Query string `json:"query"`

	// Sessions is the number of stored sessions.
	Sessions int `json:"sessions"`

	// Artifacts is the number of stored artifacts.
	Artifacts int `json:"artifacts"`

	// LastRun is when the most recent session started.
	LastRun time.Time `json:"last_run"`
}

// ListQueries returns one summary per query, ordered by query.
func (m *Manifest) ListQueries(ctx context.Context) ([]QuerySummary, error) {
	stmt := `
	SELECT query, COUNT(*), COALESCE(SUM(artifacts), 0), MAX(started_at)
	FROM sessions
	GROUP BY query
	ORDER BY query
	`

	rows, err := m.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	summaries := make([]QuerySummary, 0)
	for rows.Next() {
		var (
			s       QuerySummary
			lastRun string
		)
		if err := rows.Scan(&s.Query, &s.Sessions, &s.Artifacts, &lastRun); err != nil {
			return nil, fmt.Errorf("failed to scan query summary: %w", err)
		}
		s.LastRun = parseTimestamp(lastRun)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// LatestSession returns the most recent session report for a query, or nil
// if the query was never scraped.
func (m *Manifest) LatestSession(ctx context.Context, query string) (*model.SessionReport, error) {
	stmt := `
	SELECT report_json FROM sessions
	WHERE query = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := m.db.QueryRowContext(ctx, stmt, query).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var report model.SessionReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// timestampLayout is RFC 3339 with a fixed-width fraction, so stored values
// sort in time order as plain text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp renders t the way the manifest stores it.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats parseTimestamp accepts.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
