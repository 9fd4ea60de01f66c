// Package journal persists finished revisions to SQLite so the serve boundary
// can list recent outcomes across restarts.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/pipeline"
)

// Entry is one journaled revision.
type Entry struct {
	ID          int64     `json:"id"`
	Session     string    `json:"session"`
	Revision    uint64    `json:"revision"`
	State       string    `json:"state"`
	HTMLPath    string    `json:"html_path,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       string    `json:"error,omitempty"`
	Diagnostics int       `json:"diagnostics"`
	DurationMS  float64   `json:"duration_ms"`
	Finished    time.Time `json:"finished"`
}

// Journal implements pipeline.Sink on top of SQLite. Every process gets a
// fresh session id because revision numbers restart at 1.
type Journal struct {
	db      *sql.DB
	mu      sync.RWMutex
	session string
	logger  *slog.Logger
}

// Options configures a Journal.
type Options struct {
	// Session defaults to a random UUID.
	Session string
	Logger  *slog.Logger
}

// Open opens or creates the journal database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func Open(path string, opts Options) (*Journal, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Session == "" {
		opts.Session = uuid.NewString()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, session: opts.Session, logger: opts.Logger}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS revisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		revision INTEGER NOT NULL,
		state TEXT NOT NULL,
		html_path TEXT,
		fingerprint TEXT,
		error TEXT,
		diagnostics INTEGER NOT NULL DEFAULT 0,
		duration_ms REAL NOT NULL,
		finished INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session ON revisions(session);
	CREATE INDEX IF NOT EXISTS idx_finished ON revisions(finished);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Session returns the id stamped on every entry written by this process.
func (j *Journal) Session() string { return j.session }

// Append stores e under the current session. ID and Session are assigned here.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO revisions (session, revision, state, html_path, fingerprint, error, diagnostics, duration_ms, finished)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.session, int64(e.Revision), e.State, e.HTMLPath, e.Fingerprint, e.Error, e.Diagnostics, e.DurationMS, e.Finished.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// RevisionFinished records r. Journal failures are logged and never affect
// the pipeline.
func (j *Journal) RevisionFinished(ctx context.Context, r pipeline.Result) {
	if err := j.Append(ctx, FromResult(r)); err != nil {
		j.logger.Warn("Journal append failed", logfields.Revision(uint64(r.Revision)), logfields.Error(err))
	}
}

// FromResult converts a pipeline result into an entry.
func FromResult(r pipeline.Result) Entry {
	e := Entry{
		Revision:    uint64(r.Revision),
		State:       string(r.State),
		HTMLPath:    r.HTMLPath,
		Fingerprint: r.Fingerprint,
		Diagnostics: len(r.Diagnostics),
		DurationMS:  float64(r.Duration.Microseconds()) / 1000,
		Finished:    r.Finished,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	if e.Finished.IsZero() {
		e.Finished = time.Now()
	}
	return e
}

// Recent returns up to n entries, newest first, across all sessions.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 50
	}
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session, revision, state, html_path, fingerprint, error, diagnostics, duration_ms, finished
		 FROM revisions ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e                      Entry
			rev                    int64
			finished               int64
			htmlPath, fp, errorMsg sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Session, &rev, &e.State, &htmlPath, &fp, &errorMsg, &e.Diagnostics, &e.DurationMS, &finished); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		e.Revision = uint64(rev)
		e.HTMLPath = htmlPath.String
		e.Fingerprint = fp.String
		e.Error = errorMsg.String
		e.Finished = time.UnixMilli(finished)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
