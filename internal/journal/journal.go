// Package journal keeps a local audit trail of sheet loads and completion
// attempts in SQLite. The sheets stay the source of truth; the journal is
// never read back into workout state.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/claude/repcycle/internal/ingest"
)

// Kind is the type of a journal entry.
type Kind string

const (
	KindLoad       Kind = "load"
	KindCompletion Kind = "completion"
)

// Entry is one journal record.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	LoadID    string    `json:"load_id,omitempty"`
	Group     string    `json:"group,omitempty"`
	RowIndex  int       `json:"row_index,omitempty"`
	Date      string    `json:"date,omitempty"`
	OK        bool      `json:"ok"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Completion describes one write-back attempt.
type Completion struct {
	LoadID   string
	Group    string
	RowIndex int
	Date     string
	Err      error
}

// Journal is the SQLite-backed audit trail.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the journal database at path. The parent
// directory is created when missing.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		load_id    TEXT NOT NULL DEFAULT '',
		grp        TEXT NOT NULL DEFAULT '',
		row_index  INTEGER NOT NULL DEFAULT 0,
		date       TEXT NOT NULL DEFAULT '',
		ok         INTEGER NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal table: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

func (j *Journal) insert(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (id, kind, load_id, grp, row_index, date, ok, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.LoadID, e.Group, e.RowIndex, e.Date, e.OK, e.Detail, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("writing %s entry: %w", e.Kind, err)
	}
	return nil
}

// RecordLoad stores the outcome of a full load. A failed load has a nil
// result and a non-nil loadErr.
func (j *Journal) RecordLoad(ctx context.Context, result *ingest.Result, loadErr error) error {
	e := Entry{
		ID:        uuid.NewString(),
		Kind:      KindLoad,
		OK:        loadErr == nil,
		CreatedAt: j.now(),
	}
	switch {
	case loadErr != nil:
		e.Detail = loadErr.Error()
	case result != nil:
		e.LoadID = result.LoadID
		e.Detail = fmt.Sprintf("%d sessions, %d dropped rows, %d ms", result.Sessions(), result.Dropped(), result.DurationMs)
	}
	return j.insert(ctx, e)
}

// RecordCompletion stores one write-back attempt.
func (j *Journal) RecordCompletion(ctx context.Context, c Completion) error {
	e := Entry{
		ID:        uuid.NewString(),
		Kind:      KindCompletion,
		LoadID:    c.LoadID,
		Group:     c.Group,
		RowIndex:  c.RowIndex,
		Date:      c.Date,
		OK:        c.Err == nil,
		CreatedAt: j.now(),
	}
	if c.Err != nil {
		e.Detail = c.Err.Error()
	}
	return j.insert(ctx, e)
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, load_id, grp, row_index, date, ok, detail, created_at
		 FROM entries ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			kind    string
			created int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.LoadID, &e.Group, &e.RowIndex, &e.Date, &e.OK, &e.Detail, &created); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
