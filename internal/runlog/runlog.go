// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog keeps a local SQLite ledger of pipeline runs: one row per
// run, one row per processed item. The ledger also enforces the deployment
// rule that only one run may be active against the queue at a time.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/content-engine/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	errored     INTEGER NOT NULL DEFAULT 0,
	active      INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS run_items (
	run_id       INTEGER NOT NULL REFERENCES runs(id),
	row_number   INTEGER NOT NULL,
	title        TEXT NOT NULL,
	post_id      TEXT NOT NULL,
	ok           INTEGER NOT NULL,
	error_msg    TEXT NOT NULL DEFAULT '',
	processed_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_items_run ON run_items(run_id);
`

// Store is the run ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening run ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Run is one active pipeline run in the ledger.
type Run struct {
	ID    int64
	store *Store
}

// Begin opens a new run. It refuses to start while another run is marked
// active: two orchestrators against one queue can produce duplicate
// processing and lost updates.
func (s *Store) Begin(ctx context.Context) (*Run, error) {
	var activeID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE active = 1 LIMIT 1`).Scan(&activeID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("run %d is already active; wait for it to finish or clear it with 'runs --clear'", activeID)
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("checking active runs: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO runs (started_at) VALUES (?)`, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}
	return &Run{ID: id, store: s}, nil
}

// RecordItem logs one processed item's outcome.
func (r *Run) RecordItem(ctx context.Context, item types.QueueItem, ok bool, errMsg string) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO run_items (run_id, row_number, title, post_id, ok, error_msg, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, item.RowNumber, item.Title, item.PostID, ok, errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording item: %w", err)
	}
	return nil
}

// Finish closes the run with its final counts and releases the active flag.
func (r *Run) Finish(ctx context.Context, succeeded, errored int) error {
	_, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ?, errored = ?, active = 0 WHERE id = ?`,
		time.Now().UTC(), succeeded, errored, r.ID)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", r.ID, err)
	}
	return nil
}

// ClearActive force-releases any active run. This is the manual recovery
// path after a crashed run left its flag set.
func (s *Store) ClearActive(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET active = 0, finished_at = ? WHERE active = 1`,
		time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("clearing active runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared runs: %w", err)
	}
	return n, nil
}

// RunRecord is one ledger entry.
type RunRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Succeeded  int
	Errored    int
	Active     bool
}

// List returns runs newest first, up to limit (0 means all).
func (s *Store) List(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT id, started_at, finished_at, succeeded, errored, active FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &finished, &rec.Succeeded, &rec.Errored, &rec.Active); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			rec.FinishedAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ItemRecord is one processed item within a run.
type ItemRecord struct {
	RowNumber   int
	Title       string
	PostID      string
	OK          bool
	ErrorMsg    string
	ProcessedAt time.Time
}

// Items returns a run's processed items in processing order.
func (s *Store) Items(ctx context.Context, runID int64) ([]ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_number, title, post_id, ok, error_msg, processed_at
		 FROM run_items WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing run items: %w", err)
	}
	defer rows.Close()

	var records []ItemRecord
	for rows.Next() {
		var rec ItemRecord
		if err := rows.Scan(&rec.RowNumber, &rec.Title, &rec.PostID, &rec.OK, &rec.ErrorMsg, &rec.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scanning run item: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
