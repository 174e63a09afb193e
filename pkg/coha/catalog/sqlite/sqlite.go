package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/coha/pkg/coha/catalog"
	"github.com/cognicore/coha/pkg/coha/internalerr"
)

// sqliteStore implements catalog.Store using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *catalog.IDs
}

// OpenSQLite opens a SQLite catalog with WAL mode enabled, creating the
// schema when needed.
func OpenSQLite(ctx context.Context, path string) (catalog.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, ids: catalog.NewIDs()}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	join_path TEXT,
	status TEXT NOT NULL,
	warnings TEXT,
	outputs TEXT,
	error TEXT
);

CREATE TABLE IF NOT EXISTS shards (
	run_id TEXT NOT NULL,
	path TEXT NOT NULL,
	format TEXT,
	role TEXT NOT NULL,
	pass TEXT,
	columns TEXT,
	PRIMARY KEY(run_id, path),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_shards_role ON shards(run_id, role);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// BeginRun inserts a running run.
func (s *sqliteStore) BeginRun(ctx context.Context, root string) (catalog.Run, error) {
	now := time.Now().UTC()
	r := catalog.Run{
		ID:        s.ids.Next(now),
		Root:      root,
		StartedAt: now,
		Status:    catalog.StatusRunning,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, root, started_at, status) VALUES (?, ?, ?, ?)`,
		r.ID, r.Root, r.StartedAt.Format(time.RFC3339Nano), string(r.Status))
	if err != nil {
		return catalog.Run{}, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

// FinishRun stores the final state of r.
func (s *sqliteStore) FinishRun(ctx context.Context, r catalog.Run) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return err
	}
	outputs, err := json.Marshal(r.Outputs)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE runs SET
	finished_at = ?,
	join_path = ?,
	status = ?,
	warnings = ?,
	outputs = ?,
	error = ?
WHERE id = ?`,
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.JoinPath,
		string(r.Status),
		string(warnings),
		string(outputs),
		r.Error,
		r.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", r.ID, internalerr.ErrNotFound)
	}
	return nil
}

const runColumns = `id, root, started_at, finished_at, join_path, status, warnings, outputs, error`

// GetRun loads one run.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (catalog.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]catalog.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordShard inserts or replaces a shard of a run.
func (s *sqliteStore) RecordShard(ctx context.Context, sh catalog.Shard) error {
	cols, err := json.Marshal(sh.Columns)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO shards (run_id, path, format, role, pass, columns)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, path) DO UPDATE SET
	format=excluded.format,
	role=excluded.role,
	pass=excluded.pass,
	columns=excluded.columns`,
		sh.RunID, sh.Path, sh.Format, sh.Role, sh.Pass, string(cols))
	if err != nil {
		return fmt.Errorf("record shard %s: %w", sh.Path, err)
	}
	return nil
}

// ShardsForRun returns the shards of a run ordered by path.
func (s *sqliteStore) ShardsForRun(ctx context.Context, runID string) ([]catalog.Shard, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, path, format, role, pass, columns
FROM shards WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Shard
	for rows.Next() {
		var (
			sh   catalog.Shard
			cols sql.NullString
		)
		if err := rows.Scan(&sh.RunID, &sh.Path, &sh.Format, &sh.Role, &sh.Pass, &cols); err != nil {
			return nil, err
		}
		if err := decodeList(cols, &sh.Columns); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (catalog.Run, error) {
	var (
		r                                 catalog.Run
		started, status                   string
		finished, path, warnings, outputs sql.NullString
		runErr                            sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Root, &started, &finished, &path, &status, &warnings, &outputs, &runErr); err != nil {
		return catalog.Run{}, err
	}
	r.Status = catalog.Status(status)
	r.JoinPath = path.String
	r.Error = runErr.String

	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return catalog.Run{}, fmt.Errorf("run %s started_at: %w", r.ID, err)
	}
	if finished.Valid && finished.String != "" {
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
			return catalog.Run{}, fmt.Errorf("run %s finished_at: %w", r.ID, err)
		}
	}
	if err := decodeList(warnings, &r.Warnings); err != nil {
		return catalog.Run{}, err
	}
	if err := decodeList(outputs, &r.Outputs); err != nil {
		return catalog.Run{}, err
	}
	return r, nil
}

func decodeList(s sql.NullString, dst *[]string) error {
	if !s.Valid || s.String == "" || s.String == "null" {
		*dst = nil
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}
