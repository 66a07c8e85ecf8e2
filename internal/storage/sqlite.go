/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dsfstudio/internal/domain"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema. Bump it when adding a
// migration step.
const schemaVersion = 2

// language=SQL
// dialect=SQLite
const upsertWorkSQL = `INSERT INTO works(id, title, body, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET title=excluded.title, body=excluded.body, updated_at=excluded.updated_at`

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(work_id, version, body, created_at)
VALUES (?, (SELECT COALESCE(MAX(version), 0) + 1 FROM revisions WHERE work_id = ?), ?, ?)`

// language=SQL
// dialect=SQLite
const pruneRevisionsSQL = `DELETE FROM revisions WHERE work_id = ? AND version NOT IN (
	SELECT version FROM revisions WHERE work_id = ? ORDER BY version DESC LIMIT ?
)`

// Revision is one saved version of a work.
type Revision struct {
	Version   int
	CreatedAt time.Time
	Size      int
}

// SQLiteStore keeps works and their revision history in one SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path, enables WAL
// and brings the schema up to date.
func OpenSQLite(path string) (*SQLiteStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	// Forward slashes for the SQLite URI.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("store ready")
	return &SQLiteStore{db: db, now: time.Now, log: applog.WithComponent("storage")}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS works (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			body        BLOB NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS revisions (
			work_id     TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
			version     INTEGER NOT NULL,
			body        BLOB NOT NULL,
			created_at  TEXT NOT NULL,
			PRIMARY KEY (work_id, version)
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh database starts at schema 1 and migrates forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_works_updated ON works(updated_at DESC);`,
				`CREATE INDEX IF NOT EXISTS idx_revisions_created ON revisions(work_id, created_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.Project, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM works WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("load work: %w", err)
	}
	return Decode(body)
}

// Put stores p and appends a revision in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, p *domain.Project) (string, error) {
	if p == nil {
		return "", errors.New("nil project")
	}
	id, err := WorkID(p)
	if err != nil {
		return "", err
	}
	stored := *p
	stored.ID = domain.OptionalID(id)
	body, err := Encode(stored)
	if err != nil {
		return "", err
	}
	now := s.now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin put: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertWorkSQL, id, p.Title, body, now); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("upsert work: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertRevisionSQL, id, id, body, now); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("insert revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit put: %w", err)
	}
	p.ID = stored.ID
	return id, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body, updated_at FROM works ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Summary
	for rows.Next() {
		var id, ts string
		var body []byte
		if err := rows.Scan(&id, &body, &ts); err != nil {
			return nil, err
		}
		p, err := Decode(body)
		if err != nil {
			s.log.Warn("skip invalid work", slog.String("id", id), slog.Any("err", err))
			continue
		}
		p.ID = domain.OptionalID(id)
		updated, _ := time.Parse(time.RFC3339Nano, ts)
		out = append(out, Summarize(p, updated))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortSummaries(out)
	return out, nil
}

// Delete removes a work together with its revisions.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM revisions WHERE work_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete revisions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM works WHERE id = ?`, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete work: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// Revisions lists saved versions of a work, newest first.
func (s *SQLiteStore) Revisions(ctx context.Context, id string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, created_at, length(body) FROM revisions WHERE work_id = ? ORDER BY version DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var r Revision
		var ts string
		if err := rows.Scan(&r.Version, &ts, &r.Size); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Revision loads one saved version of a work.
func (s *SQLiteStore) Revision(ctx context.Context, id string, ver int) (domain.Project, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM revisions WHERE work_id = ? AND version = ?`, id, ver).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("work %s revision %d: %w", id, ver, ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("load revision: %w", err)
	}
	return Decode(body)
}

// PruneRevisions keeps at most keep revisions of a work and deletes older ones.
func (s *SQLiteStore) PruneRevisions(ctx context.Context, id string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, pruneRevisionsSQL, id, id, keep)
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	return res.RowsAffected()
}
