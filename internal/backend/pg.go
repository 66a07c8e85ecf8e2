/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"dsfstudio/internal/domain"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGStore keeps works in Postgres. It implements storage.Store.
type PGStore struct {
	db *sql.DB
}

// OpenPG connects to Postgres through the pgx stdlib driver and applies
// pending migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) Close() error { return s.db.Close() }

// Ping reports database readiness.
func (s *PGStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PGStore) Get(ctx context.Context, id string) (domain.Project, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM works WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("work %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("load work: %w", err)
	}
	return storage.Decode(body)
}

func (s *PGStore) Put(ctx context.Context, p *domain.Project) (string, error) {
	if p == nil {
		return "", errors.New("nil project")
	}
	id, err := storage.WorkID(p)
	if err != nil {
		return "", err
	}
	stored := *p
	stored.ID = domain.OptionalID(id)
	body, err := storage.Encode(stored)
	if err != nil {
		return "", err
	}
	// dialect=PostgreSQL
	_, err = s.db.ExecContext(ctx, `INSERT INTO works(id, title, body) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body,
			version = works.version + 1, updated_at = now()`, id, p.Title, string(body))
	if err != nil {
		return "", fmt.Errorf("upsert work: %w", err)
	}
	p.ID = stored.ID
	return id, nil
}

func (s *PGStore) List(ctx context.Context) ([]storage.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body, updated_at FROM works ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.Summary
	for rows.Next() {
		var (
			id      string
			body    []byte
			updated time.Time
		)
		if err := rows.Scan(&id, &body, &updated); err != nil {
			return nil, err
		}
		p, err := storage.Decode(body)
		if err != nil {
			applog.WithComponent("backend").Warn("skip invalid work", slog.String("id", id), slog.Any("err", err))
			continue
		}
		p.ID = domain.OptionalID(id)
		out = append(out, storage.Summarize(p, updated))
	}
	return out, rows.Err()
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM works WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete work: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("work %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "migrate")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES ($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
