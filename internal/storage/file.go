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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dsfstudio/internal/domain"
	applog "dsfstudio/internal/log"
)

const (
	// BackupsDirName holds timestamped copies of replaced documents.
	BackupsDirName = "backups"
	fileExt        = ".json"
)

// FileStore keeps one <id>.json per work in a directory. Writes go to a
// temp file that is synced and renamed over the target; the previous
// version is copied to backups/ first.
type FileStore struct {
	Root string
	now  func() time.Time
}

// NewFileStore creates root (and its backups folder) if needed.
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(filepath.Join(root, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{Root: root, now: time.Now}, nil
}

func (s *FileStore) path(id string) string { return filepath.Join(s.Root, id+fileExt) }

// Get loads a work. A corrupt or missing primary file falls back to the
// newest backup.
func (s *FileStore) Get(_ context.Context, id string) (domain.Project, error) {
	if err := validID(id); err != nil {
		return domain.Project{}, err
	}
	b, err := os.ReadFile(s.path(id))
	if err == nil {
		p, derr := Decode(b)
		if derr == nil {
			return p, nil
		}
		err = derr
	}
	p, berr := s.latestBackup(id)
	if berr != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Project{}, fmt.Errorf("work %s: %w", id, ErrNotFound)
		}
		return domain.Project{}, fmt.Errorf("open work: %w; backup attempt: %v", err, berr)
	}
	applog.WithComponent("storage").Warn("work restored from backup", slog.String("id", id), slog.Any("err", err))
	return p, nil
}

// Put writes p transactionally, assigning an id on first save.
func (s *FileStore) Put(_ context.Context, p *domain.Project) (string, error) {
	if p == nil {
		return "", errors.New("nil project")
	}
	id, err := WorkID(p)
	if err != nil {
		return "", err
	}
	stored := *p
	stored.ID = domain.OptionalID(id)
	data, err := Encode(stored)
	if err != nil {
		return "", err
	}
	target := s.path(id)
	if _, statErr := os.Stat(target); statErr == nil {
		stamp := s.now().Format("20060102-150405.000")
		bpath := filepath.Join(s.Root, BackupsDirName, fmt.Sprintf("%s%s.%s.bak", id, fileExt, stamp))
		if cerr := copyFile(target, bpath); cerr != nil {
			return "", fmt.Errorf("backup current work: %w", cerr)
		}
	}
	temp := filepath.Join(s.Root, fmt.Sprintf(".%s.tmp-%d-%d", id, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return "", fmt.Errorf("write temp work: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(target); err == nil {
		_ = os.Remove(target)
	}
	if rerr := os.Rename(temp, target); rerr != nil {
		_ = os.Remove(temp)
		return "", fmt.Errorf("replace work: %w", rerr)
	}
	p.ID = stored.ID
	return id, nil
}

// List summarizes every readable work, newest first. Unreadable files are
// skipped and logged.
func (s *FileStore) List(_ context.Context) ([]Summary, error) {
	ents, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	l := applog.WithComponent("storage")
	var out []Summary
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(s.Root, name)
		b, err := os.ReadFile(path)
		if err != nil {
			l.Warn("skip unreadable work", slog.String("path", path), slog.Any("err", err))
			continue
		}
		p, err := Decode(b)
		if err != nil {
			l.Warn("skip invalid work", slog.String("path", path), slog.Any("err", err))
			continue
		}
		if p.ID.IsNull() {
			p.ID = domain.OptionalID(strings.TrimSuffix(name, fileExt))
		}
		var mod time.Time
		if info, err := e.Info(); err == nil {
			mod = info.ModTime()
		}
		out = append(out, Summarize(p, mod))
	}
	sortSummaries(out)
	return out, nil
}

// Delete removes a work; its backups are kept.
func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("work %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete work: %w", err)
	}
	return nil
}

// Backups lists backup files of a work, oldest first.
func (s *FileStore) Backups(id string) ([]string, error) {
	bdir := filepath.Join(s.Root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, id+fileExt+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func (s *FileStore) latestBackup(id string) (domain.Project, error) {
	candidates, err := s.Backups(id)
	if err != nil {
		return domain.Project{}, err
	}
	if len(candidates) == 0 {
		return domain.Project{}, errors.New("no backups found")
	}
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return domain.Project{}, fmt.Errorf("read latest backup: %w", err)
	}
	return Decode(b)
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
