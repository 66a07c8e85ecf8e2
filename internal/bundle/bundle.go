/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle packs a project and the uploaded images it references
// into one zip archive, so a work can move between machines.
package bundle

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dsfstudio/internal/domain"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/media"
	"dsfstudio/internal/storage"
)

const (
	manifestName = "bundle.manifest.txt"
	projectName  = "project.json"
	blobPrefix   = "blobs/"
	// maxEntry bounds a single extracted file.
	maxEntry = 64 << 20
)

var ErrNoProject = errors.New("bundle has no project.json")

// Refs returns the distinct blob references used as section backgrounds,
// sorted.
func Refs(p domain.Project) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range p.Sections {
		if strings.HasPrefix(s.Background, media.RefScheme) && !seen[s.Background] {
			seen[s.Background] = true
			out = append(out, s.Background)
		}
	}
	sort.Strings(out)
	return out
}

// Pack writes p and every blob it references to destZip. A missing blob
// fails the export: the bundle would not render elsewhere.
func Pack(destZip string, p domain.Project, blobs *media.BlobDir) error {
	l := applog.WithOperation(applog.WithComponent("bundle"), "pack").With(slog.String("zip", destZip))
	if strings.TrimSpace(destZip) == "" {
		return errors.New("destination is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	data, err := storage.Encode(p)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	refs := Refs(p)
	manifest := fmt.Sprintf("DSF Studio bundle\nCreated: %s\nTitle: %s\nSections: %d\nImages: %d\n",
		time.Now().Format(time.RFC3339), p.Title, len(p.Sections), len(refs))
	if err := addFile(zw, manifestName, []byte(manifest)); err != nil {
		return err
	}
	if err := addFile(zw, projectName, data); err != nil {
		return err
	}
	for _, ref := range refs {
		if blobs == nil {
			return fmt.Errorf("%s: no blob dir configured", ref)
		}
		b, err := blobs.Open(ref)
		if err != nil {
			return fmt.Errorf("bundle %s: %w", ref, err)
		}
		if err := addFile(zw, blobPrefix+strings.TrimPrefix(ref, media.RefScheme), b); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	if err := os.WriteFile(destZip, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write zip: %w", err)
	}
	l.Info("bundle packed", slog.Int("images", len(refs)), slog.Int("bytes", buf.Len()))
	return nil
}

func addFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Unpack reads the project from srcZip and installs its images into
// blobs. Blobs already present are not overwritten. It returns the
// project and the number of images installed.
func Unpack(srcZip string, blobs *media.BlobDir) (domain.Project, int, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "unpack").With(slog.String("zip", srcZip))
	r, err := zip.OpenReader(srcZip)
	if err != nil {
		return domain.Project{}, 0, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()

	var (
		p         domain.Project
		found     bool
		installed int
	)
	for _, f := range r.File {
		switch {
		case f.Name == projectName:
			data, err := readEntry(f)
			if err != nil {
				return domain.Project{}, installed, err
			}
			if p, err = storage.Decode(data); err != nil {
				return domain.Project{}, installed, fmt.Errorf("bundle project: %w", err)
			}
			found = true
		case strings.HasPrefix(f.Name, blobPrefix) && !f.FileInfo().IsDir():
			ref := media.RefScheme + strings.TrimPrefix(f.Name, blobPrefix)
			target, err := blobs.Path(ref)
			if err != nil {
				l.Warn("skip bad entry", slog.String("name", f.Name))
				continue
			}
			if _, err := os.Stat(target); err == nil {
				l.Debug("skip existing blob", slog.String("ref", ref))
				continue
			}
			data, err := readEntry(f)
			if err != nil {
				return domain.Project{}, installed, err
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return domain.Project{}, installed, fmt.Errorf("install %s: %w", ref, err)
			}
			installed++
		}
	}
	if !found {
		return domain.Project{}, installed, ErrNoProject
	}
	l.Info("bundle unpacked", slog.Int("images", installed))
	return p, installed, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntry {
		return nil, fmt.Errorf("%s: entry too large", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntry+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntry {
		return nil, fmt.Errorf("%s: entry too large", f.Name)
	}
	return data, nil
}
