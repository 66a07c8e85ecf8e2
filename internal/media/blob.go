/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	applog "dsfstudio/internal/log"
)

// RefScheme prefixes blob references stored as section backgrounds.
const RefScheme = "blob:"

var ErrBadRef = errors.New("not a blob reference")

// BlobDir stores immutable blobs named by the SHA-256 of their content.
type BlobDir struct {
	Root string
}

func NewBlobDir(root string) (*BlobDir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &BlobDir{Root: root}, nil
}

// Upload writes data (if not already present) and returns its reference,
// e.g. "blob:3fa9...e1.jpg".
func (b *BlobDir) Upload(data []byte, ext string) (string, error) {
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:]) + normExt(ext)
	p := filepath.Join(b.Root, name)
	if _, err := os.Stat(p); err == nil {
		return RefScheme + name, nil
	}
	tmp, err := os.CreateTemp(b.Root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	applog.WithComponent("media").Debug("blob stored", slog.String("name", name), slog.Int("bytes", len(data)))
	return RefScheme + name, nil
}

// Path resolves a reference returned by Upload to its file path.
func (b *BlobDir) Path(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, RefScheme)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%q: %w", ref, ErrBadRef)
	}
	return filepath.Join(b.Root, name), nil
}

// Open reads the blob behind ref.
func (b *BlobDir) Open(ref string) ([]byte, error) {
	p, err := b.Path(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func normExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return ""
	}
	return "." + ext
}
