/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bundle

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dsfstudio/internal/domain"
	"dsfstudio/internal/media"
)

func TestPackAndUnpack(t *testing.T) {
	src, err := media.NewBlobDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ref, err := src.Upload([]byte("image bytes"), "jpg")
	if err != nil {
		t.Fatal(err)
	}
	p := domain.NewProject()
	p.Title = "Bundled"
	p.Sections[0].Background = ref
	second := domain.NewSection()
	second.Background = ref
	p.Sections = append(p.Sections, second)

	if got := Refs(p); len(got) != 1 || got[0] != ref {
		t.Fatalf("Refs = %v", got)
	}
	zipPath := filepath.Join(t.TempDir(), "out", "work.zip")
	if err := Pack(zipPath, p, src); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	dst, _ := media.NewBlobDir(t.TempDir())
	got, n, err := Unpack(zipPath, dst)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if n != 1 || got.Title != "Bundled" || len(got.Sections) != 2 {
		t.Fatalf("unexpected result: n=%d %+v", n, got)
	}
	if b, err := dst.Open(ref); err != nil || string(b) != "image bytes" {
		t.Fatalf("blob not installed: %q, %v", b, err)
	}
	// second unpack skips existing blobs
	if _, n, err := Unpack(zipPath, dst); err != nil || n != 0 {
		t.Fatalf("re-unpack: n=%d err=%v", n, err)
	}
}

func TestPackFailsOnMissingBlob(t *testing.T) {
	blobs, _ := media.NewBlobDir(t.TempDir())
	p := domain.NewProject()
	p.Sections[0].Background = "blob:missing.jpg"
	if err := Pack(filepath.Join(t.TempDir(), "x.zip"), p, blobs); err == nil {
		t.Fatalf("expected error for missing blob")
	}
}

func TestUnpackRejectsBundleWithoutProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("blobs/../../evil.jpg")
	_, _ = w.Write([]byte("x"))
	_ = zw.Close()
	_ = f.Close()

	blobs, _ := media.NewBlobDir(t.TempDir())
	if _, n, err := Unpack(path, blobs); !errors.Is(err, ErrNoProject) || n != 0 {
		t.Fatalf("expected ErrNoProject and no installs, got n=%d err=%v", n, err)
	}
}
