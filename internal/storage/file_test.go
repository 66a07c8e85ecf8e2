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
	"os"
	"path/filepath"
	"testing"
	"time"

	"dsfstudio/internal/domain"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	p := domain.NewProject()
	p.Title = "first"
	id, err := fs.Put(ctx, &p)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if id == "" || p.ID.String() != id {
		t.Fatalf("put must assign the id to the project, got %q / %q", id, p.ID)
	}
	got, err := fs.Get(ctx, id)
	if err != nil || got.Title != "first" || got.ID.String() != id {
		t.Fatalf("get: %v %+v", err, got)
	}

	// second save keeps the id and backs up the previous version
	p.Title = "second"
	if id2, err := fs.Put(ctx, &p); err != nil || id2 != id {
		t.Fatalf("second put: %v id=%q", err, id2)
	}
	backups, err := fs.Backups(id)
	if err != nil || len(backups) != 1 {
		t.Fatalf("expected one backup, got %v err=%v", backups, err)
	}

	list, err := fs.List(ctx)
	if err != nil || len(list) != 1 || list[0].Title != "second" {
		t.Fatalf("list: %v %+v", err, list)
	}
	if err := fs.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := fs.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFileStoreFallsBackToBackup(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs, _ := NewFileStore(root)
	p := domain.NewProject()
	p.Title = "good"
	id, _ := fs.Put(ctx, &p)
	fs.now = func() time.Time { return time.Now().Add(time.Second) }
	p.Title = "newer"
	fs.Put(ctx, &p)

	if err := os.WriteFile(filepath.Join(root, id+".json"), []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := fs.Get(ctx, id)
	if err != nil {
		t.Fatalf("expected backup fallback, got %v", err)
	}
	if got.Title != "good" {
		t.Fatalf("expected last backup content, got %q", got.Title)
	}
}

func TestFileStoreUnknownAndInvalidIDs(t *testing.T) {
	ctx := context.Background()
	fs, _ := NewFileStore(t.TempDir())
	if _, err := fs.Get(ctx, NewID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := fs.Get(ctx, "../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("path-like ids must be rejected, got %v", err)
	}
}

func TestFileStoreListSkipsJunk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs, _ := NewFileStore(root)
	older := domain.NewProject()
	older.Title = "older"
	fs.Put(ctx, &older)
	newer := domain.NewProject()
	newer.Title = "newer"
	id, _ := fs.Put(ctx, &newer)
	later := time.Now().Add(time.Hour)
	os.Chtimes(filepath.Join(root, id+".json"), later, later)
	os.WriteFile(filepath.Join(root, "junk.json"), []byte("nope"), 0o644)
	os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644)

	list, err := fs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Title != "newer" {
		t.Fatalf("expected two works newest first, got %+v", list)
	}
}

func TestFileStoreKeepsLegacyIDs(t *testing.T) {
	ctx := context.Background()
	fs, _ := NewFileStore(t.TempDir())
	p := domain.NewProject()
	p.ID = "AbC123firestoreId"
	p.Title = "legacy"
	id, err := fs.Put(ctx, &p)
	if err != nil || id != "AbC123firestoreId" {
		t.Fatalf("put: id=%q err=%v", id, err)
	}
	got, err := fs.Get(ctx, id)
	if err != nil || got.Title != "legacy" {
		t.Fatalf("legacy id must load back: %v %+v", err, got)
	}
	if err := fs.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	bad := domain.NewProject()
	bad.ID = "../escape"
	if _, err := fs.Put(ctx, &bad); !errors.Is(err, ErrBadID) {
		t.Fatalf("expected ErrBadID, got %v", err)
	}
}

func TestFileStoreFailedPutLeavesProjectUntouched(t *testing.T) {
	root := filepath.Join(t.TempDir(), "works")
	fs, err := NewFileStore(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	p := domain.NewProject()
	if _, err := fs.Put(context.Background(), &p); err == nil {
		t.Fatalf("expected write failure")
	}
	if !p.ID.IsNull() {
		t.Fatalf("failed put must not assign an id, got %q", p.ID)
	}
}
