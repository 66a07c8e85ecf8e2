/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetcherCachesDownloads(t *testing.T) {
	img := pngOf(t, 4, 4)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	f := NewFetcher(nil, time.Second)
	for i := 0; i < 2; i++ {
		got, err := f.Open(srv.URL + "/bg.png")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if !bytes.Equal(got, img) {
			t.Fatalf("body mismatch")
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one download, got %d", hits.Load())
	}
	if _, err := f.Open(srv.URL + "/missing.png"); err == nil {
		t.Fatalf("404 must fail")
	}
}

func TestFetcherResolvesBlobs(t *testing.T) {
	blobs, err := NewBlobDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ref, err := blobs.Upload([]byte("jpeg bytes"), "jpg")
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(blobs, 0)
	got, err := f.Open(ref)
	if err != nil || string(got) != "jpeg bytes" {
		t.Fatalf("blob open = %q, %v", got, err)
	}
	if _, err := NewFetcher(nil, 0).Open(ref); err == nil {
		t.Fatalf("blob ref without blob dir must fail")
	}
	if _, err := f.Open("ftp://example/a.png"); !errors.Is(err, ErrUnsupportedRef) {
		t.Fatalf("expected ErrUnsupportedRef, got %v", err)
	}
}

func TestReadLimited(t *testing.T) {
	if _, err := readLimited(bytes.NewReader(make([]byte, 11)), 10); err == nil {
		t.Fatalf("oversized body must fail")
	}
	if b, err := readLimited(bytes.NewReader(make([]byte, 10)), 10); err != nil || len(b) != 10 {
		t.Fatalf("exact size must pass: %d, %v", len(b), err)
	}
}
