/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dsfstudio/internal/domain"
	"dsfstudio/internal/storage"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *storage.FileStore) {
	t.Helper()
	fs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ts := httptest.NewServer(NewServer(fs, testSecret).Handler())
	t.Cleanup(ts.Close)
	return ts, fs
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := signToken(testSecret, "tester", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

func do(t *testing.T, method, url, auth string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestVerifyToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, err := signToken("s", "alice", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sub, err := verifyToken("s", tok, now); err != nil || sub != "alice" {
		t.Fatalf("verify: sub=%q err=%v", sub, err)
	}
	if _, err := verifyToken("other", tok, now); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong secret must be unauthorized, got %v", err)
	}
	if _, err := verifyToken("s", tok, now.Add(2*time.Minute)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token must be unauthorized, got %v", err)
	}
	if _, err := verifyToken("s", "garbage", now); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("malformed token must be unauthorized, got %v", err)
	}
}

func TestHealthAndVersionNeedNoAuth(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz", "/version"} {
		if resp := do(t, http.MethodGet, ts.URL+path, "", nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
	}
}

func TestWorksRequireAuth(t *testing.T) {
	ts, _ := newTestServer(t)
	if resp := do(t, http.MethodGet, ts.URL+"/api/works", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/api/works", "Bearer nope", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestWorksCRUD(t *testing.T) {
	ts, fs := newTestServer(t)
	auth := bearer(t)
	p := domain.NewProject()
	p.Title = "cloud"
	body, err := storage.Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	resp := do(t, http.MethodPost, ts.URL+"/api/works", auth, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var ref WorkRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil || ref.ID == "" {
		t.Fatalf("create response: %v %+v", err, ref)
	}
	if got, err := fs.Get(context.Background(), ref.ID); err != nil || got.Title != "cloud" {
		t.Fatalf("work not stored: %v %+v", err, got)
	}

	p.ID = domain.OptionalID(ref.ID)
	p.Title = "renamed"
	body, _ = storage.Encode(p)
	if resp := do(t, http.MethodPut, ts.URL+"/api/works/"+ref.ID, auth, body); resp.StatusCode != http.StatusOK {
		t.Fatalf("put: status %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/works", auth, nil)
	var list []storage.Summary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil || len(list) != 1 || list[0].Title != "renamed" {
		t.Fatalf("list: %v %+v", err, list)
	}

	if resp := do(t, http.MethodDelete, ts.URL+"/api/works/"+ref.ID, auth, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/api/works/"+ref.ID, auth, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", resp.StatusCode)
	}
}

func TestWorksRejectBadBodies(t *testing.T) {
	ts, _ := newTestServer(t)
	auth := bearer(t)
	if resp := do(t, http.MethodPost, ts.URL+"/api/works", auth, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty body: status %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/works", auth, []byte(`{"sections":[]}`)); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid document: status %d", resp.StatusCode)
	}

	p := domain.NewProject()
	p.ID = domain.OptionalID(storage.NewID())
	body, _ := storage.Encode(p)
	other := storage.NewID()
	resp := do(t, http.MethodPut, ts.URL+"/api/works/"+other, auth, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("id mismatch: status %d", resp.StatusCode)
	}
	var e apiError
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || !strings.Contains(e.Error, "does not match") {
		t.Fatalf("mismatch error body: %v %+v", err, e)
	}
}

func TestClientRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	c := NewClient(ts.URL+"/", "", WithRate(1000), WithRetries(0, 0))

	if _, err := c.List(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("list without token must be unauthorized, got %v", err)
	}
	tok, err := c.Token(ctx, "tester", time.Hour)
	if err != nil || tok.Token == "" {
		t.Fatalf("token: %v %+v", err, tok)
	}
	if v, err := c.Version(ctx); err != nil || v == "" {
		t.Fatalf("version: %q %v", v, err)
	}

	p := domain.NewProject()
	p.Title = "via client"
	id, err := c.Put(ctx, &p)
	if err != nil || id == "" || p.ID.String() != id {
		t.Fatalf("create: id=%q err=%v project id=%q", id, err, p.ID)
	}
	p.Title = "updated"
	if id2, err := c.Put(ctx, &p); err != nil || id2 != id {
		t.Fatalf("update: id=%q err=%v", id2, err)
	}
	got, err := c.Get(ctx, id)
	if err != nil || got.Title != "updated" {
		t.Fatalf("get: %v %+v", err, got)
	}
	list, err := c.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

var _ storage.Store = (*Client)(nil)
var _ storage.Store = (*PGStore)(nil)
