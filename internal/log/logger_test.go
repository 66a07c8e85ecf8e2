/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestFileLoggingWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsf.log")
	Init(Options{Level: "debug", Format: "json", File: path, Output: &bytes.Buffer{}})
	// closes the file so the temp dir can be removed
	t.Cleanup(func() { Init(Options{Output: &bytes.Buffer{}}) })

	WithOperation(WithComponent("testcomp"), "op1").Debug("hello world", slog.String("k", "v"))

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := decodeLines(t, b)
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d", len(lines))
	}
	m := lines[0]
	if m["app"] != AppName || m["component"] != "testcomp" || m["op"] != "op1" || m["k"] != "v" {
		t.Fatalf("unexpected record: %v", m)
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr: %v", m)
	}
}

func TestLevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Options{Output: &bytes.Buffer{}}) })

	L().Info("dropped")
	L().Warn("kept")
	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("expected only the warning, got %q", buf.String())
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvSource, "TRUE")
	t.Setenv(EnvFile, "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	t.Setenv(EnvLevel, "")
	if got := FromEnv().Level; got != "info" {
		t.Fatalf("expected info default, got %q", got)
	}
}

func TestContextFieldsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Options{Output: &bytes.Buffer{}}) })

	ctx := WithLanguage(WithProject(context.Background(), "p-42"), "en")
	WithComponent("editor").InfoContext(ctx, "saved")
	WithComponent("editor").Info("no context")

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %q", buf.String())
	}
	if lines[0]["project"] != "p-42" || lines[0]["lang"] != "en" || lines[0]["component"] != "editor" {
		t.Fatalf("missing context attrs: %v", lines[0])
	}
	if _, ok := lines[1]["project"]; ok {
		t.Fatalf("record without context must not carry a project: %v", lines[1])
	}
	if _, ok := ProjectFrom(context.Background()); ok {
		t.Fatalf("empty context must not report a project")
	}
	if _, ok := LanguageFrom(WithLanguage(context.Background(), "")); ok {
		t.Fatalf("empty language must not be reported")
	}
}
