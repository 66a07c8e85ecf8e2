/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log sets up the application's slog logger. Records go to the
// console in a compact text form or as JSON, and optionally to a rotating
// JSON file. Records logged with a context also carry the project and
// language stored in it.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"dsfstudio/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// AppName is attached to every record.
const AppName = "dsfstudio"

// Env var names read by FromEnv.
const (
	EnvLevel  = "DSF_LOG_LEVEL"
	EnvFormat = "DSF_LOG_FORMAT"
	EnvSource = "DSF_LOG_SOURCE"
	EnvFile   = "DSF_LOG_FILE"
)

// Options controls Init. The zero value logs INFO and above to stderr in
// console format.
type Options struct {
	Level     string // debug|info|warn|error
	Format    string // console|json
	AddSource bool
	// File, when set, receives JSON records through a rotating writer.
	File string
	// Output receives console records; nil means stderr.
	Output io.Writer
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	file    *lj.Logger
)

// L returns the application logger, configuring it from the environment on
// first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init replaces the application logger and slog's default. A log file
// opened by an earlier Init is closed.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})
	} else {
		console = newConsoleHandler(out, lvl, opts.AddSource)
	}
	handlers := []slog.Handler{withContextFields(console)}

	var w *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		w = &lj.Logger{Filename: path, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		fh := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})
		handlers = append(handlers, withContextFields(fh))
	}

	h := handlers[0]
	if len(handlers) > 1 {
		h = fanout(handlers)
	}
	logger := slog.New(h).With(
		slog.String("app", AppName),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	prev := file
	current, file = logger, w
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(logger)
}

// FromEnv builds Options from the DSF_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "console"),
		AddSource: strings.EqualFold(getenv(EnvSource, "false"), "true"),
		File:      os.Getenv(EnvFile),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type ctxKey int

const (
	projectKey ctxKey = iota
	languageKey
)

// WithProject returns a context whose log records carry the project id.
// Only the *Context logging methods (InfoContext, ...) see it.
func WithProject(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, projectKey, id)
}

// WithLanguage returns a context whose log records carry a language code.
func WithLanguage(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, languageKey, code)
}

// ProjectFrom returns the project id stored by WithProject.
func ProjectFrom(ctx context.Context) (string, bool) { return fromCtx(ctx, projectKey) }

// LanguageFrom returns the language stored by WithLanguage.
func LanguageFrom(ctx context.Context) (string, bool) { return fromCtx(ctx, languageKey) }

func fromCtx(ctx context.Context, k ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(k).(string)
	return v, ok && v != ""
}
