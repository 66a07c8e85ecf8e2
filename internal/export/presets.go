/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"dsfstudio/internal/document"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/scene"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export across formats and languages.
//
// Layout of OutDir:
//   - <name>.json, <name>.pdf, <name>.cbz and preview.html at the top level
//   - svg/<lang>/section-NNN.svg and png/<lang>/section-NNN.png per section
type BatchOptions struct {
	Preset    PresetName
	Formats   []string // json, svg, png, pdf, cbz, html; empty means preset defaults
	Languages []string // empty means all project languages
	OutDir    string
	PNG       PNGOptions
	PDF       PDFOptions
	// Parallel bounds concurrent section renders; 0 means 4.
	Parallel int
}

// Batch runs the export and returns the written file paths.
func Batch(ctx context.Context, d *document.Document, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	langs := opt.Languages
	if len(langs) == 0 {
		langs = d.Project.Languages
	}
	if opt.OutDir == "" {
		opt.OutDir = string(opt.Preset)
		if opt.OutDir == "" {
			opt.OutDir = "export"
		}
	}
	if err := os.MkdirAll(opt.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	if opt.Parallel <= 0 {
		opt.Parallel = 4
	}
	l := applog.WithOperation(applog.WithComponent("export"), "batch")
	ctx = applog.WithProject(ctx, d.Project.ID.String())
	name := strings.TrimSuffix(FileName(d.Project), ".json")
	cache := opt.PDF.Cache
	if cache == nil {
		cache = scene.NewCache(nil)
	}

	var written []string
	out := func(rel string) string {
		p := filepath.Join(opt.OutDir, rel)
		written = append(written, p)
		return p
	}
	for _, f := range formats {
		switch f = strings.ToLower(strings.TrimSpace(f)); f {
		case "json":
			var buf bytes.Buffer
			if err := JSON(&buf, d.Project); err != nil {
				return written, err
			}
			if err := os.WriteFile(out(FileName(d.Project)), buf.Bytes(), 0o644); err != nil {
				return written, fmt.Errorf("write json: %w", err)
			}
		case "svg", "png":
			for _, code := range langs {
				paths, err := renderSections(ctx, d, code, f, filepath.Join(opt.OutDir, f, code), cache, opt)
				written = append(written, paths...)
				if err != nil {
					return written, fmt.Errorf("%s %s: %w", f, code, err)
				}
				l.DebugContext(applog.WithLanguage(ctx, code), "sections rendered",
					slog.String("format", f), slog.Int("files", len(paths)))
			}
		case "pdf":
			for _, code := range langs {
				po := opt.PDF
				po.Lang, po.Cache = code, cache
				if err := writeFile(out(fmt.Sprintf("%s.%s.pdf", name, code)), func(buf *bytes.Buffer) error {
					return PDF(buf, d, po)
				}); err != nil {
					return written, fmt.Errorf("pdf %s: %w", code, err)
				}
			}
		case "cbz":
			for _, code := range langs {
				if err := writeFile(out(fmt.Sprintf("%s.%s.cbz", name, code)), func(buf *bytes.Buffer) error {
					return CBZ(buf, d, code, opt.PNG)
				}); err != nil {
					return written, fmt.Errorf("cbz %s: %w", code, err)
				}
			}
		case "html":
			if err := writeFile(out("preview.html"), func(buf *bytes.Buffer) error {
				return Preview(buf, d, cache)
			}); err != nil {
				return written, err
			}
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		l.InfoContext(ctx, "format exported", slog.String("format", f))
	}
	return written, nil
}

// renderSections writes one file per section, rendering in parallel.
func renderSections(ctx context.Context, d *document.Document, code, format, dir string, c *scene.Cache, opt BatchOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	scenes := Scenes(d, code, c)
	paths := make([]string, len(scenes))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opt.Parallel)
	for i, sc := range scenes {
		paths[i] = filepath.Join(dir, sectionName(i, format))
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return writeFile(paths[i], func(buf *bytes.Buffer) error {
				if format == "svg" {
					buf.Write(SectionSVG(sc, SVGOptions{}))
					return nil
				}
				return WritePNG(buf, PNG(sc, opt.PNG))
			})
		})
	}
	return paths, eg.Wait()
}

func writeFile(path string, fill func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"json", "svg", "png", "html"}
	case PresetPrint:
		return []string{"pdf", "cbz"}
	default:
		return []string{"json"}
	}
}
