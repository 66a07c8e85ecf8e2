/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders documents for publishing: the JSON document
// itself, SVG/PNG pages per section, a PDF, a CBZ archive, an HTML preview
// and the viewer embed snippet.
package export

import (
	"fmt"
	"io"

	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
	"dsfstudio/internal/scene"
	"dsfstudio/internal/storage"
)

// DefaultName is the file stem used before a project has an id.
const DefaultName = "dsf-project"

// FileName is the download name of the document JSON.
func FileName(p domain.Project) string {
	if p.ID.IsNull() {
		return DefaultName + ".json"
	}
	return p.ID.String() + ".json"
}

// JSON writes the document in its persisted shape.
func JSON(w io.Writer, p domain.Project) error {
	b, err := storage.Encode(p)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// ImageSource resolves a section background reference to encoded image
// bytes. media.BlobDir satisfies it for "blob:" references.
type ImageSource interface {
	Open(ref string) ([]byte, error)
}

// Scenes renders every section of d in language code ("" keeps the
// document's active language). Nothing is selected in the result and d is
// not modified.
func Scenes(d *document.Document, code string, c *scene.Cache) []scene.Scene {
	view := *d
	view.ActiveBubble = document.NoBubble
	if code != "" {
		view.ActiveLang = code
	}
	out := make([]scene.Scene, len(d.Project.Sections))
	for i := range d.Project.Sections {
		out[i] = scene.BuildSection(&view, i, c)
	}
	return out
}

func sectionName(i int, ext string) string {
	return fmt.Sprintf("section-%03d.%s", i+1, ext)
}
