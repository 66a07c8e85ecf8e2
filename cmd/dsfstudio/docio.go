/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dsfstudio/internal/document"
	"dsfstudio/internal/storage"
)

// readDoc loads a project file; "-" reads stdin.
func readDoc(path string) (*document.Document, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	p, err := storage.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d := document.FromProject(p)
	session.Doc = d
	return d, nil
}

// writeDoc stores the project of d at path through a temp file and rename;
// "-" writes stdout.
func writeDoc(path string, d *document.Document) error {
	data, err := storage.Encode(d.Project)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err := io.Copy(os.Stdout, bytes.NewReader(data))
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".dsf-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
