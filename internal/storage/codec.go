/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"dsfstudio/internal/domain"
	"dsfstudio/internal/lang"
)

//go:embed schema/project.schema.json
var projectSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(projectSchema)

// ErrSchema reports a document that does not match the persisted shape.
var ErrSchema = errors.New("document does not match schema")

// Validate checks raw document bytes against the embedded JSON schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

// Encode marshals p in human-readable form.
func Encode(p domain.Project) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode validates, parses and normalizes a persisted document. The result
// is a fresh value; nothing is returned on failure.
func Decode(data []byte) (domain.Project, error) {
	if err := Validate(data); err != nil {
		return domain.Project{}, err
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Project{}, fmt.Errorf("parse project: %w", err)
	}
	Normalize(&p)
	if err := p.Validate(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// Read decodes a document from r.
func Read(r io.Reader) (domain.Project, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Project{}, fmt.Errorf("read project: %w", err)
	}
	return Decode(data)
}

// Normalize fills what older documents omit: a missing language list
// becomes the fallback language, missing language configurations are
// synthesized from the language defaults, and image sections get an empty
// bubble list.
func Normalize(p *domain.Project) {
	langs := p.Languages[:0:0]
	for _, l := range p.Languages {
		l = lang.Normalize(l)
		if l != "" && !contains(langs, l) {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{lang.Fallback}
	}
	p.Languages = langs
	if p.LanguageConfigs == nil {
		p.LanguageConfigs = make(map[string]domain.LanguageConfig, len(langs))
	}
	for _, l := range langs {
		props := lang.Get(l)
		c, ok := p.LanguageConfigs[l]
		if !ok || c.WritingMode == "" || !props.Allows(c.WritingMode) {
			p.LanguageConfigs[l] = domain.LanguageConfig{WritingMode: props.DefaultWritingMode}
		}
	}
	for i := range p.Sections {
		s := &p.Sections[i]
		if s.Type == "" {
			s.Type = domain.SectionImage
		}
		if s.HasBubbles() && s.Bubbles == nil {
			s.Bubbles = []domain.Bubble{}
		}
		for j := range s.Bubbles {
			if s.Bubbles[j].Shape == "" {
				s.Bubbles[j].Shape = domain.DefaultShape
			}
		}
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
