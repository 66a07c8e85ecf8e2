/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"dsfstudio/internal/domain"
	"dsfstudio/internal/lang"
)

func TestDecodeLegacyDocument(t *testing.T) {
	// shape written by the first studio release: string positions, no
	// languages, no configs, no texts
	legacy := `{
		"projectId": null,
		"title": "old",
		"sections": [
			{"type": "image", "background": "a.png", "bubbles": [
				{"x": "42.5", "y": "10", "text": "やあ", "tailX": 0, "tailY": 0, "shape": "thought"}
			]},
			{"type": "text", "text": "おわり"}
		]
	}`
	p, err := Decode([]byte(legacy))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.ID.IsNull() || p.Title != "old" {
		t.Fatalf("unexpected header: %+v", p)
	}
	if len(p.Languages) != 1 || p.Languages[0] != lang.Fallback {
		t.Fatalf("expected fallback language list, got %v", p.Languages)
	}
	if p.LanguageConfigs["ja"].WritingMode != lang.VerticalRL {
		t.Fatalf("expected synthesized ja config, got %+v", p.LanguageConfigs)
	}
	b := p.Sections[0].Bubbles[0]
	if b.X != 42.5 || b.Y != 10 || b.Shape != "thought" {
		t.Fatalf("unexpected bubble: %+v", b)
	}
	if _, ty := b.Tail(); ty != domain.DefaultTailY {
		t.Fatalf("zero tailY must read as default, got %v", ty)
	}
	if p.Sections[1].Bubbles != nil {
		t.Fatalf("text sections must not gain bubbles")
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no sections":    `{"title": "x", "sections": []}`,
		"wrong type":     `{"sections": "nope"}`,
		"bad percent":    `{"sections": [{"type": "image", "bubbles": [{"x": "left"}]}]}`,
		"numeric title":  `{"title": 5, "sections": [{"type": "image"}]}`,
		"not json at all": `}{`,
	}
	for name, doc := range cases {
		if _, err := Decode([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Decode([]byte(`{"sections": []}`)); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestEncodeDecodeKeepsShape(t *testing.T) {
	p := domain.NewProject()
	p.Sections[0].Bubbles = append(p.Sections[0].Bubbles, domain.Bubble{X: 1, Y: 2, Shape: "shout"})
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"projectId": null`, `"languageConfigs"`, `"writingMode": "vertical-rl"`, `"bubbles"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("encoded document lacks %s:\n%s", want, s)
		}
	}
	if err := Validate(data); err != nil {
		t.Fatalf("encoded document must satisfy the schema: %v", err)
	}
	q, err := Decode(data)
	if err != nil || q.Sections[0].Bubbles[0].Shape != "shout" {
		t.Fatalf("decode: %v %+v", err, q)
	}
}

func TestNormalizeClampsDisallowedMode(t *testing.T) {
	p := domain.Project{
		Sections:        []domain.Section{{}},
		Languages:       []string{"EN", "en", "ja"},
		LanguageConfigs: map[string]domain.LanguageConfig{"en": {WritingMode: lang.VerticalRL}},
	}
	Normalize(&p)
	if len(p.Languages) != 2 || p.Languages[0] != "en" {
		t.Fatalf("expected deduplicated languages, got %v", p.Languages)
	}
	if p.LanguageConfigs["en"].WritingMode != lang.Horizontal {
		t.Fatalf("en cannot be vertical; got %s", p.LanguageConfigs["en"].WritingMode)
	}
	if p.Sections[0].Type != domain.SectionImage || p.Sections[0].Bubbles == nil {
		t.Fatalf("untyped section must become an image section with bubbles")
	}
}

func TestSummarize(t *testing.T) {
	p := domain.NewProject()
	p.ID = "abc"
	p.Title = "T"
	p.Sections[0].Bubbles = []domain.Bubble{{Localized: domain.Localized{Text: strings.Repeat("あ", 40)}}}
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	s := Summarize(p, now)
	if s.ID != "abc" || s.Title != "T" || s.Sections != 1 || !s.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected summary header: %+v", s)
	}
	if s.Cover != domain.InitialBackground {
		t.Fatalf("cover must be the first image background, got %q", s.Cover)
	}
	if n := utf8.RuneCountInString(s.Preview); n != PreviewRunes {
		t.Fatalf("preview must be cut to %d runes, got %d", PreviewRunes, n)
	}
}
