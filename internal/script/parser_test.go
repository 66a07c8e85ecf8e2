/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"testing"

	"dsfstudio/internal/domain"
	"dsfstudio/internal/localize"
)

const sample = `Title: The Station

# Platform
ALICE: Hello, world!
  And a continuation line.
; a note that is not imported
BOB: Is it late? @thought

CAPTION: Meanwhile, elsewhere...
  far away.
CAROL: WAIT! @shout

Panel 3 Close-up
Image: blob:abc.jpg
`

func TestParseSectionsAndDialogue(t *testing.T) {
	s, errs := Parse(sample)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if s.Title != "The Station" {
		t.Fatalf("title = %q", s.Title)
	}
	if len(s.Sections) != 5 {
		t.Fatalf("expected 5 sections, got %d: %+v", len(s.Sections), s.Sections)
	}
	first := s.Sections[0]
	if first.Kind != SectionImage || first.Heading != "Platform" || len(first.Lines) != 2 {
		t.Fatalf("unexpected first section: %+v", first)
	}
	if l := first.Lines[0]; l.Speaker != "ALICE" || l.Text != "Hello, world!\nAnd a continuation line." {
		t.Fatalf("unexpected dialogue: %+v", l)
	}
	if l := first.Lines[1]; l.Shape != "thought" || l.Text != "Is it late?" {
		t.Fatalf("tag not applied: %+v", l)
	}
	caption := s.Sections[1]
	if caption.Kind != SectionText || caption.Lines[0].Text != "Meanwhile, elsewhere...\nfar away." {
		t.Fatalf("unexpected caption: %+v", caption)
	}
	if l := s.Sections[2].Lines[0]; s.Sections[2].Kind != SectionImage || l.Shape != "shout" {
		t.Fatalf("dialogue after a caption must open an image section: %+v", s.Sections[2])
	}
	if h := s.Sections[3].Heading; h != "Panel 3 Close-up" {
		t.Fatalf("panel heading = %q", h)
	}
	if bg := s.Sections[4].Background; bg != "blob:abc.jpg" {
		t.Fatalf("background = %q", bg)
	}
}

func TestParseReportsBadLines(t *testing.T) {
	_, errs := Parse("  orphan continuation\n???\nALICE: ok")
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %+v", errs)
	}
	if errs[0].Line != 1 || errs[1].Line != 2 {
		t.Fatalf("wrong line numbers: %+v", errs)
	}
	if errs[1].Error() != "line 2: unrecognized line: ???" {
		t.Fatalf("message = %q", errs[1].Error())
	}
}

func TestParseJapaneseNames(t *testing.T) {
	s, errs := Parse("アキラ：こんにちは\n")
	if len(errs) != 0 || len(s.Sections) != 1 {
		t.Fatalf("parse: %+v %+v", s, errs)
	}
	if l := s.Sections[0].Lines[0]; l.Speaker != "アキラ" || l.Text != "こんにちは" {
		t.Fatalf("unexpected line: %+v", l)
	}
}

func TestBuildProject(t *testing.T) {
	s, _ := Parse(sample)
	p, err := Build(s, "en")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Title != "The Station" || len(p.Sections) != 5 {
		t.Fatalf("unexpected project: %q, %d sections", p.Title, len(p.Sections))
	}
	if len(p.Languages) != 1 || p.Languages[0] != "en" {
		t.Fatalf("languages = %v", p.Languages)
	}
	r := localize.New("en")
	b := p.Sections[0].Bubbles
	if len(b) != 2 || r.Text(&b[0].Localized) != "Hello, world!\nAnd a continuation line." || b[1].Shape != "thought" {
		t.Fatalf("unexpected bubbles: %+v", b)
	}
	// horizontal languages start on the left and go down
	if b[0].X != 30 || b[1].X != 70 || b[0].Y >= b[1].Y {
		t.Fatalf("unexpected placement: %+v", b)
	}
	if p.Sections[1].Type != domain.SectionText || r.Text(&p.Sections[1].Localized) != "Meanwhile, elsewhere...\nfar away." {
		t.Fatalf("unexpected text section: %+v", p.Sections[1])
	}
	if p.Sections[4].Background != "blob:abc.jpg" {
		t.Fatalf("background = %q", p.Sections[4].Background)
	}
}

func TestBuildVerticalStartsRight(t *testing.T) {
	s, _ := Parse("A: one\nB: two")
	p, err := Build(s, "ja")
	if err != nil {
		t.Fatal(err)
	}
	b := p.Sections[0].Bubbles
	if b[0].X != 70 || b[1].X != 30 {
		t.Fatalf("vertical pages read right to left: %+v", b)
	}
}

func TestBuildEmpty(t *testing.T) {
	if _, err := Build(Script{}, "en"); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}
