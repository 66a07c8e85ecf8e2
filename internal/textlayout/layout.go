/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Face-based layout for raster and PDF export. Bubble outlines are sized by
// Measure; this file only decides where lines break and how wide they are
// once a real font face draws them.

import (
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"dsfstudio/internal/lang"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is the baseline-to-baseline distance.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

// Line is a single laid out line.
type Line struct {
	Text  string
	Width float32
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines   []Line
	Width   float32
	Height  float32
	Metrics Metrics
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// WordWrapLayouter breaks text into lines no wider than a maximum width.
// With lang.BreakAll any rune boundary may break (CJK); with
// lang.BreakNormal only spaces do, and an overlong word keeps its own line.
type WordWrapLayouter struct {
	Provider  Provider
	Font      FontSpec
	WordBreak string
}

func NewWordWrap(provider Provider, wordBreak string) *WordWrapLayouter {
	return &WordWrapLayouter{Provider: provider, WordBreak: wordBreak}
}

// Layout wraps text; explicit newlines always break.
func (l *WordWrapLayouter) Layout(text string, maxWidth float32) TextBox {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	face, met := l.Provider.Resolve(l.Font)
	drawer := &font.Drawer{Face: face}
	box := TextBox{Metrics: met}
	add := func(s string) {
		w := advance(drawer, s)
		box.Lines = append(box.Lines, Line{Text: s, Width: w})
		box.Width = max(box.Width, w)
		box.Height += met.LineHeight()
	}
	for _, para := range strings.Split(text, "\n") {
		for _, line := range l.wrap(drawer, para, maxWidth) {
			add(line)
		}
	}
	return box
}

func (l *WordWrapLayouter) wrap(d *font.Drawer, para string, maxWidth float32) []string {
	if para == "" || maxWidth <= 0 {
		return []string{para}
	}
	var units []string
	if l.WordBreak == lang.BreakAll {
		for _, r := range para {
			units = append(units, string(r))
		}
	} else {
		units = splitKeepSpaces(para)
	}
	var out []string
	var cur strings.Builder
	var curW float32
	for _, u := range units {
		w := advance(d, u)
		if curW > 0 && curW+w > maxWidth {
			out = append(out, strings.TrimRightFunc(cur.String(), unicode.IsSpace))
			cur.Reset()
			curW = 0
			if strings.TrimSpace(u) == "" {
				continue
			}
		}
		cur.WriteString(u)
		curW += w
	}
	out = append(out, cur.String())
	return out
}

// splitKeepSpaces splits "a b" into "a", " ", "b".
func splitKeepSpaces(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == ' ' {
			if i > start {
				out = append(out, s[start:i])
			}
			out = append(out, " ")
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}
