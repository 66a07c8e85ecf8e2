/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene turns the active section of a document into a render
// model: resolved texts, positions, writing mode and bubble geometry.
// Renderers (SVG, PNG, PDF, a UI) draw a Scene without touching the
// document or measuring anything themselves.
package scene

import (
	"dsfstudio/internal/balloon"
	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
	"dsfstudio/internal/localize"
	"dsfstudio/internal/vector"
)

// PageSize is the logical editor canvas in pixels (9:16).
var PageSize = vector.Size{W: 360, H: 640}

// Bubble is one positioned bubble. The layout's TextCenter is placed at
// Pos (percent of the page).
type Bubble struct {
	Index    int
	Pos      domain.Position
	Text     string
	Selected bool
	Layout   balloon.Layout
}

// Anchor returns the page pixel where the layout's text centre sits.
func (b Bubble) Anchor(page vector.Size) vector.Pt {
	return vector.Pt{X: float32(b.Pos.X) / 100 * page.W, Y: float32(b.Pos.Y) / 100 * page.H}
}

// Origin is the page pixel of the canvas's top-left corner.
func (b Bubble) Origin(page vector.Size) vector.Pt {
	a := b.Anchor(page)
	l := b.Layout
	return vector.Pt{X: a.X - (l.TextCenter.X - l.ViewBox.X), Y: a.Y - (l.TextCenter.Y - l.ViewBox.Y)}
}

// FromLayout maps layout coordinates onto page pixels.
func (b Bubble) FromLayout(page vector.Size) vector.Affine2D {
	a := b.Anchor(page)
	return vector.Translate(a.X-b.Layout.TextCenter.X, a.Y-b.Layout.TextCenter.Y)
}

// Scene is the render model of one section.
type Scene struct {
	Section       int
	Kind          string
	Background    string
	ImagePosition domain.ImagePosition
	Text          string
	Lang          string
	Vertical      bool
	Align         string
	SectionAlign  string
	Direction     string
	Bubbles       []Bubble
}

// Build renders the active section. It ends the render pass by healing the
// document selection, so a stale bubble index never reaches the output.
func Build(d *document.Document, c *Cache) Scene {
	d.Heal()
	return BuildSection(d, d.ActiveSection, c)
}

// BuildSection renders section i in the document's active language.
func BuildSection(d *document.Document, i int, c *Cache) Scene {
	r := d.Resolver()
	sec := &d.Project.Sections[i]
	vertical := r.Vertical(d.Project.LanguageConfigs)
	sc := Scene{
		Section:       i,
		Kind:          sec.Type,
		Background:    sec.Background,
		ImagePosition: domain.DefaultImagePosition,
		Text:          r.Text(&sec.Localized),
		Lang:          d.ActiveLang,
		Vertical:      vertical,
		Align:         r.Align(),
		SectionAlign:  r.SectionAlign(),
		Direction:     r.PageDirection(d.Project.LanguageConfigs),
	}
	if sec.ImagePosition != nil {
		sc.ImagePosition = *sec.ImagePosition
	}
	if !sec.HasBubbles() {
		return sc
	}
	sc.Bubbles = make([]Bubble, 0, len(sec.Bubbles))
	for j := range sec.Bubbles {
		b := &sec.Bubbles[j]
		sc.Bubbles = append(sc.Bubbles, bubble(r, b, j, i == d.ActiveSection && j == d.ActiveBubble, d.ActiveLang, vertical, c))
	}
	return sc
}

func bubble(r localize.Resolver, b *domain.Bubble, idx int, selected bool, code string, vertical bool, c *Cache) Bubble {
	text := r.Text(&b.Localized)
	tx, ty := b.Tail()
	in := balloon.Input{
		Text:     text,
		Lang:     code,
		Vertical: vertical,
		TailX:    float32(tx),
		TailY:    float32(ty),
		Selected: selected,
	}
	return Bubble{
		Index:    idx,
		Pos:      r.Position(b),
		Text:     text,
		Selected: selected,
		Layout:   c.Layout(b.Shape, in),
	}
}

// HitTest returns the index of the topmost bubble under p (percent of the
// page), or document.NoBubble.
func (s Scene) HitTest(p domain.Position, page vector.Size) int {
	px := vector.Pt{X: float32(p.X) / 100 * page.W, Y: float32(p.Y) / 100 * page.H}
	for i := len(s.Bubbles) - 1; i >= 0; i-- {
		b := s.Bubbles[i]
		if b.Layout.Contains(b.FromLayout(page).Invert().Apply(px)) {
			return b.Index
		}
	}
	return document.NoBubble
}
