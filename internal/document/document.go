/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document holds the editable story document and its session state.
// A Document is an owned value: nothing in this package is global, so
// several documents can be edited side by side.
package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"dsfstudio/internal/balloon"
	"dsfstudio/internal/domain"
	"dsfstudio/internal/lang"
	"dsfstudio/internal/localize"
)

// NoBubble is the active bubble index when no bubble is selected.
const NoBubble = -1

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownField    = errors.New("unknown section field")
	ErrInvalidValue    = errors.New("invalid field value")
	ErrLastLanguage    = errors.New("cannot remove the last language")
	ErrUnknownLanguage = errors.New("language not in project")
	ErrNoBubbles       = errors.New("text sections carry no bubbles")
	ErrCancelled       = errors.New("cancelled")
)

// ThumbSize is the section strip thumbnail size preference.
type ThumbSize string

const (
	ThumbS ThumbSize = "S"
	ThumbM ThumbSize = "M"
	ThumbL ThumbSize = "L"
)

// Document is a project plus the editor session that works on it.
type Document struct {
	Project       domain.Project
	ActiveLang    string
	ActiveSection int
	ActiveBubble  int
	ThumbSize     ThumbSize
}

// New returns a document holding a fresh project.
func New() *Document { return FromProject(domain.NewProject()) }

// FromProject takes ownership of p. The first language becomes active.
func FromProject(p domain.Project) *Document {
	if len(p.Languages) == 0 {
		p.Languages = []string{lang.Fallback}
	}
	if len(p.Sections) == 0 {
		p.Sections = []domain.Section{domain.NewSection()}
	}
	d := &Document{
		Project:      p,
		ActiveLang:   p.Languages[0],
		ActiveBubble: NoBubble,
		ThumbSize:    ThumbM,
	}
	d.Heal()
	return d
}

// Resolver reads and writes localized fields in the active language.
func (d *Document) Resolver() localize.Resolver { return localize.New(d.ActiveLang) }

// Section returns the active section.
func (d *Document) Section() *domain.Section { return &d.Project.Sections[d.ActiveSection] }

// Bubble returns the selected bubble, or nil.
func (d *Document) Bubble() *domain.Bubble {
	s := d.Section()
	if d.ActiveBubble < 0 || d.ActiveBubble >= len(s.Bubbles) {
		return nil
	}
	return &s.Bubbles[d.ActiveBubble]
}

// Vertical reports whether the active language renders vertically.
func (d *Document) Vertical() bool {
	return d.Resolver().Vertical(d.Project.LanguageConfigs)
}

// NextPageDirection is the swipe direction that advances to the next section.
func (d *Document) NextPageDirection() string {
	return d.Resolver().PageDirection(d.Project.LanguageConfigs)
}

// Heal re-establishes the selection invariants after any mutation: the
// active section is clamped into range and a dangling bubble selection is
// reset to NoBubble. It never fails.
func (d *Document) Heal() {
	if len(d.Project.Sections) == 0 {
		d.Project.Sections = []domain.Section{domain.NewSection()}
	}
	d.ActiveSection = min(max(d.ActiveSection, 0), len(d.Project.Sections)-1)
	if d.Bubble() == nil {
		d.ActiveBubble = NoBubble
	}
	if !d.Project.HasLanguage(d.ActiveLang) {
		d.ActiveLang = d.Project.Languages[0]
	}
}

// AddSection appends a default image section and selects it.
func (d *Document) AddSection() {
	d.Project.Sections = append(d.Project.Sections, domain.NewSection())
	d.ActiveSection = len(d.Project.Sections) - 1
	d.ActiveBubble = NoBubble
}

// ChangeSection selects section i and clears the bubble selection.
func (d *Document) ChangeSection(i int) error {
	if i < 0 || i >= len(d.Project.Sections) {
		return fmt.Errorf("section %d of %d: %w", i, len(d.Project.Sections), ErrIndexOutOfRange)
	}
	d.ActiveSection = i
	d.ActiveBubble = NoBubble
	return nil
}

// MoveSection swaps the active section with its neighbour delta steps away.
// It reports false when the target lies outside the list.
func (d *Document) MoveSection(delta int) bool {
	j := d.ActiveSection + delta
	if delta == 0 || j < 0 || j >= len(d.Project.Sections) {
		return false
	}
	ss := d.Project.Sections
	ss[d.ActiveSection], ss[j] = ss[j], ss[d.ActiveSection]
	d.ActiveSection = j
	d.ActiveBubble = NoBubble
	return true
}

// DeleteActive removes the selected bubble, or else the active section.
// The last remaining section is never removed; DeleteActive then reports
// false and changes nothing.
func (d *Document) DeleteActive() bool {
	if d.Bubble() != nil {
		s := d.Section()
		s.Bubbles = append(s.Bubbles[:d.ActiveBubble], s.Bubbles[d.ActiveBubble+1:]...)
		d.ActiveBubble = NoBubble
		return true
	}
	if len(d.Project.Sections) <= 1 {
		return false
	}
	d.Project.Sections = append(d.Project.Sections[:d.ActiveSection], d.Project.Sections[d.ActiveSection+1:]...)
	d.ActiveSection = max(0, d.ActiveSection-1)
	d.ActiveBubble = NoBubble
	return true
}

// DeletesSection reports whether DeleteActive would remove a whole section.
func (d *Document) DeletesSection() bool {
	return d.Bubble() == nil && len(d.Project.Sections) > 1
}

// DefaultBubbleText is the placeholder text of a new bubble.
func DefaultBubbleText(code string) string {
	if code == "en" {
		return "Text"
	}
	return "セリフ"
}

// AddBubble appends a speech bubble at pos on the active section and
// selects it. Both legacy and per-language fields are populated.
func (d *Document) AddBubble(pos domain.Position) (int, error) {
	s := d.Section()
	if !s.HasBubbles() {
		return NoBubble, ErrNoBubbles
	}
	pos = domain.Position{X: pos.X.Clamp(), Y: pos.Y.Clamp()}
	b := domain.Bubble{
		TailX: 0,
		TailY: domain.DefaultTailY,
		Shape: domain.DefaultShape,
	}
	r := d.Resolver()
	r.SetText(&b.Localized, DefaultBubbleText(d.ActiveLang))
	r.SetPosition(&b, pos)
	s.Bubbles = append(s.Bubbles, b)
	d.ActiveBubble = len(s.Bubbles) - 1
	return d.ActiveBubble, nil
}

// AddBubbleAtCenter adds a bubble in the middle of the section.
func (d *Document) AddBubbleAtCenter() (int, error) {
	return d.AddBubble(domain.Position{X: 50, Y: 50})
}

// SelectBubble selects bubble i of the active section; NoBubble clears.
func (d *Document) SelectBubble(i int) error {
	if i == NoBubble {
		d.ActiveBubble = NoBubble
		return nil
	}
	if i < 0 || i >= len(d.Section().Bubbles) {
		return fmt.Errorf("bubble %d: %w", i, ErrIndexOutOfRange)
	}
	d.ActiveBubble = i
	return nil
}

func (d *Document) bubbleAt(i int) (*domain.Bubble, error) {
	s := d.Section()
	if i < 0 || i >= len(s.Bubbles) {
		return nil, fmt.Errorf("bubble %d: %w", i, ErrIndexOutOfRange)
	}
	return &s.Bubbles[i], nil
}

// MoveBubble sets the position of bubble i in the active language,
// clamped to the visible canvas.
func (d *Document) MoveBubble(i int, pos domain.Position) error {
	b, err := d.bubbleAt(i)
	if err != nil {
		return err
	}
	d.Resolver().SetPosition(b, domain.Position{X: pos.X.Clamp(), Y: pos.Y.Clamp()})
	return nil
}

// SetBubbleTail sets the tail offset of bubble i.
func (d *Document) SetBubbleTail(i int, x, y float64) error {
	b, err := d.bubbleAt(i)
	if err != nil {
		return err
	}
	b.TailX, b.TailY = x, y
	return nil
}

// DeleteBubble removes bubble i and fixes up the selection.
func (d *Document) DeleteBubble(i int) error {
	if _, err := d.bubbleAt(i); err != nil {
		return err
	}
	s := d.Section()
	s.Bubbles = append(s.Bubbles[:i], s.Bubbles[i+1:]...)
	switch {
	case d.ActiveBubble == i:
		d.ActiveBubble = NoBubble
	case d.ActiveBubble > i:
		d.ActiveBubble--
	}
	return nil
}

// UpdateBubbleShape sets the shape of the selected bubble. Unknown names
// are stored as given and render as speech. It reports false when no
// bubble is selected.
func (d *Document) UpdateBubbleShape(name string) bool {
	b := d.Bubble()
	if b == nil {
		return false
	}
	b.Shape = name
	return true
}

// ShapeNames lists the shapes a bubble can take.
func ShapeNames() []string { return balloon.Names() }

// DiscardsBubbles reports whether setting key to value would drop the
// active section's bubbles.
func (d *Document) DiscardsBubbles(key string, value any) bool {
	v, ok := value.(string)
	return key == "type" && ok && v == domain.SectionText && len(d.Section().Bubbles) > 0
}

// UpdateSectionField sets one field of the active section. Supported keys
// are type, background, text and imagePosition. Changing the type to text
// discards all bubbles of the section. On error nothing is changed.
func (d *Document) UpdateSectionField(key string, value any) error {
	s := d.Section()
	switch key {
	case "type":
		v, ok := value.(string)
		if !ok || (v != domain.SectionImage && v != domain.SectionText) {
			return fmt.Errorf("type %v: %w", value, ErrInvalidValue)
		}
		if v == domain.SectionText && len(s.Bubbles) > 0 {
			s.Bubbles = []domain.Bubble{}
			d.ActiveBubble = NoBubble
		}
		s.Type = v
	case "background":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("background %T: %w", value, ErrInvalidValue)
		}
		s.Background = v
	case "text":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("text %T: %w", value, ErrInvalidValue)
		}
		d.Resolver().SetText(&s.Localized, v)
	case "imagePosition":
		switch v := value.(type) {
		case nil:
			s.ImagePosition = nil
		case domain.ImagePosition:
			s.ImagePosition = &v
		case *domain.ImagePosition:
			if v == nil {
				s.ImagePosition = nil
				break
			}
			ip := *v
			s.ImagePosition = &ip
		default:
			return fmt.Errorf("imagePosition %T: %w", value, ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%q: %w", key, ErrUnknownField)
	}
	return nil
}

// SetActiveText writes the selected bubble's text, or the section text
// when no bubble is selected.
func (d *Document) SetActiveText(v string) {
	r := d.Resolver()
	if b := d.Bubble(); b != nil {
		r.SetText(&b.Localized, v)
		return
	}
	r.SetText(&d.Section().Localized, v)
}

// ActiveText is the text SetActiveText would replace.
func (d *Document) ActiveText() string {
	r := d.Resolver()
	if b := d.Bubble(); b != nil {
		return r.Text(&b.Localized)
	}
	return r.Text(&d.Section().Localized)
}

// SetTitle sets the project title.
func (d *Document) SetTitle(title string) { d.Project.Title = title }

// SetThumbSize changes the thumbnail size preference.
func (d *Document) SetThumbSize(s ThumbSize) error {
	switch s {
	case ThumbS, ThumbM, ThumbL:
		d.ThumbSize = s
		return nil
	}
	return fmt.Errorf("thumb size %q: %w", s, ErrInvalidValue)
}

// AddLanguage adds code to the project. It reports false when the language
// is already present. A writing mode configuration is seeded from the
// language defaults.
func (d *Document) AddLanguage(code string) bool {
	code = lang.Normalize(code)
	if code == "" || d.Project.HasLanguage(code) {
		return false
	}
	d.Project.Languages = append(d.Project.Languages, code)
	if d.Project.LanguageConfigs == nil {
		d.Project.LanguageConfigs = make(map[string]domain.LanguageConfig)
	}
	if _, ok := d.Project.LanguageConfigs[code]; !ok {
		d.Project.LanguageConfigs[code] = domain.LanguageConfig{WritingMode: lang.Get(code).DefaultWritingMode}
	}
	return true
}

// RemoveLanguage drops code from the language list. Texts and positions
// stored for it stay on sections and bubbles. When the active language is
// removed, the first remaining one becomes active.
func (d *Document) RemoveLanguage(code string) error {
	code = lang.Normalize(code)
	if !d.Project.HasLanguage(code) {
		return fmt.Errorf("%q: %w", code, ErrUnknownLanguage)
	}
	if len(d.Project.Languages) <= 1 {
		return ErrLastLanguage
	}
	out := d.Project.Languages[:0:0]
	for _, l := range d.Project.Languages {
		if l != code {
			out = append(out, l)
		}
	}
	d.Project.Languages = out
	if d.ActiveLang == code {
		d.ActiveLang = out[0]
	}
	return nil
}

// SwitchLanguage makes code the active language.
func (d *Document) SwitchLanguage(code string) error {
	code = lang.Normalize(code)
	if !d.Project.HasLanguage(code) {
		return fmt.Errorf("%q: %w", code, ErrUnknownLanguage)
	}
	d.ActiveLang = code
	return nil
}

// SetWritingMode configures the writing mode of code. Modes the language
// does not allow are rejected.
func (d *Document) SetWritingMode(code string, mode lang.WritingMode) error {
	code = lang.Normalize(code)
	if !lang.Get(code).Allows(mode) {
		return fmt.Errorf("%s for %q: %w", mode, code, ErrInvalidValue)
	}
	if d.Project.LanguageConfigs == nil {
		d.Project.LanguageConfigs = make(map[string]domain.LanguageConfig)
	}
	d.Project.LanguageConfigs[code] = domain.LanguageConfig{WritingMode: mode}
	return nil
}

// state is the part of a document that history snapshots cover.
type state struct {
	Sections      []domain.Section `json:"sections"`
	ActiveSection int              `json:"activeSection"`
	ActiveBubble  int              `json:"activeBubble"`
}

// Capture encodes the sections and selection into a self-contained blob.
func (d *Document) Capture() ([]byte, error) {
	b, err := json.Marshal(state{
		Sections:      d.Project.Sections,
		ActiveSection: d.ActiveSection,
		ActiveBubble:  d.ActiveBubble,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return b, nil
}

// Restore replaces the sections and selection with a captured blob. The
// document is left untouched when the blob cannot be decoded.
func (d *Document) Restore(blob []byte) error {
	var st state
	if err := json.Unmarshal(blob, &st); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if len(st.Sections) == 0 {
		return fmt.Errorf("restore: %w", domain.ErrNoSections)
	}
	d.Project.Sections = st.Sections
	d.ActiveSection = st.ActiveSection
	d.ActiveBubble = st.ActiveBubble
	d.Heal()
	return nil
}
