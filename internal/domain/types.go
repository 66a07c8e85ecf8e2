/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the persisted data model of a story project. JSON tags
// follow the document shape stored by the web studio so existing documents
// load unchanged.

import (
	"errors"

	"dsfstudio/internal/lang"
)

// Section kinds.
const (
	SectionImage = "image"
	SectionText  = "text"
)

const (
	// DefaultShape is used for new bubbles and for unknown shape names.
	DefaultShape = "speech"
	// DefaultTailY is the tail length used when a bubble stores none (or 0).
	DefaultTailY = 20.0
	// DefaultBackground is the placeholder image of newly added sections.
	DefaultBackground = "https://picsum.photos/600/1066"
	// InitialBackground is the placeholder of the first section of a new project.
	InitialBackground = "https://picsum.photos/id/10/600/1066"
)

var (
	ErrNoSections  = errors.New("project has no sections")
	ErrNoLanguages = errors.New("project has no languages")
)

// Project is the top-level document. Session state (selection, active
// language) is owned by the editor, not persisted here.
type Project struct {
	ID              OptionalID                `json:"projectId"`
	Title           string                    `json:"title"`
	Sections        []Section                 `json:"sections"`
	Languages       []string                  `json:"languages"`
	LanguageConfigs map[string]LanguageConfig `json:"languageConfigs"`
}

// LanguageConfig is the per-project, per-language layout configuration.
type LanguageConfig struct {
	WritingMode lang.WritingMode `json:"writingMode"`
}

// Localized carries a legacy single-language text and its per-language
// variants. Read and write it through localize.Resolver only.
type Localized struct {
	Text  string            `json:"text"`
	Texts map[string]string `json:"texts,omitempty"`
}

// Section is one page of the story.
type Section struct {
	Type          string         `json:"type"`
	Background    string         `json:"background,omitempty"`
	Localized                    // text, texts
	ImagePosition *ImagePosition `json:"imagePosition,omitempty"`
	Bubbles       []Bubble       `json:"bubbles"`
}

// ImagePosition is the pan/zoom transform of a section background.
type ImagePosition struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// DefaultImagePosition is the identity pan/zoom.
var DefaultImagePosition = ImagePosition{X: 0, Y: 0, Scale: 1}

// Position is a point in percent of the section canvas.
type Position struct {
	X Percent `json:"x"`
	Y Percent `json:"y"`
}

// Bubble is a speech, thought or shout callout on an image section.
type Bubble struct {
	X         Percent             `json:"x"`
	Y         Percent             `json:"y"`
	Localized                     // text, texts
	Positions map[string]Position `json:"positions,omitempty"`
	TailX     float64             `json:"tailX"`
	TailY     float64             `json:"tailY"`
	Shape     string              `json:"shape"`
}

// Tail returns the tail offset with stored zero values replaced by defaults.
func (b Bubble) Tail() (x, y float64) {
	y = b.TailY
	if y == 0 {
		y = DefaultTailY
	}
	return b.TailX, y
}

// HasBubbles reports whether the section kind can carry bubbles.
func (s Section) HasBubbles() bool { return s.Type != SectionText }

// NewProject returns the document a fresh studio session starts with.
func NewProject() Project {
	s := NewSection()
	s.Background = InitialBackground
	return Project{
		Title:     "",
		Sections:  []Section{s},
		Languages: []string{"ja"},
		LanguageConfigs: map[string]LanguageConfig{
			"ja": {WritingMode: lang.Get("ja").DefaultWritingMode},
		},
	}
}

// NewSection returns a default image section.
func NewSection() Section {
	return Section{
		Type:       SectionImage,
		Background: DefaultBackground,
		Bubbles:    []Bubble{},
	}
}

// Validate checks the structural invariants every loaded project must hold.
func (p *Project) Validate() error {
	if len(p.Sections) == 0 {
		return ErrNoSections
	}
	if len(p.Languages) == 0 {
		return ErrNoLanguages
	}
	return nil
}

// HasLanguage reports whether code is in the project's language list.
func (p *Project) HasLanguage(code string) bool {
	for _, l := range p.Languages {
		if l == code {
			return true
		}
	}
	return false
}
