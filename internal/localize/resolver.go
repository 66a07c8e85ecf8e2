/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package localize resolves per-language fields with a fallback to the
// legacy single-language fields, and writes both on every update so older
// readers keep seeing the latest edit.
package localize

import (
	"dsfstudio/internal/domain"
	"dsfstudio/internal/lang"
)

// Resolver reads and writes localized fields for one active language.
type Resolver struct {
	Lang string
}

func New(code string) Resolver { return Resolver{Lang: code} }

// Text returns texts[lang], else the legacy text, else "".
func (r Resolver) Text(l *domain.Localized) string {
	if l == nil {
		return ""
	}
	if v, ok := l.Texts[r.Lang]; ok {
		return v
	}
	return l.Text
}

// SetText dual-writes texts[lang] and the legacy text.
func (r Resolver) SetText(l *domain.Localized, v string) {
	if l.Texts == nil {
		l.Texts = make(map[string]string)
	}
	l.Texts[r.Lang] = v
	l.Text = v
}

// Position returns positions[lang], else the legacy x/y.
func (r Resolver) Position(b *domain.Bubble) domain.Position {
	if p, ok := b.Positions[r.Lang]; ok {
		return p
	}
	return domain.Position{X: b.X, Y: b.Y}
}

// SetPosition dual-writes positions[lang] and the legacy x/y.
func (r Resolver) SetPosition(b *domain.Bubble, p domain.Position) {
	if b.Positions == nil {
		b.Positions = make(map[string]domain.Position)
	}
	b.Positions[r.Lang] = p
	b.X, b.Y = p.X, p.Y
}

// Props returns the static properties of the active language.
func (r Resolver) Props() lang.Props { return lang.Get(r.Lang) }

// Align is the text alignment for bubbles in the active language.
func (r Resolver) Align() string { return r.Props().Align }

// SectionAlign is the text alignment for text sections.
func (r Resolver) SectionAlign() string { return r.Props().SectionAlign }

// WritingMode prefers the project configuration, then the language default,
// and forces horizontal when the language does not allow the result.
func (r Resolver) WritingMode(configs map[string]domain.LanguageConfig) lang.WritingMode {
	props := r.Props()
	mode := props.DefaultWritingMode
	if c, ok := configs[r.Lang]; ok && c.WritingMode != "" {
		mode = c.WritingMode
	}
	if mode != lang.VerticalRL || !props.Allows(mode) {
		return lang.Horizontal
	}
	return mode
}

// Vertical reports whether text renders in vertical-rl columns.
func (r Resolver) Vertical(configs map[string]domain.LanguageConfig) bool {
	return r.WritingMode(configs) == lang.VerticalRL
}

// PageDirection is the swipe direction to the next section: right-to-left
// reading (vertical-rl) advances to the left.
func (r Resolver) PageDirection(configs map[string]domain.LanguageConfig) string {
	if r.Vertical(configs) {
		return "left"
	}
	return "right"
}
