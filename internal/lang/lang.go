/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package lang holds the static language-properties table: display label,
// text alignment, line-breaking rule and the writing modes a language may
// be rendered in.
package lang

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// WritingMode uses the CSS names that the persisted documents carry.
type WritingMode string

const (
	Horizontal WritingMode = "horizontal-tb"
	VerticalRL WritingMode = "vertical-rl"
)

// CharClass selects the per-character advance used by text measurement.
type CharClass int

const (
	// Wide is the full-width class used by CJK scripts.
	Wide CharClass = iota
	// Narrow is the proportional class used by Latin-like scripts.
	Narrow
)

// Word-break rules.
const (
	BreakAll    = "break-all"
	BreakNormal = "normal"
)

// Fallback is used for codes that cannot be parsed at all.
const Fallback = "ja"

// Props describes how text in a language is laid out.
type Props struct {
	Code               string
	Label              string
	Align              string // text alignment inside bubbles
	SectionAlign       string // text alignment on text sections
	WordBreak          string
	WritingModes       []WritingMode
	DefaultWritingMode WritingMode
	Class              CharClass
}

// Allows reports whether m is one of the language's writing modes.
func (p Props) Allows(m WritingMode) bool {
	for _, w := range p.WritingModes {
		if w == m {
			return true
		}
	}
	return false
}

var table = map[string]Props{
	"ja": {
		Code: "ja", Label: "日本語", Align: "left", SectionAlign: "left", WordBreak: BreakAll,
		WritingModes: []WritingMode{Horizontal, VerticalRL}, DefaultWritingMode: VerticalRL, Class: Wide,
	},
	"en": {
		Code: "en", Label: "English", Align: "center", SectionAlign: "left", WordBreak: BreakNormal,
		WritingModes: []WritingMode{Horizontal}, DefaultWritingMode: Horizontal, Class: Narrow,
	},
	"zh": {
		Code: "zh", Label: "中文", Align: "left", SectionAlign: "left", WordBreak: BreakAll,
		WritingModes: []WritingMode{Horizontal, VerticalRL}, DefaultWritingMode: Horizontal, Class: Wide,
	},
	"ko": {
		Code: "ko", Label: "한국어", Align: "center", SectionAlign: "left", WordBreak: BreakNormal,
		WritingModes: []WritingMode{Horizontal}, DefaultWritingMode: Horizontal, Class: Wide,
	},
}

// order keeps All deterministic.
var order = []string{"ja", "en", "zh", "ko"}

// Lookup returns the table entry for code's base language, if any.
func Lookup(code string) (Props, bool) {
	if p, ok := table[code]; ok {
		return p, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return Props{}, false
	}
	base, _ := tag.Base()
	p, ok := table[base.String()]
	return p, ok
}

// Get never fails: codes outside the table get properties derived from
// their script, and unparsable codes get the Japanese defaults.
func Get(code string) Props {
	if p, ok := Lookup(code); ok {
		return p
	}
	tag, err := language.Parse(code)
	if err != nil {
		return table[Fallback]
	}
	p := Props{
		Code:         code,
		Label:        label(tag, code),
		SectionAlign: "left",
		Class:        classOf(tag),
	}
	if p.Class == Wide {
		p.Align = "left"
		p.WordBreak = BreakAll
		p.WritingModes = []WritingMode{Horizontal, VerticalRL}
	} else {
		p.Align = "center"
		p.WordBreak = BreakNormal
		p.WritingModes = []WritingMode{Horizontal}
	}
	p.DefaultWritingMode = Horizontal
	return p
}

// All lists the languages known to the table in display order.
func All() []Props {
	out := make([]Props, 0, len(order))
	for _, c := range order {
		out = append(out, table[c])
	}
	return out
}

// ClassOf returns the char-width class for code.
func ClassOf(code string) CharClass { return Get(code).Class }

// Normalize lower-cases and trims a user-entered code.
func Normalize(code string) string { return strings.ToLower(strings.TrimSpace(code)) }

func classOf(tag language.Tag) CharClass {
	script, _ := tag.Script()
	switch script.String() {
	case "Jpan", "Hira", "Kana", "Hani", "Hans", "Hant", "Kore", "Hang":
		return Wide
	}
	return Narrow
}

func label(tag language.Tag, code string) string {
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
