/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"math"
	"strings"
	"unicode/utf8"

	"dsfstudio/internal/lang"
)

// Fixed bubble text metrics. They match the 12px font the viewer renders
// bubble text with, so outlines line up with browser text without asking
// the browser to measure.
const (
	FontSize        = 12
	LineHeightRatio = 1.4
	CharWidthWide   = 12.0
	CharWidthNarrow = 7.2
	// EmptyChars is the width, in wide characters, of an empty bubble.
	EmptyChars = 3
)

// LineHeight is FontSize*LineHeightRatio rounded to whole units (17).
var LineHeight = float32(math.Round(FontSize * LineHeightRatio))

// Box is a measured text block.
type Box struct {
	W, H   float32
	Lines  int // max(1, number of lines)
	MaxLen int // max(1, runes in the longest line)
}

// CharWidth returns the per-character advance for class.
func CharWidth(class lang.CharClass) float32 {
	if class == lang.Narrow {
		return CharWidthNarrow
	}
	return CharWidthWide
}

// Measure sizes text with the fixed metrics. Lines are split on '\n' and
// lengths are counted in runes. In vertical mode lines become columns, so
// width and height swap roles.
func Measure(text string, class lang.CharClass, vertical bool) Box {
	if text == "" {
		return Box{W: CharWidthWide * EmptyChars, H: LineHeight, Lines: 1, MaxLen: EmptyChars}
	}
	lines := strings.Split(text, "\n")
	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, utf8.RuneCountInString(l))
	}
	n := max(1, len(lines))
	maxLen = max(1, maxLen)
	cw := CharWidth(class)
	if vertical {
		return Box{W: float32(n) * LineHeight, H: float32(maxLen) * cw, Lines: n, MaxLen: maxLen}
	}
	return Box{W: float32(maxLen) * cw, H: float32(n) * LineHeight, Lines: n, MaxLen: maxLen}
}
