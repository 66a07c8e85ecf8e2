/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "fmt"

// Script is a parsed comic script: an ordered list of sections, each an
// image page with dialogue or a page of narration.
type Script struct {
	Title    string
	Sections []Section
}

type SectionKind int

const (
	SectionImage SectionKind = iota
	SectionText
)

type Section struct {
	Kind       SectionKind
	Heading    string // panel or scene heading, informational only
	Background string // image URL or blob ref; empty keeps the default
	Lines      []Line
}

// LineType indicates the kind of a script line.
//
//	Dialogue:  NAME: text       a bubble on the current image section
//	Caption:   CAPTION: text    a text section (also NARRATION:, TEXT:)
//	Note:      ; text           author note, not imported
type LineType int

const (
	LineUnknown LineType = iota
	LineDialogue
	LineCaption
	LineNote
)

// Line is one logical line, continuation lines included.
type Line struct {
	Type    LineType
	Speaker string // upper-cased
	Text    string
	Shape   string // from @thought or @shout; empty means speech
	LineNo  int    // 1-based starting line number in the source
}

// Error represents a parse error with position context.
type Error struct {
	Line    int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }
