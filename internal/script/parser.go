/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"regexp"
	"strings"
)

// Shape tags recognized on dialogue lines.
var shapeTags = map[string]string{
	"thought": "thought",
	"think":   "thought",
	"shout":   "shout",
	"yell":    "shout",
}

var (
	reTitle   = regexp.MustCompile(`^(?i)title:\s*(.*)$`)
	reHeading = regexp.MustCompile(`^(#+)\s*(.*)$`)
	rePanel   = regexp.MustCompile(`^(?i)(panel|page)\b\s*(\d*)\s*[:.]?\s*(.*)$`)
	reImage   = regexp.MustCompile(`^(?i)image:\s*(.*)$`)
	reName    = regexp.MustCompile(`^([\p{L}\p{N}_\- ]{1,64})\s*[:：]\s*(.*)$`)
	reTag     = regexp.MustCompile(`(?i)\s*@([a-z]+)`)
)

// Parse parses script text.
//
//   - "Title: ..." sets the project title.
//   - "# heading", "Panel N" and "Page N" start a new image section.
//   - "Image: URL" starts a new image section with that background.
//   - "NAME: text" is dialogue on the current image section. @thought and
//     @shout in the text select the bubble shape and are removed.
//   - "CAPTION:", "NARRATION:" and "TEXT:" lines become text sections.
//   - Lines indented by two or more spaces continue the previous line.
//   - Lines starting with ';' are notes and "---" is a section break.
//
// Dialogue that follows a text section opens a new image section.
func Parse(input string) (Script, []Error) {
	p := parser{}
	sc := bufio.NewScanner(strings.NewReader(input))
	for sc.Scan() {
		p.lineNo++
		p.line(strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		p.errs = append(p.errs, Error{Line: p.lineNo + 1, Message: err.Error()})
	}
	p.flush()
	return p.s, p.errs
}

type parser struct {
	s       Script
	cur     *Section
	last    *Line
	lineNo  int
	errs    []Error
	pending bool // cur has been started explicitly and is kept even if empty
}

func (p *parser) flush() {
	if p.cur != nil && (p.pending || len(p.cur.Lines) > 0) {
		p.s.Sections = append(p.s.Sections, *p.cur)
	}
	p.cur, p.last, p.pending = nil, nil, false
}

func (p *parser) start(kind SectionKind, heading, bg string, explicit bool) {
	p.flush()
	p.cur = &Section{Kind: kind, Heading: heading, Background: bg}
	p.pending = explicit
}

func (p *parser) add(l Line) {
	p.cur.Lines = append(p.cur.Lines, l)
	p.last = &p.cur.Lines[len(p.cur.Lines)-1]
}

func (p *parser) line(raw string) {
	if strings.HasPrefix(raw, "  ") || strings.HasPrefix(raw, "\t") {
		cont := strings.TrimSpace(raw)
		if cont == "" {
			return
		}
		if p.last == nil {
			p.errs = append(p.errs, Error{Line: p.lineNo, Message: "continuation without a preceding line"})
			return
		}
		text, shape := takeTags(cont)
		p.last.Text += "\n" + text
		if shape != "" {
			p.last.Shape = shape
		}
		return
	}
	trim := strings.TrimSpace(raw)
	switch {
	case trim == "":
		p.last = nil
	case strings.HasPrefix(trim, ";"):
		p.last = nil
	case trim == "---":
		p.flush()
	case reTitle.MatchString(trim) && p.s.Title == "" && len(p.s.Sections) == 0 && p.cur == nil:
		p.s.Title = strings.TrimSpace(reTitle.FindStringSubmatch(trim)[1])
	case reHeading.MatchString(trim):
		p.start(SectionImage, strings.TrimSpace(reHeading.FindStringSubmatch(trim)[2]), "", true)
	case reImage.MatchString(trim):
		p.start(SectionImage, "", strings.TrimSpace(reImage.FindStringSubmatch(trim)[1]), true)
	case rePanel.MatchString(trim):
		m := rePanel.FindStringSubmatch(trim)
		p.start(SectionImage, strings.Join(strings.Fields(strings.Join(m[1:], " ")), " "), "", true)
	case reName.MatchString(trim):
		m := reName.FindStringSubmatch(trim)
		speaker := strings.ToUpper(strings.TrimSpace(m[1]))
		text, shape := takeTags(strings.TrimSpace(m[2]))
		switch speaker {
		case "CAPTION", "NARRATION", "TEXT":
			p.start(SectionText, "", "", false)
			p.add(Line{Type: LineCaption, Speaker: speaker, Text: text, LineNo: p.lineNo})
			// a caption section holds one line plus its continuations
			p.flush()
			p.reopenCaption()
		default:
			if p.cur == nil || p.cur.Kind != SectionImage {
				p.start(SectionImage, "", "", false)
			}
			p.add(Line{Type: LineDialogue, Speaker: speaker, Text: text, Shape: shape, LineNo: p.lineNo})
		}
	default:
		p.errs = append(p.errs, Error{Line: p.lineNo, Message: "unrecognized line: " + trim})
		p.last = nil
	}
}

// reopenCaption points continuations at the caption just flushed.
func (p *parser) reopenCaption() {
	last := &p.s.Sections[len(p.s.Sections)-1]
	p.last = &last.Lines[len(last.Lines)-1]
}

// takeTags strips @tags from text and returns the shape they select.
func takeTags(text string) (string, string) {
	shape := ""
	out := reTag.ReplaceAllStringFunc(text, func(tag string) string {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "@")))
		if s, ok := shapeTags[name]; ok {
			shape = s
			return ""
		}
		return tag
	})
	return strings.TrimSpace(out), shape
}
