/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"fmt"

	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
	"dsfstudio/internal/lang"
)

var ErrEmpty = errors.New("script has no sections")

// Build turns a script into a project whose texts are in language code.
// Bubbles are spread over the section from top to bottom and alternate
// sides, starting on the side the reading order starts from.
func Build(s Script, code string) (domain.Project, error) {
	if len(s.Sections) == 0 {
		return domain.Project{}, ErrEmpty
	}
	code = lang.Normalize(code)
	if code == "" {
		code = lang.Fallback
	}
	d := document.New()
	if code != d.ActiveLang {
		d.AddLanguage(code)
		if err := d.RemoveLanguage(d.ActiveLang); err != nil {
			return domain.Project{}, err
		}
	}
	d.SetTitle(s.Title)
	rtl := d.Vertical()

	for i, sec := range s.Sections {
		if i > 0 {
			d.AddSection()
		}
		switch sec.Kind {
		case SectionText:
			if err := d.UpdateSectionField("type", domain.SectionText); err != nil {
				return domain.Project{}, err
			}
			var text string
			for _, l := range sec.Lines {
				if text != "" {
					text += "\n"
				}
				text += l.Text
			}
			if err := d.UpdateSectionField("text", text); err != nil {
				return domain.Project{}, err
			}
		default:
			if sec.Background != "" {
				if err := d.UpdateSectionField("background", sec.Background); err != nil {
					return domain.Project{}, err
				}
			}
			n := len(sec.Lines)
			for j, l := range sec.Lines {
				if _, err := d.AddBubble(spread(j, n, rtl)); err != nil {
					return domain.Project{}, fmt.Errorf("line %d: %w", l.LineNo, err)
				}
				d.SetActiveText(l.Text)
				if l.Shape != "" {
					d.UpdateBubbleShape(l.Shape)
				}
			}
		}
	}
	return d.Project, nil
}

// spread places bubble j of n. Positions are percentages of the section.
func spread(j, n int, rtl bool) domain.Position {
	y := 50.0
	if n > 1 {
		y = 15 + 70*float64(j)/float64(n-1)
	}
	left := j%2 == 1
	if !rtl {
		left = !left
	}
	x := 70.0
	if left {
		x = 30
	}
	return domain.Position{X: domain.Percent(x), Y: domain.Percent(y)}
}
