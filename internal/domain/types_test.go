/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestProjectJSONShape(t *testing.T) {
	p := NewProject()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"projectId":null`, `"bubbles":[]`, `"languages":["ja"]`, `"writingMode":"vertical-rl"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}
	var got Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.ID.IsNull() || len(got.Sections) != 1 || got.Sections[0].Background != InitialBackground {
		t.Fatalf("unexpected decoded project: %+v", got)
	}
}

func TestLegacyBubbleDecode(t *testing.T) {
	raw := `{"x":"42.5","y":10,"text":"hi","shape":"thought"}`
	var b Bubble
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.X != 42.5 || b.Y != 10 || b.Text != "hi" || b.Texts != nil {
		t.Fatalf("unexpected bubble: %+v", b)
	}
	x, y := b.Tail()
	if x != 0 || y != DefaultTailY {
		t.Fatalf("expected default tail, got %v,%v", x, y)
	}
	out, _ := json.Marshal(b)
	if !strings.Contains(string(out), `"x":42.5`) {
		t.Fatalf("percent must be written as number: %s", out)
	}
}

func TestPercentRejectsGarbage(t *testing.T) {
	var p Percent
	if err := json.Unmarshal([]byte(`"abc"`), &p); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
	if Percent(140).Clamp() != 100 || Percent(-3).Clamp() != 0 {
		t.Fatalf("clamp mismatch")
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := NewProject()
	p.Sections[0].Texts = map[string]string{"ja": "a"}
	p.Sections[0].ImagePosition = &ImagePosition{Scale: 1}
	p.Sections[0].Bubbles = append(p.Sections[0].Bubbles, Bubble{
		Localized: Localized{Text: "x", Texts: map[string]string{"ja": "x"}},
		Positions: map[string]Position{"ja": {X: 1, Y: 2}},
	})
	c := p.Clone()
	c.Sections[0].Texts["ja"] = "changed"
	c.Sections[0].ImagePosition.Scale = 3
	c.Sections[0].Bubbles[0].Texts["ja"] = "changed"
	c.Sections[0].Bubbles[0].Positions["ja"] = Position{X: 9}
	c.Languages[0] = "en"
	c.LanguageConfigs["ja"] = LanguageConfig{}

	if p.Sections[0].Texts["ja"] != "a" || p.Sections[0].ImagePosition.Scale != 1 {
		t.Fatalf("section state leaked into clone")
	}
	if p.Sections[0].Bubbles[0].Texts["ja"] != "x" || p.Sections[0].Bubbles[0].Positions["ja"].X != 1 {
		t.Fatalf("bubble state leaked into clone")
	}
	if p.Languages[0] != "ja" || p.LanguageConfigs["ja"].WritingMode == "" {
		t.Fatalf("language state leaked into clone")
	}
}

func TestValidate(t *testing.T) {
	p := NewProject()
	if err := p.Validate(); err != nil {
		t.Fatalf("new project must be valid: %v", err)
	}
	p.Sections = nil
	if err := p.Validate(); err != ErrNoSections {
		t.Fatalf("expected ErrNoSections, got %v", err)
	}
}
