/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"testing"

	"dsfstudio/internal/balloon"
	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
	"dsfstudio/internal/vector"
)

func TestBuildResolvesActiveLanguage(t *testing.T) {
	d := document.New()
	d.AddBubbleAtCenter()
	d.AddLanguage("en")
	d.SwitchLanguage("en")
	d.SetActiveText("Hello")

	sc := Build(d, NewCache(nil))
	if sc.Lang != "en" || sc.Vertical || sc.Direction != "right" || sc.Align != "center" {
		t.Fatalf("unexpected language resolution: %+v", sc)
	}
	if len(sc.Bubbles) != 1 || sc.Bubbles[0].Text != "Hello" || !sc.Bubbles[0].Selected {
		t.Fatalf("unexpected bubbles: %+v", sc.Bubbles)
	}
	if sc.Bubbles[0].Layout.Stroke.Color != vector.Accent {
		t.Fatalf("selected bubble must use the accent stroke")
	}
	if sc.ImagePosition != domain.DefaultImagePosition {
		t.Fatalf("missing image position must read as identity")
	}

	d.SwitchLanguage("ja")
	sc = Build(d, nil)
	if !sc.Vertical || sc.Direction != "left" || sc.Bubbles[0].Text != "セリフ" {
		t.Fatalf("ja must render vertical with its own text: %+v", sc)
	}
}

func TestBuildHealsSelection(t *testing.T) {
	d := document.New()
	d.AddBubbleAtCenter()
	d.Section().Bubbles = d.Section().Bubbles[:0]
	Build(d, nil)
	if d.ActiveBubble != document.NoBubble {
		t.Fatalf("render pass must reset a dangling selection")
	}
}

func TestTextSectionHasNoBubbles(t *testing.T) {
	d := document.New()
	d.UpdateSectionField("type", domain.SectionText)
	d.SetActiveText("narration")
	sc := Build(d, nil)
	if sc.Kind != domain.SectionText || sc.Text != "narration" || len(sc.Bubbles) != 0 {
		t.Fatalf("unexpected text scene: %+v", sc)
	}
}

func TestCacheReusesLayouts(t *testing.T) {
	c := NewCache(nil)
	in := balloon.Input{Text: "abc", Lang: "ja", TailY: 20}
	a := c.Layout("speech", in)
	b := c.Layout("speech", in)
	if c.Len() != 1 {
		t.Fatalf("expected one cached layout, got %d", c.Len())
	}
	a.Outline.Cmds[0].Data[0] = -999
	a.Dots = append(a.Dots, vector.Ellipse{})
	if c2 := c.Layout("speech", in); c2.Outline.Cmds[0].Data[0] == -999 || len(c2.Dots) != len(b.Dots) {
		t.Fatalf("callers must not be able to corrupt the cache")
	}
	c.Layout("thought", in)
	in.Selected = true
	c.Layout("speech", in)
	if c.Len() != 3 {
		t.Fatalf("every input must be part of the key, got %d entries", c.Len())
	}
	c.Flush()
	if c.Len() != 0 {
		t.Fatalf("flush must empty the cache")
	}
}

func TestHitTest(t *testing.T) {
	d := document.New()
	d.AddBubble(domain.Position{X: 20, Y: 20})
	d.AddBubble(domain.Position{X: 70, Y: 70})
	sc := Build(d, nil)
	if got := sc.HitTest(domain.Position{X: 70, Y: 70}, PageSize); got != 1 {
		t.Fatalf("expected bubble 1 under its anchor, got %d", got)
	}
	if got := sc.HitTest(domain.Position{X: 20, Y: 20}, PageSize); got != 0 {
		t.Fatalf("expected bubble 0 under its anchor, got %d", got)
	}
	if got := sc.HitTest(domain.Position{X: 95, Y: 5}, PageSize); got != document.NoBubble {
		t.Fatalf("expected no hit on empty page area, got %d", got)
	}
	o := sc.Bubbles[0].Origin(PageSize)
	a := sc.Bubbles[0].Anchor(PageSize)
	l := sc.Bubbles[0].Layout
	if d := o.X + l.TextCenter.X - l.ViewBox.X - a.X; d > 1e-3 || d < -1e-3 {
		t.Fatalf("canvas origin and anchor disagree: %+v %+v", o, a)
	}
}
