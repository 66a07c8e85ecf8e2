/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package localize

import (
	"testing"

	"dsfstudio/internal/domain"
	"dsfstudio/internal/lang"
)

func TestLegacyTextFallsBackForEveryLanguage(t *testing.T) {
	b := domain.Bubble{Localized: domain.Localized{Text: "legacy"}}
	for _, code := range []string{"ja", "en", "fr", ""} {
		if got := New(code).Text(&b.Localized); got != "legacy" {
			t.Fatalf("lang %q: got %q", code, got)
		}
	}
	if got := New("ja").Text(nil); got != "" {
		t.Fatalf("nil entity must resolve to empty string, got %q", got)
	}
}

func TestSetTextDualWrites(t *testing.T) {
	b := domain.Bubble{Localized: domain.Localized{Text: "legacy"}}
	r := New("en")
	r.SetText(&b.Localized, "Hello")
	if b.Texts["en"] != "Hello" || b.Text != "Hello" {
		t.Fatalf("expected dual write, got %+v", b.Localized)
	}
	// another language still falls back to the legacy field, which now
	// carries the latest edit
	if got := New("ja").Text(&b.Localized); got != "Hello" {
		t.Fatalf("expected fallback to updated legacy text, got %q", got)
	}
	New("ja").SetText(&b.Localized, "こんにちは")
	if got := r.Text(&b.Localized); got != "Hello" {
		t.Fatalf("per-language value must win over legacy, got %q", got)
	}
}

func TestEmptyPerLanguageValueIsNotFallback(t *testing.T) {
	s := domain.Section{Localized: domain.Localized{Text: "old", Texts: map[string]string{"ja": ""}}}
	if got := New("ja").Text(&s.Localized); got != "" {
		t.Fatalf("explicit empty value must be returned, got %q", got)
	}
}

func TestPositionFallbackAndDualWrite(t *testing.T) {
	b := domain.Bubble{X: 10, Y: 20}
	ja, en := New("ja"), New("en")
	if p := en.Position(&b); p.X != 10 || p.Y != 20 {
		t.Fatalf("expected legacy position, got %+v", p)
	}
	ja.SetPosition(&b, domain.Position{X: 70, Y: 80})
	if b.X != 70 || b.Positions["ja"].Y != 80 {
		t.Fatalf("expected dual write, got %+v", b)
	}
	en.SetPosition(&b, domain.Position{X: 5, Y: 6})
	if p := ja.Position(&b); p.X != 70 {
		t.Fatalf("per-language positions must be independent, got %+v", p)
	}
}

func TestWritingModeResolution(t *testing.T) {
	configs := map[string]domain.LanguageConfig{
		"ja": {WritingMode: lang.Horizontal},
		"en": {WritingMode: lang.VerticalRL},
	}
	if m := New("ja").WritingMode(configs); m != lang.Horizontal {
		t.Fatalf("project config must win for ja, got %s", m)
	}
	if m := New("ja").WritingMode(nil); m != lang.VerticalRL {
		t.Fatalf("ja default must be vertical, got %s", m)
	}
	if New("en").Vertical(configs) {
		t.Fatalf("en does not allow vertical-rl; must be forced horizontal")
	}
	if d := New("ja").PageDirection(nil); d != "left" {
		t.Fatalf("vertical pages advance left, got %s", d)
	}
	if d := New("en").PageDirection(nil); d != "right" {
		t.Fatalf("horizontal pages advance right, got %s", d)
	}
}
