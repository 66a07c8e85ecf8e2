/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
	"dsfstudio/internal/scene"
	"dsfstudio/internal/storage"
	"dsfstudio/internal/textlayout"
)

// sampleDoc has an image section with a speech and a thought bubble and
// a text section, in ja and en.
func sampleDoc(t *testing.T) *document.Document {
	t.Helper()
	d := document.New()
	d.SetTitle("Sample")
	if _, err := d.AddBubble(domain.Position{X: 30, Y: 30}); err != nil {
		t.Fatalf("add bubble: %v", err)
	}
	d.SetActiveText("Hello <world>")
	if _, err := d.AddBubble(domain.Position{X: 60, Y: 70}); err != nil {
		t.Fatalf("add bubble: %v", err)
	}
	d.UpdateBubbleShape("thought")
	d.AddSection()
	if err := d.UpdateSectionField("type", "text"); err != nil {
		t.Fatalf("section type: %v", err)
	}
	d.SetActiveText("Once & again")
	d.AddLanguage("en")
	if err := d.ChangeSection(0); err != nil {
		t.Fatalf("change section: %v", err)
	}
	return d
}

func TestFileName(t *testing.T) {
	p := domain.NewProject()
	if got := FileName(p); got != "dsf-project.json" {
		t.Fatalf("unsaved: got %q", got)
	}
	p.ID = "abc"
	if got := FileName(p); got != "abc.json" {
		t.Fatalf("saved: got %q", got)
	}
}

func TestJSONIsLoadable(t *testing.T) {
	d := sampleDoc(t)
	var buf bytes.Buffer
	if err := JSON(&buf, d.Project); err != nil {
		t.Fatalf("json: %v", err)
	}
	p, err := storage.Decode(buf.Bytes())
	if err != nil || p.Title != "Sample" || len(p.Sections) != 2 {
		t.Fatalf("decode: %v %+v", err, p)
	}
}

func TestScenesLeaveDocumentAlone(t *testing.T) {
	d := sampleDoc(t)
	active, bubble := d.ActiveLang, d.ActiveBubble
	scenes := Scenes(d, "en", nil)
	if len(scenes) != 2 || scenes[0].Lang != "en" {
		t.Fatalf("unexpected scenes %+v", scenes)
	}
	for _, b := range scenes[0].Bubbles {
		if b.Selected || b.Layout.Stroke.Width != 2 {
			t.Fatalf("exported bubbles must not be selected: %+v", b)
		}
	}
	if d.ActiveLang != active || d.ActiveBubble != bubble {
		t.Fatalf("document changed: lang=%s bubble=%d", d.ActiveLang, d.ActiveBubble)
	}
}

func TestSectionSVG(t *testing.T) {
	d := sampleDoc(t)
	scenes := Scenes(d, "", scene.NewCache(nil))
	svg := string(SectionSVG(scenes[0], SVGOptions{}))
	if !strings.HasPrefix(svg, "<?xml") || !strings.Contains(svg, `viewBox="0 0 360 640"`) {
		t.Fatalf("unexpected header: %.200s", svg)
	}
	if n := strings.Count(svg, "data-bubble="); n != 2 {
		t.Fatalf("expected 2 bubbles, got %d", n)
	}
	if n := strings.Count(svg, "<ellipse"); n != 3 {
		t.Fatalf("thought bubble must draw 3 dots, got %d", n)
	}
	if !strings.Contains(svg, "Hello &lt;world&gt;") || !strings.Contains(svg, `d="M`) {
		t.Fatalf("missing text or outline:\n%s", svg)
	}
	if !strings.Contains(svg, "writing-mode=\"vertical-rl\"") {
		t.Fatalf("ja bubbles render vertical by default")
	}

	text := string(SectionSVG(scenes[1], SVGOptions{Inline: true}))
	if strings.HasPrefix(text, "<?xml") || !strings.Contains(text, "Once &amp; again") || strings.Contains(text, "<path") {
		t.Fatalf("unexpected text section:\n%s", text)
	}
}

func TestBubbleSVG(t *testing.T) {
	sc := Scenes(sampleDoc(t), "en", nil)[0]
	b := sc.Bubbles[0]
	svg := string(BubbleSVG(b.Layout, b.Text, false))
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, "<tspan") || strings.Contains(svg, "vertical-rl") {
		t.Fatalf("unexpected bubble svg:\n%s", svg)
	}
}

func TestPNGSizeAndBackground(t *testing.T) {
	sc := Scenes(sampleDoc(t), "", nil)[0]
	img := PNG(sc, PNGOptions{Scale: 1})
	if b := img.Bounds(); b.Dx() != 360 || b.Dy() != 640 {
		t.Fatalf("unexpected size %v", b)
	}
	// no image source: grey placeholder
	c := color.RGBAModel.Convert(img.At(2, 2)).(color.RGBA)
	if c.R < 230 || c.R > 240 {
		t.Fatalf("expected grey placeholder, got %+v", c)
	}
	if b := PNG(sc, PNGOptions{}).Bounds(); b.Dx() != 720 {
		t.Fatalf("default scale must be 2, got %v", b)
	}
}

func TestTextSectionWrapsByLanguage(t *testing.T) {
	const maxWidth = 560
	ja := scene.Scene{Kind: "text", Lang: "ja", Text: strings.Repeat("あ", 200)}
	box := sectionText(ja, textlayout.BasicProvider{}, maxWidth)
	if len(box.Lines) < 3 || box.Width > maxWidth {
		t.Fatalf("ja text must wrap between runes: lines=%d width=%v", len(box.Lines), box.Width)
	}
	en := scene.Scene{Kind: "text", Lang: "en", Text: strings.Repeat("word ", 40)}
	box = sectionText(en, textlayout.BasicProvider{}, maxWidth)
	if len(box.Lines) < 2 || box.Width > maxWidth {
		t.Fatalf("en text must wrap at spaces: lines=%d width=%v", len(box.Lines), box.Width)
	}
	for _, ln := range box.Lines {
		for _, f := range strings.Fields(ln.Text) {
			if f != "word" {
				t.Fatalf("words must not be split: %q", ln.Text)
			}
		}
	}
	// the long ja section still renders
	if img := PNG(ja, PNGOptions{Scale: 1}); img.Bounds().Dx() != 360 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := PDF(&buf, sampleDoc(t), PDFOptions{Lang: "en"}); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("not a pdf: %.20q", buf.Bytes())
	}
}

func TestCBZ(t *testing.T) {
	var buf bytes.Buffer
	if err := CBZ(&buf, sampleDoc(t), "ja", PNGOptions{Scale: 0.5}); err != nil {
		t.Fatalf("cbz: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{"section-001.png", "section-002.png", "ComicInfo.xml"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("entries %v, want %v", names, want)
	}
	info := comicInfoXML("A & B", 2, "left", "ja")
	if !strings.Contains(info, "RightToLeft") || !strings.Contains(info, "A &amp; B") {
		t.Fatalf("manifest:\n%s", info)
	}
}

func TestEmbed(t *testing.T) {
	s := Embed("", EmbedOptions{})
	if !strings.Contains(s, "dsf-viewer-demo-project") || !strings.Contains(s, "defaultLanguage: 'ja'") {
		t.Fatalf("unexpected embed:\n%s", s)
	}
	s = Embed("p1", EmbedOptions{ScriptURL: "https://x/v.js", DefaultLang: "en", Theme: "dark", LanguageSwitch: true})
	for _, want := range []string{"projectId: 'p1'", `src="https://x/v.js"`, "theme: 'dark'", "enableLanguageSwitch: true"} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in:\n%s", want, s)
		}
	}
}

func TestPreview(t *testing.T) {
	var buf bytes.Buffer
	if err := Preview(&buf, sampleDoc(t), nil); err != nil {
		t.Fatalf("preview: %v", err)
	}
	html := buf.String()
	for _, want := range []string{`data-lang="ja"`, `data-lang="en"`, "<svg", `data-direction="left"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q", want)
		}
	}
	if strings.Contains(html, "<?xml") {
		t.Fatalf("inline svg must not carry a prolog")
	}
}

func TestBatchWebPreset(t *testing.T) {
	dir := t.TempDir()
	d := sampleDoc(t)
	files, err := Batch(context.Background(), d, BatchOptions{Preset: PresetWeb, OutDir: dir, PNG: PNGOptions{Scale: 0.5}})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, rel := range []string{"dsf-project.json", "svg/ja/section-001.svg", "svg/en/section-002.svg", "png/en/section-002.png", "preview.html"} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Fatalf("missing %s: %v", rel, err)
		}
	}
	if len(files) != 1+4+4+1 {
		t.Fatalf("unexpected file list %v", files)
	}
	if _, err := Batch(context.Background(), d, BatchOptions{Formats: []string{"gif"}, OutDir: dir}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
