/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"dsfstudio/internal/balloon"
	"dsfstudio/internal/document"
	"dsfstudio/internal/scene"
	"dsfstudio/internal/textlayout"
	"dsfstudio/internal/vector"
)

// PDFOptions controls PDF export behavior. Units are points and one page
// point maps to one editor pixel.
type PDFOptions struct {
	Lang string // "" keeps the document's active language
	// FontPath is a TTF used for all text. Without it the core Helvetica
	// font is used, which only covers Latin-1.
	FontPath string
	Images   ImageSource
	Cache    *scene.Cache
}

const pdfFamily = "dsf"

// PDF writes one page per section.
func PDF(w io.Writer, d *document.Document, opt PDFOptions) error {
	page := scene.PageSize
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(page.W), Ht: float64(page.H)},
	})
	pdf.SetTitle(d.Project.Title, true)
	pdf.SetCreator("dsfstudio", false)
	pdf.SetAutoPageBreak(false, 0)

	tr := func(s string) string { return s }
	if opt.FontPath != "" {
		pdf.AddUTF8Font(pdfFamily, "", opt.FontPath)
		pdf.SetFont(pdfFamily, "", textlayout.FontSize)
	} else {
		pdf.SetFont("Helvetica", "", textlayout.FontSize)
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	if pdf.Err() {
		return fmt.Errorf("pdf font: %w", pdf.Error())
	}

	family := pdfFamily
	if opt.FontPath == "" {
		family = "Helvetica"
	}
	for i, sc := range Scenes(d, opt.Lang, opt.Cache) {
		pdf.AddPage()
		if sc.Kind == "text" {
			pdfSectionText(pdf, sc, page, family, tr)
			continue
		}
		pdfBackground(pdf, sc, page, opt.Images, i)
		pdf.SetFont(family, "", textlayout.FontSize)
		for _, b := range sc.Bubbles {
			pdfBubble(pdf, b.Layout, b.FromLayout(page), tr(b.Text), sc.Vertical)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfSectionText(pdf *gofpdf.Fpdf, sc scene.Scene, page vector.Size, family string, tr func(string) string) {
	const size = 16
	pdf.SetFont(family, "", size)
	pdf.SetTextColor(0, 0, 0)
	align := "C"
	switch sc.SectionAlign {
	case "left":
		align = "L"
	case "right":
		align = "R"
	}
	text := tr(sc.Text)
	n := len(pdf.SplitLines([]byte(text), float64(page.W)-80))
	lh := size * 1.8
	pdf.SetXY(40, float64(page.H)/2-lh*float64(n)/2)
	pdf.MultiCell(float64(page.W)-80, lh, text, "", align, false)
}

func pdfBackground(pdf *gofpdf.Fpdf, sc scene.Scene, page vector.Size, src ImageSource, idx int) {
	name, typ, r := pdfImage(src, sc.Background)
	if r == nil {
		pdf.SetFillColor(238, 238, 238)
		pdf.Rect(0, 0, float64(page.W), float64(page.H), "F")
		return
	}
	name = fmt.Sprintf("bg-%d-%s", idx, name)
	info := pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: typ}, r)
	if info == nil {
		return
	}
	ip := sc.ImagePosition
	if ip.Scale <= 0 {
		ip.Scale = 1
	}
	iw, ih := info.Width(), info.Height()
	k := max(float64(page.W)/iw, float64(page.H)/ih) * ip.Scale
	w, h := iw*k, ih*k
	x := (float64(page.W)-w)/2 + ip.X
	y := (float64(page.H)-h)/2 + ip.Y
	pdf.ClipRect(0, 0, float64(page.W), float64(page.H), false)
	pdf.ImageOptions(name, x, y, w, h, false, gofpdf.ImageOptions{ImageType: typ}, 0, "")
	pdf.ClipEnd()
}

// pdfImage loads ref for gofpdf, which reads JPEG and PNG only; other
// formats are transcoded to PNG.
func pdfImage(src ImageSource, ref string) (string, string, io.Reader) {
	if src == nil || ref == "" {
		return "", "", nil
	}
	data, err := src.Open(ref)
	if err != nil {
		return "", "", nil
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", "", nil
	}
	switch format {
	case "jpeg":
		return ref, "JPG", bytes.NewReader(data)
	case "png":
		return ref, "PNG", bytes.NewReader(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", "", nil
	}
	return ref, "PNG", &buf
}

func pdfBubble(pdf *gofpdf.Fpdf, l balloon.Layout, m vector.Affine2D, text string, vertical bool) {
	style := ""
	if l.Fill.Enabled {
		c := l.Fill.Color
		pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		style += "F"
	}
	if l.Stroke.Enabled {
		c := l.Stroke.Color
		pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
		pdf.SetLineWidth(float64(l.Stroke.Width))
		style += "D"
	}
	if style == "" {
		style = "D"
	}
	p := l.Outline.Transform(m)
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			pdf.MoveTo(float64(d[0]), float64(d[1]))
		case vector.LineTo:
			pdf.LineTo(float64(d[0]), float64(d[1]))
		case vector.QuadTo:
			pdf.CurveTo(float64(d[0]), float64(d[1]), float64(d[2]), float64(d[3]))
		case vector.CubicTo:
			pdf.CurveBezierCubicTo(float64(d[0]), float64(d[1]), float64(d[2]), float64(d[3]), float64(d[4]), float64(d[5]))
		case vector.Close:
			pdf.ClosePath()
		}
	}
	pdf.DrawPath(style)
	for _, d := range l.Dots {
		c := m.Apply(d.C)
		pdf.Ellipse(float64(c.X), float64(c.Y), float64(d.RX), float64(d.RY), 0, style)
	}

	if text == "" {
		return
	}
	pdf.SetTextColor(0, 0, 0)
	c := m.Apply(l.TextCenter)
	lh := float64(textlayout.LineHeight)
	lines := strings.Split(text, "\n")
	if vertical {
		x := float64(c.X) + lh*float64(len(lines)-1)/2
		for _, ln := range lines {
			runes := []rune(ln)
			y := float64(c.Y) - textlayout.CharWidthWide*float64(len(runes)-1)/2 + textlayout.FontSize*0.35
			for _, r := range runes {
				ch := string(r)
				pdf.Text(x-pdf.GetStringWidth(ch)/2, y, ch)
				y += textlayout.CharWidthWide
			}
			x -= lh
		}
		return
	}
	y := float64(c.Y) - lh*float64(len(lines)-1)/2 + textlayout.FontSize*0.35
	for _, ln := range lines {
		w := pdf.GetStringWidth(ln)
		pdf.Text(float64(c.X)-w/2, y, ln)
		y += lh
	}
}
