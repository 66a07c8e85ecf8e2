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
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"dsfstudio/internal/balloon"
	"dsfstudio/internal/lang"
	"dsfstudio/internal/scene"
	"dsfstudio/internal/textlayout"
	"dsfstudio/internal/vector"
)

// PNGOptions controls raster export.
type PNGOptions struct {
	// Scale multiplies the page size; 0 means 2 (retina-like output).
	Scale float64
	// Fonts draws bubble text; nil uses the built-in 7x13 face, which
	// cannot render CJK glyphs.
	Fonts *textlayout.FontLibrary
	// Images resolves backgrounds; unresolved backgrounds render grey.
	Images ImageSource
}

func (o PNGOptions) scale() float64 {
	if o.Scale <= 0 {
		return 2
	}
	return o.Scale
}

// PNG rasterizes a section.
func PNG(sc scene.Scene, opt PNGOptions) image.Image {
	page := scene.PageSize
	s := opt.scale()
	dc := gg.NewContext(int(float64(page.W)*s+0.5), int(float64(page.H)*s+0.5))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Scale(s, s)

	provider := textlayout.OTProvider{Lib: opt.Fonts, DPI: 72 * s}
	if sc.Kind == "text" {
		face, met := provider.Resolve(textlayout.FontSpec{SizePt: 16})
		dc.SetFontFace(face)
		dc.SetRGB(0, 0, 0)
		box := sectionText(sc, provider, (float32(page.W)-80)*float32(s))
		lh := float64(met.LineHeight()) / s
		y := float64(page.H)/2 - lh*float64(len(box.Lines)-1)/2
		for _, ln := range box.Lines {
			ax, x := alignAnchor(sc.SectionAlign, float64(page.W))
			dc.DrawStringAnchored(ln.Text, x, y, ax, 0.5)
			y += lh
		}
		return dc.Image()
	}

	drawBackground(dc, sc, page, opt.Images)
	face, _ := provider.Resolve(textlayout.FontSpec{SizePt: textlayout.FontSize})
	dc.SetFontFace(face)
	for _, b := range sc.Bubbles {
		drawBubble(dc, b.Layout, b.FromLayout(page), b.Text, sc.Vertical)
	}
	return dc.Image()
}

// sectionText wraps a text section with the line-breaking rule of its
// language: CJK text breaks between any runes, other text at spaces.
func sectionText(sc scene.Scene, provider textlayout.Provider, maxWidth float32) textlayout.TextBox {
	wrap := textlayout.NewWordWrap(provider, lang.Get(sc.Lang).WordBreak)
	wrap.Font = textlayout.FontSpec{SizePt: 16}
	return wrap.Layout(sc.Text, maxWidth)
}

// WritePNG encodes img.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func alignAnchor(align string, width float64) (ax, x float64) {
	switch align {
	case "left":
		return 0, 40
	case "right":
		return 1, width - 40
	}
	return 0.5, width / 2
}

func drawBackground(dc *gg.Context, sc scene.Scene, page vector.Size, src ImageSource) {
	img := loadImage(src, sc.Background)
	if img == nil {
		dc.SetRGB(0.93, 0.93, 0.93)
		dc.DrawRectangle(0, 0, float64(page.W), float64(page.H))
		dc.Fill()
		return
	}
	// cover-fit, then the section's pan/zoom
	ip := sc.ImagePosition
	if ip.Scale <= 0 {
		ip.Scale = 1
	}
	b := img.Bounds()
	k := max(float64(page.W)/float64(b.Dx()), float64(page.H)/float64(b.Dy())) * ip.Scale
	w, h := int(float64(b.Dx())*k+0.5), int(float64(b.Dy())*k+0.5)
	scaled := image.NewRGBA(image.Rect(0, 0, max(1, w), max(1, h)))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
	x := (float64(page.W)-float64(w))/2 + ip.X
	y := (float64(page.H)-float64(h))/2 + ip.Y
	dc.DrawImage(scaled, int(x), int(y))
}

func loadImage(src ImageSource, ref string) image.Image {
	if src == nil || ref == "" {
		return nil
	}
	data, err := src.Open(ref)
	if err != nil {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return img
}

func drawBubble(dc *gg.Context, l balloon.Layout, m vector.Affine2D, text string, vertical bool) {
	tracePath(dc, l.Outline.Transform(m))
	for _, d := range l.Dots {
		c := m.Apply(d.C)
		dc.NewSubPath()
		dc.DrawEllipse(float64(c.X), float64(c.Y), float64(d.RX), float64(d.RY))
	}
	if l.Fill.Enabled {
		dc.SetRGBA(l.Fill.Color.RGBA())
		dc.FillPreserve()
	}
	if l.Stroke.Enabled {
		dc.SetRGBA(l.Stroke.Color.RGBA())
		dc.SetLineWidth(float64(l.Stroke.Width))
		dc.Stroke()
	}
	dc.ClearPath()

	if text == "" {
		return
	}
	dc.SetRGB(0, 0, 0)
	c := m.Apply(l.TextCenter)
	lh := float64(textlayout.LineHeight)
	lines := strings.Split(text, "\n")
	if vertical {
		// one rune per row, columns right to left
		x := float64(c.X) + float64(len(lines)-1)*lh/2
		for _, ln := range lines {
			runes := []rune(ln)
			y := float64(c.Y) - float64(len(runes)-1)*textlayout.CharWidthWide/2
			for _, r := range runes {
				dc.DrawStringAnchored(string(r), x, y, 0.5, 0.5)
				y += textlayout.CharWidthWide
			}
			x -= lh
		}
		return
	}
	y := float64(c.Y) - float64(len(lines)-1)*lh/2
	for _, ln := range lines {
		dc.DrawStringAnchored(ln, float64(c.X), y, 0.5, 0.5)
		y += lh
	}
}

func tracePath(dc *gg.Context, p vector.Path) {
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			dc.MoveTo(float64(d[0]), float64(d[1]))
		case vector.LineTo:
			dc.LineTo(float64(d[0]), float64(d[1]))
		case vector.QuadTo:
			dc.QuadraticTo(float64(d[0]), float64(d[1]), float64(d[2]), float64(d[3]))
		case vector.CubicTo:
			dc.CubicTo(float64(d[0]), float64(d[1]), float64(d[2]), float64(d[3]), float64(d[4]), float64(d[5]))
		case vector.Close:
			dc.ClosePath()
		}
	}
}
