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
	"strconv"
	"strings"

	"dsfstudio/internal/balloon"
	"dsfstudio/internal/scene"
	"dsfstudio/internal/textlayout"
	"dsfstudio/internal/vector"
)

// SVGOptions controls SVG export behavior.
type SVGOptions struct {
	Page vector.Size // zero means scene.PageSize
	// SectionFontSize is the text section font size in pixels.
	SectionFontSize float32
	// Inline omits the XML prolog for embedding in HTML.
	Inline bool
}

// BubbleSVG renders one bubble on its own canvas: the outline, dots and
// text lines centred on the layout's text centre.
func BubbleSVG(l balloon.Layout, text string, vertical bool) []byte {
	var buf bytes.Buffer
	vb := l.ViewBox
	fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%s\" height=\"%s\" viewBox=\"%s %s %s %s\">\n",
		num(l.Canvas.W), num(l.Canvas.H), num(vb.X), num(vb.Y), num(vb.W), num(vb.H))
	writeBubble(&buf, l, vector.Affine2D{A: 1, D: 1}, text, vertical, "  ")
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// SectionSVG renders a section as a full page.
func SectionSVG(sc scene.Scene, opt SVGOptions) []byte {
	page := opt.Page
	if page.W == 0 || page.H == 0 {
		page = scene.PageSize
	}
	fs := opt.SectionFontSize
	if fs <= 0 {
		fs = 16
	}
	var buf bytes.Buffer
	if !opt.Inline {
		buf.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	}
	fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\" data-direction=\"%s\">\n",
		num(page.W), num(page.H), num(page.W), num(page.H), sc.Direction)
	fmt.Fprintf(&buf, "  <rect x=\"0\" y=\"0\" width=\"%s\" height=\"%s\" fill=\"#ffffff\"/>\n", num(page.W), num(page.H))

	if sc.Kind == "text" {
		writeSectionText(&buf, sc, page, fs)
		buf.WriteString("</svg>\n")
		return buf.Bytes()
	}
	if sc.Background != "" {
		ip := sc.ImagePosition
		if ip.Scale <= 0 {
			ip.Scale = 1
		}
		fmt.Fprintf(&buf, "  <image href=\"%s\" xlink:href=\"%s\" x=\"0\" y=\"0\" width=\"%s\" height=\"%s\" preserveAspectRatio=\"xMidYMid slice\" transform=\"translate(%s %s) scale(%s)\"/>\n",
			escAttr(sc.Background), escAttr(sc.Background), num(page.W), num(page.H),
			num(float32(ip.X)), num(float32(ip.Y)), num(float32(ip.Scale)))
	}
	for _, b := range sc.Bubbles {
		m := b.FromLayout(page)
		fmt.Fprintf(&buf, "  <g data-bubble=\"%d\" data-shape=\"%s\">\n", b.Index, escAttr(b.Layout.Shape))
		writeBubble(&buf, b.Layout, m, b.Text, sc.Vertical, "    ")
		buf.WriteString("  </g>\n")
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeBubble(buf *bytes.Buffer, l balloon.Layout, m vector.Affine2D, text string, vertical bool, indent string) {
	fill := "none"
	if l.Fill.Enabled {
		fill = l.Fill.Color.Hex()
	}
	stroke := "none"
	if l.Stroke.Enabled {
		stroke = l.Stroke.Color.Hex()
	}
	fmt.Fprintf(buf, "%s<path d=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%s\" stroke-linejoin=\"round\"/>\n",
		indent, pathData(l.Outline.Transform(m)), fill, stroke, num(l.Stroke.Width))
	for _, d := range l.Dots {
		c := m.Apply(d.C)
		fmt.Fprintf(buf, "%s<ellipse cx=\"%s\" cy=\"%s\" rx=\"%s\" ry=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%s\"/>\n",
			indent, num(c.X), num(c.Y), num(d.RX), num(d.RY), fill, stroke, num(l.Stroke.Width))
	}
	if text == "" {
		return
	}
	c := m.Apply(l.TextCenter)
	lines := strings.Split(text, "\n")
	lh := textlayout.LineHeight
	if vertical {
		// columns run right to left around the centre
		x0 := c.X + float32(len(lines)-1)*lh/2
		fmt.Fprintf(buf, "%s<text font-size=\"%d\" writing-mode=\"vertical-rl\" text-anchor=\"middle\">", indent, textlayout.FontSize)
		for i, ln := range lines {
			fmt.Fprintf(buf, "<tspan x=\"%s\" y=\"%s\">%s</tspan>", num(x0-float32(i)*lh), num(c.Y), escText(ln))
		}
		buf.WriteString("</text>\n")
		return
	}
	y0 := c.Y - float32(len(lines)-1)*lh/2
	fmt.Fprintf(buf, "%s<text font-size=\"%d\" text-anchor=\"middle\" dominant-baseline=\"central\">", indent, textlayout.FontSize)
	for i, ln := range lines {
		fmt.Fprintf(buf, "<tspan x=\"%s\" y=\"%s\">%s</tspan>", num(c.X), num(y0+float32(i)*lh), escText(ln))
	}
	buf.WriteString("</text>\n")
}

func writeSectionText(buf *bytes.Buffer, sc scene.Scene, page vector.Size, fs float32) {
	lines := strings.Split(sc.Text, "\n")
	lh := fs * 1.8
	anchor, x := "middle", page.W/2
	switch sc.SectionAlign {
	case "left":
		anchor, x = "start", 40
	case "right":
		anchor, x = "end", page.W-40
	}
	if sc.Vertical {
		x0 := page.W/2 + float32(len(lines)-1)*lh/2
		fmt.Fprintf(buf, "  <text font-size=\"%s\" writing-mode=\"vertical-rl\">", num(fs))
		for i, ln := range lines {
			fmt.Fprintf(buf, "<tspan x=\"%s\" y=\"40\">%s</tspan>", num(x0-float32(i)*lh), escText(ln))
		}
		buf.WriteString("</text>\n")
		return
	}
	y0 := page.H/2 - float32(len(lines)-1)*lh/2
	fmt.Fprintf(buf, "  <text font-size=\"%s\" text-anchor=\"%s\" dominant-baseline=\"central\">", num(fs), anchor)
	for i, ln := range lines {
		fmt.Fprintf(buf, "<tspan x=\"%s\" y=\"%s\">%s</tspan>", num(x), num(y0+float32(i)*lh), escText(ln))
	}
	buf.WriteString("</text>\n")
}

// pathData encodes p as SVG path data.
func pathData(p vector.Path) string {
	var sb strings.Builder
	for i, c := range p.Cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			fmt.Fprintf(&sb, "M%s %s", num(d[0]), num(d[1]))
		case vector.LineTo:
			fmt.Fprintf(&sb, "L%s %s", num(d[0]), num(d[1]))
		case vector.QuadTo:
			fmt.Fprintf(&sb, "Q%s %s %s %s", num(d[0]), num(d[1]), num(d[2]), num(d[3]))
		case vector.CubicTo:
			fmt.Fprintf(&sb, "C%s %s %s %s %s %s", num(d[0]), num(d[1]), num(d[2]), num(d[3]), num(d[4]), num(d[5]))
		case vector.Close:
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}

// num formats v with at most three decimals and no trailing zeros.
func num(v float32) string {
	return strconv.FormatFloat(float64(vector.FloatRound(v, 3)), 'f', -1, 32)
}

func escAttr(s string) string {
	// naive escaping sufficient for our simple usage
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
