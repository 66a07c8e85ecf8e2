/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package balloon computes bubble outlines sized to their text. Generators
// are pure: the same Input always yields the same Layout, and nothing is
// cached or mutated between calls.
package balloon

import (
	"dsfstudio/internal/lang"
	"dsfstudio/internal/textlayout"
	"dsfstudio/internal/vector"
)

const (
	// Padding between text and body edge for speech and thought bubbles.
	Padding = 10
	// MaxCornerRadius caps the rounded corners; the radius also never
	// exceeds a quarter of the body width or height.
	MaxCornerRadius = 14
	// StrokeMargin keeps the stroke inside the canvas.
	StrokeMargin = 4
	// TailHalfSpread is the distance of each tail junction from the tail centre.
	TailHalfSpread = 8
	// DefaultTailY is used when a bubble stores no tail length.
	DefaultTailY = 20
)

// Input describes one bubble to lay out.
type Input struct {
	Text     string
	Lang     string
	Vertical bool
	TailX    float32
	TailY    float32 // 0 means DefaultTailY
	Selected bool
}

func (in Input) tail() (float32, float32) {
	ty := in.TailY
	if ty == 0 {
		ty = DefaultTailY
	}
	return in.TailX, ty
}

func (in Input) measure() textlayout.Box {
	return textlayout.Measure(in.Text, lang.ClassOf(in.Lang), in.Vertical)
}

// Layout is everything a renderer needs to draw a bubble without measuring.
// Coordinates are local to the bubble canvas; ViewBox may start at negative
// coordinates when the tail reaches left of or above the body.
type Layout struct {
	Shape      string
	Canvas     vector.Size
	ViewBox    vector.Rect
	Outline    vector.Path
	Dots       []vector.Ellipse
	Body       vector.Rect // bounds of the body without tail
	TextBox    vector.Rect // measured text plus padding
	TextCenter vector.Pt
	Tip        vector.Pt
	Text       textlayout.Box
	Stroke     vector.Stroke
	Fill       vector.Fill
}

// Bounds is the union of the outline and all dots.
func (l Layout) Bounds() vector.Rect {
	b := l.Outline.Bounds()
	for _, d := range l.Dots {
		b = b.Union(d.Bounds())
	}
	return b
}

// Contains reports whether p (in canvas coordinates) hits the outline or a dot.
func (l Layout) Contains(p vector.Pt) bool {
	if l.Outline.Contains(p) {
		return true
	}
	for _, d := range l.Dots {
		if d.Contains(p) {
			return true
		}
	}
	return false
}

// StrokeFor is the render hint for the outline: the selected bubble gets the
// accent colour and a heavier line.
func StrokeFor(selected bool) vector.Stroke {
	if selected {
		return vector.Stroke{Color: vector.Accent, Width: 3, Enabled: true}
	}
	return vector.Stroke{Color: vector.Black, Width: 2, Enabled: true}
}

func cornerRadius(w, h float32) float32 {
	return min(MaxCornerRadius, w/4, h/4)
}

// frame derives the integer canvas enclosing [minX,maxX]x[minY,maxY]. The
// origin stays at 0 unless content reaches into negative coordinates.
func frame(minX, minY, maxX, maxY float32) (vector.Rect, vector.Size) {
	x0 := min(0, vector.Floor(minX))
	y0 := min(0, vector.Floor(minY))
	x1 := vector.Ceil(maxX)
	y1 := vector.Ceil(maxY)
	return vector.R(x0, y0, x1-x0, y1-y0), vector.Size{W: x1 - x0, H: y1 - y0}
}

func round(v float32) float32 { return vector.FloatRound(v, 3) }
