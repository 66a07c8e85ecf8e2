/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package balloon

import "dsfstudio/internal/vector"

// speech is a rounded rectangle with a triangular tail cut into the bottom edge.
func speech(in Input) Layout {
	box := in.measure()
	w := round(box.W + 2*Padding)
	h := round(box.H + 2*Padding)
	cr := round(cornerRadius(w, h))
	rx, ry := float32(StrokeMargin), float32(StrokeMargin)
	cx, cy := round(rx+w/2), round(ry+h/2)

	tx, ty := in.tail()
	tail := vector.ComputeBottomTail(cx, ry+h, vector.Pt{X: tx, Y: ty}, TailHalfSpread)

	vb, canvas := frame(
		min(rx, tail.BaseLeft.X)-StrokeMargin,
		min(ry, tail.Tip.Y)-StrokeMargin,
		max(rx+w, tail.BaseCenter.X+10)+StrokeMargin,
		max(ry+h, tail.Tip.Y)+StrokeMargin,
	)
	body := vector.R(rx, ry, w, h)
	return Layout{
		Canvas:     canvas,
		ViewBox:    vb,
		Outline:    roundedBody(body, cr, &tail),
		Body:       body,
		TextBox:    body,
		TextCenter: vector.Pt{X: cx, Y: cy},
		Tip:        tail.Tip,
		Text:       box,
		Stroke:     StrokeFor(in.Selected),
		Fill:       vector.Fill{Color: vector.White, Enabled: true},
	}
}

// roundedBody traces a rounded rectangle clockwise from the top-left corner.
// With a tail, the bottom edge detours right junction -> tip -> left junction.
func roundedBody(r vector.Rect, cr float32, tail *vector.TailGeometry) vector.Path {
	x, y, w, h := r.X, r.Y, r.W, r.H
	var p vector.Path
	p.MoveTo(x+cr, y)
	p.LineTo(x+w-cr, y)
	p.QuadTo(x+w, y, x+w, y+cr)
	p.LineTo(x+w, y+h-cr)
	p.QuadTo(x+w, y+h, x+w-cr, y+h)
	if tail != nil {
		p.LineTo(tail.BaseRight.X, y+h)
		p.LineTo(tail.Tip.X, tail.Tip.Y)
		p.LineTo(tail.BaseLeft.X, y+h)
	}
	p.LineTo(x+cr, y+h)
	p.QuadTo(x, y+h, x, y+h-cr)
	p.LineTo(x, y+cr)
	p.QuadTo(x, y, x+cr, y)
	p.Close()
	return p
}
