/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package balloon

import "dsfstudio/internal/vector"

// thoughtGap separates the body from the first dot.
const thoughtGap = 4

// thought is the speech body without a notch, trailed by three shrinking
// dots that end at the tail tip.
func thought(in Input) Layout {
	box := in.measure()
	w := round(box.W + 2*Padding)
	h := round(box.H + 2*Padding)
	cr := round(cornerRadius(w, h))
	rx, ry := float32(StrokeMargin), float32(StrokeMargin)
	cx, cy := round(rx+w/2), round(ry+h/2)

	tx, ty := in.tail()
	baseY := ry + h + thoughtGap
	tipX, tipY := round(cx+tx), round(baseY+ty)
	dots := []vector.Ellipse{
		{C: vector.Pt{X: round(tipX - 6), Y: round(baseY + 4)}, RX: 7, RY: 5},
		{C: vector.Pt{X: round(tipX - 2), Y: round(baseY + ty*0.55)}, RX: 5, RY: 3.5},
		{C: vector.Pt{X: tipX, Y: tipY}, RX: 3, RY: 2.5},
	}

	body := vector.R(rx, ry, w, h)
	ext := body
	for _, d := range dots {
		ext = ext.Union(d.Bounds())
	}
	vb, canvas := frame(
		ext.X-StrokeMargin,
		ext.Y-StrokeMargin,
		max(rx+w, tipX+6)+StrokeMargin,
		max(ry+h+StrokeMargin, tipY+6, ext.Y+ext.H),
	)
	return Layout{
		Canvas:     canvas,
		ViewBox:    vb,
		Outline:    roundedBody(body, cr, nil),
		Dots:       dots,
		Body:       body,
		TextBox:    body,
		TextCenter: vector.Pt{X: cx, Y: cy},
		Tip:        vector.Pt{X: tipX, Y: tipY},
		Text:       box,
		Stroke:     StrokeFor(in.Selected),
		Fill:       vector.Fill{Color: vector.White, Enabled: true},
	}
}
