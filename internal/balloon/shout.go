/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package balloon

import (
	"math"

	"dsfstudio/internal/vector"
)

const (
	shoutPadding = 8
	shoutSpike   = 15
	shoutMinRX   = 25
	shoutMinRY   = 18
	shoutSpikes  = 12
	// The first outer vertex whose angle falls in this window (radians,
	// measured clockwise from 3 o'clock) becomes the tail tip.
	shoutTailMin = 1.1
	shoutTailMax = 2.1
)

// shout is a jagged star around an elliptical core. One outer spike near the
// bottom is replaced by the tail tip, so star and tail form one polygon.
func shout(in Input) Layout {
	box := in.measure()
	pw := box.W + 2*shoutPadding
	ph := box.H + 2*shoutPadding
	baseRx := max(pw/2, shoutMinRX)
	baseRy := max(ph/2, shoutMinRY)
	outerRx, outerRy := baseRx+shoutSpike, baseRy+shoutSpike
	cx := outerRx + StrokeMargin
	cy := outerRy + StrokeMargin

	tx, ty := in.tail()
	tip := vector.Pt{X: vector.FloatRound(cx+tx, 1), Y: vector.FloatRound(cy+outerRy+ty, 1)}

	total := shoutSpikes * 2
	pts := make([]vector.Pt, 0, total)
	tailDone := false
	for j := 0; j < total; j++ {
		ang := float64(j)/float64(total)*2*math.Pi - math.Pi/2
		outer := j%2 == 0
		if outer && !tailDone && ang > shoutTailMin && ang < shoutTailMax {
			pts = append(pts, tip)
			tailDone = true
			continue
		}
		rrx, rry := baseRx, baseRy
		if outer {
			rrx, rry = outerRx, outerRy
		}
		pts = append(pts, vector.Pt{
			X: vector.FloatRound(float32(float64(cx)+float64(rrx)*math.Cos(ang)), 1),
			Y: vector.FloatRound(float32(float64(cy)+float64(rry)*math.Sin(ang)), 1),
		})
	}

	body := vector.R(cx-outerRx, cy-outerRy, 2*outerRx, 2*outerRy)
	vb, canvas := frame(
		min(body.X, tip.X)-StrokeMargin,
		min(body.Y, tip.Y)-StrokeMargin,
		max(cx+outerRx, tip.X)+StrokeMargin,
		max(cy+outerRy, tip.Y)+StrokeMargin,
	)
	return Layout{
		Canvas:     canvas,
		ViewBox:    vb,
		Outline:    vector.Polygon(pts),
		Body:       body,
		TextBox:    vector.R(round(cx-pw/2), round(cy-ph/2), round(pw), round(ph)),
		TextCenter: vector.Pt{X: round(cx), Y: round(cy)},
		Tip:        tip,
		Text:       box,
		Stroke:     StrokeFor(in.Selected),
		Fill:       vector.Fill{Color: vector.White, Enabled: true},
	}
}
