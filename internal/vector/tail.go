/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// TailGeometry describes a tail notch cut into the bottom edge of a body.
type TailGeometry struct {
	BaseLeft   Pt
	BaseRight  Pt
	BaseCenter Pt
	Tip        Pt
	Angle      float32 // radians, direction from the edge midpoint to the tip
	Side       string  // approximate direction: left/right/top/bottom
}

// ComputeBottomTail places a triangular tail on the horizontal edge at edgeY.
// The junctions sit halfSpread either side of centerX+offset.X and the tip
// extends offset.Y below the edge. Points are rounded to 3 decimals so
// repeated calls are bit-identical.
func ComputeBottomTail(centerX, edgeY float32, offset Pt, halfSpread float32) TailGeometry {
	bcx := FloatRound(centerX+offset.X, 3)
	bc := Pt{X: bcx, Y: FloatRound(edgeY, 3)}
	tip := Pt{X: bcx, Y: FloatRound(edgeY+offset.Y, 3)}

	dx, dy := offset.X, offset.Y
	if dx == 0 && dy == 0 {
		dy = 1
	}
	return TailGeometry{
		BaseLeft:   Pt{X: FloatRound(bcx-halfSpread, 3), Y: bc.Y},
		BaseRight:  Pt{X: FloatRound(bcx+halfSpread, 3), Y: bc.Y},
		BaseCenter: bc,
		Tip:        tip,
		Angle:      float32(math.Atan2(float64(dy), float64(dx))),
		Side:       classifySide(dx, dy),
	}
}

func classifySide(ux, uy float32) string {
	// Determine the dominant axis of the direction vector.
	ax, ay := float32(math.Abs(float64(ux))), float32(math.Abs(float64(uy)))
	if ax >= ay {
		if ux >= 0 {
			return "right"
		}
		return "left"
	}
	if uy >= 0 {
		return "bottom"
	}
	return "top"
}
