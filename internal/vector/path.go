/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Path commands and shapes.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float32 // enough for cubic; unused slots are zero
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float32{x, y}})
}
func (p *Path) LineTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float32{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float32{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float32{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Polygon builds a closed path through pts.
func Polygon(pts []Pt) Path {
	var p Path
	for i, pt := range pts {
		if i == 0 {
			p.MoveTo(pt.X, pt.Y)
			continue
		}
		p.LineTo(pt.X, pt.Y)
	}
	if len(pts) > 0 {
		p.Close()
	}
	return p
}

// points returns the number of coordinate pairs carried by op.
func (op PathOp) points() int {
	switch op {
	case MoveTo, LineTo:
		return 1
	case QuadTo:
		return 2
	case CubicTo:
		return 3
	}
	return 0
}

// Bounds returns an axis-aligned bounding box of the path using control
// points. For the quadratic corners used by bubble outlines the control
// point sits on the corner of the rectangle, so the box is exact.
func (p Path) Bounds() Rect {
	minX, minY := float32(+1e9), float32(+1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	for _, c := range p.Cmds {
		for i := 0; i < c.Op.points(); i++ {
			x, y := c.Data[2*i], c.Data[2*i+1]
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Transform returns a copy of the path with every point mapped through m.
func (p Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		out.Cmds[i] = PathCmd{Op: c.Op}
		for j := 0; j < c.Op.points(); j++ {
			q := m.Apply(Pt{c.Data[2*j], c.Data[2*j+1]})
			out.Cmds[i].Data[2*j], out.Cmds[i].Data[2*j+1] = q.X, q.Y
		}
	}
	return out
}

// Flatten approximates the path by polylines, one per subpath. Curves are
// sampled with the given number of segments.
func (p Path) Flatten(segments int) [][]Pt {
	if segments < 1 {
		segments = 1
	}
	var out [][]Pt
	var cur []Pt
	var pos, start Pt
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo:
			flush()
			pos = Pt{c.Data[0], c.Data[1]}
			start = pos
			cur = []Pt{pos}
		case LineTo:
			pos = Pt{c.Data[0], c.Data[1]}
			cur = append(cur, pos)
		case QuadTo:
			c1, end := Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}
			for i := 1; i <= segments; i++ {
				t := float32(i) / float32(segments)
				u := 1 - t
				cur = append(cur, Pt{
					X: u*u*pos.X + 2*u*t*c1.X + t*t*end.X,
					Y: u*u*pos.Y + 2*u*t*c1.Y + t*t*end.Y,
				})
			}
			pos = end
		case CubicTo:
			c1, c2, end := Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}, Pt{c.Data[4], c.Data[5]}
			for i := 1; i <= segments; i++ {
				t := float32(i) / float32(segments)
				u := 1 - t
				cur = append(cur, Pt{
					X: u*u*u*pos.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*end.X,
					Y: u*u*u*pos.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*end.Y,
				})
			}
			pos = end
		case Close:
			if len(cur) > 0 && cur[len(cur)-1] != start {
				cur = append(cur, start)
			}
			pos = start
		}
	}
	flush()
	return out
}

// Contains reports whether q lies inside the path using the even-odd rule
// on a flattened approximation.
func (p Path) Contains(q Pt) bool {
	inside := false
	for _, poly := range p.Flatten(8) {
		n := len(poly)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := poly[i], poly[j]
			if (a.Y > q.Y) != (b.Y > q.Y) {
				x := (b.X-a.X)*(q.Y-a.Y)/(b.Y-a.Y) + a.X
				if q.X < x {
					inside = !inside
				}
			}
		}
	}
	return inside
}

// Ellipse is an axis-aligned ellipse centred on C.
type Ellipse struct {
	C      Pt
	RX, RY float32
}

func (e Ellipse) Bounds() Rect {
	return Rect{X: e.C.X - e.RX, Y: e.C.Y - e.RY, W: 2 * e.RX, H: 2 * e.RY}
}

// Contains uses the implicit ellipse equation; degenerate radii never hit.
func (e Ellipse) Contains(p Pt) bool {
	if e.RX <= 0 || e.RY <= 0 {
		return false
	}
	dx := (p.X - e.C.X) / e.RX
	dy := (p.Y - e.C.Y) / e.RY
	return dx*dx+dy*dy <= 1
}
