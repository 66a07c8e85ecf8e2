/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestRectContainsAndUnion(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) || r.Contains(Pt{9, 20}) {
		t.Fatalf("edge points are contained, outside points are not")
	}
	u := R(0, 0, 10, 10).Union(R(-5, 5, 5, 15))
	if u.X != -5 || u.Y != 0 || u.W != 15 || u.H != 20 {
		t.Fatalf("unexpected union: %+v", u)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Affine2D{A: 2, D: 3, E: 10, F: 5}
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
	back := m.Invert().Apply(p)
	if back.X != 1 || back.Y != 1 {
		t.Fatalf("inverse did not round-trip: %+v", back)
	}
}

func TestFloatRound(t *testing.T) {
	if got := FloatRound(1.23456, 3); got != 1.235 {
		t.Fatalf("got %v", got)
	}
	if got := FloatRound(-7.25, 1); got != -7.3 {
		t.Fatalf("got %v", got)
	}
	if Ceil(3.01) != 4 || Floor(3.99) != 3 {
		t.Fatalf("ceil/floor mismatch")
	}
}
