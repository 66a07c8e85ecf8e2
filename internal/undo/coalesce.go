/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import "time"

// DefaultWindow groups keystrokes closer together than this into one step.
const DefaultWindow = 500 * time.Millisecond

// Coalescer decides when a burst of continuous edits needs a new snapshot.
// It is an idle/pending state machine driven by the caller's clock: each
// Touch restarts the window, and only a Touch after the window has lapsed
// (or after Reset) starts a new burst.
type Coalescer struct {
	Window  time.Duration
	last    time.Time
	pending bool
}

func NewCoalescer(window time.Duration) *Coalescer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coalescer{Window: window}
}

// Touch records an edit at now and reports whether it begins a new burst,
// in which case the caller snapshots before applying the edit.
func (c *Coalescer) Touch(now time.Time) bool {
	fresh := !c.Pending(now)
	c.last = now
	c.pending = true
	return fresh
}

// Pending reports whether a burst is still open at now.
func (c *Coalescer) Pending(now time.Time) bool {
	return c.pending && now.Sub(c.last) < c.Window
}

// Reset drops any open burst. Discrete commands call it so that typing
// after them starts a fresh undo step.
func (c *Coalescer) Reset() { c.pending = false }
