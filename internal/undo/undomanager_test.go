/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"fmt"
	"testing"
	"time"
)

func snap(s string) Snapshot { return Snapshot{Blob: []byte(s), TS: time.Now()} }

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{})
	m.Push(snap("a"))
	m.Push(snap("b"))
	if _, undos, redos := m.Stats(); undos != 2 || redos != 0 {
		t.Fatalf("expected 2 undo and 0 redo entries, got %d/%d", undos, redos)
	}
	s, ok := m.Undo(snap("c"))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = m.Redo(snap("b"))
	if !ok || string(s.Blob) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v blob=%q", ok, string(s.Blob))
	}
	info := m.Info()
	if !info.CanUndo || info.CanRedo || info.UndoCount != 2 {
		t.Fatalf("unexpected info after redo: %+v", info)
	}
}

func TestUndoOnEmptyIsNoop(t *testing.T) {
	m := NewManager(Config{})
	if _, ok := m.Undo(snap("x")); ok {
		t.Fatalf("undo on empty history must report false")
	}
	if _, ok := m.Redo(snap("x")); ok {
		t.Fatalf("redo on empty history must report false")
	}
	if info := m.Info(); info.CanRedo || info.RedoCount != 0 {
		t.Fatalf("a failed undo must not record the current state: %+v", info)
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(Config{})
	m.Push(snap("a"))
	m.Undo(snap("b"))
	if !m.Info().CanRedo {
		t.Fatalf("expected redo after undo")
	}
	m.Push(snap("a2"))
	if m.Info().CanRedo {
		t.Fatalf("new push must clear the redo stack")
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{})
	for i := 0; i < DefaultDepth+1; i++ {
		m.Push(snap(fmt.Sprintf("s%02d", i)))
	}
	if _, undos, _ := m.Stats(); undos != DefaultDepth {
		t.Fatalf("expected depth cap %d, got %d", DefaultDepth, undos)
	}
	// the oldest entry (s00) was evicted; unwinding ends at s01
	var last Snapshot
	for {
		s, ok := m.Undo(snap("cur"))
		if !ok {
			break
		}
		last = s
	}
	if string(last.Blob) != "s01" {
		t.Fatalf("expected oldest surviving entry s01, got %q", string(last.Blob))
	}

	small := NewManager(Config{MaxDepth: 10, MaxBytes: 12})
	for i := 0; i < 10; i++ {
		small.Push(snap("xxxxx"))
	}
	total, undos, _ := small.Stats()
	if total > 12 || undos < 1 {
		t.Fatalf("expected byte cap to prune, got bytes=%d entries=%d", total, undos)
	}
}

func TestClear(t *testing.T) {
	m := NewManager(Config{})
	m.Push(snap("a"))
	m.Push(snap("b"))
	m.Undo(snap("c"))
	m.Clear()
	if total, undos, redos := m.Stats(); total != 0 || undos != 0 || redos != 0 {
		t.Fatalf("expected empty history, got %d/%d/%d", total, undos, redos)
	}
}

func TestCoalescerWindow(t *testing.T) {
	c := NewCoalescer(0)
	if c.Window != DefaultWindow {
		t.Fatalf("expected default window, got %v", c.Window)
	}
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	if !c.Touch(t0) {
		t.Fatalf("first touch must start a burst")
	}
	if c.Touch(t0.Add(200 * time.Millisecond)) {
		t.Fatalf("touch inside the window must coalesce")
	}
	// the window restarts on every touch
	if c.Touch(t0.Add(650 * time.Millisecond)) {
		t.Fatalf("window must be measured from the last touch")
	}
	if !c.Touch(t0.Add(1200 * time.Millisecond)) {
		t.Fatalf("touch after the window lapsed must start a new burst")
	}
	c.Reset()
	if !c.Touch(t0.Add(1300 * time.Millisecond)) {
		t.Fatalf("touch after reset must start a new burst")
	}
}

func TestCoalescedPushes(t *testing.T) {
	m := NewManager(Config{})
	c := NewCoalescer(500 * time.Millisecond)
	t0 := time.Now()
	push := func(at time.Time, s string) {
		if c.Touch(at) {
			m.Push(Snapshot{Blob: []byte(s), TS: at})
		}
	}
	push(t0, "a")
	push(t0.Add(100*time.Millisecond), "b")
	if _, undos, _ := m.Stats(); undos != 1 {
		t.Fatalf("two pushes within the window must give one entry, got %d", undos)
	}
	push(t0.Add(time.Second), "c")
	if _, undos, _ := m.Stats(); undos != 2 {
		t.Fatalf("pushes beyond the window must give two entries, got %d", undos)
	}
}
