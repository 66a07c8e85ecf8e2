/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// DefaultDepth is the number of undo steps kept when Config.MaxDepth is unset.
const DefaultDepth = 50

// Snapshot is an encoded document state captured before a mutation.
// Blob content is opaque to the manager; size is estimated as len(Blob).
// Because the state is held as bytes, a snapshot can never alias live data.
type Snapshot struct {
	Blob  []byte
	TS    time.Time
	Label string // command that was about to run, for diagnostics
}

// Config controls depth and memory caps.
type Config struct {
	// MaxDepth bounds each stack; the oldest undo entry is evicted first.
	MaxDepth int
	// MaxBytes is a soft cap on undo memory; oldest entries are pruned when
	// exceeded, but the newest entry is always kept.
	MaxBytes int
}

// Info summarises the history for toolbar state.
type Info struct {
	CanUndo   bool
	CanRedo   bool
	UndoCount int
	RedoCount int
}

// Manager is a linear undo/redo history of snapshots.
// It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo []Snapshot
	redo []Snapshot
	// accounting for undo entries
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultDepth
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	return &Manager{cfg: cfg}
}

// Push records the state that existed before a mutation. Any new change
// starts a divergent timeline, so the redo stack is cleared.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, s)
	m.totalBytes += len(s.Blob)
	m.redo = nil
	m.enforceCapsLocked()
}

// Undo pops the newest undo entry and parks current on the redo stack.
// It reports false, and records nothing, when there is nothing to undo.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.undo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := m.undo[n-1]
	m.undo = m.undo[:n-1]
	m.totalBytes -= len(s.Blob)
	m.redo = append(m.redo, current)
	if len(m.redo) > m.cfg.MaxDepth {
		m.redo = append([]Snapshot(nil), m.redo[len(m.redo)-m.cfg.MaxDepth:]...)
	}
	return s, true
}

// Redo is the mirror of Undo.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.redo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := m.redo[n-1]
	m.redo = m.redo[:n-1]
	m.undo = append(m.undo, current)
	m.totalBytes += len(current.Blob)
	m.enforceCapsLocked()
	return s, true
}

// Clear empties both stacks. Called when another document is loaded.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
	m.totalBytes = 0
}

// Info returns counts and availability flags.
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Info{
		CanUndo:   len(m.undo) > 0,
		CanRedo:   len(m.redo) > 0,
		UndoCount: len(m.undo),
		RedoCount: len(m.redo),
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, undoCount int, redoCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, len(m.undo), len(m.redo)
}

func (m *Manager) enforceCapsLocked() {
	if len(m.undo) > m.cfg.MaxDepth {
		toDrop := len(m.undo) - m.cfg.MaxDepth
		for i := 0; i < toDrop; i++ {
			m.totalBytes -= len(m.undo[i].Blob)
		}
		m.undo = append([]Snapshot(nil), m.undo[toDrop:]...)
	}
	for m.totalBytes > m.cfg.MaxBytes && len(m.undo) > 1 {
		m.totalBytes -= len(m.undo[0].Blob)
		m.undo = m.undo[1:]
	}
}
