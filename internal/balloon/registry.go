/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package balloon

import "sync"

// Shape names registered by default.
const (
	Speech  = "speech"
	Thought = "thought"
	Shout   = "shout"
)

// Generator turns measured text and tail settings into an outline.
type Generator func(in Input) Layout

// Registry maps shape names to generators. Re-registering a name replaces
// the previous generator; Names keeps first-registration order.
type Registry struct {
	mu    sync.RWMutex
	gens  map[string]Generator
	names []string
}

func NewRegistry() *Registry { return &Registry{gens: make(map[string]Generator)} }

// NewBuiltin returns a registry holding speech, thought and shout.
func NewBuiltin() *Registry {
	r := NewRegistry()
	r.Register(Speech, speech)
	r.Register(Thought, thought)
	r.Register(Shout, shout)
	return r
}

// Default is the process-wide registry used by the editor and exporters.
var Default = NewBuiltin()

func (r *Registry) Register(name string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gens[name]; !ok {
		r.names = append(r.names, name)
	}
	r.gens[name] = g
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.gens[name]
	return ok
}

// Get returns the generator for name, or the speech generator when name is
// empty or unknown. It never returns nil.
func (r *Registry) Get(name string) Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.gens[name]; ok {
		return g
	}
	if g, ok := r.gens[Speech]; ok {
		return g
	}
	return speech
}

// Names lists registered shapes in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Layout runs the generator for shape and records the name actually used.
func (r *Registry) Layout(shape string, in Input) Layout {
	name := shape
	if !r.Has(name) {
		name = Speech
	}
	l := r.Get(name)(in)
	l.Shape = name
	return l
}

func Register(name string, g Generator) { Default.Register(name, g) }
func Get(name string) Generator         { return Default.Get(name) }
func Names() []string                   { return Default.Names() }
