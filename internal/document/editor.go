/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"dsfstudio/internal/domain"
	"dsfstudio/internal/lang"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/undo"
)

// Confirmer asks the user to approve a destructive command.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm approves every prompt. Used by non-interactive callers.
var AlwaysConfirm = ConfirmFunc(func(string) bool { return true })

// Options configures an Editor. Zero values select the defaults.
type Options struct {
	History        undo.Config
	CoalesceWindow time.Duration
	Confirm        Confirmer
	Redraw         func()
	Clock          func() time.Time
}

// Editor runs commands against a Document. Each undoable command captures
// the pre-mutation state, applies the mutation, records the capture in the
// history and calls the redraw callback. Commands that fail or are declined
// leave both the document and the history untouched.
type Editor struct {
	doc     *Document
	history *undo.Manager
	burst   *undo.Coalescer
	key     string // command kind and target of the open burst
	confirm Confirmer
	redraw  func()
	now     func() time.Time
	log     *slog.Logger
}

func NewEditor(doc *Document, opts Options) *Editor {
	if doc == nil {
		doc = New()
	}
	if opts.Confirm == nil {
		opts.Confirm = AlwaysConfirm
	}
	if opts.Redraw == nil {
		opts.Redraw = func() {}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Editor{
		doc:     doc,
		history: undo.NewManager(opts.History),
		burst:   undo.NewCoalescer(opts.CoalesceWindow),
		confirm: opts.Confirm,
		redraw:  opts.Redraw,
		now:     opts.Clock,
		log:     applog.WithComponent("editor"),
	}
}

// Doc returns the edited document.
func (e *Editor) Doc() *Document { return e.doc }

// History reports undo/redo availability.
func (e *Editor) History() undo.Info { return e.history.Info() }

// HistoryStats exposes history memory use for diagnostics.
func (e *Editor) HistoryStats() (bytes, undos, redos int) { return e.history.Stats() }

// Load replaces the document and clears the history, which does not carry
// over between documents.
func (e *Editor) Load(p domain.Project) {
	e.doc = FromProject(p)
	e.resetHistory()
	e.redraw()
}

// New starts over with a fresh project.
func (e *Editor) New() {
	e.doc = New()
	e.resetHistory()
	e.redraw()
}

func (e *Editor) resetHistory() {
	e.history.Clear()
	e.endBurst()
}

func (e *Editor) endBurst() {
	e.burst.Reset()
	e.key = ""
}

func (e *Editor) snapshot(label string) (undo.Snapshot, error) {
	blob, err := e.doc.Capture()
	if err != nil {
		return undo.Snapshot{}, err
	}
	return undo.Snapshot{Blob: blob, TS: e.now(), Label: label}, nil
}

// apply runs a discrete undoable command. fn reports whether it changed
// anything; unchanged or failed commands record no history.
func (e *Editor) apply(label string, fn func() (bool, error)) error {
	s, err := e.snapshot(label)
	if err != nil {
		return err
	}
	changed, err := fn()
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if !changed {
		return nil
	}
	e.history.Push(s)
	e.endBurst()
	e.doc.Heal()
	e.redraw()
	return nil
}

// applyContinuous runs a command that arrives in bursts (typing, dragging).
// Only the first call of a burst records a snapshot. A burst belongs to one
// target: the same command on another bubble, section or language starts
// a new one.
func (e *Editor) applyContinuous(kind string, bubble int, fn func() error) error {
	key := fmt.Sprintf("%s/%d/%d/%s", kind, e.doc.ActiveSection, bubble, e.doc.ActiveLang)
	if key != e.key {
		e.burst.Reset()
	}
	var s undo.Snapshot
	fresh := !e.burst.Pending(e.now())
	if fresh {
		var err error
		if s, err = e.snapshot(kind); err != nil {
			return err
		}
	}
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	e.burst.Touch(e.now())
	e.key = key
	if fresh {
		e.history.Push(s)
	}
	e.doc.Heal()
	e.redraw()
	return nil
}

// applyPlain runs commands that are not part of the undo timeline. They
// close any open burst, so typing after them is a new undo step.
func (e *Editor) applyPlain(fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	e.endBurst()
	e.doc.Heal()
	e.redraw()
	return nil
}

func (e *Editor) ask(prompt string) error {
	if e.confirm.Confirm(prompt) {
		return nil
	}
	e.log.Debug("command declined", slog.String("prompt", prompt))
	return ErrCancelled
}

// Undo restores the state before the last command and reports whether
// there was one.
func (e *Editor) Undo() bool { return e.travel("undo", e.history.Undo) }

// Redo re-applies the last undone command.
func (e *Editor) Redo() bool { return e.travel("redo", e.history.Redo) }

func (e *Editor) travel(op string, step func(undo.Snapshot) (undo.Snapshot, bool)) bool {
	cur, err := e.snapshot(op)
	if err != nil {
		e.log.Error("capture failed", slog.String("op", op), slog.Any("err", err))
		return false
	}
	s, ok := step(cur)
	if !ok {
		return false
	}
	if err := e.doc.Restore(s.Blob); err != nil {
		e.log.Error("restore failed", slog.String("op", op), slog.Any("err", err))
		return false
	}
	e.endBurst()
	e.redraw()
	return true
}

func (e *Editor) AddSection() error {
	return e.apply("add section", func() (bool, error) {
		e.doc.AddSection()
		return true, nil
	})
}

// ChangeSection navigates; navigation is not recorded in the history.
func (e *Editor) ChangeSection(i int) error {
	return e.applyPlain(func() error { return e.doc.ChangeSection(i) })
}

func (e *Editor) MoveSection(delta int) error {
	return e.apply("move section", func() (bool, error) {
		return e.doc.MoveSection(delta), nil
	})
}

// DeleteActive deletes the selected bubble or, after confirmation, the
// active section. It reports whether anything was deleted.
func (e *Editor) DeleteActive() (bool, error) {
	if e.doc.DeletesSection() {
		if err := e.ask(fmt.Sprintf("Delete section %d?", e.doc.ActiveSection+1)); err != nil {
			return false, err
		}
	}
	var deleted bool
	err := e.apply("delete", func() (bool, error) {
		deleted = e.doc.DeleteActive()
		return deleted, nil
	})
	return deleted, err
}

func (e *Editor) AddBubble(pos domain.Position) (int, error) {
	i := NoBubble
	err := e.apply("add bubble", func() (bool, error) {
		var err error
		i, err = e.doc.AddBubble(pos)
		return err == nil, err
	})
	return i, err
}

func (e *Editor) AddBubbleAtCenter() (int, error) {
	return e.AddBubble(domain.Position{X: 50, Y: 50})
}

// SelectBubble changes the selection without recording history.
func (e *Editor) SelectBubble(i int) error {
	return e.applyPlain(func() error { return e.doc.SelectBubble(i) })
}

// MoveBubble is coalesced so a drag gives one undo step.
func (e *Editor) MoveBubble(i int, pos domain.Position) error {
	return e.applyContinuous("move bubble", i, func() error { return e.doc.MoveBubble(i, pos) })
}

// SetBubbleTail is coalesced like MoveBubble.
func (e *Editor) SetBubbleTail(i int, x, y float64) error {
	return e.applyContinuous("move tail", i, func() error { return e.doc.SetBubbleTail(i, x, y) })
}

func (e *Editor) DeleteBubble(i int) error {
	return e.apply("delete bubble", func() (bool, error) {
		return true, e.doc.DeleteBubble(i)
	})
}

func (e *Editor) UpdateBubbleShape(name string) error {
	return e.apply("bubble shape", func() (bool, error) {
		return e.doc.UpdateBubbleShape(name), nil
	})
}

// UpdateSectionField asks for confirmation before a type change that
// would discard bubbles.
func (e *Editor) UpdateSectionField(key string, value any) error {
	if e.doc.DiscardsBubbles(key, value) {
		n := len(e.doc.Section().Bubbles)
		if err := e.ask(fmt.Sprintf("This section has %d bubbles. Switching to a text section deletes them. Continue?", n)); err != nil {
			return err
		}
	}
	return e.apply("update "+key, func() (bool, error) {
		before := e.doc.Section().Clone()
		if err := e.doc.UpdateSectionField(key, value); err != nil {
			return false, err
		}
		return !reflect.DeepEqual(before, *e.doc.Section()), nil
	})
}

// SetActiveText is coalesced: a burst of keystrokes is one undo step.
func (e *Editor) SetActiveText(v string) error {
	return e.applyContinuous("edit text", e.doc.ActiveBubble, func() error {
		e.doc.SetActiveText(v)
		return nil
	})
}

func (e *Editor) SetTitle(title string) error {
	return e.applyPlain(func() error {
		e.doc.SetTitle(title)
		return nil
	})
}

func (e *Editor) SetThumbSize(s ThumbSize) error {
	return e.applyPlain(func() error { return e.doc.SetThumbSize(s) })
}

func (e *Editor) AddLanguage(code string) (bool, error) {
	var added bool
	err := e.applyPlain(func() error {
		added = e.doc.AddLanguage(code)
		return nil
	})
	return added, err
}

// RemoveLanguage asks for confirmation first.
func (e *Editor) RemoveLanguage(code string) error {
	code = lang.Normalize(code)
	if !e.doc.Project.HasLanguage(code) {
		return fmt.Errorf("%q: %w", code, ErrUnknownLanguage)
	}
	if len(e.doc.Project.Languages) <= 1 {
		return ErrLastLanguage
	}
	if err := e.ask(fmt.Sprintf("Remove language %q?", code)); err != nil {
		return err
	}
	return e.applyPlain(func() error { return e.doc.RemoveLanguage(code) })
}

func (e *Editor) SwitchLanguage(code string) error {
	return e.applyPlain(func() error { return e.doc.SwitchLanguage(code) })
}

func (e *Editor) SetWritingMode(code string, mode lang.WritingMode) error {
	return e.applyPlain(func() error { return e.doc.SetWritingMode(code, mode) })
}
