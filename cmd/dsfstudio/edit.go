/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
	"dsfstudio/internal/undo"
)

var assumeYes bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve destructive edits without asking")
}

// promptConfirmer asks on the terminal; --yes approves everything.
func promptConfirmer(in io.Reader, out io.Writer) document.Confirmer {
	return readerConfirmer(bufio.NewReader(in), out)
}

func readerConfirmer(r *bufio.Reader, out io.Writer) document.Confirmer {
	if assumeYes {
		return document.AlwaysConfirm
	}
	return document.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

func newEditor(d *document.Document, confirm document.Confirmer) *document.Editor {
	return document.NewEditor(d, document.Options{
		History:        undo.Config{MaxDepth: cfg.Editor.HistoryDepth},
		CoalesceWindow: cfg.Editor.CoalesceWindow(),
		Confirm:        confirm,
	})
}

// editFile loads path, runs fn in an editor and writes the result back.
func editFile(path string, fn func(e *document.Editor) error) error {
	d, err := readDoc(path)
	if err != nil {
		return err
	}
	e := newEditor(d, promptConfirmer(os.Stdin, os.Stderr))
	if err := fn(e); err != nil {
		return err
	}
	return writeDoc(path, e.Doc())
}

// target selects a 1-based section and, when bubble > 0, a bubble on it.
type target struct {
	section int
	bubble  int
	lang    string
}

func (t *target) register(cmd *cobra.Command, withBubble bool) {
	cmd.Flags().IntVarP(&t.section, "section", "s", 1, "section number")
	if withBubble {
		cmd.Flags().IntVarP(&t.bubble, "bubble", "b", 1, "bubble number on the section")
	}
	cmd.Flags().StringVarP(&t.lang, "lang", "l", "", "language to edit (default the first project language)")
}

func (t *target) apply(e *document.Editor) error {
	if t.lang != "" {
		if err := e.SwitchLanguage(t.lang); err != nil {
			return err
		}
	}
	if err := e.ChangeSection(t.section - 1); err != nil {
		return err
	}
	if t.bubble > 0 {
		return e.SelectBubble(t.bubble - 1)
	}
	return nil
}

var bubbleArgs struct {
	target
	x, y  float64
	text  string
	shape string
}

var bubbleCmd = &cobra.Command{
	Use:   "bubble",
	Short: "Edit speech bubbles",
}

var bubbleAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a bubble to an image section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var added int
		err := editFile(args[0], func(e *document.Editor) error {
			if err := bubbleArgs.apply(e); err != nil {
				return err
			}
			i, err := e.AddBubble(domain.Position{X: domain.Percent(bubbleArgs.x), Y: domain.Percent(bubbleArgs.y)})
			if err != nil {
				return err
			}
			added = i + 1
			if cmd.Flags().Changed("text") {
				if err := e.SetActiveText(bubbleArgs.text); err != nil {
					return err
				}
			}
			if bubbleArgs.shape != "" {
				return e.UpdateBubbleShape(bubbleArgs.shape)
			}
			return nil
		})
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Added bubble %d on section %d\n", added, bubbleArgs.section)
		}
		return err
	},
}

var bubbleSetCmd = &cobra.Command{
	Use:   "set <file>",
	Short: "Change text, shape or position of a bubble",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			if err := bubbleArgs.apply(e); err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("text") {
				if err := e.SetActiveText(bubbleArgs.text); err != nil {
					return err
				}
			}
			if f.Changed("shape") {
				if err := e.UpdateBubbleShape(bubbleArgs.shape); err != nil {
					return err
				}
			}
			if f.Changed("x") || f.Changed("y") {
				cur := e.Doc().Resolver().Position(e.Doc().Bubble())
				pos := domain.Position{X: cur.X, Y: cur.Y}
				if f.Changed("x") {
					pos.X = domain.Percent(bubbleArgs.x)
				}
				if f.Changed("y") {
					pos.Y = domain.Percent(bubbleArgs.y)
				}
				return e.MoveBubble(bubbleArgs.bubble-1, pos)
			}
			return nil
		})
	},
}

var tailArgs struct {
	target
	x, y float64
}

var bubbleTailCmd = &cobra.Command{
	Use:   "tail <file>",
	Short: "Set the tail offset of a bubble",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			if err := tailArgs.apply(e); err != nil {
				return err
			}
			return e.SetBubbleTail(tailArgs.bubble-1, tailArgs.x, tailArgs.y)
		})
	},
}

var bubbleDeleteArgs target

var bubbleDeleteCmd = &cobra.Command{
	Use:   "delete <file>",
	Short: "Delete a bubble",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			if err := bubbleDeleteArgs.apply(e); err != nil {
				return err
			}
			return e.DeleteBubble(bubbleDeleteArgs.bubble - 1)
		})
	},
}

var bubbleShapesCmd = &cobra.Command{
	Use:   "shapes",
	Short: "List bubble shapes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range document.ShapeNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var sectionArgs struct {
	target
	kind       string
	text       string
	background string
	delta      int
}

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Edit sections",
}

var sectionAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Append a section after the last one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			if sectionArgs.lang != "" {
				if err := e.SwitchLanguage(sectionArgs.lang); err != nil {
					return err
				}
			}
			if err := e.AddSection(); err != nil {
				return err
			}
			return setSectionFields(cmd, e)
		})
	},
}

var sectionSetCmd = &cobra.Command{
	Use:   "set <file>",
	Short: "Change type, text or background of a section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			if err := sectionArgs.apply(e); err != nil {
				return err
			}
			return setSectionFields(cmd, e)
		})
	},
}

func setSectionFields(cmd *cobra.Command, e *document.Editor) error {
	f := cmd.Flags()
	if f.Changed("type") {
		if err := e.UpdateSectionField("type", sectionArgs.kind); err != nil {
			return err
		}
	}
	if f.Changed("background") {
		if err := e.UpdateSectionField("background", sectionArgs.background); err != nil {
			return err
		}
	}
	if f.Changed("text") {
		return e.UpdateSectionField("text", sectionArgs.text)
	}
	return nil
}

var sectionMoveCmd = &cobra.Command{
	Use:   "move <file>",
	Short: "Move a section by --by positions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			if err := sectionArgs.apply(e); err != nil {
				return err
			}
			return e.MoveSection(sectionArgs.delta)
		})
	},
}

var sectionDeleteCmd = &cobra.Command{
	Use:   "delete <file>",
	Short: "Delete a section (the last one is cleared instead)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			if err := sectionArgs.apply(e); err != nil {
				return err
			}
			_, err := e.DeleteActive()
			return err
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{bubbleAddCmd, bubbleSetCmd} {
		withBubble := c == bubbleSetCmd
		bubbleArgs.register(c, withBubble)
		c.Flags().Float64Var(&bubbleArgs.x, "x", 50, "horizontal position in percent")
		c.Flags().Float64Var(&bubbleArgs.y, "y", 50, "vertical position in percent")
		c.Flags().StringVarP(&bubbleArgs.text, "text", "t", "", "bubble text in the edited language")
		c.Flags().StringVar(&bubbleArgs.shape, "shape", "", "speech, thought or shout")
	}
	tailArgs.register(bubbleTailCmd, true)
	bubbleTailCmd.Flags().Float64Var(&tailArgs.x, "x", 0, "horizontal tail offset in pixels")
	bubbleTailCmd.Flags().Float64Var(&tailArgs.y, "y", domain.DefaultTailY, "vertical tail offset in pixels")
	bubbleDeleteArgs.register(bubbleDeleteCmd, true)
	bubbleCmd.AddCommand(bubbleAddCmd, bubbleSetCmd, bubbleTailCmd, bubbleDeleteCmd, bubbleShapesCmd)

	sectionArgs.register(sectionSetCmd, false)
	sectionArgs.register(sectionMoveCmd, false)
	sectionArgs.register(sectionDeleteCmd, false)
	sectionAddCmd.Flags().StringVarP(&sectionArgs.lang, "lang", "l", "", "language of --text")
	for _, c := range []*cobra.Command{sectionAddCmd, sectionSetCmd} {
		c.Flags().StringVar(&sectionArgs.kind, "type", domain.SectionImage, "image or text")
		c.Flags().StringVarP(&sectionArgs.text, "text", "t", "", "section text in the edited language")
		c.Flags().StringVar(&sectionArgs.background, "background", "", "background image URL or blob ref")
	}
	sectionMoveCmd.Flags().IntVar(&sectionArgs.delta, "by", 1, "positions to move; negative moves up")
	sectionCmd.AddCommand(sectionAddCmd, sectionSetCmd, sectionMoveCmd, sectionDeleteCmd)

	rootCmd.AddCommand(bubbleCmd, sectionCmd)
}
