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
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
)

const replHelp = `commands:
  show                      list sections and bubbles
  section N                 go to section N
  add-section               append an image section
  delete                    delete the selected bubble, else the section
  type image|text           change the section type
  bg URL                    set the section background
  add-bubble [X Y]          add a bubble (percent, default 50 50)
  select N                  select bubble N (0 clears)
  text ...                  set the text of the bubble, else the section
  shape NAME                set the shape of the selected bubble
  move X Y                  move the selected bubble
  tail X Y                  set the tail of the selected bubble
  lang CODE                 switch the edited language
  undo | redo | history
  save | quit
`

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Edit a project interactively with undo and redo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := readDoc(args[0])
		if err != nil {
			return err
		}
		in := bufio.NewReader(os.Stdin)
		e := newEditor(d, readerConfirmer(in, cmd.OutOrStdout()))
		return runREPL(in, cmd.OutOrStdout(), args[0], e)
	},
}

func init() { rootCmd.AddCommand(editCmd) }

var errQuit = errors.New("quit")

// runREPL reads commands from in until quit or EOF. Unsaved changes are
// written on exit.
func runREPL(in *bufio.Reader, out io.Writer, path string, e *document.Editor) error {
	dirty := false
	for {
		fmt.Fprintf(out, "[%d/%d %s] > ", e.Doc().ActiveSection+1, len(e.Doc().Project.Sections), e.Doc().ActiveLang)
		line, rerr := in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			changed, err := replExec(out, path, e, line)
			switch {
			case errors.Is(err, errQuit):
				rerr = io.EOF
			case err != nil:
				fmt.Fprintln(out, "error:", err)
			case changed:
				dirty = true
			case line == "save":
				dirty = false
			}
		}
		if rerr != nil {
			if dirty {
				return writeDoc(path, e.Doc())
			}
			return nil
		}
	}
}

func replExec(out io.Writer, path string, e *document.Editor, line string) (bool, error) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	fields := strings.Fields(rest)
	d := e.Doc()
	switch name {
	case "help", "?":
		fmt.Fprint(out, replHelp)
		return false, nil
	case "quit", "exit":
		return false, errQuit
	case "save":
		if err := writeDoc(path, d); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "saved", path)
		return false, nil
	case "show":
		replShow(out, d)
		return false, nil
	case "history":
		h := e.History()
		fmt.Fprintf(out, "undo %d, redo %d\n", h.UndoCount, h.RedoCount)
		return false, nil
	case "undo":
		if !e.Undo() {
			return false, errors.New("nothing to undo")
		}
		return true, nil
	case "redo":
		if !e.Redo() {
			return false, errors.New("nothing to redo")
		}
		return true, nil
	case "section":
		n, err := intArg(fields, 0)
		if err != nil {
			return false, err
		}
		return false, e.ChangeSection(n - 1)
	case "add-section":
		return true, e.AddSection()
	case "delete":
		deleted, err := e.DeleteActive()
		return deleted, err
	case "type":
		return true, e.UpdateSectionField("type", rest)
	case "bg":
		return true, e.UpdateSectionField("background", rest)
	case "add-bubble":
		pos := domain.Position{X: 50, Y: 50}
		if len(fields) >= 2 {
			x, y, err := floatPair(fields)
			if err != nil {
				return false, err
			}
			pos = domain.Position{X: domain.Percent(x), Y: domain.Percent(y)}
		}
		i, err := e.AddBubble(pos)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "bubble %d\n", i+1)
		return true, nil
	case "select":
		n, err := intArg(fields, 0)
		if err != nil {
			return false, err
		}
		return false, e.SelectBubble(n - 1)
	case "text":
		return true, e.SetActiveText(strings.ReplaceAll(rest, `\n`, "\n"))
	case "shape":
		if d.Bubble() == nil {
			return false, errors.New("no bubble selected")
		}
		return true, e.UpdateBubbleShape(rest)
	case "move", "tail":
		if d.Bubble() == nil {
			return false, errors.New("no bubble selected")
		}
		x, y, err := floatPair(fields)
		if err != nil {
			return false, err
		}
		if name == "move" {
			return true, e.MoveBubble(d.ActiveBubble, domain.Position{X: domain.Percent(x), Y: domain.Percent(y)})
		}
		return true, e.SetBubbleTail(d.ActiveBubble, x, y)
	case "lang":
		return false, e.SwitchLanguage(rest)
	}
	return false, fmt.Errorf("unknown command %q (try help)", name)
}

func replShow(out io.Writer, d *document.Document) {
	r := d.Resolver()
	for i, s := range d.Project.Sections {
		mark := " "
		if i == d.ActiveSection {
			mark = "*"
		}
		if !s.HasBubbles() {
			fmt.Fprintf(out, "%s%3d text  %q\n", mark, i+1, storagePreview(r.Text(&s.Localized)))
			continue
		}
		fmt.Fprintf(out, "%s%3d image %s\n", mark, i+1, s.Background)
		for j := range s.Bubbles {
			b := &s.Bubbles[j]
			sel := " "
			if i == d.ActiveSection && j == d.ActiveBubble {
				sel = ">"
			}
			p := r.Position(b)
			fmt.Fprintf(out, "     %s%d %-7s (%g, %g) %q\n", sel, j+1, b.Shape, float64(p.X), float64(p.Y), storagePreview(r.Text(&b.Localized)))
		}
	}
}

func intArg(fields []string, i int) (int, error) {
	if len(fields) <= i {
		return 0, errors.New("missing number")
	}
	return strconv.Atoi(fields[i])
}

func floatPair(fields []string) (float64, float64, error) {
	if len(fields) < 2 {
		return 0, 0, errors.New("need two numbers")
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	return x, y, err
}
