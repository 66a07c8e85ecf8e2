/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
	"dsfstudio/internal/lang"
	"dsfstudio/internal/script"
	"dsfstudio/internal/storage"
)

var newArgs struct {
	title string
	langs []string
	force bool
}

var newCmd = &cobra.Command{
	Use:   "new <file>",
	Short: "Create a project file with one image section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !newArgs.force {
			return fmt.Errorf("%s exists; use --force to replace it", path)
		}
		d := document.New()
		d.SetTitle(newArgs.title)
		if err := applyLanguages(d, newArgs.langs); err != nil {
			return err
		}
		session.Doc = d
		if err := writeDoc(path, d); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", path, strings.Join(d.Project.Languages, ", "))
		return nil
	},
}

// applyLanguages makes langs the project languages, in order.
func applyLanguages(d *document.Document, langs []string) error {
	if len(langs) == 0 {
		if def := cfg.Editor.DefaultLanguage; def != "" {
			langs = []string{def}
		} else {
			return nil
		}
	}
	for _, code := range langs {
		d.AddLanguage(code)
	}
	keep := make(map[string]bool, len(langs))
	for _, code := range langs {
		keep[lang.Normalize(code)] = true
	}
	for _, code := range append([]string(nil), d.Project.Languages...) {
		if !keep[code] {
			if err := d.RemoveLanguage(code); err != nil {
				return err
			}
		}
	}
	return d.SwitchLanguage(lang.Normalize(langs[0]))
}

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Summarize a project file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := readDoc(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		p := d.Project
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(out, "Title:     %s\n", title)
		if !p.ID.IsNull() {
			fmt.Fprintf(out, "ID:        %s\n", p.ID.String())
		}
		for _, code := range p.Languages {
			if err := d.SwitchLanguage(code); err != nil {
				return err
			}
			fmt.Fprintf(out, "Language:  %s (%s, %s, next page %s)\n", code, lang.Get(code).Label, d.Resolver().WritingMode(p.LanguageConfigs), d.NextPageDirection())
		}
		d.ActiveLang = p.Languages[0]
		r := d.Resolver()
		for i, s := range p.Sections {
			switch s.Type {
			case domain.SectionText:
				fmt.Fprintf(out, "%3d  text   %q\n", i+1, storagePreview(r.Text(&s.Localized)))
			default:
				fmt.Fprintf(out, "%3d  image  %d bubble(s)  %s\n", i+1, len(s.Bubbles), s.Background)
			}
		}
		return nil
	},
}

func storagePreview(s string) string {
	rs := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(rs) > storage.PreviewRunes {
		return string(rs[:storage.PreviewRunes]) + "…"
	}
	return string(rs)
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check project files against the document schema",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var failed []string
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err == nil {
				_, err = storage.Decode(data)
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed = append(failed, path)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
		}
		if len(failed) > 0 {
			return errors.New("validation failed for " + strings.Join(failed, ", "))
		}
		return nil
	},
}

var importArgs struct {
	lang  string
	force bool
}

var importCmd = &cobra.Command{
	Use:   "import <script.txt> <file>",
	Short: "Create a project from a plain-text comic script",
	Long: `Create a project from a plain-text comic script.

  Title: My Comic
  # Scene heading       starts an image section (also "Panel 2", "Image: URL")
  ALICE: Hello!         a bubble; add @thought or @shout for other shapes
  CAPTION: Later...     a text section (also NARRATION:, TEXT:)
  ; note                ignored`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if _, err := os.Stat(args[1]); err == nil && !importArgs.force {
			return fmt.Errorf("%s exists; use --force to replace it", args[1])
		}
		s, errs := script.Parse(string(src))
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", args[0], e)
		}
		code := importArgs.lang
		if code == "" {
			code = cfg.Editor.DefaultLanguage
		}
		p, err := script.Build(s, code)
		if err != nil {
			return err
		}
		d := document.FromProject(p)
		session.Doc = d
		if err := writeDoc(args[1], d); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d section(s) into %s\n", len(p.Sections), args[1])
		return nil
	},
}

var langCmd = &cobra.Command{
	Use:   "lang",
	Short: "Manage project languages",
}

var langAddCmd = &cobra.Command{
	Use:   "add <file> <code>...",
	Short: "Add languages to a project",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			for _, code := range args[1:] {
				if _, err := e.AddLanguage(code); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var langRemoveCmd = &cobra.Command{
	Use:   "remove <file> <code>",
	Short: "Remove a language; its texts stay in the document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error { return e.RemoveLanguage(args[1]) })
	},
}

var langModeCmd = &cobra.Command{
	Use:   "mode <file> <code> horizontal-tb|vertical-rl",
	Short: "Set the writing mode of a language",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editFile(args[0], func(e *document.Editor) error {
			return e.SetWritingMode(args[1], lang.WritingMode(args[2]))
		})
	},
}

var langListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in languages",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, p := range lang.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-4s %-12s %s\n", p.Code, p.Label, p.DefaultWritingMode)
		}
	},
}

func init() {
	newCmd.Flags().StringVarP(&newArgs.title, "title", "t", "", "project title")
	newCmd.Flags().StringSliceVarP(&newArgs.langs, "lang", "l", nil, "project languages, first is active (default from config)")
	newCmd.Flags().BoolVarP(&newArgs.force, "force", "f", false, "replace an existing file")

	importCmd.Flags().StringVarP(&importArgs.lang, "lang", "l", "", "language of the script (default from config)")
	importCmd.Flags().BoolVarP(&importArgs.force, "force", "f", false, "replace an existing file")

	langCmd.AddCommand(langAddCmd, langRemoveCmd, langModeCmd, langListCmd)
	rootCmd.AddCommand(newCmd, importCmd, infoCmd, validateCmd, langCmd)
}
