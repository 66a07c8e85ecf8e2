/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"dsfstudio/internal/export"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/media"
	"dsfstudio/internal/telemetry"
	"dsfstudio/internal/textlayout"
)

var exportArgs struct {
	preset   string
	formats  []string
	langs    []string
	out      string
	font     string
	scale    float64
	parallel int
	offline  bool
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export a project as JSON, SVG, PNG, PDF, CBZ or an HTML preview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := readDoc(args[0])
		if err != nil {
			return err
		}
		images, err := imageSource(exportArgs.offline)
		if err != nil {
			return err
		}
		font := exportArgs.font
		if font == "" {
			font = cfg.Export.FontPath
		}
		var fonts *textlayout.FontLibrary
		if font != "" {
			fonts = textlayout.NewFontLibrary()
			if err := fonts.LoadFile("text", font); err != nil {
				return fmt.Errorf("load font: %w", err)
			}
		}
		scale := exportArgs.scale
		if scale <= 0 {
			scale = cfg.Export.PNGScale
		}
		out := exportArgs.out
		if out == "" {
			out = cfg.Export.OutDir
		}
		written, err := export.Batch(cmd.Context(), d, export.BatchOptions{
			Preset:    export.PresetName(exportArgs.preset),
			Formats:   exportArgs.formats,
			Languages: exportArgs.langs,
			OutDir:    out,
			PNG:       export.PNGOptions{Scale: scale, Fonts: fonts, Images: images},
			PDF:       export.PDFOptions{FontPath: font, Images: images},
			Parallel:  exportArgs.parallel,
		})
		for _, p := range written {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		telemetry.Event("export", map[string]any{"preset": exportArgs.preset, "files": len(written), "ok": err == nil})
		return err
	},
}

// imageSource resolves backgrounds from the blob dir and, unless offline,
// over HTTP.
func imageSource(offline bool) (export.ImageSource, error) {
	blobs, err := media.NewBlobDir(cfg.Media.BlobDir)
	if err != nil {
		applog.WithComponent("cli").Warn("blob dir unavailable", slog.Any("err", err))
		blobs = nil
	}
	if offline {
		if blobs == nil {
			return nil, nil
		}
		return blobs, nil
	}
	return media.NewFetcher(blobs, cfg.Store.Timeout()), nil
}

var embedArgs struct {
	script string
	lang   string
	noLang bool
	theme  string
	copy   bool
}

var embedCmd = &cobra.Command{
	Use:   "embed <project-id|file>",
	Short: "Print the HTML snippet that embeds a published work",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		defLang := embedArgs.lang
		if d, err := readDoc(id); err == nil {
			id = d.Project.ID.String()
			if defLang == "" {
				defLang = d.Project.Languages[0]
			}
		}
		snippet := export.Embed(id, export.EmbedOptions{
			ScriptURL:      embedArgs.script,
			DefaultLang:    defLang,
			LanguageSwitch: !embedArgs.noLang,
			Theme:          embedArgs.theme,
		})
		fmt.Fprintln(cmd.OutOrStdout(), snippet)
		if embedArgs.copy {
			if err := clipboard.WriteAll(snippet); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard.")
		}
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportArgs.preset, "preset", "p", string(export.PresetWeb), "web or print")
	f.StringSliceVarP(&exportArgs.formats, "format", "f", nil, "json, svg, png, pdf, cbz, html (default from preset)")
	f.StringSliceVarP(&exportArgs.langs, "lang", "l", nil, "languages to export (default all)")
	f.StringVarP(&exportArgs.out, "out", "o", "", "output directory (default from config)")
	f.StringVar(&exportArgs.font, "font", "", "TTF/OTF used for text, needed for CJK in PNG and PDF")
	f.Float64Var(&exportArgs.scale, "scale", 0, "PNG scale factor (default from config)")
	f.IntVar(&exportArgs.parallel, "parallel", 0, "concurrent section renders")
	f.BoolVar(&exportArgs.offline, "offline", false, "do not download remote backgrounds")

	ef := embedCmd.Flags()
	ef.StringVar(&embedArgs.script, "script", "", "viewer script URL")
	ef.StringVarP(&embedArgs.lang, "lang", "l", "", "default language (default the project's first)")
	ef.BoolVar(&embedArgs.noLang, "no-lang-switch", false, "hide the language switch")
	ef.StringVar(&embedArgs.theme, "theme", "light", "light or dark")
	ef.BoolVarP(&embedArgs.copy, "copy", "c", false, "also copy the snippet to the clipboard")

	rootCmd.AddCommand(exportCmd, embedCmd)
}
