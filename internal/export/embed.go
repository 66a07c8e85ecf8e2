/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"dsfstudio/internal/document"
	"dsfstudio/internal/scene"
)

// EmbedOptions configures the viewer embed snippet.
type EmbedOptions struct {
	ScriptURL      string // viewer script; a placeholder when empty
	DefaultLang    string
	LanguageSwitch bool
	Theme          string // "light" or "dark"
}

// Embed returns the HTML snippet that mounts the hosted viewer for a
// project. An unsaved project uses the id "demo-project".
func Embed(projectID string, opt EmbedOptions) string {
	if projectID == "" {
		projectID = "demo-project"
	}
	if opt.ScriptURL == "" {
		opt.ScriptURL = "https://YOUR-DOMAIN.com/dsf-viewer.js"
	}
	if opt.DefaultLang == "" {
		opt.DefaultLang = "ja"
	}
	if opt.Theme != "dark" {
		opt.Theme = "light"
	}
	id := template.JSEscapeString(projectID)
	var b bytes.Buffer
	fmt.Fprintf(&b, "<!-- DSF Viewer Embed Code -->\n")
	fmt.Fprintf(&b, "<div id=\"dsf-viewer-%s\" style=\"width:100%%;max-width:600px;margin:0 auto;\"></div>\n", template.HTMLEscapeString(projectID))
	fmt.Fprintf(&b, "<script src=\"%s\"></script>\n", template.HTMLEscapeString(opt.ScriptURL))
	fmt.Fprintf(&b, "<script>\n  DSFViewer.init({\n")
	fmt.Fprintf(&b, "    containerId: 'dsf-viewer-%s',\n", id)
	fmt.Fprintf(&b, "    projectId: '%s',\n", id)
	fmt.Fprintf(&b, "    defaultLanguage: '%s',\n", template.JSEscapeString(opt.DefaultLang))
	fmt.Fprintf(&b, "    enableLanguageSwitch: %t,\n", opt.LanguageSwitch)
	fmt.Fprintf(&b, "    theme: '%s'\n", opt.Theme)
	fmt.Fprintf(&b, "  });\n</script>\n")
	return b.String()
}

var previewTmpl = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="{{.Default}}">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: #f0f0f0; font-family: sans-serif; }
#viewer { max-width: 600px; margin: 0 auto; background: #fff; }
.section svg { display: block; width: 100%; height: auto; border-bottom: 1px solid #ddd; }
.lang { display: none; }
.lang.active { display: block; }
.controls { position: fixed; top: 10px; right: 10px; background: #fff; padding: 10px; border-radius: 8px; }
</style>
</head>
<body>
<div class="controls"><select onchange="document.querySelectorAll('.lang').forEach(function(e){e.classList.toggle('active', e.dataset.lang===this.value)}, this)">
{{- range .Langs}}<option value="{{.Code}}"{{if eq .Code $.Default}} selected{{end}}>{{.Code}}</option>{{end -}}
</select></div>
<div id="viewer">
{{- range .Langs}}
<div class="lang{{if eq .Code $.Default}} active{{end}}" data-lang="{{.Code}}" data-direction="{{.Direction}}">
{{- range .Sections}}<div class="section">{{.}}</div>{{end}}
</div>
{{- end}}
</div>
</body>
</html>
`))

type previewLang struct {
	Code      string
	Direction string
	Sections  []template.HTML
}

// Preview writes a standalone HTML page showing every section in every
// project language, with a language switch.
func Preview(w io.Writer, d *document.Document, c *scene.Cache) error {
	data := struct {
		Title   string
		Default string
		Langs   []previewLang
	}{Title: d.Project.Title, Default: d.ActiveLang}
	if data.Title == "" {
		data.Title = "DSF Viewer Preview"
	}
	for _, code := range d.Project.Languages {
		pl := previewLang{Code: code, Direction: "right"}
		for _, sc := range Scenes(d, code, c) {
			pl.Direction = sc.Direction
			// markup is generated from escaped text only
			pl.Sections = append(pl.Sections, template.HTML(SectionSVG(sc, SVGOptions{Inline: true})))
		}
		data.Langs = append(data.Langs, pl)
	}
	if err := previewTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	return nil
}
