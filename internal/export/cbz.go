/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"dsfstudio/internal/document"
)

// CBZ packages every section as a PNG image into a CBZ (ZIP) archive and
// adds a ComicInfo.xml manifest for reader compatibility.
func CBZ(w io.Writer, d *document.Document, lang string, opt PNGOptions) error {
	zw := zip.NewWriter(w)
	scenes := Scenes(d, lang, nil)
	for i, sc := range scenes {
		var buf bytes.Buffer
		if err := WritePNG(&buf, PNG(sc, opt)); err != nil {
			return fmt.Errorf("encode section %d: %w", i+1, err)
		}
		if err := addZipFile(zw, sectionName(i, "png"), buf.Bytes()); err != nil {
			return fmt.Errorf("zip add section %d: %w", i+1, err)
		}
	}
	direction := "right"
	if len(scenes) > 0 {
		direction = scenes[0].Direction
	}
	info := comicInfoXML(d.Project.Title, len(scenes), direction, lang)
	if err := addZipFile(zw, "ComicInfo.xml", []byte(info)); err != nil {
		return fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// comicInfoXML builds the manifest. Pages that advance to the left read
// right to left.
func comicInfoXML(title string, pageCount int, direction, lang string) string {
	if title == "" {
		title = DefaultName
	}
	reading := "LeftToRight"
	manga := "No"
	if direction == "left" {
		reading = "RightToLeft"
		manga = "YesAndRightToLeft"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&buf, "<ComicInfo xmlns:xsi=\"http://www.w3.org/2001/XMLSchema-instance\">\n")
	fmt.Fprintf(&buf, "  <Title>%s</Title>\n", xmlEsc(title))
	fmt.Fprintf(&buf, "  <PageCount>%d</PageCount>\n", pageCount)
	if lang != "" {
		fmt.Fprintf(&buf, "  <LanguageISO>%s</LanguageISO>\n", xmlEsc(lang))
	}
	fmt.Fprintf(&buf, "  <Manga>%s</Manga>\n", manga)
	fmt.Fprintf(&buf, "  <ReadingDirection>%s</ReadingDirection>\n", reading)
	fmt.Fprintf(&buf, "</ComicInfo>\n")
	return buf.String()
}

func xmlEsc(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '"':
			out = append(out, "&quot;"...)
		case '\'':
			out = append(out, "&apos;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
