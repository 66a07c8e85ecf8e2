/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package media prepares section background images: it downsizes and
// re-encodes uploads, renders strip thumbnails and keeps the result in a
// content-addressed blob directory.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth = 1280
	DefaultQuality  = 85
)

var ErrNotImage = errors.New("not a supported image")

// Info describes an encoded image.
type Info struct {
	Width, Height int
	Format        string // source format as reported by image.Decode
	Bytes         int
}

// Compress decodes src, scales it down to maxWidth when wider and encodes
// it as JPEG. Transparent areas are flattened onto white.
func Compress(src io.Reader, maxWidth, quality int) ([]byte, Info, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	img, format, err := image.Decode(src)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	out := fit(img, maxWidth)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, Info{}, fmt.Errorf("encode jpeg: %w", err)
	}
	b := out.Bounds()
	return buf.Bytes(), Info{Width: b.Dx(), Height: b.Dy(), Format: format, Bytes: buf.Len()}, nil
}

// ThumbWidth maps a strip size preference (S, M, L) to a pixel width.
func ThumbWidth(size string) int {
	switch size {
	case "S":
		return 60
	case "L":
		return 120
	default:
		return 90
	}
}

// Thumbnail renders a JPEG thumbnail for the given strip size.
func Thumbnail(src io.Reader, size string) ([]byte, error) {
	data, _, err := Compress(src, ThumbWidth(size), 75)
	return data, err
}

// fit scales img to at most maxWidth wide, keeping the aspect ratio, onto
// an opaque white RGBA canvas.
func fit(img image.Image, maxWidth int) *image.RGBA {
	sb := img.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w > maxWidth {
		h = max(1, int(float64(h)*float64(maxWidth)/float64(w)))
		w = maxWidth
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, sb, draw.Over, nil)
	return dst
}
