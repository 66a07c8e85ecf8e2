/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func TestCompressDownscales(t *testing.T) {
	data, info, err := Compress(bytes.NewReader(pngOf(t, 400, 200)), 100, 80)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if info.Width != 100 || info.Height != 50 || info.Format != "png" {
		t.Fatalf("unexpected info %+v", info)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != "jpeg" || cfg.Width != 100 {
		t.Fatalf("output: %v %s %+v", err, format, cfg)
	}
}

func TestCompressKeepsSmallImages(t *testing.T) {
	_, info, err := Compress(bytes.NewReader(pngOf(t, 50, 30)), 100, 0)
	if err != nil || info.Width != 50 || info.Height != 30 {
		t.Fatalf("small image must keep its size: %v %+v", err, info)
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	if _, _, err := Compress(bytes.NewReader([]byte("nope")), 0, 0); !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}

func TestThumbnailSizes(t *testing.T) {
	src := pngOf(t, 300, 300)
	for size, want := range map[string]int{"S": 60, "M": 90, "L": 120, "": 90} {
		data, err := Thumbnail(bytes.NewReader(src), size)
		if err != nil {
			t.Fatalf("thumb %q: %v", size, err)
		}
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("thumb %q: %v", size, err)
		}
		if got := img.Bounds().Dx(); got != want {
			t.Fatalf("thumb %q: width=%d want %d", size, got, want)
		}
	}
}

func TestBlobDirUploadIsContentAddressed(t *testing.T) {
	b, err := NewBlobDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewBlobDir: %v", err)
	}
	r1, err := b.Upload([]byte("abc"), ".JPG")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	r2, _ := b.Upload([]byte("abc"), "jpg")
	if r1 != r2 {
		t.Fatalf("same content must give the same ref: %s vs %s", r1, r2)
	}
	got, err := b.Open(r1)
	if err != nil || string(got) != "abc" {
		t.Fatalf("open: %v %q", err, got)
	}
	entries, _ := os.ReadDir(b.Root)
	if len(entries) != 1 {
		t.Fatalf("expected one file, got %d", len(entries))
	}
	for _, bad := range []string{"http://x/y.jpg", "blob:", "blob:../etc/passwd", "blob:.hidden"} {
		if _, err := b.Path(bad); !errors.Is(err, ErrBadRef) {
			t.Fatalf("%q: expected ErrBadRef, got %v", bad, err)
		}
	}
}
