/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	applog "dsfstudio/internal/log"
)

// MaxFetchBytes bounds a downloaded background.
const MaxFetchBytes = 16 << 20

var ErrUnsupportedRef = errors.New("unsupported image reference")

// Fetcher resolves section backgrounds for export: blob refs are read
// from Blobs, http(s) URLs are downloaded once and kept in memory.
type Fetcher struct {
	Blobs *BlobDir
	http  *resty.Client
	cache *cache.Cache
	log   *slog.Logger
}

// NewFetcher returns a fetcher; blobs may be nil when only URLs are used.
func NewFetcher(blobs *BlobDir, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	h := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(300 * time.Millisecond).
		SetLogger(quietLogger{})
	return &Fetcher{
		Blobs: blobs,
		http:  h,
		cache: cache.New(30*time.Minute, 10*time.Minute),
		log:   applog.WithComponent("media"),
	}
}

// Open implements export.ImageSource.
func (f *Fetcher) Open(ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, RefScheme):
		if f.Blobs == nil {
			return nil, fmt.Errorf("%s: no blob dir configured", ref)
		}
		return f.Blobs.Open(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		if v, ok := f.cache.Get(ref); ok {
			return v.([]byte), nil
		}
		data, err := f.download(ref)
		if err != nil {
			return nil, err
		}
		f.cache.SetDefault(ref, data)
		return data, nil
	default:
		return nil, fmt.Errorf("%q: %w", ref, ErrUnsupportedRef)
	}
}

func (f *Fetcher) download(url string) ([]byte, error) {
	start := time.Now()
	resp, err := f.http.R().SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}
	data, err := readLimited(body, MaxFetchBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	f.log.Debug("image fetched", slog.String("url", url), slog.Int("bytes", len(data)), slog.Duration("took", time.Since(start)))
	return data, nil
}

// readLimited reads all of r, failing when it holds more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image larger than %d bytes", limit)
	}
	return data, nil
}

type quietLogger struct{}

func (quietLogger) Errorf(string, ...interface{}) {}
func (quietLogger) Warnf(string, ...interface{})  {}
func (quietLogger) Debugf(string, ...interface{}) {}
