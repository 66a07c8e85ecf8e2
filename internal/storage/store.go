/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"dsfstudio/internal/domain"
)

// ErrNotFound is returned when a work id is unknown to a store.
var ErrNotFound = errors.New("work not found")

// PreviewRunes is the length of Summary.Preview.
const PreviewRunes = 30

// Summary is a list entry of a stored work.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Cover     string    `json:"cover,omitempty"`
	Preview   string    `json:"preview,omitempty"`
	Sections  int       `json:"sections"`
	Languages []string  `json:"languages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists projects by id. Put assigns a new id to projects that
// have none and returns the id used.
type Store interface {
	Get(ctx context.Context, id string) (domain.Project, error)
	Put(ctx context.Context, p *domain.Project) (string, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

// NewID returns a time-ordered work id.
func NewID() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return u.String()
}

// WorkID returns the id p will be stored under: its own id when set, a
// new one otherwise. p is not modified; stores assign the id only after
// the write succeeded.
func WorkID(p *domain.Project) (string, error) {
	if p.ID.IsNull() {
		return NewID(), nil
	}
	id := p.ID.String()
	if err := validID(id); err != nil {
		return "", err
	}
	return id, nil
}

// reID matches ids that are safe as file names and keys. UUIDs from this
// store and ids from older cloud stores both qualify.
var reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrBadID reports an id that cannot name a work. No work can exist under
// such an id, so errors carrying it also match ErrNotFound.
var ErrBadID = errors.New("invalid work id")

// validID guards ids used as file names or keys.
func validID(id string) error {
	if !reID.MatchString(id) {
		return fmt.Errorf("work id %q: %w: %w", id, ErrBadID, ErrNotFound)
	}
	return nil
}

// Summarize builds the list entry of p. The cover is the first image
// section's background; the preview is the start of the first non-empty
// section or bubble text.
func Summarize(p domain.Project, updated time.Time) Summary {
	s := Summary{
		ID:        p.ID.String(),
		Title:     p.Title,
		Sections:  len(p.Sections),
		Languages: append([]string(nil), p.Languages...),
		UpdatedAt: updated,
	}
	for _, sec := range p.Sections {
		if sec.Type == domain.SectionImage && sec.Background != "" {
			s.Cover = sec.Background
			break
		}
	}
	s.Preview = truncate(firstText(p), PreviewRunes)
	return s
}

func firstText(p domain.Project) string {
	for _, sec := range p.Sections {
		if sec.Text != "" {
			return sec.Text
		}
		for _, b := range sec.Bubbles {
			if b.Text != "" {
				return b.Text
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// sortSummaries orders newest first.
func sortSummaries(out []Summary) {
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
}
