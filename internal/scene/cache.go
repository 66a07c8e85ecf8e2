/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"dsfstudio/internal/balloon"
	"dsfstudio/internal/vector"
)

const (
	defaultCacheExpiration = 10 * time.Minute
	cacheCleanupInterval   = 30 * time.Minute
)

// Cache memoizes bubble layouts across render passes. Layouts are pure
// functions of their inputs, so the key covers every input field.
type Cache struct {
	reg     *balloon.Registry
	layouts *cache.Cache
}

// NewCache returns a cache backed by reg; nil selects balloon.Default.
func NewCache(reg *balloon.Registry) *Cache {
	if reg == nil {
		reg = balloon.Default
	}
	return &Cache{reg: reg, layouts: cache.New(defaultCacheExpiration, cacheCleanupInterval)}
}

func key(shape string, in balloon.Input) string {
	return fmt.Sprintf("%s|%s|%t|%g|%g|%t|%q", shape, in.Lang, in.Vertical, in.TailX, in.TailY, in.Selected, in.Text)
}

// Layout returns the layout for shape and in, computing it on a miss. The
// returned value shares no slices with the cached entry.
func (c *Cache) Layout(shape string, in balloon.Input) balloon.Layout {
	if c == nil {
		return balloon.Default.Layout(shape, in)
	}
	k := key(shape, in)
	if v, ok := c.layouts.Get(k); ok {
		return detach(v.(balloon.Layout))
	}
	l := c.reg.Layout(shape, in)
	c.layouts.Set(k, l, cache.DefaultExpiration)
	return detach(l)
}

// Len is the number of cached layouts.
func (c *Cache) Len() int { return c.layouts.ItemCount() }

// Flush drops every cached layout, e.g. after a shape is re-registered.
func (c *Cache) Flush() { c.layouts.Flush() }

func detach(l balloon.Layout) balloon.Layout {
	l.Outline = vector.Path{Cmds: append([]vector.PathCmd(nil), l.Outline.Cmds...)}
	l.Dots = append([]vector.Ellipse(nil), l.Dots...)
	return l
}
