/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "maps"

// Deep copies. A clone shares no maps, slices or pointers with its source.

func (p Project) Clone() Project {
	out := p
	out.Sections = CloneSections(p.Sections)
	out.Languages = append([]string(nil), p.Languages...)
	out.LanguageConfigs = maps.Clone(p.LanguageConfigs)
	return out
}

// CloneSections deep-copies a section list, preserving nil-ness.
func CloneSections(in []Section) []Section {
	if in == nil {
		return nil
	}
	out := make([]Section, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func (s Section) Clone() Section {
	out := s
	out.Localized = s.Localized.Clone()
	if s.ImagePosition != nil {
		ip := *s.ImagePosition
		out.ImagePosition = &ip
	}
	if s.Bubbles != nil {
		out.Bubbles = make([]Bubble, len(s.Bubbles))
		for i := range s.Bubbles {
			out.Bubbles[i] = s.Bubbles[i].Clone()
		}
	}
	return out
}

func (b Bubble) Clone() Bubble {
	out := b
	out.Localized = b.Localized.Clone()
	out.Positions = maps.Clone(b.Positions)
	return out
}

func (l Localized) Clone() Localized {
	return Localized{Text: l.Text, Texts: maps.Clone(l.Texts)}
}
