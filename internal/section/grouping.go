// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package section

// group holds every element between one Item header and the next for a
// single section_type, along with the number/title the header carried.
type group struct {
	Number   string
	Title    string
	Elements []Element
}

func textLen(elements []Element) int {
	n := 0
	for _, e := range elements {
		n += len(e.Text)
	}
	return n
}

// groupBySection scans a flat element stream for Item headers and
// collects the elements following each into its section_type's group.
// A 10-K's table of contents, and any other spot where a header repeats,
// means a section_type can appear more than once; whichever occurrence
// has more total text wins, since the shorter one is almost always a
// cross-reference or TOC entry rather than the section body.
func groupBySection(elements []Element) map[string]group {
	sections := make(map[string]group)

	var currentType string
	var current group

	flush := func() {
		if currentType == "" || len(current.Elements) == 0 {
			return
		}
		existing, ok := sections[currentType]
		if !ok || textLen(current.Elements) > textLen(existing.Elements) {
			sections[currentType] = current
		}
	}

	for _, el := range elements {
		if hdr, ok := detectSectionHeader(el); ok {
			flush()
			currentType = hdr.SectionType
			current = group{Number: hdr.Number, Title: hdr.Title, Elements: []Element{el}}
			continue
		}

		if currentType != "" {
			current.Elements = append(current.Elements, el)
		}
	}
	flush()

	return sections
}
