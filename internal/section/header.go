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

import (
	"regexp"
	"strings"
)

// secItemPattern matches SEC 10-K Item headers in their many observed
// forms: "Item 1.", "ITEM 1A -", "Part II Item 7. Management's...".
// Inline XBRL renders these headers as plain paragraphs, not <h*>
// elements, so detection relies on this pattern rather than tag name.
var secItemPattern = regexp.MustCompile(`(?i)^\s*(?:part\s+[ivx]+\s*[-—–.:]?\s*)?item\s+(\d+[a-c]?)\.?\s*[-—–:]?\s*(.*)$`)

const maxHeaderCandidateLength = 200

// headerInfo is what detectSectionHeader reports about a matched Item
// header: the section_type key, its number as written in the filing
// ("1A"), and the title text following it on the same line.
type headerInfo struct {
	SectionType string
	Number      string
	Title       string
}

// detectSectionHeader reports whether an element is an Item header, and
// if so which section_type it opens ("item_7a"). Only Title and
// UncategorizedText elements are considered: SEC inline XBRL filings
// commonly render Item headers as plain paragraphs rather than true HTML
// headings.
func detectSectionHeader(el Element) (headerInfo, bool) {
	if el.Category != CategoryTitle && el.Category != CategoryUncategorizedText {
		return headerInfo{}, false
	}

	text := strings.TrimSpace(el.Text)
	if text == "" {
		return headerInfo{}, false
	}
	if el.Category == CategoryUncategorizedText && len(text) > maxHeaderCandidateLength {
		return headerInfo{}, false
	}

	m := secItemPattern.FindStringSubmatch(text)
	if m == nil {
		return headerInfo{}, false
	}

	number := strings.ToUpper(m[1])
	sectionType := "item_" + strings.ToLower(number)
	if _, known := Definitions[sectionType]; !known {
		return headerInfo{}, false
	}

	return headerInfo{SectionType: sectionType, Number: number, Title: strings.TrimSpace(m[2])}, true
}
