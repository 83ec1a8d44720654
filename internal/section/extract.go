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

	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/model"
)

var (
	reBlankRuns      = regexp.MustCompile(`\n{3,}`)
	reRunSpaces      = regexp.MustCompile(` {2,}`)
	rePageNumber     = regexp.MustCompile(`\n\s*\d+\s*\n`)
	reTableOfContent = regexp.MustCompile(`(?i)\n\s*table\s+of\s+contents\s*\n`)
	reFormHeader     = regexp.MustCompile(`(?i)form\s+10-k\s*\n`)
	reFootnoteMarks  = regexp.MustCompile(`[\*†‡§¶]|\(\d+\)|\[\d+\]`)
)

// cleanSectionText normalizes whitespace and strips page-number and
// running-header noise left over from the source HTML.
func cleanSectionText(text string) string {
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	text = reRunSpaces.ReplaceAllString(text, " ")
	text = rePageNumber.ReplaceAllString(text, "\n")
	text = reTableOfContent.ReplaceAllString(text, "\n")
	text = reFormHeader.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

type crossRefPattern struct {
	re     *regexp.Regexp
	target string
}

var crossRefPatterns = []crossRefPattern{
	{regexp.MustCompile(`(?i)see\s+item\s+(\d+[A-Za-z]?)`), "Item"},
	{regexp.MustCompile(`(?i)refer\s+to\s+item\s+(\d+[A-Za-z]?)`), "Item"},
	{regexp.MustCompile(`(?i)discussed\s+in\s+item\s+(\d+[A-Za-z]?)`), "Item"},
	{regexp.MustCompile(`(?i)see\s+note\s+(\d+)`), "Note"},
	{regexp.MustCompile(`(?i)refer\s+to\s+note\s+(\d+)`), "Note"},
	{regexp.MustCompile(`(?i)see\s+part\s+(I{1,3}|IV)`), "Part"},
}

// extractCrossReferences finds "see Item N" / "refer to Note N" style
// references to other parts of the filing, grouped by pattern in the
// order crossRefPatterns lists them and in order of occurrence within
// each pattern, deduplicated by (target, matched text).
func extractCrossReferences(text string) []model.CrossReference {
	var refs []model.CrossReference
	seen := make(map[string]bool)

	for _, p := range crossRefPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			target := p.target + " " + strings.ToUpper(m[1])
			key := target + "|" + m[0]
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, model.CrossReference{Target: target, Text: m[0]})
		}
	}

	return refs
}

func isUpperWord(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func isTitleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		r := []rune(strings.TrimFunc(w, func(r rune) bool { return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') }))
		if len(r) == 0 {
			continue
		}
		if r[0] < 'A' || r[0] > 'Z' {
			return false
		}
	}
	return true
}

// extractHeadingHierarchy scans section text line by line for lines that
// look like subheadings: short, unpunctuated, upper- or title-cased or
// colon-terminated, and followed by either a blank line or a long line
// of body text. Capped at 10 entries.
func extractHeadingHierarchy(text string, minLen, maxLen int) []string {
	var headings []string
	lines := strings.Split(text, "\n")

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if len(line) <= minLen || len(line) >= maxLen {
			continue
		}
		if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ",") || strings.HasSuffix(line, ";") {
			continue
		}
		looksLikeHeading := isUpperWord(line) || isTitleCase(line) || strings.HasSuffix(line, ":")
		if !looksLikeHeading {
			continue
		}

		followedByContent := i+1 >= len(lines) || strings.TrimSpace(lines[i+1]) == "" || len(lines[i+1]) > 50
		if !followedByContent {
			continue
		}

		headings = append(headings, strings.TrimSuffix(line, ":"))
		if len(headings) >= 10 {
			break
		}
	}

	return headings
}

// buildSection converts one section's grouped elements into a Section,
// applying the candidacy threshold, confidence penalties, truncation,
// and quality scoring. Returns (Section{}, false) when the group is too
// short to be more than a table-of-contents entry.
func buildSection(cfg config.SectionConfig, sectionType string, g group) (model.Section, bool) {
	def := Definitions[sectionType]
	title := g.Title
	if title == "" {
		title = def.Title
	}

	var textParts []string
	var htmlParts []string
	tableCount, listCount := 0, 0

	for _, el := range g.Elements {
		if el.Text != "" {
			textParts = append(textParts, el.Text)
		}
		switch el.Category {
		case CategoryTable:
			tableCount++
			if el.HTML != "" {
				htmlParts = append(htmlParts, el.HTML)
			}
		case CategoryListItem:
			listCount++
		}
	}

	contentText := cleanSectionText(strings.Join(textParts, "\n\n"))
	contentHTML := strings.Join(htmlParts, "\n")

	actualWords := len(strings.Fields(contentText))
	minWords := expectedMinWords(cfg.MinWordsByType, sectionType)
	minThreshold := int(float64(minWords) * cfg.CandidacyThreshold)
	if actualWords < minThreshold {
		return model.Section{}, false
	}

	confidence := 0.95
	var issues []string

	if float64(actualWords) < float64(minWords)*cfg.ShortThreshold {
		issues = append(issues, "section shorter than expected")
		confidence *= cfg.ShortPenalty
	}

	if cfg.MaxContentChars > 0 && len(contentText) > cfg.MaxContentChars {
		contentText = contentText[:cfg.MaxContentChars]
		confidence *= cfg.TruncationPenalty
		issues = append(issues, "section truncated due to length")
	}

	crossRefs := extractCrossReferences(contentText)
	headings := extractHeadingHierarchy(contentText, cfg.MinHeadingLength, cfg.MaxHeadingLength)
	footnoteCount := len(reFootnoteMarks.FindAllString(contentText, -1))

	quality := cfg.BaseQuality
	if float64(actualWords) < float64(minWords)*cfg.VeryShortThreshold {
		quality *= cfg.VeryShortPenalty
	}
	if len(crossRefs) == 0 && (sectionType == "item_7" || sectionType == "item_8") {
		quality *= cfg.MissingRefsPenalty
	}

	paragraphCount := 0
	for _, p := range strings.Split(contentText, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphCount++
		}
	}

	return model.Section{
		SectionType:       sectionType,
		Title:             title,
		ContentText:       contentText,
		ContentHTML:       contentHTML,
		WordCount:         actualWords,
		CharCount:         len(contentText),
		ParagraphCount:    paragraphCount,
		Confidence:        confidence,
		Part:              def.Part,
		TableCount:        tableCount,
		ListCount:         listCount,
		FootnoteCount:     footnoteCount,
		CrossReferences:   crossRefs,
		HeadingHierarchy:  headings,
		ExtractionQuality: quality,
		ExtractionIssues:  issues,
	}, true
}

// ExtractSections parses a filing's primary HTML document and returns
// every Item section that clears the candidacy threshold.
func ExtractSections(cfg config.SectionConfig, htmlBytes []byte) ([]model.Section, error) {
	elements, err := PartitionHTML(htmlBytes)
	if err != nil {
		return nil, err
	}

	groups := groupBySection(elements)

	var sections []model.Section
	for sectionType, g := range groups {
		if sec, ok := buildSection(cfg, sectionType, g); ok {
			sections = append(sections, sec)
		}
	}

	return sections, nil
}
