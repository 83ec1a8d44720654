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
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/model"
)

// FindPrimaryDocument locates a filing's main 10-K HTML document: the
// largest non-exhibit .htm file matching, in order of preference,
// "*10-k*", "*10k*", "*annual*", or any .htm file at all.
func FindPrimaryDocument(dir string) (string, error) {
	patterns := []string{"*10-k*.htm", "*10k*.htm", "*annual*.htm", "*.htm"}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}

		var candidates []string
		for _, m := range matches {
			base := strings.ToLower(filepath.Base(m))
			if len(base) >= 2 && strings.HasPrefix(base, "ex") {
				continue
			}
			candidates = append(candidates, m)
		}
		if len(candidates) == 0 {
			continue
		}

		sort.Slice(candidates, func(i, j int) bool {
			si, _ := os.Stat(candidates[i])
			sj, _ := os.Stat(candidates[j])
			var sizeI, sizeJ int64
			if si != nil {
				sizeI = si.Size()
			}
			if sj != nil {
				sizeJ = sj.Size()
			}
			return sizeI > sizeJ
		})
		return candidates[0], nil
	}

	return "", fmt.Errorf("no primary HTML document found in %s", dir)
}

// elementToMarkdown renders one partitioned element's content back to a
// minimal markdown-able HTML fragment, so it can be run back through the
// same converter used for the full document.
func elementToMarkdown(el Element) (string, error) {
	if el.Category == CategoryTable && el.HTML != "" {
		return htmltomarkdown.ConvertString(el.HTML)
	}

	var fragment string
	switch el.Category {
	case CategoryTitle:
		fragment = "<h2>" + html.EscapeString(el.Text) + "</h2>"
	case CategoryListItem:
		fragment = "<ul><li>" + html.EscapeString(el.Text) + "</li></ul>"
	default:
		fragment = "<p>" + html.EscapeString(el.Text) + "</p>"
	}
	return htmltomarkdown.ConvertString(fragment)
}

// elementsToMarkdown renders a sequence of elements to markdown,
// falling back to the elements' plain joined text if conversion fails.
func elementsToMarkdown(elements []Element) string {
	var parts []string
	for _, el := range elements {
		md, err := elementToMarkdown(el)
		if err != nil || strings.TrimSpace(md) == "" {
			if el.Text != "" {
				parts = append(parts, el.Text)
			}
			continue
		}
		parts = append(parts, strings.TrimSpace(md))
	}
	return strings.Join(parts, "\n\n")
}

var itemHeaderInMarkdown = `(?im)^(\s*#*\s*Item\s+%s)`

// embedSectionMarkers inserts `<!-- SECTION: ... -->` / `<!-- TITLE: ...
// -->` comment pairs immediately before each section's Item header line
// in the full document markdown, so a downstream chunker can recover
// which section a passage came from.
func embedSectionMarkers(markdownText string, groups map[string]group) string {
	result := markdownText

	for sectionType, g := range groups {
		def := Definitions[sectionType]
		title := g.Title
		if title == "" {
			title = def.Title
		}

		marker := "\n<!-- SECTION: " + sectionType + " -->\n"
		if title != "" {
			marker += "<!-- TITLE: " + title + " -->\n"
		}

		number := g.Number
		if number == "" {
			number = def.Number
		}
		re, err := regexp.Compile(fmt.Sprintf(itemHeaderInMarkdown, regexp.QuoteMeta(number)))
		if err != nil {
			continue
		}

		loc := re.FindStringIndex(result)
		if loc == nil {
			continue
		}
		result = result[:loc[0]] + marker + result[loc[0]:]
	}

	return result
}

// ExtractFullMarkdown renders a filing's full primary document to
// markdown with embedded section markers, and returns both the marked
// document and the individually extracted sections.
func ExtractFullMarkdown(cfg config.SectionConfig, htmlBytes []byte, accessionNumber, ticker string) (*model.FullMarkdownResult, error) {
	elements, err := PartitionHTML(htmlBytes)
	if err != nil {
		return nil, err
	}

	fullMarkdown, err := htmltomarkdown.ConvertString(string(htmlBytes))
	if err != nil {
		fullMarkdown = elementsToMarkdown(elements)
	}

	groups := groupBySection(elements)

	var headerLines []string
	if ticker != "" || accessionNumber != "" {
		headerLines = append(headerLines, fmt.Sprintf("<!-- DOCUMENT: %s 10-K -->", ticker))
	}
	if accessionNumber != "" {
		headerLines = append(headerLines, fmt.Sprintf("<!-- ACCESSION: %s -->", accessionNumber))
	}
	headerLines = append(headerLines, "")

	marked := embedSectionMarkers(fullMarkdown, groups)
	if len(headerLines) > 0 {
		marked = strings.Join(headerLines, "\n") + marked
	}

	var sections []model.Section
	var sectionsFound []string
	for sectionType, g := range groups {
		sectionsFound = append(sectionsFound, sectionType)
		sec, ok := buildSection(cfg, sectionType, g)
		if !ok {
			continue
		}
		sec.ContentMarkdown = elementsToMarkdown(g.Elements)
		sections = append(sections, sec)
	}
	sort.Strings(sectionsFound)

	priority := map[string]bool{"item_1": true, "item_1a": true, "item_7": true, "item_8": true, "item_9a": true}
	foundPriority := 0
	for _, s := range sectionsFound {
		if priority[s] {
			foundPriority++
		}
	}
	quality := 0.0
	if len(priority) > 0 {
		quality = float64(foundPriority) / float64(len(priority))
	}

	return &model.FullMarkdownResult{
		FullMarkdown:      marked,
		SectionsFound:     sectionsFound,
		WordCount:         len(strings.Fields(marked)),
		CharCount:         len(marked),
		ExtractionQuality: quality,
		Sections:          sections,
	}, nil
}
