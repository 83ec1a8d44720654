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
package entities

import (
	"regexp"
	"sort"
	"strings"

	"github.com/penny-vault/pvdata/internal/model"
)

// phraseMatcher finds every non-overlapping occurrence of any phrase in a
// list within text, case-insensitively and on word boundaries, labeling
// each match with entityType.
type phraseMatcher struct {
	entityType string
	patterns   []*regexp.Regexp
}

func newPhraseMatcher(entityType string, phrases []string) phraseMatcher {
	sorted := append([]string(nil), phrases...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	patterns := make([]*regexp.Regexp, len(sorted))
	for i, p := range sorted {
		words := strings.Fields(p)
		escaped := make([]string, len(words))
		for j, w := range words {
			escaped[j] = regexp.QuoteMeta(w)
		}
		patterns[i] = regexp.MustCompile(`(?i)\b` + strings.Join(escaped, `\s+`) + `\b`)
	}
	return phraseMatcher{entityType: entityType, patterns: patterns}
}

func (m phraseMatcher) find(text string, taken []bool) []model.RawEntity {
	var out []model.RawEntity
	for _, re := range m.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if rangeTaken(taken, loc[0], loc[1]) {
				continue
			}
			markTaken(taken, loc[0], loc[1])
			out = append(out, model.RawEntity{Type: m.entityType, Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
		}
	}
	return out
}

func rangeTaken(taken []bool, start, end int) bool {
	for i := start; i < end && i < len(taken); i++ {
		if taken[i] {
			return true
		}
	}
	return false
}

func markTaken(taken []bool, start, end int) {
	for i := start; i < end && i < len(taken); i++ {
		taken[i] = true
	}
}

var orgPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z&,.]*(?:\s+[A-Z][a-zA-Z&,.]*)*\s+(?:` + orgSuffixAlternation() + `))`)

func orgSuffixAlternation() string {
	escaped := make([]string, len(orgSuffixes))
	for i, s := range orgSuffixes {
		escaped[i] = regexp.QuoteMeta(s)
	}
	return strings.Join(escaped, "|")
}

// Extractor runs the rule/pattern phase of entity extraction: financial
// METRIC/RISK phrases, a corporate-suffix ORG pattern, a small GPE
// gazetteer, and regex matches for
// MONEY, DATE, and CARDINAL, with noise filtering applied afterward.
type Extractor struct {
	metricMatcher phraseMatcher
	riskMatcher   phraseMatcher
	gpeMatcher    phraseMatcher
}

func New() *Extractor {
	return &Extractor{
		metricMatcher: newPhraseMatcher("METRIC", metricPatterns),
		riskMatcher:   newPhraseMatcher("RISK", riskPatterns),
		gpeMatcher:    newPhraseMatcher("GPE", gpeGazetteer),
	}
}

// ExtractEntities runs every matcher over text and returns the filtered,
// deduplicated raw entity list. Matchers run in a fixed order (RISK,
// METRIC, GPE, ORG, MONEY, DATE, CARDINAL) and share one record of
// matched character spans, so a span claimed by an earlier matcher is
// skipped by every later one.
func (x *Extractor) ExtractEntities(text string) []model.RawEntity {
	var raw []model.RawEntity

	taken := make([]bool, len(text))
	raw = append(raw, x.riskMatcher.find(text, taken)...)
	raw = append(raw, x.metricMatcher.find(text, taken)...)
	raw = append(raw, x.gpeMatcher.find(text, taken)...)

	for _, loc := range orgPattern.FindAllStringIndex(text, -1) {
		if rangeTaken(taken, loc[0], loc[1]) {
			continue
		}
		markTaken(taken, loc[0], loc[1])
		raw = append(raw, model.RawEntity{Type: "ORG", Text: strings.TrimSpace(text[loc[0]:loc[1]]), Start: loc[0], End: loc[1]})
	}
	for _, loc := range moneyPattern.FindAllStringIndex(text, -1) {
		if rangeTaken(taken, loc[0], loc[1]) {
			continue
		}
		markTaken(taken, loc[0], loc[1])
		raw = append(raw, model.RawEntity{Type: "MONEY", Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	for _, re := range []*regexp.Regexp{isoDatePattern, monthDayYearDate, quarterPattern, yearPattern} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if rangeTaken(taken, loc[0], loc[1]) {
				continue
			}
			markTaken(taken, loc[0], loc[1])
			raw = append(raw, model.RawEntity{Type: "DATE", Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
		}
	}
	for _, loc := range cardinalPattern.FindAllStringIndex(text, -1) {
		if rangeTaken(taken, loc[0], loc[1]) {
			continue
		}
		markTaken(taken, loc[0], loc[1])
		raw = append(raw, model.RawEntity{Type: "CARDINAL", Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].Start < raw[j].Start })
	return filterEntities(raw)
}

// ExtractFromSection runs the rule/pattern phase and groups the result by
// type, matching the original extractor's {section_type, total_entities,
// entities_by_type, raw_entities} shape.
func (x *Extractor) ExtractFromSection(sectionText, sectionType string) model.SectionEntities {
	raw := x.ExtractEntities(sectionText)

	grouped := make(map[string][]model.RawEntity)
	for _, e := range raw {
		grouped[e.Type] = append(grouped[e.Type], e)
	}

	return model.SectionEntities{
		SectionType:    sectionType,
		TotalEntities:  len(raw),
		EntitiesByType: grouped,
		RawEntities:    raw,
	}
}
