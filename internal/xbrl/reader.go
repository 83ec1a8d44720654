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
package xbrl

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penny-vault/pvdata/internal/model"
)

var linkbaseSuffixes = []string{"_cal.xml", "_def.xml", "_lab.xml", "_pre.xml"}

var instanceIndicators = []string{
	"xmlns:xbrli",
	"<xbrli:",
	`xmlns="http://www.xbrl.org/2003/instance"`,
	"<xbrl",
	"<context",
	"ix:header",
	"ix:resources",
	"xmlns:ix",
}

// FindInstanceDocument locates the main XBRL instance document in a
// filing directory: the first .xml file, other than a taxonomy linkbase
// or schema, whose head contains an XBRL-instance indicator.
func FindInstanceDocument(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		name := e.Name()
		nameLower := strings.ToLower(name)
		if !strings.HasSuffix(nameLower, ".xml") {
			continue
		}
		if hasAnyLinkbaseSuffix(nameLower) {
			continue
		}

		path := filepath.Join(dir, name)
		if looksLikeInstance(path) {
			return path, nil
		}
	}

	return "", errNoInstanceFound
}

func hasAnyLinkbaseSuffix(nameLower string) bool {
	for _, suf := range linkbaseSuffixes {
		if strings.HasSuffix(nameLower, suf) {
			return true
		}
	}
	return false
}

func looksLikeInstance(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, _ := f.Read(buf)
	head := string(buf[:n])

	for _, indicator := range instanceIndicators {
		if strings.Contains(head, indicator) {
			return true
		}
	}
	return false
}

// FindLinkbaseFiles returns the first presentation (_pre.xml) and label
// (_lab.xml) linkbase paths found in the filing directory, if any.
func FindLinkbaseFiles(dir string) (preFile, labFile string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}

	for _, e := range entries {
		nameLower := strings.ToLower(e.Name())
		if preFile == "" && strings.HasSuffix(nameLower, "_pre.xml") {
			preFile = filepath.Join(dir, e.Name())
		}
		if labFile == "" && strings.HasSuffix(nameLower, "_lab.xml") {
			labFile = filepath.Join(dir, e.Name())
		}
	}
	return preFile, labFile
}

// ParseFiling parses the XBRL document set in a filing directory. When
// extractAllFacts is true, facts are additionally enriched with section,
// parent concept, depth, and label from the presentation and label
// linkbases, falling back to a camelCase-derived label when no linkbase
// entry exists.
func ParseFiling(dir, accessionNumber string, extractAllFacts bool) *ParseResult {
	start := time.Now()

	instancePath, err := FindInstanceDocument(dir)
	if err != nil {
		return &ParseResult{
			Success:         false,
			AccessionNumber: accessionNumber,
			ErrorMessage:    "no XBRL instance document found",
			ParseTimeMS:     float64(time.Since(start).Milliseconds()),
		}
	}

	data, err := os.ReadFile(instancePath)
	if err != nil {
		return &ParseResult{
			Success:         false,
			AccessionNumber: accessionNumber,
			ErrorMessage:    err.Error(),
			ParseTimeMS:     float64(time.Since(start).Milliseconds()),
		}
	}

	result, err := ParseInstance(data, accessionNumber)
	if err != nil || len(result.Facts) == 0 {
		if fb, fbErr := ParseInstanceFallback(data, accessionNumber); fbErr == nil && len(fb.Facts) > 0 {
			result = fb
		}
	}
	if result == nil {
		result = &ParseResult{Success: false, AccessionNumber: accessionNumber, ErrorMessage: "failed to parse XBRL instance"}
	}

	if extractAllFacts && result.Success {
		preFile, labFile := FindLinkbaseFiles(dir)

		var hierarchy map[string]ConceptHierarchy
		if preFile != "" {
			if raw, err := os.ReadFile(preFile); err == nil {
				hierarchy = ParsePresentationLinkbase(raw)
			}
		}

		var labels map[string]string
		if labFile != "" {
			if raw, err := os.ReadFile(labFile); err == nil {
				labels = ParseLabelLinkbase(raw)
			}
		}

		for i := range result.Facts {
			enrichFact(&result.Facts[i], hierarchy, labels)
		}
		for i := range result.CoreFacts {
			enrichFact(&result.CoreFacts[i], hierarchy, labels)
		}
	}

	result.ParseTimeMS = float64(time.Since(start).Milliseconds())
	return result
}

func enrichFact(f *model.Fact, hierarchy map[string]ConceptHierarchy, labels map[string]string) {
	if hier, ok := hierarchy[f.ConceptName]; ok {
		f.Section = hier.Section
		f.ParentConcept = hier.ParentConcept
		f.Depth = hier.Depth
	}

	if label, ok := labels[f.ConceptName]; ok {
		f.Label = label
	} else {
		f.Label = generateLabel(f.LocalName)
	}
}
