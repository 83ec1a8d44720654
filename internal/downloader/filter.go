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
package downloader

import (
	"regexp"
	"strings"

	"github.com/penny-vault/pvdata/internal/archive"
)

// xbrlLinkbaseSuffixes are downloaded alongside the primary document.
// The exclusion rules below are checked first, so a linkbase whose name
// matches one of them is still dropped.
var xbrlLinkbaseSuffixes = []string{"_cal.xml", "_def.xml", "_lab.xml", "_pre.xml"}

// excludedSubstrings mark known junk files: index/summary artifacts that
// duplicate the XBRL instance.
var excludedSubstrings = []string{"filingsummary", "financial_report", "defref"}

var reportViewPattern = regexp.MustCompile(`^r\d+\.htm$`)

// filterDocuments keeps the primary document, XBRL linkbases, schema
// files, and the XBRL instance document; it drops per-report HTML views,
// exhibits, index/summary files, graphics, and spreadsheets.
func filterDocuments(documents []archive.Document, primaryDocument string) []archive.Document {
	primaryLower := strings.ToLower(primaryDocument)

	var kept []archive.Document
	for _, doc := range documents {
		nameLower := strings.ToLower(doc.Name)

		if nameLower == primaryLower {
			kept = append(kept, doc)
			continue
		}

		if isExcludedFile(nameLower) {
			continue
		}

		if hasAnySuffix(nameLower, xbrlLinkbaseSuffixes) {
			kept = append(kept, doc)
			continue
		}

		if strings.HasSuffix(nameLower, ".xsd") {
			kept = append(kept, doc)
			continue
		}

		if strings.HasSuffix(nameLower, ".xml") && isXBRLInstance(nameLower) {
			kept = append(kept, doc)
			continue
		}
	}

	return kept
}

func isExcludedFile(nameLower string) bool {
	if reportViewPattern.MatchString(nameLower) {
		return true
	}
	if strings.HasPrefix(nameLower, "ex") || strings.HasPrefix(nameLower, "exhibit") {
		return true
	}
	for _, p := range excludedSubstrings {
		if strings.Contains(nameLower, p) {
			return true
		}
	}
	if hasAnySuffix(nameLower, []string{".jpg", ".jpeg", ".gif", ".png", ".ico"}) {
		return true
	}
	if hasAnySuffix(nameLower, []string{".xlsx", ".xls"}) {
		return true
	}
	return false
}

// isXBRLInstance assumes the caller already confirmed the name ends in
// .xml; it is an instance document iff it is neither a linkbase, an
// excluded file, nor a schema.
func isXBRLInstance(nameLower string) bool {
	if hasAnySuffix(nameLower, xbrlLinkbaseSuffixes) {
		return false
	}
	for _, p := range excludedSubstrings {
		if strings.Contains(nameLower, p) {
			return false
		}
	}
	if strings.HasSuffix(nameLower, ".xsd") {
		return false
	}
	return true
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
