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

// Package section extracts the Item 1 through Item 16 sections of a
// 10-K filing's primary HTML document, renders them to markdown, and
// scores the extraction's confidence and quality.
package section

// Definition describes one of the 10-K's fixed Item sections.
type Definition struct {
	Number string
	Title  string
	Part   string
}

// Definitions maps section_type ("item_1a") to its fixed number, title,
// and enclosing Part, covering the full Item 1 through Item 16 set.
var Definitions = map[string]Definition{
	"item_1":  {Number: "1", Title: "Business", Part: "Part I"},
	"item_1a": {Number: "1A", Title: "Risk Factors", Part: "Part I"},
	"item_1b": {Number: "1B", Title: "Unresolved Staff Comments", Part: "Part I"},
	"item_1c": {Number: "1C", Title: "Cybersecurity", Part: "Part I"},
	"item_2":  {Number: "2", Title: "Properties", Part: "Part I"},
	"item_3":  {Number: "3", Title: "Legal Proceedings", Part: "Part I"},
	"item_4":  {Number: "4", Title: "Mine Safety Disclosures", Part: "Part I"},
	"item_5":  {Number: "5", Title: "Market for Registrant's Common Equity", Part: "Part II"},
	"item_6":  {Number: "6", Title: "Reserved/Selected Financial Data", Part: "Part II"},
	"item_7":  {Number: "7", Title: "Management's Discussion and Analysis", Part: "Part II"},
	"item_7a": {Number: "7A", Title: "Quantitative and Qualitative Disclosures About Market Risk", Part: "Part II"},
	"item_8":  {Number: "8", Title: "Financial Statements and Supplementary Data", Part: "Part II"},
	"item_9":  {Number: "9", Title: "Changes in and Disagreements with Accountants", Part: "Part II"},
	"item_9a": {Number: "9A", Title: "Controls and Procedures", Part: "Part II"},
	"item_9b": {Number: "9B", Title: "Other Information", Part: "Part II"},
	"item_9c": {Number: "9C", Title: "Disclosure Regarding Foreign Jurisdictions", Part: "Part II"},
	"item_10": {Number: "10", Title: "Directors, Executive Officers and Corporate Governance", Part: "Part III"},
	"item_11": {Number: "11", Title: "Executive Compensation", Part: "Part III"},
	"item_12": {Number: "12", Title: "Security Ownership of Certain Beneficial Owners and Management", Part: "Part III"},
	"item_13": {Number: "13", Title: "Certain Relationships and Related Transactions", Part: "Part III"},
	"item_14": {Number: "14", Title: "Principal Accountant Fees and Services", Part: "Part III"},
	"item_15": {Number: "15", Title: "Exhibits and Financial Statement Schedules", Part: "Part IV"},
	"item_16": {Number: "16", Title: "Form 10-K Summary", Part: "Part IV"},
}

// PrioritySections are the five sections routine analysis relies on most.
// Extraction does not filter on them: ExtractSections and
// ExtractFullMarkdown return every Item section that clears the
// candidacy threshold.
var PrioritySections = []string{"item_1", "item_1a", "item_7", "item_8", "item_9a"}

// defaultMinWords is used when a section_type has no entry in the
// configured min_words_by_type map.
const defaultMinWords = 100

func expectedMinWords(minWordsByType map[string]int, sectionType string) int {
	if w, ok := minWordsByType[sectionType]; ok {
		return w
	}
	return defaultMinWords
}
