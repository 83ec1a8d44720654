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
	"strconv"
	"strings"

	"github.com/penny-vault/pvdata/internal/model"
)

var (
	phoneParens = regexp.MustCompile(`^\(\d{3}\)\s*\d{3}-\d{4}`)
	phoneDashes = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}`)
	zipCode     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	smallInt    = regexp.MustCompile(`^\d{1,3}$`)
)

var romanNumerals = map[string]bool{
	"I": true, "II": true, "III": true, "IV": true, "V": true,
	"VI": true, "VII": true, "VIII": true, "IX": true, "X": true,
}

var frequencyWords = map[string]bool{
	"quarterly": true, "annual": true, "monthly": true, "weekly": true, "daily": true,
	"first": true, "second": true, "third": true, "fourth": true, "fifth": true,
	"prior": true, "current": true, "subsequent": true, "future": true,
	"initial": true, "final": true, "interim": true,
}

// isValidCardinal rejects phone numbers, ZIP codes, bare Roman numerals
// (usually part of a person's name, "John Doe III"), and small
// page-number-looking integers under 500.
func isValidCardinal(text string) bool {
	if phoneParens.MatchString(text) || phoneDashes.MatchString(text) {
		return false
	}
	if zipCode.MatchString(text) {
		return false
	}
	if romanNumerals[strings.TrimSpace(text)] {
		return false
	}
	if smallInt.MatchString(text) {
		if n, err := strconv.Atoi(text); err == nil && n < 500 {
			return false
		}
	}
	return true
}

// isValidDate rejects frequency words misidentified as dates and accepts
// years, quarters, month-day-year, and ISO dates.
func isValidDate(text string) bool {
	if frequencyWords[strings.ToLower(text)] {
		return false
	}
	if yearPattern.MatchString(text) && len(strings.TrimSpace(text)) == 4 {
		n, err := strconv.Atoi(strings.TrimSpace(text))
		return err == nil && n >= 1900 && n <= 2100
	}
	if quarterPattern.MatchString(text) {
		return true
	}
	if monthDayYearDate.MatchString(text) {
		return true
	}
	if isoDatePattern.MatchString(text) {
		return true
	}
	return false
}

// filterEntities drops noisy CARDINAL and DATE matches in place.
func filterEntities(raw []model.RawEntity) []model.RawEntity {
	filtered := make([]model.RawEntity, 0, len(raw))
	for _, e := range raw {
		switch e.Type {
		case "CARDINAL":
			if !isValidCardinal(e.Text) {
				continue
			}
		case "DATE":
			if !isValidDate(e.Text) {
				continue
			}
		}
		filtered = append(filtered, e)
	}
	return filtered
}
