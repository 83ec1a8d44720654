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
package graph

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// tokenSetRatio approximates fuzzywuzzy's token_set_ratio: split both
// strings into lowercase token sets, compare the sorted-and-joined forms
// with normalized Levenshtein similarity. Used to decide whether two
// Company/Person name mentions refer to the same entity when an exact
// case-insensitive match fails.
func tokenSetRatio(a, b string) float64 {
	aSorted := sortedTokens(a)
	bSorted := sortedTokens(b)
	if aSorted == bSorted {
		return 100
	}

	dist := levenshtein.ComputeDistance(aSorted, bSorted)
	maxLen := len(aSorted)
	if len(bSorted) > maxLen {
		maxLen = len(bSorted)
	}
	if maxLen == 0 {
		return 100
	}
	return (1 - float64(dist)/float64(maxLen)) * 100
}

func sortedTokens(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// isSameEntity reports whether two name mentions should be deduplicated:
// exact case-insensitive match, or fuzzy token-set similarity >= 90.
func isSameEntity(a, b string) bool {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return true
	}
	return tokenSetRatio(a, b) >= 90
}

// resolveEntity finds the best match for name among known, or returns
// name itself (as its own canonical form) if nothing matches closely
// enough. known is mutated to include every new canonical name seen.
func resolveEntity(known map[string]string, name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := known[key]; ok {
		return canonical
	}
	for existingKey, canonical := range known {
		if isSameEntity(existingKey, key) {
			known[key] = canonical
			return canonical
		}
	}
	known[key] = name
	return name
}
