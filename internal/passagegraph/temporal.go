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
package passagegraph

import (
	"sort"

	"github.com/penny-vault/pvdata/internal/model"
)

const (
	temporalWeight = 0.7
	maxTemporalGap = 2
)

// BuildTemporalEdges links, for every (ticker, section) pair, chunks in
// consecutive fiscal years that are no more than maxTemporalGap years
// apart, connecting same-rank chunks (by chunk_index order) across the
// two years positionally.
func (g *Graph) BuildTemporalEdges() int {
	keys := make([]tickerSectionYear, 0, len(g.chunksByTickerSectionYear))
	for k := range g.chunksByTickerSectionYear {
		keys = append(keys, k)
	}

	grouped := make(map[string][]int)
	for _, k := range keys {
		gk := k.Ticker + "|" + k.Section
		grouped[gk] = append(grouped[gk], k.Year)
	}

	groupKeys := make([]string, 0, len(grouped))
	for gk := range grouped {
		groupKeys = append(groupKeys, gk)
	}
	sort.Strings(groupKeys)

	added := 0
	for _, gk := range groupKeys {
		years := uniqueSortedInts(grouped[gk])
		ticker, section := splitTickerSection(gk)

		for i := 0; i+1 < len(years); i++ {
			yearA, yearB := years[i], years[i+1]
			if yearB-yearA > maxTemporalGap {
				continue
			}

			idsA := sortedByChunkIndex(g, g.chunksByTickerSectionYear[tickerSectionYear{Ticker: ticker, Section: section, Year: yearA}])
			idsB := sortedByChunkIndex(g, g.chunksByTickerSectionYear[tickerSectionYear{Ticker: ticker, Section: section, Year: yearB}])

			n := len(idsA)
			if len(idsB) < n {
				n = len(idsB)
			}
			for k := 0; k < n; k++ {
				if g.addEdge(idsA[k], idsB[k], model.PassageGraphEdge{
					Type:     model.EdgeTemporal,
					Weight:   temporalWeight,
					YearFrom: yearA,
					YearTo:   yearB,
				}) {
					added++
				}
			}
		}
	}
	return added
}

func uniqueSortedInts(vals []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func splitTickerSection(gk string) (string, string) {
	for i := 0; i < len(gk); i++ {
		if gk[i] == '|' {
			return gk[:i], gk[i+1:]
		}
	}
	return gk, ""
}

func sortedByChunkIndex(g *Graph, ids []string) []string {
	out := append([]string{}, ids...)
	sort.Slice(out, func(i, j int) bool {
		return g.nodes[out[i]].ChunkIndex < g.nodes[out[j]].ChunkIndex
	})
	return out
}
