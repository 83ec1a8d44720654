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
	"fmt"
	"regexp"
	"sort"

	"github.com/penny-vault/pvdata/internal/model"
)

const entityCooccurrenceWeight = 0.6

// companyEntities maps each covered ticker to its name variants, used to
// detect cross-company mentions inside a chunk's text for the
// entity-cooccurrence edge builder.
var companyEntities = map[string][]string{
	"AMD":  {"AMD", "Advanced Micro Devices"},
	"AAPL": {"Apple"},
	"AMZN": {"Amazon"},
	"BAC":  {"Bank of America"},
	"CSCO": {"Cisco"},
	"DIS":  {"Disney", "Walt Disney"},
	"GOOG": {"Google", "Alphabet"},
	"GS":   {"Goldman Sachs"},
	"HD":   {"Home Depot"},
	"IBM":  {"IBM"},
	"INTC": {"Intel"},
	"JPM":  {"JPMorgan", "JP Morgan"},
	"META": {"Meta", "Facebook"},
	"MSFT": {"Microsoft"},
	"NVDA": {"NVIDIA"},
	"ORCL": {"Oracle"},
	"TSLA": {"Tesla"},
	"WFC":  {"Wells Fargo"},
	"WMT":  {"Walmart"},
	"BRKA": {"Berkshire Hathaway", "Berkshire"},
}

type entityPattern struct {
	ticker  string
	pattern *regexp.Regexp
}

func buildEntityPatterns() []entityPattern {
	patterns := make([]entityPattern, 0, len(companyEntities))
	for ticker, variants := range companyEntities {
		alternatives := append([]string{}, variants...)
		alternatives = append(alternatives, ticker)

		parts := make([]string, len(alternatives))
		for i, v := range alternatives {
			parts[i] = regexp.QuoteMeta(v)
		}
		expr := fmt.Sprintf(`(?i)\b(%s)\b`, joinAlternatives(parts))
		patterns = append(patterns, entityPattern{ticker: ticker, pattern: regexp.MustCompile(expr)})
	}

	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ticker < patterns[j].ticker })
	return patterns
}

func joinAlternatives(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "|" + p
	}
	return out
}

func extractEntities(text string, patterns []entityPattern) map[string]bool {
	found := make(map[string]bool)
	for _, p := range patterns {
		if p.pattern.MatchString(text) {
			found[p.ticker] = true
		}
	}
	return found
}

// BuildEntityCooccurrenceEdges links chunks across different filings that
// both mention the same company ticker, excluding a chunk's own company.
// Each entity contributes edges only between its first maxPerEntity
// matching chunks per accession, and every chunk is capped at
// maxPerEntity*5 total entity-cooccurrence edges to keep hub chunks from
// dominating the graph.
func (g *Graph) BuildEntityCooccurrenceEdges(maxPerEntity int) int {
	if maxPerEntity <= 0 {
		maxPerEntity = 5
	}
	patterns := buildEntityPatterns()
	maxEdgesPerChunk := maxPerEntity * 5

	entityChunks := make(map[string][]string)
	chunkIDs := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		chunkIDs = append(chunkIDs, id)
	}
	sort.Strings(chunkIDs)

	for _, id := range chunkIDs {
		node := g.nodes[id]
		text := g.chunkText[id]
		mentioned := extractEntities(text, patterns)
		delete(mentioned, node.Ticker)

		tickers := make([]string, 0, len(mentioned))
		for t := range mentioned {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)
		for _, t := range tickers {
			entityChunks[t] = append(entityChunks[t], id)
		}
	}

	entities := make([]string, 0, len(entityChunks))
	for e := range entityChunks {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	chunkEdgeCount := make(map[string]int)
	added := 0

	for _, entity := range entities {
		ids := entityChunks[entity]
		if len(ids) < 2 {
			continue
		}

		byAccession := make(map[string][]string)
		for _, id := range ids {
			acc := g.nodes[id].AccessionNumber
			byAccession[acc] = append(byAccession[acc], id)
		}
		if len(byAccession) < 2 {
			continue
		}

		accessions := make([]string, 0, len(byAccession))
		for a := range byAccession {
			accessions = append(accessions, a)
		}
		sort.Strings(accessions)

		for i := 0; i < len(accessions); i++ {
			groupA := truncate(byAccession[accessions[i]], maxPerEntity)
			for j := i + 1; j < len(accessions); j++ {
				groupB := truncate(byAccession[accessions[j]], maxPerEntity)

				for _, a := range groupA {
					if chunkEdgeCount[a] >= maxEdgesPerChunk {
						continue
					}
					for _, b := range groupB {
						if chunkEdgeCount[b] >= maxEdgesPerChunk || chunkEdgeCount[a] >= maxEdgesPerChunk {
							continue
						}
						if g.HasEdge(a, b) {
							continue
						}
						if g.addEdge(a, b, model.PassageGraphEdge{
							Type:         model.EdgeEntityCooccurrence,
							Weight:       entityCooccurrenceWeight,
							EntityTicker: entity,
						}) {
							chunkEdgeCount[a]++
							chunkEdgeCount[b]++
							added++
						}
					}
				}
			}
		}
	}

	return added
}

func truncate(ids []string, n int) []string {
	if len(ids) <= n {
		return ids
	}
	return ids[:n]
}
