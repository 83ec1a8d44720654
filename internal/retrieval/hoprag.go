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
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/penny-vault/pvdata/internal/model"
)

// expandHops runs the HopRAG multi-hop loop for hop 1..maxHops, seeded
// from the hop-0 hybrid search results. It sets HopNumber to 0 on each
// seed in place; the seeds form the prefix of the returned result list.
func (c *Core) expandHops(ctx context.Context, query string, seeds []Result, maxHops int, decision RouteDecision) ([]Result, []HopTrace) {
	for i := range seeds {
		seeds[i].Metadata.HopNumber = 0
	}

	if c.passage == nil || maxHops <= 0 {
		return seeds, nil
	}

	results := append([]Result{}, seeds...)
	visited := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		visited[s.Metadata.ChunkID] = true
	}

	var traces []HopTrace

	for hop := 1; hop <= maxHops; hop++ {
		currentSeeds := resultsAtHop(results, hop-1)
		if len(currentSeeds) == 0 {
			break
		}

		candidates := c.collectCandidates(currentSeeds, visited, decision)
		for _, cand := range candidates {
			visited[cand.chunkID] = true
		}

		if len(candidates) == 0 {
			traces = append(traces, HopTrace{Hop: hop, CandidatesCount: 0, KeptCount: 0})
			break
		}

		kept := c.pruneCandidates(ctx, query, summarizeContext(results), candidates, c.hopCfg.KeepPerHop)
		traces = append(traces, HopTrace{Hop: hop, CandidatesCount: len(candidates), KeptCount: len(kept)})

		decay := math.Pow(c.hopCfg.HopDecay, float64(hop))
		for _, cand := range kept {
			results = append(results, Result{
				Content: cand.preview,
				Score:   cand.score * decay,
				Metadata: model.RetrievedResultMeta{
					ChunkID:   cand.chunkID,
					Ticker:    cand.ticker,
					HopNumber: hop,
					EdgeType:  cand.edge,
					Sources:   []string{fmt.Sprintf("hoprag_hop%d", hop)},
				},
			})
		}

		if len(kept) == 0 {
			break
		}
	}

	return results, traces
}

func resultsAtHop(results []Result, hop int) []Result {
	var out []Result
	for _, r := range results {
		if r.Metadata.HopNumber == hop {
			out = append(out, r)
		}
	}
	return out
}

// collectCandidates gathers, for every seed, its passage-graph neighbors
// respecting min_edge_weight and the already-visited set, capped at
// neighbors_per_seed (half reserved for a different ticker on
// CROSS_FILING queries), deduplicated across seeds by keeping the
// strongest incoming edge, and capped overall at max_candidates_per_hop.
func (c *Core) collectCandidates(seeds []Result, visited map[string]bool, decision RouteDecision) []candidate {
	best := make(map[string]candidate)

	for _, seed := range seeds {
		neighbors := c.passage.NeighborEdges(seed.Metadata.ChunkID)

		perSeedLimit := c.hopCfg.NeighborsPerSeed
		crossTickerBudget := 0
		if decision.Type == CrossFiling {
			crossTickerBudget = perSeedLimit / 2
		}

		taken := 0
		crossTickerTaken := 0
		for _, n := range neighbors {
			if taken >= perSeedLimit {
				break
			}
			if n.Edge.Weight < c.hopCfg.MinEdgeWeight {
				continue
			}
			if visited[n.ChunkID] {
				continue
			}

			node, ok := c.passage.Node(n.ChunkID)
			if !ok {
				continue
			}

			isDifferentTicker := node.Ticker != seed.Metadata.Ticker
			if crossTickerBudget > 0 {
				if isDifferentTicker {
					if crossTickerTaken >= crossTickerBudget {
						continue
					}
					crossTickerTaken++
				} else if taken-crossTickerTaken >= perSeedLimit-crossTickerBudget {
					continue
				}
			}

			score := seed.Score * n.Edge.Weight
			cand := candidate{
				chunkID: n.ChunkID,
				ticker:  node.Ticker,
				section: node.SectionItem,
				date:    node.FilingDate.Format("2006-01-02"),
				preview: node.TextPreview,
				score:   score,
				edge:    string(n.Edge.Type),
			}

			if existing, ok := best[n.ChunkID]; !ok || cand.score > existing.score {
				best[n.ChunkID] = cand
			}
			taken++
		}
	}

	out := make([]candidate, 0, len(best))
	for _, cand := range best {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })

	if len(out) > c.hopCfg.MaxCandidatesPerHop {
		out = out[:c.hopCfg.MaxCandidatesPerHop]
	}
	return out
}
