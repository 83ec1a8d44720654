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

const pseudoQueryWeightScale = 0.9

// AddPseudoQueryEdges links chunkID to each of targetChunkIDs whose
// vector-search score meets minScore, after an LLM has generated
// follow-up questions for chunkID and each was searched independently.
// Edge weight is 0.9 * score. Returns the number of edges added.
func (g *Graph) AddPseudoQueryEdges(chunkID string, targetChunkIDs []string, scores map[string]float64, minScore float64) int {
	added := 0
	for _, target := range targetChunkIDs {
		if target == chunkID {
			continue
		}
		score, ok := scores[target]
		if !ok || score < minScore {
			continue
		}
		if _, ok := g.nodes[target]; !ok {
			continue
		}
		if g.HasEdge(chunkID, target) {
			continue
		}
		if g.addEdge(chunkID, target, model.PassageGraphEdge{
			Type:   model.EdgePseudoQuery,
			Weight: pseudoQueryWeightScale * score,
		}) {
			added++
		}
	}
	return added
}

type candidateEdge struct {
	From, To string
	Weight   float64
}

// PrunePseudoQueryEdges keeps, for every node, only its top maxPerNode
// pseudo_query edges by weight — an edge survives only if BOTH endpoints
// rank it among their own top maxPerNode, so no node is left with more
// than maxPerNode. Returns the number removed.
func (g *Graph) PrunePseudoQueryEdges(maxPerNode int) int {
	nodeEdges := make(map[string][]candidateEdge)
	var pseudoKeys []edgeKey

	for key, e := range g.edges {
		if e.Type != model.EdgePseudoQuery {
			continue
		}
		pseudoKeys = append(pseudoKeys, key)
		nodeEdges[e.A] = append(nodeEdges[e.A], candidateEdge{From: e.A, To: e.B, Weight: e.Weight})
		nodeEdges[e.B] = append(nodeEdges[e.B], candidateEdge{From: e.A, To: e.B, Weight: e.Weight})
	}

	votes := make(map[edgeKey]int)
	for _, edges := range nodeEdges {
		sort.Slice(edges, func(i, j int) bool { return edges[i].Weight > edges[j].Weight })
		limit := maxPerNode
		if len(edges) < limit {
			limit = len(edges)
		}
		for _, e := range edges[:limit] {
			votes[newEdgeKey(e.From, e.To)]++
		}
	}

	removed := 0
	for _, key := range pseudoKeys {
		if votes[key] < 2 {
			e := g.edges[key]
			delete(g.edges, key)
			delete(g.adj[e.A], e.B)
			delete(g.adj[e.B], e.A)
			removed++
		}
	}
	return removed
}
