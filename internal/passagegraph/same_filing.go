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
	sameFilingSequentialWeight   = 0.8
	sameFilingCrossSectionWeight = 0.5
)

// BuildSameFilingEdges connects chunks within the same filing: sequential
// edges between consecutive chunks of a section, and cross-section edges
// linking the first chunk of every section to the first chunk of every
// other section in the filing. Returns the number of edges added.
func (g *Graph) BuildSameFilingEdges() int {
	added := 0

	for _, chunkIDs := range g.chunksByAccession {
		bySection := make(map[string][]string)
		for _, id := range chunkIDs {
			n := g.nodes[id]
			bySection[n.SectionItem] = append(bySection[n.SectionItem], id)
		}
		for section, ids := range bySection {
			sort.Slice(ids, func(i, j int) bool {
				return g.nodes[ids[i]].ChunkIndex < g.nodes[ids[j]].ChunkIndex
			})
			bySection[section] = ids
		}

		for _, ids := range bySection {
			for i := 0; i+1 < len(ids); i++ {
				if g.addEdge(ids[i], ids[i+1], model.PassageGraphEdge{
					Type:    model.EdgeSameFiling,
					Weight:  sameFilingSequentialWeight,
					Subtype: "sequential",
				}) {
					added++
				}
			}
		}

		sections := make([]string, 0, len(bySection))
		for s := range bySection {
			sections = append(sections, s)
		}
		sort.Strings(sections)

		sectionHeads := make([]string, 0, len(sections))
		for _, s := range sections {
			if len(bySection[s]) > 0 {
				sectionHeads = append(sectionHeads, bySection[s][0])
			}
		}

		for i := 0; i < len(sectionHeads); i++ {
			for j := i + 1; j < len(sectionHeads); j++ {
				if g.addEdge(sectionHeads[i], sectionHeads[j], model.PassageGraphEdge{
					Type:    model.EdgeSameFiling,
					Weight:  sameFilingCrossSectionWeight,
					Subtype: "cross_section",
				}) {
					added++
				}
			}
		}
	}

	return added
}
