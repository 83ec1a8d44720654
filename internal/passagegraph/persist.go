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
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/penny-vault/pvdata/internal/model"
)

// snapshot is the gob-serializable form of a Graph: the node set, the
// edge set, and the chunk text needed to rebuild entity-cooccurrence
// indexing without a full re-scan of source filings.
type snapshot struct {
	Nodes     map[string]model.PassageGraphNode
	Edges     []model.PassageGraphEdge
	ChunkText map[string]string
}

// Save serializes the graph to path via encoding/gob.
func (g *Graph) Save(path string) error {
	snap := snapshot{
		Nodes:     g.nodes,
		Edges:     g.AllEdges(),
		ChunkText: g.chunkText,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encode passage graph: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write passage graph: %w", err)
	}
	return nil
}

// Load reconstructs a Graph previously written by Save.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read passage graph: %w", err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode passage graph: %w", err)
	}

	g := New()
	g.nodes = snap.Nodes
	g.chunkText = snap.ChunkText

	for id, n := range snap.Nodes {
		g.chunksByAccession[n.AccessionNumber] = append(g.chunksByAccession[n.AccessionNumber], id)
		key := tickerSectionYear{Ticker: n.Ticker, Section: n.SectionItem, Year: n.FiscalYear}
		g.chunksByTickerSectionYear[key] = append(g.chunksByTickerSectionYear[key], id)
	}

	for _, e := range snap.Edges {
		g.addEdge(e.A, e.B, e)
	}

	return g, nil
}
