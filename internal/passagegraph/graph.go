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

// Package passagegraph holds the in-memory, undirected passage graph
// used for multi-hop reasoning over filing chunks. There is no Go graph
// library in the pack comparable to networkx, and the graph here is a
// handful of adjacency maps rather than a general-purpose structure, so
// it's hand-rolled rather than grounded on a third-party dependency
// (justified stdlib-only use, DESIGN.md entry).
package passagegraph

import (
	"sort"

	"github.com/penny-vault/pvdata/internal/model"
)

type edgeKey struct{ A, B string }

func newEdgeKey(a, b string) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Graph is an undirected simple graph of chunk nodes.
type Graph struct {
	nodes map[string]model.PassageGraphNode
	edges map[edgeKey]model.PassageGraphEdge
	adj   map[string]map[string]bool

	chunksByAccession         map[string][]string
	chunksByTickerSectionYear map[tickerSectionYear][]string
	chunkText                 map[string]string
}

type tickerSectionYear struct {
	Ticker  string
	Section string
	Year    int
}

func New() *Graph {
	return &Graph{
		nodes:                     make(map[string]model.PassageGraphNode),
		edges:                     make(map[edgeKey]model.PassageGraphEdge),
		adj:                       make(map[string]map[string]bool),
		chunksByAccession:         make(map[string][]string),
		chunksByTickerSectionYear: make(map[tickerSectionYear][]string),
		chunkText:                 make(map[string]string),
	}
}

// AddChunk registers one chunk as a graph node, indexing it for the edge
// builders that run afterward.
func (g *Graph) AddChunk(c model.Chunk) {
	node := model.PassageGraphNode{
		ChunkID:         c.ChunkID,
		Ticker:          c.Ticker,
		CompanyName:     c.CompanyName,
		FilingDate:      c.FilingDate,
		FiscalYear:      c.FilingDate.Year(),
		AccessionNumber: c.AccessionNumber,
		SectionItem:     c.SectionItem,
		SectionTitle:    c.SectionTitle,
		ChunkIndex:      c.ChunkIndex,
		TextPreview:     c.Preview(200),
	}
	g.nodes[c.ChunkID] = node
	g.chunkText[c.ChunkID] = c.Text
	g.chunksByAccession[c.AccessionNumber] = append(g.chunksByAccession[c.AccessionNumber], c.ChunkID)

	key := tickerSectionYear{Ticker: c.Ticker, Section: c.SectionItem, Year: node.FiscalYear}
	g.chunksByTickerSectionYear[key] = append(g.chunksByTickerSectionYear[key], c.ChunkID)
}

// addEdge adds an edge unless one already exists between a and b.
func (g *Graph) addEdge(a, b string, edge model.PassageGraphEdge) bool {
	if a == b {
		return false
	}
	key := newEdgeKey(a, b)
	if _, exists := g.edges[key]; exists {
		return false
	}
	edge.A, edge.B = a, b
	g.edges[key] = edge

	if g.adj[a] == nil {
		g.adj[a] = make(map[string]bool)
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[string]bool)
	}
	g.adj[a][b] = true
	g.adj[b][a] = true
	return true
}

// HasEdge reports whether an edge exists between a and b.
func (g *Graph) HasEdge(a, b string) bool {
	_, ok := g.edges[newEdgeKey(a, b)]
	return ok
}

// Node returns a chunk node by ID.
func (g *Graph) Node(chunkID string) (model.PassageGraphNode, bool) {
	n, ok := g.nodes[chunkID]
	return n, ok
}

// Neighbors returns the chunk IDs directly connected to chunkID.
func (g *Graph) Neighbors(chunkID string) []string {
	neighbors := make([]string, 0, len(g.adj[chunkID]))
	for n := range g.adj[chunkID] {
		neighbors = append(neighbors, n)
	}
	sort.Strings(neighbors)
	return neighbors
}

// Edge returns the edge between a and b, if any.
func (g *Graph) Edge(a, b string) (model.PassageGraphEdge, bool) {
	e, ok := g.edges[newEdgeKey(a, b)]
	return e, ok
}

// NeighborEdge pairs a neighboring chunk ID with the edge connecting it
// to the chunk NeighborEdges was called with.
type NeighborEdge struct {
	ChunkID string
	Edge    model.PassageGraphEdge
}

// NeighborEdges returns chunkID's incident edges sorted by weight
// descending, each annotated with the neighbor at its other endpoint.
func (g *Graph) NeighborEdges(chunkID string) []NeighborEdge {
	out := make([]NeighborEdge, 0, len(g.adj[chunkID]))
	for neighbor := range g.adj[chunkID] {
		e, ok := g.Edge(chunkID, neighbor)
		if !ok {
			continue
		}
		out = append(out, NeighborEdge{ChunkID: neighbor, Edge: e})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Edge.Weight != out[j].Edge.Weight {
			return out[i].Edge.Weight > out[j].Edge.Weight
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

// NodeCount and EdgeCount report the graph's current size.
func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AllEdges returns every edge currently in the graph.
func (g *Graph) AllEdges() []model.PassageGraphEdge {
	out := make([]model.PassageGraphEdge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	return out
}
