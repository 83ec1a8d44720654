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
	"path/filepath"
	"testing"
	"time"

	"github.com/penny-vault/pvdata/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChunk(accession, ticker, section string, index int, year int, text string) model.Chunk {
	return model.Chunk{
		ChunkID:         accession + "-" + section + "-" + itoa(index),
		AccessionNumber: accession,
		Ticker:          ticker,
		CompanyName:     ticker + " Inc.",
		FormType:        "10-K",
		FilingDate:      time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC),
		SectionItem:     section,
		SectionTitle:    section,
		ChunkIndex:      index,
		Text:            text,
	}
}

func itoa(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{digits[i%10]}, b...)
		i /= 10
	}
	return string(b)
}

func TestBuildSameFilingEdges_SequentialAndCrossSection(t *testing.T) {
	g := New()
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1", 0, 2023, "business overview"))
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1", 1, 2023, "more business"))
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1a", 0, 2023, "risk factors"))

	added := g.BuildSameFilingEdges()
	assert.Equal(t, 2, added)

	e, ok := g.Edge("ACC1-item_1-0", "ACC1-item_1-1")
	require.True(t, ok)
	assert.Equal(t, model.EdgeSameFiling, e.Type)
	assert.Equal(t, "sequential", e.Subtype)

	e2, ok := g.Edge("ACC1-item_1-0", "ACC1-item_1a-0")
	require.True(t, ok)
	assert.Equal(t, "cross_section", e2.Subtype)
}

func TestBuildEntityCooccurrenceEdges_LinksAcrossFilingsNotSameCompany(t *testing.T) {
	g := New()
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1", 0, 2023, "Apple competes with Microsoft and Google in cloud services."))
	g.AddChunk(makeChunk("ACC2", "MSFT", "item_1", 0, 2023, "Microsoft faces competition from Apple and Google."))

	added := g.BuildEntityCooccurrenceEdges(5)
	assert.Equal(t, 1, added)

	_, ok := g.Edge("ACC1-item_1-0", "ACC2-item_1-0")
	assert.True(t, ok)
}

func TestBuildEntityCooccurrenceEdges_SkipsSameAccession(t *testing.T) {
	g := New()
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1", 0, 2023, "Apple mentions Microsoft here."))
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1a", 1, 2023, "Microsoft mentioned again."))

	added := g.BuildEntityCooccurrenceEdges(5)
	assert.Equal(t, 0, added)
}

func TestBuildTemporalEdges_ConnectsConsecutiveYearsWithinGap(t *testing.T) {
	g := New()
	g.AddChunk(makeChunk("ACC2022", "AAPL", "item_1", 0, 2022, "year 2022 text"))
	g.AddChunk(makeChunk("ACC2023", "AAPL", "item_1", 0, 2023, "year 2023 text"))
	g.AddChunk(makeChunk("ACC2026", "AAPL", "item_1", 0, 2026, "year 2026 text, too far"))

	added := g.BuildTemporalEdges()
	assert.Equal(t, 1, added)

	_, ok := g.Edge("ACC2022-item_1-0", "ACC2023-item_1-0")
	assert.True(t, ok)
	_, ok = g.Edge("ACC2023-item_1-0", "ACC2026-item_1-0")
	assert.False(t, ok)
}

func TestAddAndPrunePseudoQueryEdges(t *testing.T) {
	g := New()
	for i := 0; i < 3; i++ {
		g.AddChunk(makeChunk("ACC1", "AAPL", "item_1", i, 2023, "text"))
	}
	g.AddChunk(makeChunk("ACC2", "AAPL", "item_1", 0, 2023, "other text"))

	scores := map[string]float64{
		"ACC1-item_1-1": 0.95,
		"ACC1-item_1-2": 0.50,
		"ACC2-item_1-0": 0.70,
	}
	added := g.AddPseudoQueryEdges("ACC1-item_1-0", []string{"ACC1-item_1-1", "ACC1-item_1-2", "ACC2-item_1-0"}, scores, 0.60)
	assert.Equal(t, 2, added)

	removed := g.PrunePseudoQueryEdges(1)
	assert.Equal(t, 1, removed)

	_, ok := g.Edge("ACC1-item_1-0", "ACC1-item_1-1")
	assert.True(t, ok, "higher-scored edge should survive pruning")
}

func TestStats_ReportsDegreeAndComponents(t *testing.T) {
	g := New()
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1", 0, 2023, "a"))
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1", 1, 2023, "b"))
	g.AddChunk(makeChunk("ACC2", "MSFT", "item_1", 0, 2023, "isolated chunk"))

	g.BuildSameFilingEdges()
	stats := g.Stats()

	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
	assert.Equal(t, 1, stats.IsolatedNodes)
	assert.Equal(t, 2, stats.ConnectedComponents)
}

func TestSaveAndLoad_RoundTrips(t *testing.T) {
	g := New()
	g.AddChunk(makeChunk("ACC1", "AAPL", "item_1", 0, 2023, "Apple mentions Google."))
	g.AddChunk(makeChunk("ACC2", "MSFT", "item_1", 0, 2023, "Microsoft mentions Google."))
	g.BuildEntityCooccurrenceEdges(5)

	path := filepath.Join(t.TempDir(), "graph.gob")
	require.NoError(t, g.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, g.NodeCount(), loaded.NodeCount())
	assert.Equal(t, g.EdgeCount(), loaded.EdgeCount())
	_, ok := loaded.Edge("ACC1-item_1-0", "ACC2-item_1-0")
	assert.True(t, ok)
}
