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
	"testing"

	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/index"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results []index.Result
}

func (f *fakeSearcher) Search(_ context.Context, _ string, topK int, _ map[string]string) ([]index.Result, error) {
	if topK < len(f.results) {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func testHopCfg() config.HopRAGConfig {
	return config.HopRAGConfig{
		DefaultMaxHops:      2,
		InitialTopK:         10,
		NeighborsPerSeed:    15,
		MaxCandidatesPerHop: 30,
		KeepPerHop:          5,
		MinEdgeWeight:       0.4,
		HopDecay:            0.85,
	}
}

func TestRetrieve_SimpleFactUsesHybridSearchOnlyNoHops(t *testing.T) {
	vector := &fakeSearcher{results: []index.Result{
		{Content: "Revenue was $10B.", Score: 0.9, Metadata: model.RetrievedResultMeta{ChunkID: "c1", Ticker: "AAPL"}},
	}}
	keyword := &fakeSearcher{results: []index.Result{
		{Content: "Revenue was $10B.", Score: 0.5, Metadata: model.RetrievedResultMeta{ChunkID: "c1", Ticker: "AAPL"}},
	}}

	core := New(vector, keyword, nil, nil, nil, nil, testHopCfg(), []string{"AAPL"})
	results, traces, err := core.Retrieve(context.Background(), "What is the total revenue?", 5, nil)

	require.NoError(t, err)
	assert.Empty(t, traces)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Metadata.ChunkID)
	assert.InDelta(t, 0.9*vectorWeight+0.5*keywordWeight, results[0].Score, 1e-9)
	assert.ElementsMatch(t, []string{"vector", "keyword"}, results[0].Metadata.Sources)
}

func TestRetrieve_RespectsTopK(t *testing.T) {
	var vecResults []index.Result
	for i := 0; i < 5; i++ {
		vecResults = append(vecResults, index.Result{
			Content: "content", Score: float64(5 - i),
			Metadata: model.RetrievedResultMeta{ChunkID: string(rune('a' + i)), Ticker: "AAPL"},
		})
	}
	vector := &fakeSearcher{results: vecResults}

	core := New(vector, nil, nil, nil, nil, nil, testHopCfg(), nil)
	results, _, err := core.Retrieve(context.Background(), "What is revenue?", 2, nil)

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Metadata.ChunkID)
}
