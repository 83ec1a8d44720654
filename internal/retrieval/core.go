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

	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/index"
	"github.com/penny-vault/pvdata/internal/llm"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/penny-vault/pvdata/internal/passagegraph"
)

// GraphSearch is the slice of knowledge-graph queries the hybrid search
// stage needs per detected entity: risk factors (the largest share of the
// graph allocation), filing community summaries (secondary), and
// executives (a small guaranteed share).
type GraphSearch interface {
	RiskFactorsForTicker(ctx context.Context, ticker string, limit int) ([]index.Result, error)
	CommunitySummariesForTicker(ctx context.Context, ticker string, limit int) ([]index.Result, error)
	ExecutivesForTicker(ctx context.Context, ticker string, limit int) ([]index.Result, error)
}

// Reranker scores a batch of candidate results against a query, returning
// parallel scores. No dedicated cross-encoder reranker library appears in
// the example pack, so the only implementation backing this interface
// reuses internal/llm.Client as an LLM-as-judge scorer.
type Reranker interface {
	Score(ctx context.Context, query string, contents []string) ([]float64, error)
}

// Core composes the vector index, keyword index, knowledge graph, and
// passage graph behind the pipeline's single retrieve(query, top_k,
// max_hops?) entry point.
type Core struct {
	vector      index.Searcher
	keyword     index.Searcher
	graphSearch GraphSearch
	passage     *passagegraph.Graph
	llm         *llm.Client
	reranker    Reranker
	router      *Router
	hopCfg      config.HopRAGConfig
}

// New assembles a Core. passage and graphSearch and reranker may be nil —
// the corresponding stages are then skipped (graph allocation of hybrid
// search is zero, multi-hop expansion is skipped, final ordering falls
// back to score-descending sort).
func New(vector, keyword index.Searcher, graphSearch GraphSearch, passage *passagegraph.Graph, llmClient *llm.Client, reranker Reranker, hopCfg config.HopRAGConfig, knownTickers []string) *Core {
	return &Core{
		vector:      vector,
		keyword:     keyword,
		graphSearch: graphSearch,
		passage:     passage,
		llm:         llmClient,
		reranker:    reranker,
		router:      NewRouter(llmClient, knownTickers),
		hopCfg:      hopCfg,
	}
}

// HopTrace records one multi-hop expansion round for observability.
type HopTrace struct {
	Hop             int `json:"hop"`
	CandidatesCount int `json:"candidates_count"`
	KeptCount       int `json:"kept_count"`
}

// Result is a scored, fully enriched passage ready to surface to the
// caller or an enclosing agent.
type Result = model.RetrievedResult

// Retrieve is the package's one public entry point: classify, seed, expand,
// enrich, and rerank.
func (c *Core) Retrieve(ctx context.Context, query string, topK int, maxHops *int) ([]Result, []HopTrace, error) {
	decision := c.router.Route(ctx, query)

	hops := decision.MaxHops
	if maxHops != nil {
		hops = *maxHops
	}

	seeds, err := c.seedRetrieval(ctx, query, topK, decision)
	if err != nil {
		return nil, nil, err
	}

	results, traces := c.expandHops(ctx, query, seeds, hops, decision)

	enriched := c.enrichHopResults(ctx, results)
	final := c.rerank(ctx, query, enriched, topK)
	return final, traces, nil
}
