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
	"sort"
	"strings"

	"github.com/penny-vault/pvdata/internal/index"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/rs/zerolog/log"
)

const (
	vectorWeight  = 0.7
	keywordWeight = 0.3
	graphWeight   = 0.5

	maxGraphEntities      = 2
	graphResultsPerEntity = 5
)

// hybridSearch fuses vector, keyword, and (when entities are detected and
// the graph is reachable) graph search results into one merged-by-chunk_id
// list, summing weighted scores and accumulating the contributing
// primitives into each result's sources.
func (c *Core) hybridSearch(ctx context.Context, query string, topK int, tickerFilter string) []Result {
	merged := make(map[string]*Result)

	vectorFilters := map[string]string{}
	if tickerFilter != "" {
		vectorFilters["ticker"] = tickerFilter
	}

	if c.vector != nil {
		vecResults, err := c.vector.Search(ctx, query, 2*topK, vectorFilters)
		if err != nil {
			log.Warn().Err(err).Msg("vector search failed")
		}
		mergeIn(merged, vecResults, vectorWeight, "vector")
	}

	if c.keyword != nil {
		kwTopK := min5(topK)
		if len(strings.Fields(query)) >= 3 {
			kwTopK = maxInt(10, topK/2)
		}
		kwResults, err := c.keyword.Search(ctx, query, kwTopK, vectorFilters)
		if err != nil {
			log.Warn().Err(err).Msg("keyword search failed")
		}
		mergeIn(merged, kwResults, keywordWeight, "keyword")
	}

	if c.graphSearch != nil {
		entities := c.router.detectTickers(query)
		if len(entities) > maxGraphEntities {
			entities = entities[:maxGraphEntities]
		}
		for _, ticker := range entities {
			c.mergeGraphResults(ctx, merged, ticker)
		}
	}

	out := make([]*Result, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	flat := make([]Result, len(out))
	for i, r := range out {
		flat[i] = *r
	}
	return flat
}

func min5(topK int) int {
	v := topK / 3
	if v > 5 {
		return 5
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func mergeIn(merged map[string]*Result, results []index.Result, weight float64, source string) {
	for _, r := range results {
		key := r.Metadata.ChunkID
		if key == "" {
			continue
		}
		existing, ok := merged[key]
		if !ok {
			existing = &Result{
				Content: r.Content,
				Metadata: model.RetrievedResultMeta{
					ChunkID:      r.Metadata.ChunkID,
					Ticker:       r.Metadata.Ticker,
					CompanyName:  r.Metadata.CompanyName,
					SectionItem:  r.Metadata.SectionItem,
					SectionTitle: r.Metadata.SectionTitle,
					FilingDate:   r.Metadata.FilingDate,
				},
			}
			merged[key] = existing
		}
		existing.Score += weight * r.Score
		existing.Metadata.Sources = appendUnique(existing.Metadata.Sources, source)
	}
}

func appendUnique(sources []string, s string) []string {
	for _, existing := range sources {
		if existing == s {
			return sources
		}
	}
	return append(sources, s)
}

// mergeGraphResults fetches risk factors (largest share), community
// summaries (secondary), and executives (small guaranteed share) for one
// detected entity, keyed by a synthetic id since graph rows have no
// chunk_id.
func (c *Core) mergeGraphResults(ctx context.Context, merged map[string]*Result, ticker string) {
	riskN := 3
	communityN := 1
	execN := 1

	risks, err := c.graphSearch.RiskFactorsForTicker(ctx, ticker, riskN)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("graph risk factor search failed")
	}
	mergeGraphRows(merged, risks, ticker, "graph_risk")

	communities, err := c.graphSearch.CommunitySummariesForTicker(ctx, ticker, communityN)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("graph community search failed")
	}
	mergeGraphRows(merged, communities, ticker, "graph_community")

	execs, err := c.graphSearch.ExecutivesForTicker(ctx, ticker, execN)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("graph executive search failed")
	}
	mergeGraphRows(merged, execs, ticker, "graph_executive")
}

func mergeGraphRows(merged map[string]*Result, rows []index.Result, ticker, source string) {
	for i, r := range rows {
		if i >= graphResultsPerEntity {
			break
		}
		key := r.Metadata.ChunkID
		if key == "" {
			key = fmt.Sprintf("graph:%s:%s:%d", ticker, source, i)
		}
		existing, ok := merged[key]
		if !ok {
			existing = &Result{
				Content: r.Content,
				Metadata: model.RetrievedResultMeta{
					ChunkID: key,
					Ticker:  ticker,
				},
			}
			merged[key] = existing
		}
		existing.Score += graphWeight * r.Score
		existing.Metadata.Sources = appendUnique(existing.Metadata.Sources, source)
	}
}

// seedRetrieval implements spec 4.12.3: a per-ticker split for
// CROSS_FILING queries with >=2 detected tickers, else one hybrid search
// across all filings.
func (c *Core) seedRetrieval(ctx context.Context, query string, topK int, decision RouteDecision) ([]Result, error) {
	if decision.Type == CrossFiling && len(decision.Tickers) >= 2 {
		perCompany := topK / len(decision.Tickers)
		if perCompany < 1 {
			perCompany = 1
		}

		seen := make(map[string]bool)
		var all []Result
		for _, ticker := range decision.Tickers {
			results := c.hybridSearch(ctx, query, perCompany, ticker)
			for _, r := range results {
				if seen[r.Metadata.ChunkID] {
					continue
				}
				seen[r.Metadata.ChunkID] = true
				all = append(all, r)
			}
		}
		return all, nil
	}

	return c.hybridSearch(ctx, query, topK, ""), nil
}
