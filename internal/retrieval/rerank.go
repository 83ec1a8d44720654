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
	"sort"

	"github.com/rs/zerolog/log"
)

// enrichHopResults fetches full content for every hop >= 1 result (which
// otherwise only carries a 200-char preview) from the vector index via a
// chunk_id filter, replacing the preview in place. A fetch failure is
// logged and reranking proceeds on the preview.
func (c *Core) enrichHopResults(ctx context.Context, results []Result) []Result {
	var toFetch []string
	for _, r := range results {
		if r.Metadata.HopNumber >= 1 {
			toFetch = append(toFetch, r.Metadata.ChunkID)
		}
	}
	if len(toFetch) == 0 || c.vector == nil {
		return results
	}

	contentByID, err := c.fetchContentByChunkIDs(ctx, toFetch)
	if err != nil {
		log.Warn().Err(err).Msg("hop enrichment fetch failed, reranking on previews")
		return results
	}

	for i := range results {
		if results[i].Metadata.HopNumber >= 1 {
			if content, ok := contentByID[results[i].Metadata.ChunkID]; ok {
				results[i].Content = content
			}
		}
	}
	return results
}

// fetchContentByChunkIDs filters the vector index down to the given
// chunk_ids. Implemented via a degenerate per-id filtered search since the
// underlying Searcher interface exposes only the filter-map shape, not a
// native "IN" clause.
func (c *Core) fetchContentByChunkIDs(ctx context.Context, chunkIDs []string) (map[string]string, error) {
	contentByID := make(map[string]string, len(chunkIDs))
	for _, id := range chunkIDs {
		rows, err := c.vector.Search(ctx, "", 1, map[string]string{"chunk_id": id})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			contentByID[id] = rows[0].Content
		}
	}
	return contentByID, nil
}

// rerank scores all accumulated results against the original query with
// the configured reranker, or sorts by score descending when none is
// configured.
func (c *Core) rerank(ctx context.Context, query string, results []Result, topK int) []Result {
	if c.reranker != nil {
		contents := make([]string, len(results))
		for i, r := range results {
			contents[i] = r.Content
		}
		scores, err := c.reranker.Score(ctx, query, contents)
		if err != nil {
			log.Warn().Err(err).Msg("reranker failed, falling back to score-descending sort")
		} else {
			for i := range results {
				results[i].Score = scores[i]
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
