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
	"strings"

	"github.com/rs/zerolog/log"
)

const pruningBatchSize = 15

const pruningSystemPrompt = "You are deciding which candidate passages are worth following up on for the " +
	"research query below. Given the current context and a numbered list of candidates, decide keep or prune " +
	`for each. Respond with JSON: {"decisions": [{"id": 0, "action": "keep", "reason": "..."}]}.`

type pruneDecision struct {
	ID     int    `json:"id"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type pruneResponse struct {
	Decisions []pruneDecision `json:"decisions"`
}

type candidate struct {
	chunkID string
	ticker  string
	section string
	date    string
	preview string
	score   float64
	edge    string
}

// pruneCandidates runs LLM pruning over candidates in batches of
// pruningBatchSize, keeping at most keepTotal across all batches. On LLM
// failure, every candidate in the failed batch counts as kept, still
// subject to the keepTotal cap. Returns the kept candidates, in the order
// chosen.
func (c *Core) pruneCandidates(ctx context.Context, query string, contextSummary string, candidates []candidate, keepTotal int) []candidate {
	if c.llm == nil {
		return truncateCandidates(candidates, keepTotal)
	}

	var kept []candidate
	for start := 0; start < len(candidates) && len(kept) < keepTotal; start += pruningBatchSize {
		end := start + pruningBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		prompt := buildPrunePrompt(query, contextSummary, batch)
		var resp pruneResponse
		if err := c.llm.CompleteJSON(ctx, pruningSystemPrompt, prompt, &resp); err != nil {
			log.Warn().Err(err).Msg("llm pruning failed, keeping all candidates in batch")
			kept = append(kept, batch...)
			continue
		}

		for _, d := range resp.Decisions {
			if d.Action != "keep" || d.ID < 0 || d.ID >= len(batch) {
				continue
			}
			kept = append(kept, batch[d.ID])
			if len(kept) >= keepTotal {
				break
			}
		}
	}

	return truncateCandidates(kept, keepTotal)
}

func truncateCandidates(candidates []candidate, limit int) []candidate {
	if len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}

func buildPrunePrompt(query, contextSummary string, batch []candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nCurrent context:\n%s\n\nCandidates:\n", query, contextSummary)
	for i, cand := range batch {
		fmt.Fprintf(&b, "[%d][%s|%s|%s] %s\n", i, cand.ticker, cand.section, cand.date, cand.preview)
	}
	return b.String()
}

// summarizeContext builds the "up to 5 entries, 500 chars" context
// summary the pruning prompt includes.
func summarizeContext(results []Result) string {
	var b strings.Builder
	limit := 5
	if len(results) < limit {
		limit = len(results)
	}
	for i := 0; i < limit; i++ {
		content := results[i].Content
		if len(content) > 500 {
			content = content[:500]
		}
		fmt.Fprintf(&b, "- [%s] %s\n", results[i].Metadata.Ticker, content)
	}
	return b.String()
}
