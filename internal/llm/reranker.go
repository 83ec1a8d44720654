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
package llm

import (
	"context"
	"fmt"
	"strings"
)

const rerankSystemPrompt = "Score how relevant each numbered passage is to the query, from 0.0 (irrelevant) " +
	`to 1.0 (directly answers it). Respond with JSON: {"scores": [0.0, ...]} in the same order as given.`

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// Reranker scores passages against a query using the chat model itself as
// an LLM-as-judge, since no dedicated cross-encoder reranker library
// appears anywhere in the example pack.
type Reranker struct {
	client *Client
}

func NewReranker(client *Client) *Reranker {
	return &Reranker{client: client}
}

// Score returns one relevance score per content, in the same order.
func (r *Reranker) Score(ctx context.Context, query string, contents []string) ([]float64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nPassages:\n", query)
	for i, content := range contents {
		if len(content) > 1000 {
			content = content[:1000]
		}
		fmt.Fprintf(&b, "[%d] %s\n", i, content)
	}

	var resp rerankResponse
	if err := r.client.CompleteJSON(ctx, rerankSystemPrompt, b.String(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Scores) != len(contents) {
		return nil, fmt.Errorf("reranker returned %d scores for %d passages", len(resp.Scores), len(contents))
	}
	return resp.Scores, nil
}
