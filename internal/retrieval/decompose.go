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

import "context"

const decomposeSystemPrompt = "Break the financial research query below into an execution plan. " +
	`Respond with JSON: {"companies": ["..."], "sub_queries": ["..."], "synthesis_hint": "..."}.`

// Decomposition is the plan an enclosing agent consumes; the Retrieval
// Core itself only uses Companies to inform cross-filing seed retrieval.
type Decomposition struct {
	Companies     []string `json:"companies"`
	SubQueries    []string `json:"sub_queries"`
	SynthesisHint string   `json:"synthesis_hint"`
}

// Decompose asks the LLM for a plan. For SIMPLE_FACT queries, callers
// should skip decomposition entirely — it is only meaningful for
// COMPLEX_ANALYSIS and CROSS_FILING routes.
func (c *Core) Decompose(ctx context.Context, query string) (*Decomposition, error) {
	if c.llm == nil {
		return &Decomposition{SubQueries: []string{query}}, nil
	}

	var plan Decomposition
	if err := c.llm.CompleteJSON(ctx, decomposeSystemPrompt, query, &plan); err != nil {
		return &Decomposition{SubQueries: []string{query}}, err
	}
	return &plan, nil
}
