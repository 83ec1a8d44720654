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

// Package retrieval composes the vector, keyword, graph, and passage-graph
// primitives into the pipeline's single public retrieval entry point:
// query routing, decomposition, hybrid seed search, HopRAG multi-hop
// expansion, and a final rerank.
package retrieval

import (
	"context"
	"strings"

	"github.com/penny-vault/pvdata/internal/llm"
)

// QueryType classifies a query's retrieval strategy.
type QueryType string

const (
	SimpleFact      QueryType = "SIMPLE_FACT"
	ComplexAnalysis QueryType = "COMPLEX_ANALYSIS"
	CrossFiling     QueryType = "CROSS_FILING"
)

var comparisonLexicon = []string{
	"compare", "versus", "vs", "difference between", "industry", "peers", "competitors", "benchmark",
}

var temporalCausalLexicon = []string{
	"trend", "year-over-year", "growth", "why", "because", "impact", "caused by", "led to",
}

var simpleFactLexicon = []string{
	"what is", "what was", "who is", "when did", "how much", "how many", "name the", "list the", "define",
}

const routerSystemPrompt = "Classify the financial query below as SIMPLE_FACT, COMPLEX_ANALYSIS, or CROSS_FILING. " +
	`Respond with JSON: {"type": "...", "reasoning": "..."}.`

// RouteDecision is the outcome of classifying one query.
type RouteDecision struct {
	Type      QueryType
	MaxHops   int
	Tickers   []string
	Reasoning string
}

type llmRouteResponse struct {
	Type      string `json:"type"`
	Reasoning string `json:"reasoning"`
}

// Router classifies queries, falling back to an LLM only for the
// ambiguous case the rule-based lexicons can't resolve.
type Router struct {
	llm     *llm.Client
	tickers []string // known ticker/name aliases for multi-company detection
}

func NewRouter(client *llm.Client, knownTickers []string) *Router {
	return &Router{llm: client, tickers: knownTickers}
}

// Route classifies query and resolves its default max_hops.
func (r *Router) Route(ctx context.Context, query string) RouteDecision {
	detected := r.detectTickers(query)
	lower := strings.ToLower(query)

	if len(detected) >= 2 {
		return r.decide(CrossFiling, detected, "multiple company mentions detected")
	}
	if len(detected) == 1 && containsAny(lower, comparisonLexicon) {
		return r.decide(CrossFiling, detected, "single company with comparison language")
	}

	hasTemporalCausal := containsAny(lower, temporalCausalLexicon)
	hasSimpleFact := containsAny(lower, simpleFactLexicon)

	if hasTemporalCausal && !hasSimpleFact {
		return r.decide(ComplexAnalysis, detected, "temporal/causal language detected")
	}
	if hasSimpleFact && wordCount(query) <= 12 && !hasTemporalCausal {
		return r.decide(SimpleFact, detected, "simple-fact phrasing, short query")
	}

	return r.classifyWithLLM(ctx, query, detected)
}

func (r *Router) decide(t QueryType, tickers []string, reasoning string) RouteDecision {
	return RouteDecision{Type: t, MaxHops: defaultMaxHops(t), Tickers: tickers, Reasoning: reasoning}
}

func (r *Router) classifyWithLLM(ctx context.Context, query string, detected []string) RouteDecision {
	if r.llm == nil {
		return r.decide(ComplexAnalysis, detected, "ambiguous query, no llm configured, defaulting")
	}

	var resp llmRouteResponse
	if err := r.llm.CompleteJSON(ctx, routerSystemPrompt, query, &resp); err != nil {
		return r.decide(ComplexAnalysis, detected, "llm classification failed, defaulting")
	}

	t := QueryType(resp.Type)
	switch t {
	case SimpleFact, ComplexAnalysis, CrossFiling:
		return RouteDecision{Type: t, MaxHops: defaultMaxHops(t), Tickers: detected, Reasoning: resp.Reasoning}
	default:
		return r.decide(ComplexAnalysis, detected, "llm returned unrecognized type, defaulting")
	}
}

func defaultMaxHops(t QueryType) int {
	switch t {
	case SimpleFact:
		return 0
	case CrossFiling:
		return 3
	default:
		return 2
	}
}

func (r *Router) detectTickers(query string) []string {
	upper := strings.ToUpper(query)
	var found []string
	for _, t := range r.tickers {
		if strings.Contains(upper, strings.ToUpper(t)) {
			found = append(found, t)
		}
	}
	return found
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
