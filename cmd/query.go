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
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvdata/internal/chunk"
	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/graph"
	"github.com/penny-vault/pvdata/internal/index"
	"github.com/penny-vault/pvdata/internal/llm"
	"github.com/penny-vault/pvdata/internal/passagegraph"
	"github.com/penny-vault/pvdata/internal/retrieval"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	queryTopK    int
	queryMaxHops int
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Route, retrieve, and rerank an answer to a question over the indexed filings",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		question := strings.Join(args, " ")

		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load configuration")
		}
		secrets := config.LoadSecrets()

		vectorIdx, err := index.NewVectorIndex(cfg.Endpoints.VectorURL, 6333, "filing_chunks", cfg.Endpoints.EmbeddingDimensions)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to vector index")
		}
		queryEmbedder := chunk.NewEmbedder(cfg.Endpoints.EmbeddingsBaseURL, secrets.EmbeddingsAPIKey, cfg.Endpoints.EmbeddingsModel, cfg.Endpoints.EmbeddingDimensions)
		embedOne := func(ctx context.Context, text string) ([]float32, error) {
			vectors, err := queryEmbedder.EmbedBatch(ctx, []string{text}, 1)
			if err != nil {
				return nil, err
			}
			if len(vectors) == 0 {
				return nil, fmt.Errorf("embedding returned no vectors")
			}
			return vectors[0], nil
		}
		vectorSearcher := index.NewVectorSearcher(vectorIdx, embedOne)

		keywordIdx, err := index.OpenKeywordIndex(cfg.Paths.ArtifactDir + "/keyword.bleve")
		if err != nil {
			log.Fatal().Err(err).Msg("could not open keyword index")
		}
		defer keywordIdx.Close()
		keywordSearcher := index.NewKeywordSearcher(keywordIdx)

		graphBuilder, err := graph.New(cfg.Endpoints.GraphURL, cfg.Endpoints.GraphUser, secrets.GraphStorePassword, "neo4j")
		if err != nil {
			log.Warn().Err(err).Msg("could not connect to graph store, continuing without graph search")
		} else {
			defer graphBuilder.Close(ctx)
		}

		passage, err := passagegraph.Load(cfg.Paths.ArtifactDir + "/passage_graph.gob")
		if err != nil {
			log.Warn().Err(err).Msg("could not load passage graph snapshot, continuing without multi-hop expansion")
			passage = passagegraph.New()
		}

		var llmClient *llm.Client
		var reranker retrieval.Reranker
		if secrets.LLMAPIKey != "" {
			llmClient = llm.New(secrets.LLMAPIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
			reranker = llm.NewReranker(llmClient)
		}

		tickers := make([]string, 0, len(cfg.Companies))
		for _, c := range cfg.Companies {
			tickers = append(tickers, c.Ticker)
		}

		var graphSearch retrieval.GraphSearch
		if graphBuilder != nil {
			graphSearch = graphBuilder
		}

		core := retrieval.New(vectorSearcher, keywordSearcher, graphSearch, passage, llmClient, reranker, cfg.HopRAG, tickers)

		var maxHops *int
		if cmd.Flags().Changed("max-hops") {
			maxHops = &queryMaxHops
		}

		results, traces, err := core.Retrieve(ctx, question, queryTopK, maxHops)
		if err != nil {
			log.Fatal().Err(err).Msg("retrieval failed")
		}

		for i, r := range results {
			fmt.Printf("%d. [%s %s] (score %.3f)\n%s\n\n", i+1, r.Metadata.Ticker, r.Metadata.SectionItem, r.Score, r.Content)
		}
		for _, t := range traces {
			log.Debug().Int("hop", t.Hop).Int("candidates", t.CandidatesCount).Int("kept", t.KeptCount).Msg("hop trace")
		}
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 10, "number of results to return")
	queryCmd.Flags().IntVar(&queryMaxHops, "max-hops", 2, "override the router's default max hop count")
}
