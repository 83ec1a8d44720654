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
	"time"

	"github.com/penny-vault/pvdata/backblaze"
	"github.com/penny-vault/pvdata/internal/chunk"
	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/entities"
	"github.com/penny-vault/pvdata/internal/graph"
	"github.com/penny-vault/pvdata/internal/llm"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/penny-vault/pvdata/internal/passagegraph"
	"github.com/penny-vault/pvdata/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// buildGraphCmd represents the build-graph command
var buildGraphCmd = &cobra.Command{
	Use:   "build-graph",
	Short: "Build the Neo4j knowledge graph and the in-memory passage graph from stored filings",
	Long: `build-graph reads companies, filings, facts, and sections that
ingest has already written to Postgres. For each filing it extracts
entities (executives, risk factors) with a pattern extractor optionally
augmented by an LLM, imports them and the XBRL facts into Neo4j, detects
communities, and re-chunks every section to rebuild the passage graph's
same-filing, entity, and temporal edges before writing it to disk.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load configuration")
		}
		secrets := config.LoadSecrets()

		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		builder, err := graph.New(cfg.Endpoints.GraphURL, cfg.Endpoints.GraphUser, secrets.GraphStorePassword, "neo4j")
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to graph store")
		}
		defer builder.Close(ctx)

		if err := builder.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not bootstrap graph constraints")
		}

		var llmClient *llm.Client
		if secrets.LLMAPIKey != "" {
			llmClient = llm.New(secrets.LLMAPIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, timeoutSeconds(cfg.LLM.TimeoutSeconds))
		}

		extractor := entities.New()
		reader := entities.NewReader(llmClient, 4)
		chunker := chunk.New(cfg.Chunk)
		passage := passagegraph.New()

		companies, err := db.Companies.List(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not list companies")
		}

		for _, company := range companies {
			if err := builder.UpsertCompany(ctx, company.CIK, company.Ticker, company.Name); err != nil {
				log.Error().Err(err).Str("cik", company.CIK).Msg("could not upsert company in graph")
				continue
			}

			filings, err := db.Filings.ByCompany(ctx, company.CIK)
			if err != nil {
				log.Error().Err(err).Str("cik", company.CIK).Msg("could not list filings")
				continue
			}

			for _, filing := range filings {
				if err := buildFilingGraph(ctx, db, builder, extractor, reader, chunker, passage, company, filing); err != nil {
					log.Error().Err(err).Str("accession", filing.AccessionNumber).Msg("could not build graph for filing")
				}
			}
		}

		if err := builder.DetectCommunities(ctx, "company_graph"); err != nil {
			log.Warn().Err(err).Msg("community detection failed")
		}
		if llmClient != nil {
			n, err := builder.SummarizeCommunities(ctx, llmClient, 3)
			if err != nil {
				log.Warn().Err(err).Msg("community summarization failed")
			} else {
				log.Info().Int("count", n).Msg("summarized communities")
			}
		}

		passage.BuildSameFilingEdges()
		passage.BuildEntityCooccurrenceEdges(5)
		passage.BuildTemporalEdges()

		stats := passage.Stats()
		log.Info().Int("nodes", stats.NodeCount).Int("edges", stats.EdgeCount).
			Int("components", stats.ConnectedComponents).Msg("passage graph built")

		snapshotPath := cfg.Paths.ArtifactDir + "/passage_graph.gob"
		if err := passage.Save(snapshotPath); err != nil {
			log.Fatal().Err(err).Str("path", snapshotPath).Msg("could not persist passage graph")
		}

		if cfg.Backblaze.BucketName != "" {
			if err := backblaze.Upload(snapshotPath, cfg.Backblaze.BucketName, cfg.Backblaze.Dirname,
				secrets.BackblazeKeyID, secrets.BackblazeApplicationKey); err != nil {
				log.Warn().Err(err).Str("path", snapshotPath).Msg("could not back up passage graph to backblaze")
			}
		}
	},
}

func buildFilingGraph(ctx context.Context, db *store.Store, builder *graph.Builder, extractor *entities.Extractor,
	reader *entities.Reader, chunker *chunk.Chunker, passage *passagegraph.Graph,
	company model.Company, filing model.Filing) error {
	fiscalYear := filing.FilingDate.Year()
	if err := builder.UpsertFiling(ctx, company.CIK, filing.AccessionNumber, filing.FormType, filing.FilingDate, fiscalYear); err != nil {
		return err
	}

	facts, err := db.Facts.ByAccession(ctx, filing.AccessionNumber)
	if err != nil {
		log.Warn().Err(err).Str("accession", filing.AccessionNumber).Msg("could not load facts")
	} else if len(facts) > 0 {
		if err := builder.ImportFacts(ctx, filing.AccessionNumber, facts, true); err != nil {
			log.Warn().Err(err).Str("accession", filing.AccessionNumber).Msg("could not import facts")
		}
	}

	sections, err := db.Sections.ByAccession(ctx, filing.AccessionNumber)
	if err != nil {
		return err
	}

	sectionTexts := make([]entities.SectionText, 0, len(sections))
	for _, sec := range sections {
		if err := builder.UpsertSection(ctx, filing.AccessionNumber, sec.SectionType, sec.Title); err != nil {
			log.Warn().Err(err).Msg("could not upsert section")
		}
		sectionTexts = append(sectionTexts, entities.SectionText{SectionType: sec.SectionType, Text: sec.ContentText})

		for _, c := range chunker.Split(sec, filing.AccessionNumber, company.Ticker, company.Name, filing.FormType, filing.FilingDate) {
			passage.AddChunk(c)
		}
	}

	sectionEntities, err := reader.ReadFiling(ctx, sectionTexts)
	if err != nil {
		log.Warn().Err(err).Str("accession", filing.AccessionNumber).Msg("entity extraction failed, falling back to patterns only")
		sectionEntities = make([]model.SectionEntities, 0, len(sections))
		for _, sec := range sections {
			sectionEntities = append(sectionEntities, extractor.ExtractFromSection(sec.ContentText, sec.SectionType))
		}
	}
	for _, se := range sectionEntities {
		if err := builder.ImportSectionEntities(ctx, filing.AccessionNumber, se); err != nil {
			log.Warn().Err(err).Str("accession", filing.AccessionNumber).Msg("could not import section entities")
		}
	}

	return nil
}

func timeoutSeconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func init() {
	rootCmd.AddCommand(buildGraphCmd)
}
