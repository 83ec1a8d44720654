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
	"time"

	"github.com/penny-vault/pvdata/healthcheck"
	"github.com/penny-vault/pvdata/internal/archive"
	"github.com/penny-vault/pvdata/internal/chunk"
	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/downloader"
	"github.com/penny-vault/pvdata/internal/index"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/penny-vault/pvdata/internal/rategov"
	"github.com/penny-vault/pvdata/internal/section"
	"github.com/penny-vault/pvdata/internal/store"
	"github.com/penny-vault/pvdata/internal/xbrl"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ingestFormType string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [ticker...]",
	Short: "Download, parse, chunk, embed, and index 10-K filings",
	Long: `ingest walks the configured company roster (or the tickers passed as
arguments) across the configured fiscal year range: it downloads each 10-K
from EDGAR, extracts XBRL facts and narrative sections, splits sections into
overlapping chunks, embeds them, and writes the result to Postgres, the
vector index, and the keyword index.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load configuration")
		}
		secrets := config.LoadSecrets()

		if cfg.HealthCheckPingURL != "" {
			if err := healthcheck.Ping(cfg.HealthCheckPingURL, "start"); err != nil {
				log.Warn().Err(err).Msg("healthcheck start ping failed")
			}
		}

		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		companies := cfg.Companies
		if len(args) > 0 {
			companies = filterCompanies(companies, args)
		}

		governor := rategov.New(cfg.Archive.RateRPS, cfg.Archive.Burst, cfg.Archive.MinRateRPS)
		archiveClient := archive.New(secrets.SECUserAgent, governor, time.Duration(cfg.Archive.TimeoutSeconds)*time.Second, cfg.Archive.MaxRetries)
		dl := downloader.New(archiveClient, governor, cfg.Paths.RawDataRoot, cfg.Paths.CheckpointDir, secrets.SECUserAgent)

		vectorIdx, err := index.NewVectorIndex(cfg.Endpoints.VectorURL, 6333, "filing_chunks", cfg.Endpoints.EmbeddingDimensions)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to vector index")
		}
		if err := vectorIdx.EnsureCollection(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not ensure vector collection")
		}

		keywordIdx, err := index.OpenKeywordIndex(cfg.Paths.ArtifactDir + "/keyword.bleve")
		if err != nil {
			log.Fatal().Err(err).Msg("could not open keyword index")
		}
		defer keywordIdx.Close()

		embedder := chunk.NewEmbedder(cfg.Endpoints.EmbeddingsBaseURL, secrets.EmbeddingsAPIKey, cfg.Endpoints.EmbeddingsModel, cfg.Endpoints.EmbeddingDimensions)
		chunker := chunk.New(cfg.Chunk)

		var failed int
		for _, company := range companies {
			if err := db.Companies.Upsert(ctx, model.Company{CIK: company.CIK, Name: company.Name, Ticker: company.Ticker}); err != nil {
				log.Error().Err(err).Str("cik", company.CIK).Msg("could not upsert company")
				failed++
				continue
			}

			start := time.Date(cfg.YearStart, 1, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(cfg.YearEnd, 12, 31, 0, 0, 0, 0, time.UTC)
			filings, err := archiveClient.GetCompanyFilings(ctx, company.CIK, ingestFormType, &start, &end)
			if err != nil {
				log.Error().Err(err).Str("cik", company.CIK).Msg("could not list filings")
				failed++
				continue
			}

			for _, filing := range filings {
				if err := ingestOneFiling(ctx, cfg, db, dl, vectorIdx, keywordIdx, embedder, chunker, company, filing); err != nil {
					log.Error().Err(err).Str("accession", filing.AccessionNumber).Msg("could not ingest filing")
					failed++
				}
			}
		}

		if cfg.HealthCheckPingURL != "" {
			suffix := ""
			if failed > 0 {
				suffix = "fail"
			}
			if err := healthcheck.Ping(cfg.HealthCheckPingURL, suffix); err != nil {
				log.Warn().Err(err).Msg("healthcheck completion ping failed")
			}
		}

		if failed > 0 {
			log.Fatal().Int("failed", failed).Msg("ingest run completed with failures")
		}
	},
}

func ingestOneFiling(ctx context.Context, cfg *config.Config, db *store.Store, dl *downloader.Downloader,
	vectorIdx *index.VectorIndex, keywordIdx *index.KeywordIndex, embedder *chunk.Embedder, chunker *chunk.Chunker,
	company config.Company, filing archive.FilingInfo) error {
	dlResult := dl.DownloadFiling(ctx, filing)
	if !dlResult.Success {
		return fmt.Errorf("download failed: %s", dlResult.ErrorMessage)
	}

	if err := db.Filings.Upsert(ctx, model.Filing{
		AccessionNumber:    filing.AccessionNumber,
		CIK:                filing.CIK,
		FormType:           filing.FormType,
		FilingDate:         filing.FilingDate,
		AcceptanceDateTime: filing.AcceptanceDateTime,
		PrimaryDocument:    filing.PrimaryDocument,
		IsXBRL:             filing.IsXBRL,
		IsInlineXBRL:       filing.IsInlineXBRL,
		LocalPath:          dlResult.LocalPath,
		DownloadStatus:     model.DownloadCompleted,
	}); err != nil {
		return err
	}

	xbrlResult := xbrl.ParseFiling(dlResult.LocalPath, filing.AccessionNumber, true)
	if xbrlResult.Success && len(xbrlResult.Facts) > 0 {
		if _, err := db.Facts.InsertBatch(ctx, xbrlResult.Facts); err != nil {
			log.Warn().Err(err).Str("accession", filing.AccessionNumber).Msg("could not save facts")
		} else if err := db.Filings.MarkXBRLProcessed(ctx, filing.AccessionNumber); err != nil {
			log.Warn().Err(err).Msg("could not mark filing xbrl-processed")
		}
	}

	sectionResult := section.ParseFiling(cfg.Section, dlResult.LocalPath, filing.AccessionNumber)
	if !sectionResult.Success {
		return fmt.Errorf("section parse failed: %s", sectionResult.ErrorMessage)
	}

	var chunks []model.Chunk
	for _, sec := range sectionResult.Sections {
		if err := db.Sections.Upsert(ctx, sec); err != nil {
			log.Warn().Err(err).Str("accession", filing.AccessionNumber).Str("section", sec.SectionType).Msg("could not save section")
			continue
		}
		chunks = append(chunks, chunker.Split(sec, filing.AccessionNumber, company.Ticker, company.Name, filing.FormType, filing.FilingDate)...)
	}
	if err := db.Filings.MarkSectionsProcessed(ctx, filing.AccessionNumber); err != nil {
		log.Warn().Err(err).Msg("could not mark filing sections-processed")
	}

	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := embedder.EmbedBatch(ctx, texts, cfg.Archive.MaxRetries)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	for i, c := range chunks {
		if err := vectorIdx.Upsert(ctx, c, embeddings[i], ""); err != nil {
			log.Warn().Err(err).Str("chunk_id", c.ChunkID).Msg("could not upsert chunk embedding")
		}
	}
	if err := keywordIdx.IndexBatch(chunks); err != nil {
		log.Warn().Err(err).Str("accession", filing.AccessionNumber).Msg("could not index chunks for keyword search")
	}

	return nil
}

func filterCompanies(companies []config.Company, tickers []string) []config.Company {
	want := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		want[t] = true
	}
	var out []config.Company
	for _, c := range companies {
		if want[c.Ticker] {
			out = append(out, c)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestFormType, "form-type", "10-K", "SEC form type to ingest")
}
