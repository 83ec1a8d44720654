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

	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display a summary of the companies and filings tracked in the database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load configuration")
		}

		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		companies, err := db.Companies.List(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not list companies")
		}

		fmt.Printf("%d companies tracked\n\n", len(companies))
		for _, company := range companies {
			filings, err := db.Filings.ByCompany(ctx, company.CIK)
			if err != nil {
				log.Warn().Err(err).Str("cik", company.CIK).Msg("could not list filings")
				continue
			}

			processed := 0
			for _, f := range filings {
				if f.SectionsProcessed {
					processed++
				}
			}

			fmt.Printf("%-8s %-40s %3d filings (%d processed)\n", company.Ticker, company.Name, len(filings), processed)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
