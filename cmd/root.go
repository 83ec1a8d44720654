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
	"os"

	"github.com/penny-vault/pvdata/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finloom",
	Short: "finloom builds and serves a SEC 10-K filing knowledge base for the Penny Vault research tools",
	Long: `finloom is a command line utility for downloading SEC 10-K filings,
extracting their structured facts, sections, and entities, and indexing the
result for retrieval.

A filing passes through several stages:

	* download   - fetch filings and their XBRL instance documents from EDGAR
	* parse      - extract XBRL facts and narrative sections
	* chunk      - split sections into overlapping, embeddable passages
	* graph      - build the knowledge graph and passage graph used for
	               multi-hop retrieval
	* query      - route, retrieve, and rerank an answer for a question

Configuration is read from finloom.yaml (or $HOME/.finloom/finloom.yaml) with
FINLOOM_-prefixed environment variable overrides; secrets such as API keys are
always read directly from the environment.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./finloom.yaml or $HOME/.finloom/finloom.yaml)")
}

// initConfig points internal/config at the --config flag, if given, before
// any subcommand calls config.Load.
func initConfig() {
	if cfgFile != "" {
		config.SetConfigFile(cfgFile)
	}
}
