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

// Package config loads the pipeline's configuration from a YAML file with
// environment-variable overlays, generalizing the TOML-in-home-dir pattern
// cmd/root.go historically used.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Roster entry for a single company tracked by the pipeline.
type Company struct {
	CIK    string `mapstructure:"cik"`
	Ticker string `mapstructure:"ticker"`
	Name   string `mapstructure:"name"`
}

type ArchiveConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	RateRPS        float64 `mapstructure:"rate_rps"`
	Burst          int     `mapstructure:"burst"`
	MinRateRPS     float64 `mapstructure:"min_rate_rps"`
	MaxRetries     int     `mapstructure:"max_retries"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

type PathsConfig struct {
	RawDataRoot   string `mapstructure:"raw_data_root"`
	CheckpointDir string `mapstructure:"checkpoint_dir"`
	ProgressDir   string `mapstructure:"progress_dir"`
	ArtifactDir   string `mapstructure:"artifact_dir"`
}

type SectionConfig struct {
	MinWordsByType     map[string]int `mapstructure:"min_words_by_type"`
	CandidacyThreshold float64        `mapstructure:"candidacy_threshold"`
	MaxContentChars    int            `mapstructure:"max_content_chars"`
	TruncationPenalty  float64        `mapstructure:"truncation_penalty"`
	ShortThreshold     float64        `mapstructure:"short_threshold"`
	ShortPenalty       float64        `mapstructure:"short_penalty"`
	VeryShortThreshold float64        `mapstructure:"very_short_threshold"`
	VeryShortPenalty   float64        `mapstructure:"very_short_penalty"`
	MissingRefsPenalty float64        `mapstructure:"missing_references_penalty"`
	BaseQuality        float64        `mapstructure:"base_quality"`
	MinHeadingLength   int            `mapstructure:"min_heading_length"`
	MaxHeadingLength   int            `mapstructure:"max_heading_length"`
}

type ChunkConfig struct {
	TargetTokens  int `mapstructure:"target_tokens"`
	MinTokens     int `mapstructure:"min_tokens"`
	MaxTokens     int `mapstructure:"max_tokens"`
	OverlapTokens int `mapstructure:"overlap_tokens"`
}

type HopRAGConfig struct {
	DefaultMaxHops      int     `mapstructure:"default_max_hops"`
	InitialTopK         int     `mapstructure:"initial_top_k"`
	NeighborsPerSeed    int     `mapstructure:"neighbors_per_seed"`
	MaxCandidatesPerHop int     `mapstructure:"max_candidates_per_hop"`
	KeepPerHop          int     `mapstructure:"keep_per_hop"`
	MinEdgeWeight       float64 `mapstructure:"min_edge_weight"`
	HopDecay            float64 `mapstructure:"hop_decay"`
}

type LLMConfig struct {
	Model          string `mapstructure:"model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type EndpointsConfig struct {
	VectorURL           string `mapstructure:"vector_url"`
	GraphURL            string `mapstructure:"graph_url"`
	GraphUser           string `mapstructure:"graph_user"`
	EmbeddingsBaseURL   string `mapstructure:"embeddings_base_url"`
	EmbeddingsModel     string `mapstructure:"embeddings_model"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`
}

// BackblazeConfig configures the optional off-site backup of the passage
// graph and other build artifacts to a B2 bucket. Backup is skipped
// whenever BucketName is empty.
type BackblazeConfig struct {
	BucketName string `mapstructure:"bucket_name"`
	Dirname    string `mapstructure:"dirname"`
}

// Config is the fully-resolved, typed view of the pipeline's
// configuration, assembled from YAML plus environment overlays.
type Config struct {
	Archive            ArchiveConfig   `mapstructure:"archive"`
	Paths              PathsConfig     `mapstructure:"paths"`
	Section            SectionConfig   `mapstructure:"section"`
	Chunk              ChunkConfig     `mapstructure:"chunk"`
	LLM                LLMConfig       `mapstructure:"llm"`
	HopRAG             HopRAGConfig    `mapstructure:"hoprag"`
	Endpoints          EndpointsConfig `mapstructure:"endpoints"`
	Backblaze          BackblazeConfig `mapstructure:"backblaze"`
	Companies          []Company       `mapstructure:"companies"`
	YearStart          int             `mapstructure:"year_start"`
	YearEnd            int             `mapstructure:"year_end"`
	HealthCheckPingURL string          `mapstructure:"healthcheck_ping_url"`
	DatabaseURL        string          `mapstructure:"-"`
}

var cfgFile string

// SetConfigFile overrides the config file path before Load is called.
func SetConfigFile(path string) { cfgFile = path }

// Load reads the YAML config file (plus FINLOOM_-prefixed env overlays)
// and returns the typed Config. Secrets are never read from the file;
// they are resolved directly from the environment by their own getters
// (see Secrets below).
func Load() (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.finloom", home))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("finloom")
	}

	v.SetEnvPrefix("FINLOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Warn().Msg("no config file found, using defaults and environment")
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("loaded configuration")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.DatabaseURL = os.Getenv("FINLOOM_DATABASE_URL")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("archive.rate_rps", 8.0)
	v.SetDefault("archive.burst", 16)
	v.SetDefault("archive.min_rate_rps", 1.0)
	v.SetDefault("archive.max_retries", 3)
	v.SetDefault("archive.timeout_seconds", 30)
	v.SetDefault("paths.raw_data_root", "./data/raw")
	v.SetDefault("paths.checkpoint_dir", "./data/checkpoints")
	v.SetDefault("paths.progress_dir", "./data/progress")
	v.SetDefault("paths.artifact_dir", "./data/artifacts")
	v.SetDefault("section.candidacy_threshold", 0.1)
	v.SetDefault("section.max_content_chars", 5000000)
	v.SetDefault("section.truncation_penalty", 0.8)
	v.SetDefault("section.short_threshold", 1.0)
	v.SetDefault("section.short_penalty", 0.8)
	v.SetDefault("section.very_short_threshold", 0.5)
	v.SetDefault("section.very_short_penalty", 0.7)
	v.SetDefault("section.missing_references_penalty", 0.95)
	v.SetDefault("section.base_quality", 0.9)
	v.SetDefault("section.min_heading_length", 5)
	v.SetDefault("section.max_heading_length", 100)
	v.SetDefault("section.min_words_by_type", map[string]int{
		"item_1": 1000, "item_1a": 2000, "item_1b": 10, "item_1c": 200,
		"item_2": 100, "item_3": 50, "item_4": 10, "item_5": 200,
		"item_6": 10, "item_7": 5000, "item_7a": 500, "item_8": 10000,
		"item_9": 50, "item_9a": 500, "item_9b": 10, "item_9c": 10,
		"item_10": 500, "item_11": 1000, "item_12": 200, "item_13": 200,
		"item_14": 100, "item_15": 100, "item_16": 10,
	})
	v.SetDefault("chunk.target_tokens", 750)
	v.SetDefault("chunk.min_tokens", 500)
	v.SetDefault("chunk.max_tokens", 1000)
	v.SetDefault("chunk.overlap_tokens", 100)
	v.SetDefault("hoprag.default_max_hops", 2)
	v.SetDefault("hoprag.initial_top_k", 10)
	v.SetDefault("hoprag.neighbors_per_seed", 15)
	v.SetDefault("hoprag.max_candidates_per_hop", 30)
	v.SetDefault("hoprag.keep_per_hop", 5)
	v.SetDefault("hoprag.min_edge_weight", 0.4)
	v.SetDefault("hoprag.hop_decay", 0.85)
	v.SetDefault("endpoints.embedding_dimensions", 1536)
	v.SetDefault("backblaze.dirname", "finloom-artifacts")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout_seconds", 60)
}

// Secrets are resolved directly from the environment, never from the YAML
// file, per the external-interfaces contract.
type Secrets struct {
	SECUserAgent            string
	LLMAPIKey               string
	EmbeddingsAPIKey        string
	RerankerAPIKey          string
	GraphStorePassword      string
	BackblazeKeyID          string
	BackblazeApplicationKey string
}

func LoadSecrets() Secrets {
	return Secrets{
		SECUserAgent:            os.Getenv("SEC_USER_AGENT"),
		LLMAPIKey:               os.Getenv("ANTHROPIC_API_KEY"),
		EmbeddingsAPIKey:        os.Getenv("EMBEDDINGS_API_KEY"),
		RerankerAPIKey:          os.Getenv("RERANKER_API_KEY"),
		GraphStorePassword:      os.Getenv("GRAPH_STORE_PASSWORD"),
		BackblazeKeyID:          os.Getenv("BACKBLAZE_KEY_ID"),
		BackblazeApplicationKey: os.Getenv("BACKBLAZE_APPLICATION_KEY"),
	}
}
