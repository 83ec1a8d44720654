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
package entities

import (
	"context"
	"strings"

	"github.com/penny-vault/pvdata/internal/llm"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	llmExtractionSystemPrompt = `You are extracting structured data from a section of a company's SEC 10-K filing. ` +
		`Return a JSON object with two keys: "people" (array of {name, role, start_date}) and ` +
		`"risk_factors" (array of {category, severity, description} where severity is an integer 1-5). ` +
		`Either array may be empty. Only include people who are named executives or directors, and risks ` +
		`that are explicitly discussed, not boilerplate headings.`
)

// Reader runs the two-phase entity extraction over a filing's sections:
// the always-on rule/pattern Extractor, plus an optional LLM pass over
// item_10 (executives) and item_1a (risk factors).
type Reader struct {
	extractor *Extractor
	llm       *llm.Client
	maxConcurrent int
}

// NewReader builds a Reader. llmClient may be nil, in which case every
// section is extracted with the rule/pattern phase only.
func NewReader(llmClient *llm.Client, maxConcurrent int) *Reader {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Reader{extractor: New(), llm: llmClient, maxConcurrent: maxConcurrent}
}

// SectionText is one section's plain text, keyed the same way as
// model.Section.SectionType ("item_1", "item_1a", ...).
type SectionText struct {
	SectionType string
	Text        string
}

// ReadFiling runs the rule/pattern phase over every section concurrently,
// then — if an LLM client is configured — runs an LLM pass over item_10
// (or item_1 as a fallback) and item_1a and attaches the combined
// executive/risk output to the first section's result.
// Individual LLM failures are logged and do not fail the batch.
func (r *Reader) ReadFiling(ctx context.Context, sections []SectionText) ([]model.SectionEntities, error) {
	results := make([]model.SectionEntities, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.maxConcurrent)

	for i, sec := range sections {
		i, sec := i, sec
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			results[i] = r.extractor.ExtractFromSection(sec.Text, sec.SectionType)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.llm == nil {
		return results, nil
	}

	r.augmentWithLLM(ctx, sections, results)
	return results, nil
}

func (r *Reader) augmentWithLLM(ctx context.Context, sections []SectionText, results []model.SectionEntities) {
	byType := make(map[string]string, len(sections))
	for _, s := range sections {
		byType[s.SectionType] = s.Text
	}

	item10 := byType["item_10"]
	if strings.Contains(strings.ToLower(item10), "incorporated") && len(item10) < 500 {
		if item1, ok := byType["item_1"]; ok && len(item1) > 500 {
			item10 = item1
		}
	}
	item1a := byType["item_1a"]

	var people []model.Executive
	var risks []model.RiskFactor

	if item10 != "" {
		var out struct {
			People []model.Executive `json:"people"`
		}
		if err := r.llm.CompleteJSON(ctx, llmExtractionSystemPrompt, item10, &out); err != nil {
			log.Warn().Err(err).Msg("llm executive extraction failed")
		} else {
			people = out.People
		}
	}
	if item1a != "" {
		var out struct {
			RiskFactors []model.RiskFactor `json:"risk_factors"`
		}
		if err := r.llm.CompleteJSON(ctx, llmExtractionSystemPrompt, item1a, &out); err != nil {
			log.Warn().Err(err).Msg("llm risk factor extraction failed")
		} else {
			risks = out.RiskFactors
		}
	}

	if len(people) == 0 && len(risks) == 0 {
		return
	}

	extraction := &model.LLMExtraction{ExtractionSuccess: true, People: people, RiskFactors: risks}
	if len(results) > 0 {
		results[0].LLMExtraction = extraction
		return
	}
}
