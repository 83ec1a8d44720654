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

// Package normalize resolves standardized metrics (revenue, total_assets,
// ...) from a company's raw XBRL facts, picking the highest-priority
// mapped concept that is actually present and only overwriting an
// existing normalized value when the new one is at least as confident.
package normalize

import (
	"context"
	"fmt"

	"github.com/penny-vault/pvdata/internal/model"
	"github.com/rs/zerolog/log"
)

// Repository is the slice of store.NormalizationRepo the engine needs.
// Narrowed to an interface so the priority/confidence resolution logic
// can be exercised without a live Postgres connection.
type Repository interface {
	AllMetrics(ctx context.Context) ([]model.StandardizedMetric, error)
	MappingsForMetric(ctx context.Context, metricID string) ([]model.ConceptMapping, error)
	LatestFactsPerFiscalYear(ctx context.Context, cik, conceptName string) ([]model.Fact, error)
	Existing(ctx context.Context, ticker string, fiscalYear int, fiscalQuarter *int, metricID string) (*model.NormalizedFinancial, error)
	Upsert(ctx context.Context, n model.NormalizedFinancial) error
	RemoveDuplicates(ctx context.Context, dryRun bool) (int, error)
}

// Engine normalizes one company's facts at a time against the mapping
// table held in the store.
type Engine struct {
	store Repository
}

func New(repo Repository) *Engine {
	return &Engine{store: repo}
}

// Result summarizes one normalization pass over a company's facts.
type Result struct {
	Ticker      string
	MetricsSet  int
	MetricsSkipped int
}

// NormalizeCompany resolves every standardized metric for one ticker/CIK
// from its stored facts, writing the winning (concept, value) pair per
// (fiscal_year, fiscal_quarter, metric) tuple.
func (e *Engine) NormalizeCompany(ctx context.Context, cik, ticker string) (*Result, error) {
	metrics, err := e.store.AllMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load standardized metrics: %w", err)
	}

	result := &Result{Ticker: ticker}

	for _, metric := range metrics {
		mappings, err := e.store.MappingsForMetric(ctx, metric.MetricID)
		if err != nil {
			return nil, fmt.Errorf("load mappings for %s: %w", metric.MetricID, err)
		}

		perYear, sourceConcept, sourceAccession, confidence, err := e.resolveByPriority(ctx, cik, mappings)
		if err != nil {
			return nil, err
		}

		for fiscalYear, fact := range perYear {
			n := model.NormalizedFinancial{
				CompanyTicker:   ticker,
				FiscalYear:      fiscalYear,
				MetricID:        metric.MetricID,
				Value:           fact.Value.Numeric,
				SourceConcept:   sourceConcept[fiscalYear],
				SourceAccession: sourceAccession[fiscalYear],
				Confidence:      confidence[fiscalYear],
			}

			existing, err := e.store.Existing(ctx, ticker, fiscalYear, nil, metric.MetricID)
			if err == nil && existing != nil && existing.Confidence > n.Confidence {
				result.MetricsSkipped++
				log.Debug().Str("metric", metric.MetricID).Str("ticker", ticker).Int("fiscal_year", fiscalYear).
					Msg("skipping lower-confidence normalization")
				continue
			}

			if err := e.store.Upsert(ctx, n); err != nil {
				return nil, fmt.Errorf("upsert normalized metric %s: %w", metric.MetricID, err)
			}
			result.MetricsSet++
		}
	}

	return result, nil
}

// resolveByPriority walks a metric's concept mappings in the order given
// and, for each fiscal year, keeps the numeric fact of the first concept
// that reported one for that year, so a lower-priority concept fills
// only the years the higher-priority ones lack.
func (e *Engine) resolveByPriority(ctx context.Context, cik string, mappings []model.ConceptMapping) (
	perYear map[int]model.Fact, sourceConcept, sourceAccession map[int]string, confidence map[int]float64, err error,
) {
	perYear = make(map[int]model.Fact)
	sourceConcept = make(map[int]string)
	sourceAccession = make(map[int]string)
	confidence = make(map[int]float64)

	for _, mapping := range mappings {
		facts, err := e.store.LatestFactsPerFiscalYear(ctx, cik, mapping.ConceptName)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("latest facts for %s: %w", mapping.ConceptName, err)
		}

		for _, f := range facts {
			if f.Value.Kind != model.ValueNumeric {
				continue
			}
			fiscalYear := f.PeriodEnd.Year()
			if _, already := perYear[fiscalYear]; already {
				continue // a higher-priority concept already won this year
			}
			perYear[fiscalYear] = f
			sourceConcept[fiscalYear] = mapping.ConceptName
			sourceAccession[fiscalYear] = f.AccessionNumber
			confidence[fiscalYear] = mapping.Confidence
		}
	}

	return perYear, sourceConcept, sourceAccession, confidence, nil
}

// RemoveDuplicates deletes lower-confidence duplicate normalized rows,
// keeping the highest-confidence record per
// (ticker, fiscal_year, fiscal_quarter, metric_id) tuple.
func (e *Engine) RemoveDuplicates(ctx context.Context, dryRun bool) (int, error) {
	return e.store.RemoveDuplicates(ctx, dryRun)
}
