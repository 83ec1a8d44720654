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
package store

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvdata/internal/model"
)

// NormalizationRepo resolves concept mappings and persists the final
// normalized financial metrics, scoped to Postgres's own MVCC for
// concurrency safety across companies processed in parallel.
type NormalizationRepo struct {
	pool *pgxpool.Pool
}

// MappingsForMetric returns every candidate concept mapping for a metric,
// ordered by priority (ascending, lower wins) so the caller can pick the
// first concept present in a filing's facts.
func (r *NormalizationRepo) MappingsForMetric(ctx context.Context, metricID string) ([]model.ConceptMapping, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var mappings []model.ConceptMapping
	err = pgxscan.Select(ctx, conn, &mappings,
		`SELECT * FROM concept_mappings WHERE metric_id = $1 ORDER BY priority ASC`, metricID)
	return mappings, err
}

// AllMetrics returns every standardized metric definition.
func (r *NormalizationRepo) AllMetrics(ctx context.Context) ([]model.StandardizedMetric, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var metrics []model.StandardizedMetric
	err = pgxscan.Select(ctx, conn, &metrics, `SELECT * FROM standardized_metrics ORDER BY metric_id`)
	return metrics, err
}

// LatestFactsPerFiscalYear returns, for one company and concept, the
// single fact with the latest period_end within each distinct fiscal
// year — the Go equivalent of the original's
// "latest filing per fiscal year" windowed SQL query, expressed here as
// a DISTINCT ON so Postgres does the selection server-side.
func (r *NormalizationRepo) LatestFactsPerFiscalYear(ctx context.Context, cik, conceptName string) ([]model.Fact, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var rows []factRow
	err = pgxscan.Select(ctx, conn, &rows, `
		SELECT DISTINCT ON (EXTRACT(YEAR FROM f.period_end))
			f.id, f.accession_number, f.namespace, f.local_name, f.concept_name, f.value_numeric,
			f.value_text, f.unit, f.decimals, f.period_type, f.period_start, f.period_end, f.is_custom,
			f.section, f.parent_concept, f.depth, f.label
		FROM facts f
		JOIN filings fl ON fl.accession_number = f.accession_number
		WHERE fl.cik = $1 AND f.concept_name = $2
		ORDER BY EXTRACT(YEAR FROM f.period_end), f.period_end DESC`, cik, conceptName)
	if err != nil {
		return nil, err
	}

	facts := make([]model.Fact, len(rows))
	for i, row := range rows {
		facts[i] = row.toFact()
	}
	return facts, nil
}

// Upsert writes or replaces one normalized financial value, subject to
// the rule that a new write only overwrites an existing row when its
// confidence is not lower (applied by the caller before invoking this;
// the ON CONFLICT here unconditionally replaces since the confidence
// comparison is the normalization engine's responsibility, not the
// store's).
func (r *NormalizationRepo) Upsert(ctx context.Context, n model.NormalizedFinancial) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		INSERT INTO normalized_financials (company_ticker, fiscal_year, fiscal_quarter, metric_id,
			value, source_concept, source_accession, confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (company_ticker, fiscal_year, fiscal_quarter, metric_id) DO UPDATE SET
			value = EXCLUDED.value,
			source_concept = EXCLUDED.source_concept,
			source_accession = EXCLUDED.source_accession,
			confidence = EXCLUDED.confidence`,
		n.CompanyTicker, n.FiscalYear, n.FiscalQuarter, n.MetricID,
		n.Value, n.SourceConcept, n.SourceAccession, n.Confidence)
	return err
}

// Existing fetches the current row for a tuple, if any, so the
// normalization engine can compare confidence before overwriting.
func (r *NormalizationRepo) Existing(ctx context.Context, ticker string, fiscalYear int, fiscalQuarter *int, metricID string) (*model.NormalizedFinancial, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var n model.NormalizedFinancial
	err = pgxscan.Get(ctx, conn, &n, `
		SELECT * FROM normalized_financials
		WHERE company_ticker = $1 AND fiscal_year = $2
			AND fiscal_quarter IS NOT DISTINCT FROM $3 AND metric_id = $4`,
		ticker, fiscalYear, fiscalQuarter, metricID)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ForTicker returns every normalized metric recorded for a ticker.
func (r *NormalizationRepo) ForTicker(ctx context.Context, ticker string) ([]model.NormalizedFinancial, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var rows []model.NormalizedFinancial
	err = pgxscan.Select(ctx, conn, &rows,
		`SELECT * FROM normalized_financials WHERE company_ticker = $1 ORDER BY fiscal_year DESC, metric_id`, ticker)
	return rows, err
}

// RemoveDuplicates deletes all but the highest-confidence row for every
// (company_ticker, fiscal_year, fiscal_quarter, metric_id) tuple, the
// store-side half of the normalization engine's duplicate-removal pass.
// dryRun reports the count that would be removed without deleting.
func (r *NormalizationRepo) RemoveDuplicates(ctx context.Context, dryRun bool) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	const findDupes = `
		SELECT id FROM (
			SELECT id, ROW_NUMBER() OVER (
				PARTITION BY company_ticker, fiscal_year, fiscal_quarter, metric_id
				ORDER BY confidence DESC, created_at DESC, id DESC
			) AS rn
			FROM normalized_financials
		) ranked WHERE rn > 1`

	if dryRun {
		var ids []int64
		if err := pgxscan.Select(ctx, conn, &ids, findDupes); err != nil {
			return 0, err
		}
		return len(ids), nil
	}

	tag, err := conn.Exec(ctx, `DELETE FROM normalized_financials WHERE id IN (`+findDupes+`)`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
