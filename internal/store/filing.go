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

// FilingRepo persists per-filing lifecycle state.
type FilingRepo struct {
	pool *pgxpool.Pool
}

// Upsert inserts or refreshes a filing's metadata.
func (r *FilingRepo) Upsert(ctx context.Context, f model.Filing) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		INSERT INTO filings (accession_number, cik, form_type, filing_date, period_of_report,
			acceptance_datetime, primary_document, is_xbrl, is_inline_xbrl, local_path,
			download_status, xbrl_processed, sections_processed, full_markdown)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (accession_number) DO UPDATE SET
			local_path = EXCLUDED.local_path,
			download_status = EXCLUDED.download_status,
			xbrl_processed = EXCLUDED.xbrl_processed,
			sections_processed = EXCLUDED.sections_processed,
			full_markdown = EXCLUDED.full_markdown`,
		f.AccessionNumber, f.CIK, f.FormType, f.FilingDate, f.PeriodOfReport,
		f.AcceptanceDateTime, f.PrimaryDocument, f.IsXBRL, f.IsInlineXBRL, f.LocalPath,
		f.DownloadStatus, f.XBRLProcessed, f.SectionsProcessed, f.FullMarkdown)
	return err
}

// MarkXBRLProcessed flags a filing's facts as imported.
func (r *FilingRepo) MarkXBRLProcessed(ctx context.Context, accessionNumber string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `UPDATE filings SET xbrl_processed = TRUE WHERE accession_number = $1`, accessionNumber)
	return err
}

// MarkSectionsProcessed flags a filing's sections as extracted.
func (r *FilingRepo) MarkSectionsProcessed(ctx context.Context, accessionNumber string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `UPDATE filings SET sections_processed = TRUE WHERE accession_number = $1`, accessionNumber)
	return err
}

// ByCompany returns every filing on record for a CIK, most recent first.
func (r *FilingRepo) ByCompany(ctx context.Context, cik string) ([]model.Filing, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var filings []model.Filing
	err = pgxscan.Select(ctx, conn, &filings,
		`SELECT * FROM filings WHERE cik = $1 ORDER BY filing_date DESC`, cik)
	return filings, err
}

// PendingXBRL returns filings downloaded but not yet fact-imported.
func (r *FilingRepo) PendingXBRL(ctx context.Context, limit int) ([]model.Filing, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var filings []model.Filing
	err = pgxscan.Select(ctx, conn, &filings,
		`SELECT * FROM filings WHERE download_status = 'completed' AND xbrl_processed = FALSE
		 ORDER BY filing_date LIMIT $1`, limit)
	return filings, err
}
