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
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyticsRepo answers the pipeline's own coarse progress questions,
// the same shape as the teacher's Library.TotalRecords/LastUpdated pair.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

// TotalFilings returns the count of filings on record.
func (r *AnalyticsRepo) TotalFilings(ctx context.Context) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int
	err = conn.QueryRow(ctx, `SELECT count(*) FROM filings`).Scan(&count)
	return count, err
}

// TotalFacts returns the count of XBRL facts on record.
func (r *AnalyticsRepo) TotalFacts(ctx context.Context) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int
	err = conn.QueryRow(ctx, `SELECT count(*) FROM facts`).Scan(&count)
	return count, err
}

// LastIngested returns the most recent filing_date on record.
func (r *AnalyticsRepo) LastIngested(ctx context.Context) (time.Time, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer conn.Release()

	var last time.Time
	err = conn.QueryRow(ctx, `SELECT coalesce(max(filing_date), '0001-01-01'::date) FROM filings`).Scan(&last)
	return last, err
}

// CoverageByCompany returns, for each company, how many filings and
// facts have been ingested.
type CompanyCoverage struct {
	CIK         string `db:"cik"`
	Ticker      string `db:"ticker"`
	FilingCount int    `db:"filing_count"`
	FactCount   int    `db:"fact_count"`
}

func (r *AnalyticsRepo) CoverageByCompany(ctx context.Context) ([]CompanyCoverage, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT c.cik, c.ticker,
			count(DISTINCT fl.accession_number) AS filing_count,
			count(f.id) AS fact_count
		FROM companies c
		LEFT JOIN filings fl ON fl.cik = c.cik
		LEFT JOIN facts f ON f.accession_number = fl.accession_number
		GROUP BY c.cik, c.ticker
		ORDER BY c.cik`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coverage []CompanyCoverage
	for rows.Next() {
		var c CompanyCoverage
		if err := rows.Scan(&c.CIK, &c.Ticker, &c.FilingCount, &c.FactCount); err != nil {
			return nil, err
		}
		coverage = append(coverage, c)
	}
	return coverage, rows.Err()
}
