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

// CompanyRepo persists the company roster.
type CompanyRepo struct {
	pool *pgxpool.Pool
}

// Upsert inserts or refreshes a company's metadata.
func (r *CompanyRepo) Upsert(ctx context.Context, c model.Company) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		INSERT INTO companies (cik, name, ticker, sic_code, sic_description, state_of_incorporation, fiscal_year_end, employer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cik) DO UPDATE SET
			name = EXCLUDED.name,
			ticker = EXCLUDED.ticker,
			sic_code = EXCLUDED.sic_code,
			sic_description = EXCLUDED.sic_description,
			state_of_incorporation = EXCLUDED.state_of_incorporation,
			fiscal_year_end = EXCLUDED.fiscal_year_end,
			employer_id = EXCLUDED.employer_id`,
		c.CIK, c.Name, c.Ticker, c.SICCode, c.SICDescription, c.StateOfIncorp, c.FiscalYearEndMMDD, c.EmployerID)
	return err
}

// Get fetches a company by CIK.
func (r *CompanyRepo) Get(ctx context.Context, cik string) (*model.Company, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var c model.Company
	if err := pgxscan.Get(ctx, conn, &c, `SELECT * FROM companies WHERE cik = $1`, cik); err != nil {
		return nil, err
	}
	return &c, nil
}

// ByTicker fetches a company by ticker symbol.
func (r *CompanyRepo) ByTicker(ctx context.Context, ticker string) (*model.Company, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var c model.Company
	if err := pgxscan.Get(ctx, conn, &c, `SELECT * FROM companies WHERE ticker = $1`, ticker); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns every company in the roster.
func (r *CompanyRepo) List(ctx context.Context) ([]model.Company, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var companies []model.Company
	if err := pgxscan.Select(ctx, conn, &companies, `SELECT * FROM companies ORDER BY cik`); err != nil {
		return nil, err
	}
	return companies, nil
}
