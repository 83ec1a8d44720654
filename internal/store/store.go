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

// Package store persists companies, filings, XBRL facts, concept
// categories, extracted sections, and normalized financials to Postgres,
// behind a set
// of small per-entity repository facades sharing one connection pool.
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store holds the shared pool and exposes one repository per entity.
type Store struct {
	Pool *pgxpool.Pool

	Companies     *CompanyRepo
	Filings       *FilingRepo
	Facts         *FactRepo
	Concepts      *ConceptCategoryRepo
	Sections      *SectionRepo
	Normalization *NormalizationRepo
	Analytics     *AnalyticsRepo
}

// Open connects to Postgres and wires every repository against the pool.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	s := &Store{Pool: pool}
	s.Companies = &CompanyRepo{pool: pool}
	s.Filings = &FilingRepo{pool: pool}
	s.Facts = &FactRepo{pool: pool}
	s.Concepts = &ConceptCategoryRepo{pool: pool}
	s.Sections = &SectionRepo{pool: pool}
	s.Normalization = &NormalizationRepo{pool: pool}
	s.Analytics = &AnalyticsRepo{pool: pool}
	return s, nil
}

// Close releases the pool's connections.
func (s *Store) Close() {
	s.Pool.Close()
}
