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

// ConceptCategoryRepo caches linkbase-derived concept metadata so that
// later filings of the same taxonomy version don't need to re-parse the
// presentation/label linkbases to classify a concept.
type ConceptCategoryRepo struct {
	pool *pgxpool.Pool
}

// Upsert stores or refreshes one concept's cached classification.
func (r *ConceptCategoryRepo) Upsert(ctx context.Context, c model.ConceptCategory) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		INSERT INTO concept_categories (concept_name, section, parent_concept, depth, label, data_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (concept_name) DO UPDATE SET
			section = EXCLUDED.section,
			parent_concept = EXCLUDED.parent_concept,
			depth = EXCLUDED.depth,
			label = EXCLUDED.label,
			data_type = EXCLUDED.data_type`,
		c.ConceptName, c.Section, c.ParentConcept, c.Depth, c.Label, c.DataType)
	return err
}

// Get fetches a concept's cached classification, if any.
func (r *ConceptCategoryRepo) Get(ctx context.Context, conceptName string) (*model.ConceptCategory, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var c model.ConceptCategory
	if err := pgxscan.Get(ctx, conn, &c, `SELECT * FROM concept_categories WHERE concept_name = $1`, conceptName); err != nil {
		return nil, err
	}
	return &c, nil
}

// BySection returns every cached concept classified under a section.
func (r *ConceptCategoryRepo) BySection(ctx context.Context, section string) ([]model.ConceptCategory, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var concepts []model.ConceptCategory
	err = pgxscan.Select(ctx, conn, &concepts, `SELECT * FROM concept_categories WHERE section = $1`, section)
	return concepts, err
}
