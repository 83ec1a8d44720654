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
	"encoding/json"
	"sort"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvdata/internal/model"
)

// FactRepo persists XBRL facts. A fact's dimension map has no fixed key
// order, so it is canonicalized into a sorted "k=v|k=v" string for the
// (accession_number, concept_name, period_end, dimensions_key) uniqueness
// constraint — two facts with the same dimensions in a different map
// iteration order must still collide, not silently duplicate.
type FactRepo struct {
	pool *pgxpool.Pool
}

func dimensionsKey(dims map[string]string) string {
	if len(dims) == 0 {
		return ""
	}
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+dims[k])
	}
	return strings.Join(parts, "|")
}

// InsertBatch inserts facts for one filing, skipping rows that collide
// on the uniqueness constraint (the same fact re-parsed from a resumed
// or re-run ingestion).
func (r *FactRepo) InsertBatch(ctx context.Context, facts []model.Fact) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	inserted := 0
	for _, f := range facts {
		var numeric *float64
		var text *string
		switch f.Value.Kind {
		case model.ValueNumeric:
			v := f.Value.Numeric
			numeric = &v
		case model.ValueText:
			v := f.Value.Text
			text = &v
		}

		var dimsJSON []byte
		if len(f.Dimensions) > 0 {
			dimsJSON, _ = json.Marshal(f.Dimensions)
		}

		tag, err := conn.Exec(ctx, `
			INSERT INTO facts (accession_number, namespace, local_name, concept_name, value_numeric,
				value_text, unit, decimals, period_type, period_start, period_end, dimensions_key,
				dimensions, is_custom, section, parent_concept, depth, label)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			ON CONFLICT (accession_number, concept_name, period_end, dimensions_key) DO NOTHING`,
			f.AccessionNumber, f.Namespace, f.LocalName, f.ConceptName, numeric,
			text, f.Unit, f.Decimals, string(f.PeriodType), f.PeriodStart, f.PeriodEnd, dimensionsKey(f.Dimensions),
			dimsJSON, f.IsCustom, f.Section, f.ParentConcept, f.Depth, f.Label)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// factColumns lists every scanned column explicitly: model.Fact.Dimensions
// is tagged db:"-" (it round-trips through JSON, not a scanned column), so
// a bare SELECT * would leave scany unable to match the "dimensions" and
// "dimensions_key" columns to a struct field.
const factColumns = `id, accession_number, namespace, local_name, concept_name, value_numeric,
	value_text, unit, decimals, period_type, period_start, period_end, is_custom,
	section, parent_concept, depth, label`

type factRow struct {
	model.Fact
	ValueNumeric *float64 `db:"value_numeric"`
	ValueText    *string  `db:"value_text"`
}

func (row factRow) toFact() model.Fact {
	f := row.Fact
	switch {
	case row.ValueNumeric != nil:
		f.Value = model.NumericValue(*row.ValueNumeric)
	case row.ValueText != nil:
		f.Value = model.TextValue(*row.ValueText)
	}
	return f
}

// ByConcept returns every fact for a concept across a company's filings,
// joined through filings to scope by CIK.
func (r *FactRepo) ByConcept(ctx context.Context, cik, conceptName string) ([]model.Fact, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var rows []factRow
	err = pgxscan.Select(ctx, conn, &rows, `
		SELECT f.id, f.accession_number, f.namespace, f.local_name, f.concept_name, f.value_numeric,
			f.value_text, f.unit, f.decimals, f.period_type, f.period_start, f.period_end, f.is_custom,
			f.section, f.parent_concept, f.depth, f.label
		FROM facts f
		JOIN filings fl ON fl.accession_number = f.accession_number
		WHERE fl.cik = $1 AND f.concept_name = $2
		ORDER BY f.period_end DESC`, cik, conceptName)
	if err != nil {
		return nil, err
	}

	facts := make([]model.Fact, len(rows))
	for i, row := range rows {
		facts[i] = row.toFact()
	}
	return facts, nil
}

// ByAccession returns every fact recorded for one filing.
func (r *FactRepo) ByAccession(ctx context.Context, accessionNumber string) ([]model.Fact, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var rows []factRow
	err = pgxscan.Select(ctx, conn, &rows,
		`SELECT `+factColumns+` FROM facts WHERE accession_number = $1 ORDER BY concept_name`, accessionNumber)
	if err != nil {
		return nil, err
	}

	facts := make([]model.Fact, len(rows))
	for i, row := range rows {
		facts[i] = row.toFact()
	}
	return facts, nil
}
