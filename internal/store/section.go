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

// SectionRepo persists extracted 10-K Item sections.
type SectionRepo struct {
	pool *pgxpool.Pool
}

// Upsert stores or replaces one filing's section.
func (r *SectionRepo) Upsert(ctx context.Context, s model.Section) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		INSERT INTO sections (accession_number, section_type, title, content_text, content_html,
			content_markdown, word_count, char_count, paragraph_count, confidence, part,
			table_count, list_count, footnote_count, extraction_quality)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (accession_number, section_type) DO UPDATE SET
			title = EXCLUDED.title,
			content_text = EXCLUDED.content_text,
			content_html = EXCLUDED.content_html,
			content_markdown = EXCLUDED.content_markdown,
			word_count = EXCLUDED.word_count,
			char_count = EXCLUDED.char_count,
			paragraph_count = EXCLUDED.paragraph_count,
			confidence = EXCLUDED.confidence,
			table_count = EXCLUDED.table_count,
			list_count = EXCLUDED.list_count,
			footnote_count = EXCLUDED.footnote_count,
			extraction_quality = EXCLUDED.extraction_quality`,
		s.AccessionNumber, s.SectionType, s.Title, s.ContentText, s.ContentHTML,
		s.ContentMarkdown, s.WordCount, s.CharCount, s.ParagraphCount, s.Confidence, s.Part,
		s.TableCount, s.ListCount, s.FootnoteCount, s.ExtractionQuality)
	return err
}

// ByAccession returns every section extracted for one filing.
func (r *SectionRepo) ByAccession(ctx context.Context, accessionNumber string) ([]model.Section, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var sections []model.Section
	err = pgxscan.Select(ctx, conn, &sections,
		`SELECT * FROM sections WHERE accession_number = $1 ORDER BY section_type`, accessionNumber)
	return sections, err
}

// Get returns one (accession_number, section_type) section.
func (r *SectionRepo) Get(ctx context.Context, accessionNumber, sectionType string) (*model.Section, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var s model.Section
	err = pgxscan.Get(ctx, conn, &s,
		`SELECT * FROM sections WHERE accession_number = $1 AND section_type = $2`, accessionNumber, sectionType)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
