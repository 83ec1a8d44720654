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
package graph

import (
	"context"
	"fmt"

	"github.com/penny-vault/pvdata/internal/model"
)

// ImportSectionEntities writes one section's ORG, METRIC and GPE
// pattern/gazetteer mentions as Mention nodes (the entity type is kept
// in their label property) linked from the section node by a single
// MENTIONS relationship type, and — when an LLM extraction is present —
// the structured HAS_EXECUTIVE and DISCLOSES_RISK relationships from the
// filing node. Mention names, and executive names, are merged via fuzzy
// token-set matching before any Cypher runs.
func (b *Builder) ImportSectionEntities(ctx context.Context, accessionNumber string, se model.SectionEntities) error {
	known := make(map[string]string)

	mentionRows := make([]map[string]any, 0, len(se.RawEntities))
	for _, e := range se.RawEntities {
		switch e.Type {
		case "ORG", "METRIC", "GPE":
			canonical := resolveEntity(known, e.Text)
			mentionRows = append(mentionRows, map[string]any{"label": e.Type, "name": canonical})
		}
	}

	for _, r := range batchRanges(len(mentionRows), b.batchSize) {
		batch := mentionRows[r[0]:r[1]]
		err := b.run(ctx, `
			MATCH (s:Section {accession_number: $accession, section_type: $sectionType})
			UNWIND $rows AS row
			MERGE (e:Mention {label: row.label, name: row.name})
			MERGE (s)-[:MENTIONS]->(e)`,
			map[string]any{"accession": accessionNumber, "sectionType": se.SectionType, "rows": batch})
		if err != nil {
			return fmt.Errorf("import mentions: %w", err)
		}
	}

	if se.LLMExtraction == nil {
		return nil
	}
	if err := b.importExecutives(ctx, accessionNumber, se.LLMExtraction.People); err != nil {
		return err
	}
	return b.importRiskFactors(ctx, accessionNumber, se.LLMExtraction.RiskFactors)
}

func (b *Builder) importExecutives(ctx context.Context, accessionNumber string, people []model.Executive) error {
	known := make(map[string]string)
	rows := make([]map[string]any, len(people))
	for i, p := range people {
		rows[i] = map[string]any{"name": resolveEntity(known, p.Name), "role": p.Role, "startDate": p.StartDate}
	}

	for _, r := range batchRanges(len(rows), b.batchSize) {
		batch := rows[r[0]:r[1]]
		err := b.run(ctx, `
			MATCH (f:Filing {accession_number: $accession})
			UNWIND $rows AS row
			MERGE (p:Person {name: row.name})
			MERGE (f)-[rel:HAS_EXECUTIVE]->(p)
			SET rel.role = row.role, rel.start_date = row.startDate`,
			map[string]any{"accession": accessionNumber, "rows": batch})
		if err != nil {
			return fmt.Errorf("import executives: %w", err)
		}
	}
	return nil
}

func (b *Builder) importRiskFactors(ctx context.Context, accessionNumber string, risks []model.RiskFactor) error {
	rows := make([]map[string]any, len(risks))
	for i, r := range risks {
		rows[i] = map[string]any{"category": r.Category, "severity": r.Severity, "description": r.Description}
	}

	for _, r := range batchRanges(len(rows), b.batchSize) {
		batch := rows[r[0]:r[1]]
		err := b.run(ctx, `
			MATCH (f:Filing {accession_number: $accession})
			UNWIND $rows AS row
			CREATE (rf:RiskFactor {category: row.category, severity: row.severity, description: row.description})
			MERGE (f)-[:DISCLOSES_RISK]->(rf)`,
			map[string]any{"accession": accessionNumber, "rows": batch})
		if err != nil {
			return fmt.Errorf("import risk factors: %w", err)
		}
	}
	return nil
}
