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

// Package graph builds and queries the property-graph knowledge base:
// Company, Filing, Section, FinancialMetric, Person, RiskFactor and
// Mention nodes connected by FILED, HAS_SECTION, REPORTS_METRIC,
// HAS_EXECUTIVE, DISCLOSES_RISK and MENTIONS relationships, plus Leiden
// community detection and LLM summarization over the result. No
// BusinessSegment or Event nodes are created.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/rs/zerolog/log"
)

const defaultBatchSize = 500

// Builder issues parameterized Cypher against one Neo4j database, with
// each exported method opening and closing its own session — the same
// "each worker owns its own store session" pattern the pipeline's other
// stores follow (one pool-acquire per call).
type Builder struct {
	driver    neo4j.DriverWithContext
	database  string
	batchSize int
}

// New dials Neo4j at uri with basic auth. Call Close when done.
func New(uri, username, password, database string) (*Builder, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	return &Builder{driver: driver, database: database, batchSize: defaultBatchSize}, nil
}

func (b *Builder) Close(ctx context.Context) error { return b.driver.Close(ctx) }

func (b *Builder) session(ctx context.Context) neo4j.SessionWithContext {
	return b.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: b.database})
}

func (b *Builder) run(ctx context.Context, cypher string, params map[string]any) error {
	session := b.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypher, params)
	})
	return err
}

// Bootstrap creates uniqueness constraints on Company.cik and
// Filing.accession_number, plus non-unique indexes on commonly queried
// properties. Idempotent: every statement uses IF NOT EXISTS.
func (b *Builder) Bootstrap(ctx context.Context) error {
	statements := []string{
		`CREATE CONSTRAINT company_cik IF NOT EXISTS FOR (c:Company) REQUIRE c.cik IS UNIQUE`,
		`CREATE CONSTRAINT filing_accession IF NOT EXISTS FOR (f:Filing) REQUIRE f.accession_number IS UNIQUE`,
		`CREATE INDEX company_ticker IF NOT EXISTS FOR (c:Company) ON (c.ticker)`,
		`CREATE INDEX person_name IF NOT EXISTS FOR (p:Person) ON (p.name)`,
		`CREATE INDEX section_type IF NOT EXISTS FOR (s:Section) ON (s.section_type)`,
		`CREATE INDEX metric_concept IF NOT EXISTS FOR (m:FinancialMetric) ON (m.concept)`,
		`CREATE INDEX filing_date IF NOT EXISTS FOR (f:Filing) ON (f.filing_date)`,
	}
	for _, stmt := range statements {
		if err := b.run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

// UpsertCompany creates or matches a Company node by CIK.
func (b *Builder) UpsertCompany(ctx context.Context, cik, ticker, name string) error {
	return b.run(ctx, `
		MERGE (c:Company {cik: $cik})
		SET c.ticker = $ticker, c.name = $name`,
		map[string]any{"cik": cik, "ticker": ticker, "name": name})
}

// UpsertFiling creates or matches a Filing node and links it to its
// Company with FILED.
func (b *Builder) UpsertFiling(ctx context.Context, cik, accessionNumber, formType string, filingDate time.Time, fiscalYear int) error {
	return b.run(ctx, `
		MATCH (c:Company {cik: $cik})
		MERGE (f:Filing {accession_number: $accession})
		SET f.form_type = $formType, f.filing_date = $filingDate, f.fiscal_year = $fiscalYear
		MERGE (c)-[:FILED]->(f)`,
		map[string]any{
			"cik": cik, "accession": accessionNumber, "formType": formType,
			"filingDate": filingDate.Format("2006-01-02"), "fiscalYear": fiscalYear,
		})
}

// UpsertSection creates or matches a Section node and links it to its
// Filing with HAS_SECTION.
func (b *Builder) UpsertSection(ctx context.Context, accessionNumber, sectionType, title string) error {
	return b.run(ctx, `
		MATCH (f:Filing {accession_number: $accession})
		MERGE (s:Section {accession_number: $accession, section_type: $sectionType})
		SET s.title = $title
		MERGE (f)-[:HAS_SECTION]->(s)`,
		map[string]any{"accession": accessionNumber, "sectionType": sectionType, "title": title})
}

// batchRanges splits n items into [start, end) ranges of at most size.
func batchRanges(n, size int) [][2]int {
	var ranges [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// ImportFacts writes (Filing)-[:REPORTS_METRIC]->(FinancialMetric) edges
// in batches. When keyConceptsOnly is true, only the standard key concept
// set is imported; otherwise every fact is.
func (b *Builder) ImportFacts(ctx context.Context, accessionNumber string, facts []model.Fact, keyConceptsOnly bool) error {
	filtered := facts
	if keyConceptsOnly {
		filtered = filtered[:0]
		for _, f := range facts {
			if keyConcepts[f.ConceptName] {
				filtered = append(filtered, f)
			}
		}
	}

	for _, r := range batchRanges(len(filtered), b.batchSize) {
		batch := filtered[r[0]:r[1]]
		rows := make([]map[string]any, len(batch))
		for i, f := range batch {
			rows[i] = map[string]any{
				"concept":     f.ConceptName,
				"value":       f.Value.Numeric,
				"unit":        f.Unit,
				"periodStart": formatDate(f.PeriodStart),
				"periodEnd":   formatDate(f.PeriodEnd),
			}
		}

		err := b.run(ctx, `
			MATCH (f:Filing {accession_number: $accession})
			UNWIND $rows AS row
			MERGE (m:FinancialMetric {accession_number: $accession, concept: row.concept, period_end: row.periodEnd})
			SET m.value = row.value, m.unit = row.unit, m.period_start = row.periodStart
			MERGE (f)-[:REPORTS_METRIC]->(m)`,
			map[string]any{"accession": accessionNumber, "rows": rows})
		if err != nil {
			return fmt.Errorf("import facts batch: %w", err)
		}
	}

	log.Debug().Str("accession", accessionNumber).Int("facts", len(filtered)).Msg("imported facts into graph")
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// keyConcepts are the standard XBRL concepts the graph always imports
// when ImportFacts is called with keyConceptsOnly.
var keyConcepts = map[string]bool{
	"us-gaap:Revenues": true,
	"us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax": true,
	"us-gaap:NetIncomeLoss":                         true,
	"us-gaap:Assets":                                true,
	"us-gaap:Liabilities":                           true,
	"us-gaap:StockholdersEquity":                    true,
	"us-gaap:EarningsPerShareBasic":                 true,
	"us-gaap:EarningsPerShareDiluted":               true,
	"us-gaap:OperatingIncomeLoss":                   true,
	"us-gaap:CashAndCashEquivalentsAtCarryingValue": true,
}
