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

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/penny-vault/pvdata/internal/index"
	"github.com/penny-vault/pvdata/internal/model"
)

// RiskFactorsForTicker implements retrieval.GraphSearch, satisfying the
// hybrid search stage's per-entity graph allocation (the largest of the
// three graph categories).
func (b *Builder) RiskFactorsForTicker(ctx context.Context, ticker string, limit int) ([]index.Result, error) {
	return b.queryEntityRows(ctx, ticker, limit, `
		MATCH (c:Company {ticker: $ticker})-[:FILED]->(f:Filing)-[:DISCLOSES_RISK]->(rf:RiskFactor)
		RETURN rf.description AS content, f.accession_number AS accession, f.filing_date AS filingDate
		ORDER BY rf.severity DESC
		LIMIT $limit`)
}

// CommunitySummariesForTicker returns the company's filing community
// summaries, the secondary graph allocation.
func (b *Builder) CommunitySummariesForTicker(ctx context.Context, ticker string, limit int) ([]index.Result, error) {
	return b.queryEntityRows(ctx, ticker, limit, `
		MATCH (c:Company {ticker: $ticker})
		WHERE c.community_summary IS NOT NULL
		RETURN c.community_summary AS content, '' AS accession, '' AS filingDate
		LIMIT $limit`)
}

// ExecutivesForTicker returns the company's disclosed executives, the
// smallest guaranteed graph allocation.
func (b *Builder) ExecutivesForTicker(ctx context.Context, ticker string, limit int) ([]index.Result, error) {
	return b.queryEntityRows(ctx, ticker, limit, `
		MATCH (c:Company {ticker: $ticker})-[:FILED]->(f:Filing)-[rel:HAS_EXECUTIVE]->(p:Person)
		RETURN p.name + ' - ' + coalesce(rel.role, '') AS content, f.accession_number AS accession, f.filing_date AS filingDate
		LIMIT $limit`)
}

func (b *Builder) queryEntityRows(ctx context.Context, ticker string, limit int, cypher string) ([]index.Result, error) {
	session := b.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"ticker": ticker, "limit": limit})
		if err != nil {
			return nil, err
		}

		var rows []index.Result
		for res.Next(ctx) {
			rec := res.Record()
			content, _ := rec.Get("content")
			contentStr, _ := content.(string)
			if contentStr == "" {
				continue
			}
			rows = append(rows, index.Result{
				Content: contentStr,
				Score:   1.0,
				Metadata: model.RetrievedResultMeta{
					Ticker: ticker,
				},
			})
		}
		return rows, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query entity rows: %w", err)
	}
	return result.([]index.Result), nil
}
