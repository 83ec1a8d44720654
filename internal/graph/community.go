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
	"encoding/json"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/penny-vault/pvdata/internal/llm"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/rs/zerolog/log"
)

const leidenSeed = 42

const communitySummarySystemPrompt = `You are summarizing a community of related entities in a knowledge graph ` +
	`built from SEC 10-K filings. Given a list of member node labels/names and counts of the relationship types ` +
	`connecting them, respond with a JSON object: {"title": "...", "description": "...", "themes": ["..."], ` +
	`"time_period": "...", "companies": ["..."]}.`

// DetectCommunities projects the whole graph as undirected (GDS Leiden
// requires undirected edges) and runs Leiden with a fixed seed for
// reproducible community assignment, writing the result to a
// community_id property via gds.leiden.write.
func (b *Builder) DetectCommunities(ctx context.Context, graphName string) error {
	session := b.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `CALL gds.graph.drop($graphName, false)`, map[string]any{"graphName": graphName})
		if err != nil {
			log.Debug().Err(err).Msg("no prior gds graph projection to drop")
		}

		_, err = tx.Run(ctx, `
			CALL gds.graph.project(
				$graphName,
				'*',
				{ALL: {type: '*', orientation: 'UNDIRECTED'}}
			)`, map[string]any{"graphName": graphName})
		if err != nil {
			return nil, fmt.Errorf("project graph: %w", err)
		}

		return tx.Run(ctx, `
			CALL gds.leiden.write($graphName, {
				writeProperty: 'community_id',
				randomSeed: $seed,
				includeIntermediateCommunities: true
			})`, map[string]any{"graphName": graphName, "seed": leidenSeed})
	})
	return err
}

// CommunityMember is one node gathered for a community's summarization
// prompt.
type CommunityMember struct {
	Label string
	Name  string
}

// SummarizeCommunities gathers every community of at least minMembers
// nodes (up to 100 members each), prompts the LLM client for a typed
// summary, and persists the result as a community_summary property on
// every member node.
func (b *Builder) SummarizeCommunities(ctx context.Context, client *llm.Client, minMembers int) (int, error) {
	communityIDs, err := b.communityIDsAboveThreshold(ctx, minMembers)
	if err != nil {
		return 0, err
	}

	summarized := 0
	for _, id := range communityIDs {
		members, relCounts, err := b.communityDetail(ctx, id)
		if err != nil {
			log.Warn().Err(err).Int64("community", id).Msg("failed to gather community detail")
			continue
		}

		summary, err := b.summarizeOne(ctx, client, id, members, relCounts)
		if err != nil {
			log.Warn().Err(err).Int64("community", id).Msg("llm community summarization failed")
			continue
		}

		if err := b.persistSummary(ctx, id, summary); err != nil {
			log.Warn().Err(err).Int64("community", id).Msg("failed to persist community summary")
			continue
		}
		summarized++
	}
	return summarized, nil
}

func (b *Builder) communityIDsAboveThreshold(ctx context.Context, minMembers int) ([]int64, error) {
	session := b.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n) WHERE n.community_id IS NOT NULL
			WITH n.community_id AS community, count(*) AS members
			WHERE members >= $minMembers
			RETURN community`, map[string]any{"minMembers": minMembers})
		if err != nil {
			return nil, err
		}

		var ids []int64
		for res.Next(ctx) {
			if v, ok := res.Record().Get("community"); ok {
				if id, ok := v.(int64); ok {
					ids = append(ids, id)
				}
			}
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	return result.([]int64), nil
}

func (b *Builder) communityDetail(ctx context.Context, communityID int64) ([]CommunityMember, map[string]int, error) {
	session := b.session(ctx)
	defer session.Close(ctx)

	type detail struct {
		members   []CommunityMember
		relCounts map[string]int
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n) WHERE n.community_id = $communityID
			WITH n LIMIT 100
			OPTIONAL MATCH (n)-[r]-()
			RETURN labels(n) AS labels, coalesce(n.name, n.ticker, n.concept, n.accession_number, '') AS name, type(r) AS relType`,
			map[string]any{"communityID": communityID})
		if err != nil {
			return nil, err
		}

		d := detail{relCounts: make(map[string]int)}
		seen := make(map[string]bool)
		for res.Next(ctx) {
			rec := res.Record()
			labels, _ := rec.Get("labels")
			name, _ := rec.Get("name")
			relType, _ := rec.Get("relType")

			label := ""
			if ls, ok := labels.([]interface{}); ok && len(ls) > 0 {
				if s, ok := ls[0].(string); ok {
					label = s
				}
			}
			nameStr, _ := name.(string)
			key := label + "|" + nameStr
			if !seen[key] {
				seen[key] = true
				d.members = append(d.members, CommunityMember{Label: label, Name: nameStr})
			}
			if rt, ok := relType.(string); ok && rt != "" {
				d.relCounts[rt]++
			}
		}
		return d, res.Err()
	})
	if err != nil {
		return nil, nil, fmt.Errorf("community detail: %w", err)
	}
	d := result.(detail)
	return d.members, d.relCounts, nil
}

func (b *Builder) summarizeOne(ctx context.Context, client *llm.Client, id int64, members []CommunityMember, relCounts map[string]int) (*model.CommunitySummary, error) {
	prompt, err := json.Marshal(map[string]any{"members": members, "relationship_counts": relCounts})
	if err != nil {
		return nil, err
	}

	var summary model.CommunitySummary
	if err := client.CompleteJSON(ctx, communitySummarySystemPrompt, string(prompt), &summary); err != nil {
		return nil, err
	}
	summary.ID = fmt.Sprintf("%d", id)
	summary.MemberCount = len(members)
	return &summary, nil
}

func (b *Builder) persistSummary(ctx context.Context, communityID int64, summary *model.CommunitySummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return b.run(ctx, `
		MATCH (n) WHERE n.community_id = $communityID
		SET n.community_summary = $summary`,
		map[string]any{"communityID": communityID, "summary": string(payload)})
}
