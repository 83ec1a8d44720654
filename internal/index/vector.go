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

// Package index holds the two search backends behind the pipeline's
// uniform Search interface: a Qdrant-backed dense vector index and a
// Bleve-backed full-text keyword index.
package index

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/penny-vault/pvdata/internal/model"
	"github.com/qdrant/go-client/qdrant"
)

// Result is the uniform shape every index backend returns.
type Result struct {
	Content  string
	Score    float64
	Metadata model.RetrievedResultMeta
}

// VectorIndex wraps a single Qdrant collection holding one fixed-size,
// cosine-distance vector per chunk.
type VectorIndex struct {
	client         *qdrant.Client
	collectionName string
	dimensions     int
}

// NewVectorIndex dials Qdrant at host:port. The collection itself is
// created lazily by EnsureCollection.
func NewVectorIndex(host string, port int, collectionName string, dimensions int) (*VectorIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &VectorIndex{client: client, collectionName: collectionName, dimensions: dimensions}, nil
}

// EnsureCollection creates the collection with a fixed vector size and
// cosine distance if it does not already exist.
func (v *VectorIndex) EnsureCollection(ctx context.Context) error {
	exists, err := v.client.CollectionExists(ctx, v.collectionName)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	return v.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: v.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(v.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// pointID hashes a chunk_id into a stable 64-bit numeric point ID;
// the original chunk_id is also stored in the payload for reverse lookup.
func pointID(chunkID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(chunkID))
	return h.Sum64()
}

// Upsert writes one chunk's embedding and payload. Idempotent: the same
// chunk_id always hashes to the same point ID, so re-upserting overwrites.
func (v *VectorIndex) Upsert(ctx context.Context, c model.Chunk, embedding []float32, contextPrefix string) error {
	payload := map[string]any{
		"chunk_id":         c.ChunkID,
		"content":          c.Text,
		"accession_number": c.AccessionNumber,
		"ticker":           c.Ticker,
		"company_name":     c.CompanyName,
		"filing_date":      c.FilingDate.Format("2006-01-02"),
		"form_type":        c.FormType,
		"section_item":     c.SectionItem,
		"section_title":    c.SectionTitle,
		"chunk_index":      int64(c.ChunkIndex),
		"token_count":      int64(c.TokenCount),
		"contains_tables":  c.ContainsTables,
		"contains_lists":   c.ContainsLists,
		"contains_numbers": c.ContainsNumbers,
		"context_prefix":   contextPrefix,
	}

	_, err := v.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: v.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(pointID(c.ChunkID)),
				Vectors: qdrant.NewVectors(embedding...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	return err
}

// Search runs a dense-vector similarity query, optionally constrained by
// an exact-match payload filter (ticker, section_item, ...).
func (v *VectorIndex) Search(ctx context.Context, queryVector []float32, topK int, filters map[string]string) ([]Result, error) {
	var filter *qdrant.Filter
	if len(filters) > 0 {
		var conditions []*qdrant.Condition
		for k, val := range filters {
			conditions = append(conditions, qdrant.NewMatch(k, val))
		}
		filter = &qdrant.Filter{Must: conditions}
	}

	limit := uint64(topK)
	resp, err := v.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: v.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Filter:         filter,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	results := make([]Result, 0, len(resp))
	for _, point := range resp {
		payload := point.GetPayload()
		results = append(results, Result{
			Content: payload["content"].GetStringValue(),
			Score:   float64(point.GetScore()),
			Metadata: model.RetrievedResultMeta{
				ChunkID:      payload["chunk_id"].GetStringValue(),
				Ticker:       payload["ticker"].GetStringValue(),
				CompanyName:  payload["company_name"].GetStringValue(),
				SectionItem:  payload["section_item"].GetStringValue(),
				SectionTitle: payload["section_title"].GetStringValue(),
			},
		})
	}
	return results, nil
}
