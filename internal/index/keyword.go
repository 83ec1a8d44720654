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
package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/penny-vault/pvdata/internal/model"
)

const keywordBatchSize = 1000

// keywordDoc is the flattened document bleve indexes, keyed by chunk_id.
type keywordDoc struct {
	Content      string `json:"content"`
	SectionTitle string `json:"section_title"`
	CompanyName  string `json:"company_name"`
	Ticker       string `json:"ticker"`
	SectionItem  string `json:"section_item"`
	FilingDate   string `json:"filing_date"`
}

// KeywordIndex is a Bleve full-text index over {content, section_title,
// company_name, ticker}, filterable on {ticker, section_item,
// company_name}. filing_date is stored on each document but is not a
// search filter.
type KeywordIndex struct {
	index bleve.Index
}

// OpenKeywordIndex opens an existing index at path, or creates one with a
// default text-analysis mapping if none exists yet.
func OpenKeywordIndex(path string) (*KeywordIndex, error) {
	idx, err := bleve.Open(path)
	if err == nil {
		return &KeywordIndex{index: idx}, nil
	}

	mapping := bleve.NewIndexMapping()
	idx, err = bleve.New(path, mapping)
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &KeywordIndex{index: idx}, nil
}

// IndexBatch adds chunks to the index in batches of keywordBatchSize.
func (k *KeywordIndex) IndexBatch(chunks []model.Chunk) error {
	for start := 0; start < len(chunks); start += keywordBatchSize {
		end := start + keywordBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := k.index.NewBatch()
		for _, c := range chunks[start:end] {
			doc := keywordDoc{
				Content:      c.Text,
				SectionTitle: c.SectionTitle,
				CompanyName:  c.CompanyName,
				Ticker:       c.Ticker,
				SectionItem:  c.SectionItem,
				FilingDate:   c.FilingDate.Format("2006-01-02"),
			}
			if err := batch.Index(c.ChunkID, doc); err != nil {
				return fmt.Errorf("batch chunk %s: %w", c.ChunkID, err)
			}
		}
		if err := k.index.Batch(batch); err != nil {
			return fmt.Errorf("index batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// Filters constrains a keyword search to an exact ticker/section/company.
type Filters struct {
	Ticker      string
	SectionItem string
	CompanyName string
}

// Search runs a full-text match query over content/section_title/
// company_name/ticker, optionally narrowed by exact-match filters.
func (k *KeywordIndex) Search(queryText string, topK int, filters Filters) ([]Result, error) {
	textQuery := bleve.NewMatchQuery(queryText)

	var conjuncts []query.Query
	conjuncts = append(conjuncts, textQuery)
	if filters.Ticker != "" {
		mq := bleve.NewMatchQuery(filters.Ticker)
		mq.SetField("ticker")
		conjuncts = append(conjuncts, mq)
	}
	if filters.SectionItem != "" {
		tq := bleve.NewTermQuery(filters.SectionItem)
		tq.SetField("section_item")
		conjuncts = append(conjuncts, tq)
	}
	if filters.CompanyName != "" {
		pq := bleve.NewMatchPhraseQuery(filters.CompanyName)
		pq.SetField("company_name")
		conjuncts = append(conjuncts, pq)
	}

	q := query.NewConjunctionQuery(conjuncts)
	req := bleve.NewSearchRequest(q)
	req.Size = topK
	req.Fields = []string{"content", "section_title", "company_name", "ticker", "section_item"}

	resp, err := k.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, Result{
			Content: fieldString(hit.Fields, "content"),
			Score:   hit.Score,
			Metadata: model.RetrievedResultMeta{
				ChunkID:      hit.ID,
				Ticker:       fieldString(hit.Fields, "ticker"),
				CompanyName:  fieldString(hit.Fields, "company_name"),
				SectionItem:  fieldString(hit.Fields, "section_item"),
				SectionTitle: fieldString(hit.Fields, "section_title"),
			},
		})
	}
	return results, nil
}

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// Close releases the underlying Bleve index.
func (k *KeywordIndex) Close() error { return k.index.Close() }
