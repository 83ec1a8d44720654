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

import "context"

// Searcher is the uniform shape both backends expose via their adapters
// below, letting the hybrid search stage in the retrieval core treat
// vector and keyword results identically.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filters map[string]string) ([]Result, error)
}

// embedFunc converts query text into the same vector space as the index,
// supplied by the caller so this package doesn't depend on internal/chunk.
type embedFunc func(ctx context.Context, text string) ([]float32, error)

// VectorSearcher adapts VectorIndex to Searcher by embedding the query
// text before delegating to the collection search.
type VectorSearcher struct {
	Index *VectorIndex
	Embed embedFunc
}

func NewVectorSearcher(idx *VectorIndex, embed func(ctx context.Context, text string) ([]float32, error)) *VectorSearcher {
	return &VectorSearcher{Index: idx, Embed: embed}
}

func (s *VectorSearcher) Search(ctx context.Context, query string, topK int, filters map[string]string) ([]Result, error) {
	vector, err := s.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Index.Search(ctx, vector, topK, filters)
}

// KeywordSearcher adapts KeywordIndex to Searcher, translating the
// generic filter map into the index's typed Filters.
type KeywordSearcher struct {
	Index *KeywordIndex
}

func NewKeywordSearcher(idx *KeywordIndex) *KeywordSearcher {
	return &KeywordSearcher{Index: idx}
}

func (s *KeywordSearcher) Search(_ context.Context, query string, topK int, filters map[string]string) ([]Result, error) {
	return s.Index.Search(query, topK, Filters{
		Ticker:      filters["ticker"],
		SectionItem: filters["section_item"],
		CompanyName: filters["company_name"],
	})
}
