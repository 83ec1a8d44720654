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
package model

import "time"

// PassageGraphNode carries the subset of a Chunk's metadata kept in
// memory for traversal, plus a short text preview.
type PassageGraphNode struct {
	ChunkID         string    `json:"chunk_id"`
	Ticker          string    `json:"ticker"`
	CompanyName     string    `json:"company_name"`
	FilingDate      time.Time `json:"filing_date"`
	FiscalYear      int       `json:"fiscal_year"`
	AccessionNumber string    `json:"accession_number"`
	SectionItem     string    `json:"section_item"`
	SectionTitle    string    `json:"section_title"`
	ChunkIndex      int       `json:"chunk_index"`
	TextPreview     string    `json:"text_preview"`
}

// EdgeType enumerates the four passage-graph edge kinds.
type EdgeType string

const (
	EdgeSameFiling         EdgeType = "same_filing"
	EdgeEntityCooccurrence EdgeType = "entity_cooccurrence"
	EdgeTemporal           EdgeType = "temporal"
	EdgePseudoQuery        EdgeType = "pseudo_query"
)

// PassageGraphEdge is undirected and weighted in [0,1], with type-specific
// attributes populated depending on Type.
type PassageGraphEdge struct {
	A, B   string   `json:"-"`
	Type   EdgeType `json:"type"`
	Weight float64  `json:"weight"`

	// same_filing
	Subtype string `json:"subtype,omitempty"` // "sequential" | "cross_section"
	// entity_cooccurrence
	EntityTicker string `json:"entity_ticker,omitempty"`
	// temporal
	YearFrom int `json:"year_from,omitempty"`
	YearTo   int `json:"year_to,omitempty"`
}

// CommunitySummary is the per-community LLM-generated description
// persisted as a property on every member node.
type CommunitySummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Themes      []string `json:"themes"`
	TimePeriod  string   `json:"time_period"`
	Companies   []string `json:"companies"`
	MemberCount int      `json:"member_count"`
}

// RetrievedResult is the uniform shape returned by every search primitive
// and by the Retrieval Core's public entry point.
type RetrievedResult struct {
	Content  string                 `json:"content"`
	Score    float64                `json:"score"`
	Metadata RetrievedResultMeta    `json:"metadata"`
	Sources  []string               `json:"-"`
	Extra    map[string]interface{} `json:"-"`
}

type RetrievedResultMeta struct {
	ChunkID      string    `json:"chunk_id"`
	Ticker       string    `json:"ticker"`
	CompanyName  string    `json:"company_name"`
	SectionItem  string    `json:"section_item,omitempty"`
	SectionTitle string    `json:"section_title,omitempty"`
	FilingDate   time.Time `json:"filing_date,omitempty"`
	Sources      []string  `json:"sources"`
	HopNumber    int       `json:"hop_number"`
	EdgeType     string    `json:"edge_type,omitempty"`
}
