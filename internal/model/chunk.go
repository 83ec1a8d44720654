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

// Chunk is a retrievable text passage with a stable ChunkID, the unit of
// vector indexing and of passage-graph nodes.
type Chunk struct {
	ChunkID         string    `json:"chunk_id"`
	AccessionNumber string    `json:"accession_number"`
	Ticker          string    `json:"ticker"`
	CompanyName     string    `json:"company_name"`
	FormType        string    `json:"form_type"`
	FilingDate      time.Time `json:"filing_date"`
	SectionItem     string    `json:"section_item"`
	SectionTitle    string    `json:"section_title"`
	ChunkIndex      int       `json:"chunk_index"`
	TokenCount      int       `json:"token_count"`
	CharStart       int       `json:"char_start"`
	CharEnd         int       `json:"char_end"`
	Text            string    `json:"text"`
	TextPreview     string    `json:"text_preview,omitempty"`
	ContainsTables  bool      `json:"contains_tables"`
	ContainsLists   bool      `json:"contains_lists"`
	ContainsNumbers bool      `json:"contains_numbers"`
	Embedding       []float32 `json:"-"`
}

// Preview truncates Text to at most n characters, matching the 200-char
// graph payload convention.
func (c Chunk) Preview(n int) string {
	if len(c.Text) <= n {
		return c.Text
	}
	return c.Text[:n]
}
