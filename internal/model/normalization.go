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

// StandardizedMetric is a canonical metric id (e.g. "revenue",
// "total_assets") with display metadata.
type StandardizedMetric struct {
	MetricID      string `db:"metric_id" json:"metric_id"`
	Label         string `db:"label" json:"label"`
	Category      string `db:"category" json:"category"`
	DataType      string `db:"data_type" json:"data_type"`
	Description   string `db:"description" json:"description,omitempty"`
	CalculationRule string `db:"calculation_rule" json:"calculation_rule,omitempty"`
}

// ConceptMapping maps a standardized metric to one vendor concept at a
// given priority (lower number = preferred) and confidence. Unique on
// (MetricID, ConceptName).
type ConceptMapping struct {
	MetricID       string  `db:"metric_id" json:"metric_id"`
	ConceptName    string  `db:"concept_name" json:"concept_name"`
	Priority       int     `db:"priority" json:"priority"`
	Confidence     float64 `db:"confidence" json:"confidence"`
	IndustryFilter string  `db:"industry_filter" json:"industry_filter,omitempty"`
}

// NormalizedFinancial is the resolved value for a (ticker, fiscal_year,
// fiscal_quarter, metric_id) tuple. Uniqueness on that same tuple.
type NormalizedFinancial struct {
	ID              int64     `db:"id" json:"id,omitempty"`
	CompanyTicker   string    `db:"company_ticker" json:"company_ticker"`
	FiscalYear      int       `db:"fiscal_year" json:"fiscal_year"`
	FiscalQuarter   *int      `db:"fiscal_quarter" json:"fiscal_quarter,omitempty"`
	MetricID        string    `db:"metric_id" json:"metric_id"`
	Value           float64   `db:"value" json:"value"`
	SourceConcept   string    `db:"source_concept" json:"source_concept"`
	SourceAccession string    `db:"source_accession" json:"source_accession"`
	Confidence      float64   `db:"confidence" json:"confidence"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
