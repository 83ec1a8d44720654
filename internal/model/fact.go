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

// ValueKind discriminates a Fact's reported value.
type ValueKind int

const (
	ValueMissing ValueKind = iota
	ValueNumeric
	ValueText
)

// Value is the sum type Fact.value | Fact.value_text | None maps to in Go:
// exactly one of Numeric or Text is meaningful, selected by Kind.
type Value struct {
	Kind    ValueKind
	Numeric float64
	Text    string
}

func NumericValue(v float64) Value { return Value{Kind: ValueNumeric, Numeric: v} }
func TextValue(v string) Value     { return Value{Kind: ValueText, Text: v} }

// PeriodType is the XBRL context period shape.
type PeriodType string

const (
	PeriodInstant  PeriodType = "instant"
	PeriodDuration PeriodType = "duration"
	PeriodUnknown  PeriodType = "unknown"
)

// Fact is a single XBRL-reported observation. Uniqueness constraint on
// (AccessionNumber, ConceptName, PeriodEnd, DimensionsKey) prevents
// duplicate insertion.
type Fact struct {
	ID              int64             `db:"id" json:"id,omitempty"`
	AccessionNumber string            `db:"accession_number" json:"accession_number"`
	Namespace       string            `db:"namespace" json:"namespace,omitempty"`
	LocalName       string            `db:"local_name" json:"local_name"`
	ConceptName     string            `db:"concept_name" json:"concept_name"`
	Value           Value             `db:"-" json:"-"`
	Unit            string            `db:"unit" json:"unit,omitempty"`
	Decimals        *int32            `db:"decimals" json:"decimals,omitempty"`
	PeriodType      PeriodType        `db:"period_type" json:"period_type"`
	PeriodStart     *time.Time        `db:"period_start" json:"period_start,omitempty"`
	PeriodEnd       time.Time         `db:"period_end" json:"period_end"`
	Dimensions      map[string]string `db:"-" json:"dimensions,omitempty"`
	IsCustom        bool              `db:"is_custom" json:"is_custom"`

	// Enrichment populated from linkbase cross-resolution, optional.
	Section       string `db:"section" json:"section,omitempty"`
	ParentConcept string `db:"parent_concept" json:"parent_concept,omitempty"`
	Depth         int    `db:"depth" json:"depth,omitempty"`
	Label         string `db:"label" json:"label,omitempty"`
}

// ConceptCategory is a cached mapping from concept to its section, parent
// concept, depth, label, and data type, populated from linkbase parsing.
type ConceptCategory struct {
	ConceptName   string `db:"concept_name" json:"concept_name"`
	Section       string `db:"section" json:"section,omitempty"`
	ParentConcept string `db:"parent_concept" json:"parent_concept,omitempty"`
	Depth         int    `db:"depth" json:"depth"`
	Label         string `db:"label" json:"label,omitempty"`
	DataType      string `db:"data_type" json:"data_type,omitempty"`
}
