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

// Package model holds the entity types shared across the ingestion,
// normalization, and retrieval layers.
package model

import "time"

// Company is identified by a 10-digit zero-padded CIK. Immutable after
// creation except for metadata refresh.
type Company struct {
	CIK               string `db:"cik" json:"cik"`
	Name              string `db:"name" json:"name"`
	Ticker            string `db:"ticker" json:"ticker,omitempty"`
	SICCode           string `db:"sic_code" json:"sic_code,omitempty"`
	SICDescription    string `db:"sic_description" json:"sic_description,omitempty"`
	StateOfIncorp     string `db:"state_of_incorporation" json:"state_of_incorporation,omitempty"`
	FiscalYearEndMMDD string `db:"fiscal_year_end" json:"fiscal_year_end,omitempty"`
	EmployerID        string `db:"employer_id" json:"employer_id,omitempty"`
}

// DownloadStatus is the lifecycle state of a Filing's document download.
type DownloadStatus string

const (
	DownloadPending   DownloadStatus = "pending"
	DownloadCompleted DownloadStatus = "completed"
	DownloadFailed    DownloadStatus = "failed"
)

// Filing belongs to exactly one Company, identified by accession number
// (pattern NNNNNNNNNN-YY-NNNNNN).
type Filing struct {
	AccessionNumber    string         `db:"accession_number" json:"accession_number"`
	CIK                string         `db:"cik" json:"cik"`
	FormType           string         `db:"form_type" json:"form_type"`
	FilingDate         time.Time      `db:"filing_date" json:"filing_date"`
	PeriodOfReport     *time.Time     `db:"period_of_report" json:"period_of_report,omitempty"`
	AcceptanceDateTime *time.Time     `db:"acceptance_datetime" json:"acceptance_datetime,omitempty"`
	PrimaryDocument    string         `db:"primary_document" json:"primary_document"`
	IsXBRL             bool           `db:"is_xbrl" json:"is_xbrl"`
	IsInlineXBRL       bool           `db:"is_inline_xbrl" json:"is_inline_xbrl"`
	LocalPath          string         `db:"local_path" json:"local_path,omitempty"`
	DownloadStatus     DownloadStatus `db:"download_status" json:"download_status"`
	XBRLProcessed      bool           `db:"xbrl_processed" json:"xbrl_processed"`
	SectionsProcessed  bool           `db:"sections_processed" json:"sections_processed"`
	FullMarkdown       string         `db:"full_markdown" json:"full_markdown,omitempty"`
}

// IsAmendment reports whether the filing's form type is an amendment
// (ends in "/A"), which supersedes the original for the same fiscal period.
func (f Filing) IsAmendment() bool {
	return len(f.FormType) > 2 && f.FormType[len(f.FormType)-2:] == "/A"
}
