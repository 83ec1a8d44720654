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
package archive

import (
	"sort"
	"time"
)

// filingsBlock mirrors the submissions API's parallel-array shape for one
// chunk of filing history (either "recent" or an additional shard file).
type filingsBlock struct {
	AccessionNumber    []string `json:"accessionNumber"`
	Form               []string `json:"form"`
	FilingDate         []string `json:"filingDate"`
	PrimaryDocument    []string `json:"primaryDocument"`
	PrimaryDocDesc     []string `json:"primaryDocDescription"`
	AcceptanceDateTime []string `json:"acceptanceDateTime"`
	IsXBRL             []int    `json:"isXBRL"`
	IsInlineXBRL       []int    `json:"isInlineXBRL"`
}

type shardRef struct {
	Name string `json:"name"`
}

type submissionsResponse struct {
	CIK                   string `json:"cik"`
	Name                  string `json:"name"`
	Tickers               []string `json:"tickers"`
	SIC                   string `json:"sic"`
	SICDescription        string `json:"sicDescription"`
	Category              string `json:"category"`
	FiscalYearEnd         string `json:"fiscalYearEnd"`
	StateOfIncorporation  string `json:"stateOfIncorporation"`
	EIN                   string `json:"ein"`
	Filings               struct {
		Recent filingsBlock `json:"recent"`
		Files  []shardRef   `json:"files"`
	} `json:"filings"`
}

type indexItem struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	LastModified string `json:"last-modified"`
}

type indexResponse struct {
	Directory struct {
		Item []indexItem `json:"item"`
	} `json:"directory"`
}

// parseFilings decodes a filingsBlock's parallel arrays into FilingInfo
// values, filtering by form type and an optional [startDate, endDate]
// range.
func parseFilings(cikPadded string, block filingsBlock, formType string, startDate, endDate *time.Time) []FilingInfo {
	var out []FilingInfo

	for i := range block.AccessionNumber {
		if i >= len(block.Form) || block.Form[i] != formType {
			continue
		}

		if i >= len(block.FilingDate) {
			continue
		}
		filingDate, err := time.Parse("2006-01-02", block.FilingDate[i])
		if err != nil {
			continue
		}

		if startDate != nil && filingDate.Before(*startDate) {
			continue
		}
		if endDate != nil && filingDate.After(*endDate) {
			continue
		}

		var acceptance *time.Time
		if i < len(block.AcceptanceDateTime) && block.AcceptanceDateTime[i] != "" {
			if t, err := time.Parse(time.RFC3339, block.AcceptanceDateTime[i]); err == nil {
				acceptance = &t
			}
		}

		primaryDoc := ""
		if i < len(block.PrimaryDocument) {
			primaryDoc = block.PrimaryDocument[i]
		}
		primaryDocDesc := ""
		if i < len(block.PrimaryDocDesc) {
			primaryDocDesc = block.PrimaryDocDesc[i]
		}
		isXBRL := i < len(block.IsXBRL) && block.IsXBRL[i] != 0
		isInline := i < len(block.IsInlineXBRL) && block.IsInlineXBRL[i] != 0

		out = append(out, FilingInfo{
			AccessionNumber:    block.AccessionNumber[i],
			CIK:                cikPadded,
			FormType:           block.Form[i],
			FilingDate:         filingDate,
			PrimaryDocument:    primaryDoc,
			PrimaryDocDesc:     primaryDocDesc,
			AcceptanceDateTime: acceptance,
			IsXBRL:             isXBRL,
			IsInlineXBRL:       isInline,
		})
	}

	return out
}

func sortFilingsDescending(filings []FilingInfo) {
	sort.Slice(filings, func(i, j int) bool {
		return filings[i].FilingDate.After(filings[j].FilingDate)
	})
}
