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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilingInfo_URLs(t *testing.T) {
	f := FilingInfo{
		CIK:             "0000320193",
		AccessionNumber: "0000320193-24-000001",
		PrimaryDocument: "aapl-20231230.htm",
	}

	assert.Equal(t, "000032019324000001", f.AccessionRaw())
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/320193/000032019324000001/aapl-20231230.htm", f.FilingURL())
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/320193/000032019324000001/index.json", f.IndexURL())
}

func TestParseFilings_FiltersFormAndDateRange(t *testing.T) {
	block := filingsBlock{
		AccessionNumber: []string{"a1", "a2", "a3"},
		Form:            []string{"10-K", "10-Q", "10-K"},
		FilingDate:      []string{"2022-01-01", "2022-06-01", "2023-01-01"},
		IsXBRL:          []int{1, 1, 0},
	}

	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	filings := parseFilings("0000320193", block, "10-K", &start, nil)

	if assert.Len(t, filings, 1) {
		assert.Equal(t, "a3", filings[0].AccessionNumber)
		assert.False(t, filings[0].IsXBRL)
	}
}

func TestSortFilingsDescending(t *testing.T) {
	filings := []FilingInfo{
		{AccessionNumber: "old", FilingDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{AccessionNumber: "new", FilingDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	sortFilingsDescending(filings)
	assert.Equal(t, "new", filings[0].AccessionNumber)
}
