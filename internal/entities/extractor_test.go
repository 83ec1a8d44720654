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
package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities_FindsMetricAndRiskPhrases(t *testing.T) {
	x := New()
	text := "Net income increased while market risk exposure grew in Delaware."

	raw := x.ExtractEntities(text)

	var gotMetric, gotRisk, gotGPE bool
	for _, e := range raw {
		switch {
		case e.Type == "METRIC" && e.Text == "Net income":
			gotMetric = true
		case e.Type == "RISK" && e.Text == "market risk":
			gotRisk = true
		case e.Type == "GPE" && e.Text == "Delaware":
			gotGPE = true
		}
	}
	assert.True(t, gotMetric, "expected a METRIC match for 'Net income'")
	assert.True(t, gotRisk, "expected a RISK match for 'market risk'")
	assert.True(t, gotGPE, "expected a GPE match for 'Delaware'")
}

func TestExtractEntities_FiltersNoisyCardinalsAndDates(t *testing.T) {
	x := New()
	text := "Call us at (555) 123-4567 or see page 12 for details. Revenue rose in quarterly filings."

	raw := x.ExtractEntities(text)

	for _, e := range raw {
		if e.Type == "CARDINAL" {
			assert.NotEqual(t, "12", e.Text)
		}
		if e.Type == "DATE" {
			assert.NotEqual(t, "quarterly", e.Text)
		}
	}
}

func TestExtractEntities_AcceptsValidYearAndISODate(t *testing.T) {
	x := New()
	text := "The fiscal year ended 2023-12-31, consistent with guidance issued in 2022."

	raw := x.ExtractEntities(text)

	var sawISO, sawYear bool
	for _, e := range raw {
		if e.Type == "DATE" && e.Text == "2023-12-31" {
			sawISO = true
		}
		if e.Type == "DATE" && e.Text == "2022" {
			sawYear = true
		}
	}
	assert.True(t, sawISO)
	assert.True(t, sawYear)
}

func TestExtractFromSection_GroupsByType(t *testing.T) {
	x := New()
	result := x.ExtractFromSection("Total revenue and net income both grew. Acme Corp. reported gains.", "item_7")

	assert.Equal(t, "item_7", result.SectionType)
	assert.Equal(t, len(result.RawEntities), result.TotalEntities)
	assert.NotEmpty(t, result.EntitiesByType["METRIC"])
}

func TestIsValidCardinal(t *testing.T) {
	assert.False(t, isValidCardinal("(555) 123-4567"))
	assert.False(t, isValidCardinal("90210"))
	assert.False(t, isValidCardinal("III"))
	assert.False(t, isValidCardinal("42"))
	assert.True(t, isValidCardinal("750"))
}

func TestIsValidDate(t *testing.T) {
	assert.False(t, isValidDate("quarterly"))
	assert.True(t, isValidDate("2023"))
	assert.False(t, isValidDate("3000"))
	assert.True(t, isValidDate("Q1 2023"))
	assert.True(t, isValidDate("2023-05-01"))
	assert.True(t, isValidDate("January 5, 2023"))
}
