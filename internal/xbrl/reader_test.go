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
package xbrl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/penny-vault/pvdata/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInstance = `<?xml version="1.0" encoding="UTF-8"?>
<xbrl xmlns="http://www.xbrl.org/2003/instance" xmlns:us-gaap="http://fasb.org/us-gaap/2023" xmlns:dei="http://xbrl.sec.gov/dei/2023">
  <context id="FY2023">
    <entity><identifier>0000320193</identifier></entity>
    <period><startDate>2023-01-01</startDate><endDate>2023-12-31</endDate></period>
  </context>
  <context id="AsOf2023">
    <entity><identifier>0000320193</identifier></entity>
    <period><instant>2023-12-31</instant></period>
  </context>
  <unit id="usd"><measure>iso4217:USD</measure></unit>
  <dei:DocumentPeriodEndDate contextRef="AsOf2023">2023-12-31</dei:DocumentPeriodEndDate>
  <us-gaap:Assets contextRef="AsOf2023" unitRef="usd" decimals="-6">352755000000</us-gaap:Assets>
  <us-gaap:Revenues contextRef="FY2023" unitRef="usd" decimals="-6">383285000000</us-gaap:Revenues>
</xbrl>
`

const samplePresentationLinkbase = `<?xml version="1.0" encoding="UTF-8"?>
<linkbase xmlns:link="http://www.xbrl.org/2003/linkbase" xmlns:xlink="http://www.w3.org/1999/xlink">
  <link:presentationLink xlink:role="http://www.apple.com/role/CONSOLIDATEDBALANCESHEETS">
    <link:loc xlink:label="loc_1" xlink:href="aapl-20231231.xsd#us-gaap_Assets"/>
    <link:loc xlink:label="loc_2" xlink:href="aapl-20231231.xsd#us-gaap_AssetsCurrent"/>
    <link:presentationArc xlink:from="loc_1" xlink:to="loc_2" order="1"/>
  </link:presentationLink>
</linkbase>
`

const sampleLabelLinkbase = `<?xml version="1.0" encoding="UTF-8"?>
<linkbase xmlns:link="http://www.xbrl.org/2003/linkbase" xmlns:xlink="http://www.w3.org/1999/xlink">
  <link:labelLink>
    <link:loc xlink:label="loc_1" xlink:href="aapl-20231231.xsd#us-gaap_Assets"/>
    <link:label xlink:label="label_1" xlink:role="http://www.xbrl.org/2003/role/terseLabel">Total assets</link:label>
    <link:labelArc xlink:from="loc_1" xlink:to="label_1"/>
  </link:labelLink>
</linkbase>
`

func TestParseInstance_ResolvesContextsAndUnits(t *testing.T) {
	result, err := ParseInstance([]byte(sampleInstance), "0000320193-24-000001")
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Len(t, result.Facts, 3)
	assert.Len(t, result.CoreFacts, 2)

	var assets *model.Fact
	for i := range result.Facts {
		if result.Facts[i].ConceptName == "us-gaap:Assets" {
			assets = &result.Facts[i]
		}
	}
	require.NotNil(t, assets)
	assert.Equal(t, model.PeriodInstant, assets.PeriodType)
	assert.Equal(t, "USD", assets.Unit)
	assert.Equal(t, model.ValueNumeric, assets.Value.Kind)
	assert.Equal(t, float64(352755000000), assets.Value.Numeric)
	require.NotNil(t, assets.Decimals)
	assert.Equal(t, int32(-6), *assets.Decimals)

	require.NotNil(t, result.PeriodEnd)
	assert.Equal(t, "2023-12-31", result.PeriodEnd.Format("2006-01-02"))
}

func TestFindInstanceDocument_SkipsLinkbasesAndSchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aapl-20231231_pre.xml"), []byte("<linkbase/>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aapl-20231231.xsd"), []byte("<schema/>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aapl-20231231.xml"), []byte(sampleInstance), 0644))

	path, err := FindInstanceDocument(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aapl-20231231.xml"), path)
}

func TestParsePresentationLinkbase_BuildsHierarchyWithDepth(t *testing.T) {
	hierarchy := ParsePresentationLinkbase([]byte(samplePresentationLinkbase))

	assets, ok := hierarchy["us-gaap:Assets"]
	require.True(t, ok)
	assert.Equal(t, "BalanceSheet", assets.Section)
	assert.Equal(t, 0, assets.Depth)

	current, ok := hierarchy["us-gaap:AssetsCurrent"]
	require.True(t, ok)
	assert.Equal(t, "us-gaap:Assets", current.ParentConcept)
	assert.Equal(t, 1, current.Depth)
}

func TestParseLabelLinkbase_PrefersTerseLabel(t *testing.T) {
	labels := ParseLabelLinkbase([]byte(sampleLabelLinkbase))
	assert.Equal(t, "Total assets", labels["us-gaap:Assets"])
}

func TestParseFiling_EnrichesFactsFromLinkbases(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aapl-20231231.xml"), []byte(sampleInstance), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aapl-20231231_pre.xml"), []byte(samplePresentationLinkbase), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aapl-20231231_lab.xml"), []byte(sampleLabelLinkbase), 0644))

	result := ParseFiling(dir, "0000320193-24-000001", true)
	require.True(t, result.Success)

	var assets *model.Fact
	for i := range result.Facts {
		if result.Facts[i].ConceptName == "us-gaap:Assets" {
			assets = &result.Facts[i]
		}
	}
	require.NotNil(t, assets)
	assert.Equal(t, "BalanceSheet", assets.Section)
	assert.Equal(t, "Total assets", assets.Label)

	var revenues *model.Fact
	for i := range result.Facts {
		if result.Facts[i].ConceptName == "us-gaap:Revenues" {
			revenues = &result.Facts[i]
		}
	}
	require.NotNil(t, revenues)
	assert.Equal(t, "Revenues", revenues.Label, "falls back to a camelCase-derived label with no linkbase entry")
}

func TestParseFiling_NoInstanceDocumentFails(t *testing.T) {
	dir := t.TempDir()
	result := ParseFiling(dir, "0000320193-24-000001", false)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}
