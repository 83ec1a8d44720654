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
package normalize

import (
	"context"
	"testing"
	"time"

	"github.com/penny-vault/pvdata/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory stand-in for store.NormalizationRepo.
type fakeRepo struct {
	metrics  []model.StandardizedMetric
	mappings map[string][]model.ConceptMapping
	facts    map[string][]model.Fact // keyed by concept name
	written  map[string]model.NormalizedFinancial
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		mappings: make(map[string][]model.ConceptMapping),
		facts:    make(map[string][]model.Fact),
		written:  make(map[string]model.NormalizedFinancial),
	}
}

func (f *fakeRepo) AllMetrics(ctx context.Context) ([]model.StandardizedMetric, error) {
	return f.metrics, nil
}

func (f *fakeRepo) MappingsForMetric(ctx context.Context, metricID string) ([]model.ConceptMapping, error) {
	return f.mappings[metricID], nil
}

func (f *fakeRepo) LatestFactsPerFiscalYear(ctx context.Context, cik, conceptName string) ([]model.Fact, error) {
	return f.facts[conceptName], nil
}

func (f *fakeRepo) Existing(ctx context.Context, ticker string, fiscalYear int, fiscalQuarter *int, metricID string) (*model.NormalizedFinancial, error) {
	key := ticker + "|" + metricID
	n, ok := f.written[key]
	if !ok {
		return nil, assertNotFound{}
	}
	return &n, nil
}

func (f *fakeRepo) Upsert(ctx context.Context, n model.NormalizedFinancial) error {
	f.written[n.CompanyTicker+"|"+n.MetricID] = n
	return nil
}

func (f *fakeRepo) RemoveDuplicates(ctx context.Context, dryRun bool) (int, error) {
	return 0, nil
}

type assertNotFound struct{}

func (assertNotFound) Error() string { return "not found" }

func TestNormalizeCompany_PrefersHigherPriorityConceptPresent(t *testing.T) {
	repo := newFakeRepo()
	repo.metrics = []model.StandardizedMetric{{MetricID: "revenue"}}
	repo.mappings["revenue"] = []model.ConceptMapping{
		{MetricID: "revenue", ConceptName: "us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax", Priority: 1, Confidence: 0.95},
		{MetricID: "revenue", ConceptName: "us-gaap:Revenues", Priority: 2, Confidence: 0.8},
	}
	// Only the lower-priority concept has facts on record.
	repo.facts["us-gaap:Revenues"] = []model.Fact{
		{AccessionNumber: "0000320193-24-000001", ConceptName: "us-gaap:Revenues",
			Value: model.NumericValue(383285000000), PeriodEnd: mustDate("2023-12-31")},
	}

	engine := New(repo)
	result, err := engine.NormalizeCompany(context.Background(), "0000320193", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, result.MetricsSet)

	written := repo.written["AAPL|revenue"]
	assert.Equal(t, "us-gaap:Revenues", written.SourceConcept)
	assert.Equal(t, 0.8, written.Confidence)
	assert.Equal(t, 2023, written.FiscalYear)
}

func TestNormalizeCompany_HigherPriorityConceptWinsWhenBothPresent(t *testing.T) {
	repo := newFakeRepo()
	repo.metrics = []model.StandardizedMetric{{MetricID: "revenue"}}
	repo.mappings["revenue"] = []model.ConceptMapping{
		{MetricID: "revenue", ConceptName: "us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax", Priority: 1, Confidence: 0.95},
		{MetricID: "revenue", ConceptName: "us-gaap:Revenues", Priority: 2, Confidence: 0.8},
	}
	repo.facts["us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax"] = []model.Fact{
		{AccessionNumber: "acc-1", ConceptName: "us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax",
			Value: model.NumericValue(400000000000), PeriodEnd: mustDate("2023-12-31")},
	}
	repo.facts["us-gaap:Revenues"] = []model.Fact{
		{AccessionNumber: "acc-2", ConceptName: "us-gaap:Revenues",
			Value: model.NumericValue(383285000000), PeriodEnd: mustDate("2023-12-31")},
	}

	engine := New(repo)
	_, err := engine.NormalizeCompany(context.Background(), "0000320193", "AAPL")
	require.NoError(t, err)

	written := repo.written["AAPL|revenue"]
	assert.Equal(t, "us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax", written.SourceConcept)
	assert.Equal(t, float64(400000000000), written.Value)
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
