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
package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_MultipleCompanyMentionsIsCrossFiling(t *testing.T) {
	r := NewRouter(nil, []string{"AAPL", "MSFT"})
	decision := r.Route(context.Background(), "Compare AAPL and MSFT revenue")
	assert.Equal(t, CrossFiling, decision.Type)
	assert.Equal(t, 3, decision.MaxHops)
}

func TestRoute_SingleCompanyWithComparisonLanguageIsCrossFiling(t *testing.T) {
	r := NewRouter(nil, []string{"AAPL"})
	decision := r.Route(context.Background(), "How does AAPL compare to its industry peers?")
	assert.Equal(t, CrossFiling, decision.Type)
}

func TestRoute_TemporalLanguageIsComplexAnalysis(t *testing.T) {
	r := NewRouter(nil, nil)
	decision := r.Route(context.Background(), "Why did gross margin trend upward year-over-year?")
	assert.Equal(t, ComplexAnalysis, decision.Type)
	assert.Equal(t, 2, decision.MaxHops)
}

func TestRoute_ShortSimpleFactQuery(t *testing.T) {
	r := NewRouter(nil, nil)
	decision := r.Route(context.Background(), "What is the total revenue?")
	assert.Equal(t, SimpleFact, decision.Type)
	assert.Equal(t, 0, decision.MaxHops)
}

func TestRoute_AmbiguousWithoutLLMDefaultsToComplexAnalysis(t *testing.T) {
	r := NewRouter(nil, nil)
	decision := r.Route(context.Background(), "Tell me about operations")
	assert.Equal(t, ComplexAnalysis, decision.Type)
}
