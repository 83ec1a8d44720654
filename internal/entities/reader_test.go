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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFiling_RulePhaseOnlyWithoutLLMClient(t *testing.T) {
	reader := NewReader(nil, 3)

	sections := []SectionText{
		{SectionType: "item_1", Text: "Total revenue grew across all segments."},
		{SectionType: "item_1a", Text: "Market risk and credit risk remain significant."},
		{SectionType: "item_7", Text: "Net income increased year over year."},
	}

	results, err := reader.ReadFiling(context.Background(), sections)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.Nil(t, r.LLMExtraction)
		assert.Equal(t, len(r.RawEntities), r.TotalEntities)
	}
}
