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
package chunk

import (
	"strings"
	"testing"
	"time"

	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.ChunkConfig {
	return config.ChunkConfig{TargetTokens: 50, MinTokens: 20, MaxTokens: 100, OverlapTokens: 10}
}

func TestSplit_ProducesContiguousChunksCoveringWholeText(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 20; i++ {
		paragraphs = append(paragraphs, strings.Repeat("word ", 20))
	}
	text := strings.Join(paragraphs, "\n\n")

	section := model.Section{SectionType: "item_7", Title: "Management Discussion", ContentText: text}
	c := New(testConfig())

	chunks := c.Split(section, "0000320193-24-000001", "AAPL", "Apple Inc.", "10-K", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkIndex)
		assert.Equal(t, "item_7", ch.SectionItem)
		assert.NotEmpty(t, ch.ChunkID)
		assert.True(t, ch.TokenCount > 0)
	}
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, len(text), chunks[len(chunks)-1].CharEnd)
}

func TestSplit_EmptySectionProducesNoChunks(t *testing.T) {
	c := New(testConfig())
	chunks := c.Split(model.Section{SectionType: "item_6"}, "acc", "AAPL", "Apple Inc.", "10-K", time.Now().UTC())
	assert.Empty(t, chunks)
}

func TestDeterministicChunkID_StableAcrossCalls(t *testing.T) {
	a := deterministicChunkID("acc-1", "item_7", 3)
	b := deterministicChunkID("acc-1", "item_7", 3)
	c := deterministicChunkID("acc-1", "item_7", 4)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
