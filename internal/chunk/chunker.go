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

// Package chunk splits section markdown into retrievable passages and
// drives batched embedding generation for the vector index.
package chunk

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/model"
)

// approxTokenChars is the rough chars-per-token ratio used to size chunks
// without pulling in a tokenizer; the pack carries no Go BPE tokenizer,
// so token counts here are an estimate (documented as reduced-precision
// relative to a true tiktoken count).
const approxTokenChars = 4

var (
	paragraphBoundary = regexp.MustCompile(`\n\s*\n`)
	sentenceBoundary  = regexp.MustCompile(`(?:[.!?])\s+`)
	tableMarker       = regexp.MustCompile(`(?i)<table|\|\s*-+\s*\|`)
	listMarker        = regexp.MustCompile(`(?m)^\s*[-*]\s+|^\s*\d+\.\s+`)
	numberMarker      = regexp.MustCompile(`\$?[0-9][0-9,]*(\.[0-9]+)?%?`)
)

func estimateTokens(text string) int {
	return (len(text) + approxTokenChars - 1) / approxTokenChars
}

// Chunker splits a section's markdown into overlapping windows targeting
// cfg.TargetTokens, never below MinTokens nor above MaxTokens, preferring
// to break on a paragraph boundary, then a sentence boundary, then a raw
// token-count cutoff.
type Chunker struct {
	cfg config.ChunkConfig
}

func New(cfg config.ChunkConfig) *Chunker {
	return &Chunker{cfg: cfg}
}

// Split breaks one section's text into Chunks, stamping filing/section
// metadata and composition flags onto each.
func (c *Chunker) Split(section model.Section, accessionNumber, ticker, companyName, formType string, filingDate time.Time) []model.Chunk {
	text := section.ContentMarkdown
	if text == "" {
		text = section.ContentText
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	windows := c.windows(text)

	chunks := make([]model.Chunk, 0, len(windows))
	for i, w := range windows {
		chunkText := text[w.start:w.end]
		chunkID := deterministicChunkID(accessionNumber, section.SectionType, i)
		chunks = append(chunks, model.Chunk{
			ChunkID:         chunkID,
			AccessionNumber: accessionNumber,
			Ticker:          ticker,
			CompanyName:     companyName,
			FormType:        formType,
			FilingDate:      filingDate,
			SectionItem:     section.SectionType,
			SectionTitle:    section.Title,
			ChunkIndex:      i,
			TokenCount:      estimateTokens(chunkText),
			CharStart:       w.start,
			CharEnd:         w.end,
			Text:            chunkText,
			ContainsTables:  tableMarker.MatchString(chunkText),
			ContainsLists:   listMarker.MatchString(chunkText),
			ContainsNumbers: numberMarker.MatchString(chunkText),
		})
	}
	return chunks
}

type window struct{ start, end int }

// windows computes non-overlapping-output char ranges whose target size
// is cfg.TargetTokens*approxTokenChars, preferring to end on a paragraph
// break, then a sentence break, falling back to a hard cutoff at
// MaxTokens*approxTokenChars. Consecutive windows overlap by
// OverlapTokens*approxTokenChars characters.
func (c *Chunker) windows(text string) []window {
	targetChars := c.cfg.TargetTokens * approxTokenChars
	maxChars := c.cfg.MaxTokens * approxTokenChars
	minChars := c.cfg.MinTokens * approxTokenChars
	overlapChars := c.cfg.OverlapTokens * approxTokenChars
	if targetChars <= 0 {
		targetChars = 3000
	}
	if maxChars <= targetChars {
		maxChars = targetChars * 2
	}

	var windows []window
	pos := 0
	n := len(text)

	for pos < n {
		end := pos + targetChars
		if end >= n {
			windows = append(windows, window{pos, n})
			break
		}
		if end > n {
			end = n
		}

		cut := bestBoundary(text, pos, end, maxChars)
		if cut <= pos {
			cut = end
		}
		if cut-pos < minChars && cut < n {
			// too small a window; extend to at least minChars or EOF
			extended := pos + minChars
			if extended > n {
				extended = n
			}
			cut = extended
		}

		windows = append(windows, window{pos, cut})

		next := cut - overlapChars
		if next <= pos {
			next = cut
		}
		pos = next
	}
	return windows
}

// bestBoundary looks for a paragraph break between target and hardMax,
// then a sentence break, returning target itself if neither is found.
func bestBoundary(text string, start, target, hardMaxOffset int) int {
	hardMax := start + hardMaxOffset
	if hardMax > len(text) {
		hardMax = len(text)
	}
	window := text[target:hardMax]

	if loc := paragraphBoundary.FindStringIndex(window); loc != nil {
		return target + loc[0]
	}
	if loc := sentenceBoundary.FindStringIndex(window); loc != nil {
		return target + loc[1]
	}
	return target
}

func deterministicChunkID(accessionNumber, sectionType string, index int) string {
	h := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%d", accessionNumber, sectionType, index)))
	return hex.EncodeToString(h[:])[:24]
}
