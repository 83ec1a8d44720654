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
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const defaultEmbedBatchSize = 100

// Embedder batches calls to an OpenAI-compatible embeddings endpoint,
// retrying on rate-limit/server errors with exponential backoff.
type Embedder struct {
	http       *resty.Client
	baseURL    string
	model      string
	dimensions int
	batchSize  int

	totalTokens int
}

func NewEmbedder(baseURL, apiKey, model string, dimensions int) *Embedder {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetTimeout(30 * time.Second)

	return &Embedder{http: client, baseURL: baseURL, model: model, dimensions: dimensions, batchSize: defaultEmbedBatchSize}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedBatch generates embeddings for texts in batches of b.batchSize,
// making up to maxRetries attempts per batch with exponential backoff on
// rate-limit (429) or server (5xx) responses.
func (b *Embedder) EmbedBatch(ctx context.Context, texts []string, maxRetries int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embeddings, err := b.embedWithRetry(ctx, batch, maxRetries)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, embeddings...)
	}
	return out, nil
}

func (b *Embedder) embedWithRetry(ctx context.Context, texts []string, maxRetries int) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			log.Warn().Int("attempt", attempt+1).Dur("wait", wait).Msg("retrying embedding request")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var result embeddingResponse
		resp, err := b.http.R().
			SetContext(ctx).
			SetBody(embeddingRequest{Input: texts, Model: b.model}).
			SetResult(&result).
			Post("/embeddings")

		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode() == 429 || resp.StatusCode() >= 500 {
			lastErr = fmt.Errorf("embeddings endpoint returned %d", resp.StatusCode())
			continue
		}
		if resp.IsError() {
			return nil, fmt.Errorf("embeddings endpoint returned %d: %s", resp.StatusCode(), resp.String())
		}

		b.totalTokens += result.Usage.TotalTokens

		embeddings := make([][]float32, len(result.Data))
		for i, d := range result.Data {
			embeddings[i] = d.Embedding
		}
		return embeddings, nil
	}
	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

// TotalTokens returns the running total of tokens billed across every
// EmbedBatch call on this Embedder, for cost accounting.
func (b *Embedder) TotalTokens() int { return b.totalTokens }

// EstimatedCostUSD reports the running embedding spend at costPerMillion
// dollars per million tokens (e.g. OpenAI's text-embedding-3-large rate).
func (b *Embedder) EstimatedCostUSD(costPerMillion float64) float64 {
	return float64(b.totalTokens) / 1_000_000 * costPerMillion
}

// Dimensions returns the configured embedding vector size.
func (b *Embedder) Dimensions() int { return b.dimensions }
