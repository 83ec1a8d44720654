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

// Package llm wraps the Anthropic client used by query routing, entity
// extraction, multi-hop pruning, and community summarization — every
// place SPEC_FULL.md calls for an LLM call is a Client method, never a
// direct SDK call, so the logging/timeout policy lives in one place.
// Each call makes a single request; the client does not retry.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

const defaultModel = "claude-sonnet-4-20250514"

// Client wraps the Anthropic SDK for the pipeline's text-completion and
// structured-output needs.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// New builds a Client. apiKey is resolved by the caller from config.Secrets.
func New(apiKey, model string, maxTokens int, timeout time.Duration) *Client {
	if model == "" {
		model = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
	}
}

// Message is a single turn in a chat completion request.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Complete sends a chat completion request and returns the concatenated
// text content of the response.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var claudeMessages []anthropic.MessageParam
	var systemText string
	for _, m := range messages {
		switch m.Role {
		case "system":
			if systemText == "" {
				systemText = m.Content
			}
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(claudeMessages) == 0 {
		return "", fmt.Errorf("at least one user message is required")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  claudeMessages,
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			out.WriteString(block.Text)
		}
	}

	log.Debug().Str("model", c.model).Dur("duration", time.Since(start)).Int("response_len", out.Len()).Msg("llm completion")

	if out.Len() == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}
	return out.String(), nil
}

// CompleteSimple is a convenience wrapper for the common single
// system+user prompt shape used by routing, pruning, and NER calls.
func (c *Client) CompleteSimple(ctx context.Context, system, user string) (string, error) {
	return c.Complete(ctx, []Message{{Role: "system", Content: system}, {Role: "user", Content: user}})
}

const jsonOnlyInstruction = "\n\nRespond with a single JSON object only — no prose, no markdown code fence."

// CompleteJSON appends a JSON-only instruction to the system prompt, then
// unmarshals the response into v. A markdown code fence wrapped around
// the object (some models add one despite instructions) is stripped
// before parsing.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, v interface{}) error {
	text, err := c.CompleteSimple(ctx, system+jsonOnlyInstruction, user)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(stripCodeFence(text)), v)
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
