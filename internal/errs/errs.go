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

// Package errs holds the sentinel error categories shared across the
// pipeline, so callers can classify a failure with errors.Is without
// depending on the component that produced it.
package errs

import "errors"

var (
	// Ingestion
	ErrArchiveTransport = errors.New("archive transport error")
	ErrRateLimited      = errors.New("rate limited by archive")
	ErrDownload         = errors.New("download error")

	// Parsing
	ErrXBRLParse    = errors.New("xbrl parse error")
	ErrSectionParse = errors.New("section parse error")
	ErrTableParse   = errors.New("table parse error")

	// Storage
	ErrStorageConnection = errors.New("storage connection error")
	ErrSchemaViolation   = errors.New("schema violation")

	// Validation
	ErrSchemaMismatch      = errors.New("schema mismatch")
	ErrDataQualityViolation = errors.New("data quality violation")

	// Pipeline
	ErrStageFailure = errors.New("pipeline stage failure")

	// Retrieval
	ErrLLM             = errors.New("llm failure")
	ErrEmbeddings      = errors.New("embeddings failure")
	ErrReranker        = errors.New("reranker failure")
	ErrGraphUnreachable = errors.New("graph store unreachable")

	// Config
	ErrConfigMissing = errors.New("missing required configuration key")
)

// RateLimitError carries an optional archive-supplied retry-after hint.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string { return ErrRateLimited.Error() }
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
