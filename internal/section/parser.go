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
package section

import (
	"fmt"
	"os"
	"time"

	"github.com/penny-vault/pvdata/internal/config"
	"github.com/penny-vault/pvdata/internal/model"
)

// ParseResult is the outcome of parsing one filing's sections.
type ParseResult struct {
	Success         bool
	AccessionNumber string
	Sections        []model.Section
	ErrorMessage    string
	ParseTimeMS     float64
}

// ParseFiling finds a filing directory's primary HTML document and
// extracts every Item section from it.
func ParseFiling(cfg config.SectionConfig, dir, accessionNumber string) *ParseResult {
	start := time.Now()

	docPath, err := FindPrimaryDocument(dir)
	if err != nil {
		return &ParseResult{
			Success:         false,
			AccessionNumber: accessionNumber,
			ErrorMessage:    err.Error(),
			ParseTimeMS:     float64(time.Since(start).Milliseconds()),
		}
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		return &ParseResult{
			Success:         false,
			AccessionNumber: accessionNumber,
			ErrorMessage:    err.Error(),
			ParseTimeMS:     float64(time.Since(start).Milliseconds()),
		}
	}

	sections, err := ExtractSections(cfg, data)
	if err != nil {
		return &ParseResult{
			Success:         false,
			AccessionNumber: accessionNumber,
			ErrorMessage:    fmt.Sprintf("extract sections: %s", err),
			ParseTimeMS:     float64(time.Since(start).Milliseconds()),
		}
	}

	for i := range sections {
		sections[i].AccessionNumber = accessionNumber
	}

	return &ParseResult{
		Success:         true,
		AccessionNumber: accessionNumber,
		Sections:        sections,
		ParseTimeMS:     float64(time.Since(start).Milliseconds()),
	}
}
