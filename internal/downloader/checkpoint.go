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
package downloader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the crash-consistent per-company download progress
// record, persisted after every filing.
type Checkpoint struct {
	CIK                 string    `json:"cik"`
	LastAccessionNumber string    `json:"last_accession_number,omitempty"`
	CompletedFilings    []string  `json:"completed_filings"`
	FailedFilings       []string  `json:"failed_filings"`
	Timestamp           time.Time `json:"timestamp"`
}

func checkpointPath(dir, cikPadded string) string {
	return filepath.Join(dir, fmt.Sprintf("download_%s.json", cikPadded))
}

func loadCheckpoint(dir, cikPadded string) (*Checkpoint, error) {
	raw, err := os.ReadFile(checkpointPath(dir, cikPadded))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func saveCheckpoint(dir string, cp Checkpoint) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(checkpointPath(dir, cp.CIK), raw, 0644)
}

func completedSet(cp *Checkpoint) map[string]bool {
	set := make(map[string]bool)
	if cp == nil {
		return set
	}
	for _, acc := range cp.CompletedFilings {
		set[acc] = true
	}
	return set
}
