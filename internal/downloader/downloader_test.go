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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/penny-vault/pvdata/internal/archive"
	"github.com/penny-vault/pvdata/internal/rategov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTransport serves canned responses for the submissions endpoint
// and per-filing index.json URLs, and counts every request by its exact
// URL so tests can assert which fetches did or did not happen.
type countingTransport struct {
	mu              sync.Mutex
	calls           map[string]int
	submissionsBody []byte
	indexBodies     map[string][]byte
}

func newCountingTransport() *countingTransport {
	return &countingTransport{
		calls:       make(map[string]int),
		indexBodies: make(map[string][]byte),
	}
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	url := req.URL.String()
	t.calls[url]++
	t.mu.Unlock()

	if strings.Contains(url, "/submissions/CIK") {
		return jsonResponse(t.submissionsBody), nil
	}
	if body, ok := t.indexBodies[url]; ok {
		return jsonResponse(body), nil
	}
	return byteResponse([]byte("document body")), nil
}

func (t *countingTransport) count(url string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[url]
}

func jsonResponse(body []byte) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

func byteResponse(body []byte) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

type testSubmissions struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			PrimaryDocument []string `json:"primaryDocument"`
			IsXBRL          []int    `json:"isXBRL"`
			IsInlineXBRL    []int    `json:"isInlineXBRL"`
		} `json:"recent"`
		Files []any `json:"files"`
	} `json:"filings"`
}

// TestDownloadCompanyFilings_ResumesFromCheckpoint exercises the concrete
// resume scenario: three 10-K filings exist, a checkpoint already marks
// the first two complete, and resuming must fetch the submissions list
// exactly once, skip document fetches for the completed filings, and
// download only the remaining one.
func TestDownloadCompanyFilings_ResumesFromCheckpoint(t *testing.T) {
	cik := "0000320193"
	f1 := archive.FilingInfo{CIK: cik, AccessionNumber: "0000320193-23-000001"}
	f2 := archive.FilingInfo{CIK: cik, AccessionNumber: "0000320193-23-000002"}
	f3 := archive.FilingInfo{CIK: cik, AccessionNumber: "0000320193-24-000003"}

	var submissions testSubmissions
	submissions.CIK = cik
	submissions.Name = "Apple Inc."
	submissions.Filings.Recent.AccessionNumber = []string{f1.AccessionNumber, f2.AccessionNumber, f3.AccessionNumber}
	submissions.Filings.Recent.Form = []string{"10-K", "10-K", "10-K"}
	submissions.Filings.Recent.FilingDate = []string{"2023-01-01", "2023-06-01", "2024-01-01"}
	submissions.Filings.Recent.PrimaryDocument = []string{"f1.htm", "f2.htm", "f3.htm"}
	submissions.Filings.Recent.IsXBRL = []int{1, 1, 1}
	submissions.Filings.Recent.IsInlineXBRL = []int{1, 1, 1}

	submissionsBody, err := json.Marshal(submissions)
	require.NoError(t, err)

	transport := newCountingTransport()
	transport.submissionsBody = submissionsBody
	transport.indexBodies[f3.IndexURL()] = []byte(`{"directory":{"item":[{"name":"f3.htm","type":"text"}]}}`)

	governor := rategov.New(1000, 1000, 1000)
	client := archive.New("test-agent (test@example.com)", governor, 5*time.Second, 0)
	client.SetTransport(transport)

	tmpDir := t.TempDir()
	outputDir := filepath.Join(tmpDir, "data")
	checkpointDir := filepath.Join(tmpDir, "checkpoints")
	require.NoError(t, os.MkdirAll(checkpointDir, 0755))

	err = saveCheckpoint(checkpointDir, Checkpoint{
		CIK:              cik,
		CompletedFilings: []string{f1.AccessionNumber, f2.AccessionNumber},
		FailedFilings:    []string{},
		Timestamp:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	d := New(client, governor, outputDir, checkpointDir, "test-agent (test@example.com)")
	d.SetTransport(transport)

	results, err := d.DownloadCompanyFilings(context.Background(), cik, "10-K", 2023, 2024, true)
	require.NoError(t, err)

	assert.Len(t, results, 1)
	assert.Equal(t, f3.AccessionNumber, results[0].AccessionNumber)

	submissionsURL := "https://data.sec.gov/submissions/CIK0000320193.json"
	assert.Equal(t, 1, transport.count(submissionsURL), "submissions endpoint must be fetched exactly once")
	assert.Equal(t, 0, transport.count(f1.IndexURL()), "completed filing F1 must not be re-fetched")
	assert.Equal(t, 0, transport.count(f2.IndexURL()), "completed filing F2 must not be re-fetched")
	assert.Equal(t, 1, transport.count(f3.IndexURL()), "remaining filing F3 must be fetched once")

	updated, err := loadCheckpoint(checkpointDir, cik)
	require.NoError(t, err)
	assert.Contains(t, updated.CompletedFilings, f1.AccessionNumber)
	assert.Contains(t, updated.CompletedFilings, f2.AccessionNumber)
	assert.Contains(t, updated.CompletedFilings, f3.AccessionNumber)
}

func TestFilingPath_DerivesYearFromAccessionSuffix(t *testing.T) {
	d := &Downloader{outputDir: "/data"}

	p := d.FilingPath("0000320193", "0000320193-24-000001")
	assert.Equal(t, filepath.Join("/data", "2024", "0000320193", "000032019324000001"), p)

	p = d.FilingPath("0000320193", "0000320193-98-000001")
	assert.Equal(t, filepath.Join("/data", "1998", "0000320193", "000032019398000001"), p)
}

func TestVerifyDownload_RequiresXMLWhenXBRL(t *testing.T) {
	dir := t.TempDir()

	meta := fileMetadata{IsXBRL: true}
	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), raw, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.htm"), []byte("<html></html>"), 0644))

	assert.False(t, VerifyDownload(dir), "missing xml must fail verification for an xbrl filing")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "instance.xml"), []byte("<xbrl/>"), 0644))
	assert.True(t, VerifyDownload(dir))
}
