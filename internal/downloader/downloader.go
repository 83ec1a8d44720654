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

// Package downloader implements the per-company, resumable, checkpointed
// download of filing document sets with file-level filtering.
package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pvdata/internal/archive"
	"github.com/penny-vault/pvdata/internal/errs"
	"github.com/penny-vault/pvdata/internal/rategov"
	"github.com/penny-vault/pvdata/internal/storage"
	"github.com/rs/zerolog"
)

// Result is the outcome of downloading one filing's document set.
type Result struct {
	Success         bool
	AccessionNumber string
	CIK             string
	LocalPath       string
	FilesDownloaded []string
	ErrorMessage    string
	DownloadTimeMS  float64
	TotalBytes      int64
}

// Downloader fetches filing document sets to local storage, respecting
// the Rate Governor and persisting a crash-consistent checkpoint after
// every filing.
type Downloader struct {
	client        *archive.Client
	governor      *rategov.Governor
	httpClient    *http.Client
	filer         storage.Filer
	outputDir     string
	checkpointDir string
	userAgent     string
}

// SetTransport overrides the underlying HTTP transport used for document
// downloads. Tests use this to intercept requests without a live network.
func (d *Downloader) SetTransport(rt http.RoundTripper) {
	d.httpClient.Transport = rt
}

func New(client *archive.Client, governor *rategov.Governor, outputDir, checkpointDir, userAgent string) *Downloader {
	return &Downloader{
		client:        client,
		governor:      governor,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		filer:         &storage.FSFiler{BasePath: outputDir},
		outputDir:     outputDir,
		checkpointDir: checkpointDir,
		userAgent:     userAgent,
	}
}

// relFilingPath returns {year}/{cik_padded}/{accession_without_dashes}, the
// path a filing's documents are written under relative to the Filer's base,
// deriving the year from the accession number's YY segment: values below
// 50 are treated as 20YY, otherwise 19YY.
func relFilingPath(cik, accessionNumber string) string {
	accClean := strings.ReplaceAll(accessionNumber, "-", "")

	year := "unknown"
	parts := strings.Split(accessionNumber, "-")
	if len(parts) >= 2 {
		if yy, err := strconv.Atoi(parts[1]); err == nil {
			if yy < 50 {
				year = fmt.Sprintf("20%02d", yy)
			} else {
				year = fmt.Sprintf("19%02d", yy)
			}
		}
	}

	return filepath.Join(year, zeroPad(cik, 10), accClean)
}

// FilingPath returns the absolute {root}/{year}/{cik_padded}/{accession}/
// directory a filing's documents are written under.
func (d *Downloader) FilingPath(cik, accessionNumber string) string {
	return filepath.Join(d.outputDir, relFilingPath(cik, accessionNumber))
}

// DownloadFiling downloads the filtered document set for a single filing.
func (d *Downloader) DownloadFiling(ctx context.Context, filing archive.FilingInfo) Result {
	start := time.Now()
	logger := zerolog.Ctx(ctx)
	relDir := relFilingPath(filing.CIK, filing.AccessionNumber)
	filingPath := filepath.Join(d.outputDir, relDir)

	logger.Info().Str("cik", filing.CIK).Str("accession", filing.AccessionNumber).
		Str("form", filing.FormType).Msg("downloading filing")

	documents, err := d.client.GetFilingDocuments(ctx, filing.CIK, filing.AccessionNumber)
	if err != nil {
		return failedResult(filing, start, err)
	}

	toDownload := filterDocuments(documents, filing.PrimaryDocument)

	if err := d.saveMetadata(filing, relDir, documents); err != nil {
		return failedResult(filing, start, err)
	}

	var downloaded []string
	var totalBytes int64
	for _, doc := range toDownload {
		url := documentURL(filing, doc.Name)
		relFile := filepath.Join(relDir, doc.Name)

		n, err := d.downloadFile(ctx, url, relFile)
		if err != nil {
			logger.Warn().Err(err).Str("file", doc.Name).Msg("failed to download document")
			continue
		}
		downloaded = append(downloaded, doc.Name)
		totalBytes += n
	}

	elapsed := time.Since(start)
	logger.Info().Int("files", len(downloaded)).Int64("bytes", totalBytes).
		Dur("elapsed", elapsed).Str("accession", filing.AccessionNumber).Msg("downloaded filing")

	return Result{
		Success:         true,
		AccessionNumber: filing.AccessionNumber,
		CIK:             filing.CIK,
		LocalPath:       filingPath,
		FilesDownloaded: downloaded,
		DownloadTimeMS:  float64(elapsed.Milliseconds()),
		TotalBytes:      totalBytes,
	}
}

func failedResult(filing archive.FilingInfo, start time.Time, err error) Result {
	return Result{
		Success:         false,
		AccessionNumber: filing.AccessionNumber,
		CIK:             filing.CIK,
		ErrorMessage:    err.Error(),
		DownloadTimeMS:  float64(time.Since(start).Milliseconds()),
	}
}

func documentURL(filing archive.FilingInfo, name string) string {
	cikNum := strings.TrimLeft(filing.CIK, "0")
	accRaw := strings.ReplaceAll(filing.AccessionNumber, "-", "")
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s", cikNum, accRaw, name)
}

func (d *Downloader) downloadFile(ctx context.Context, url, relPath string) (int64, error) {
	if err := d.governor.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrDownload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		d.governor.ReportRateLimit(60 * time.Second)
		return 0, fmt.Errorf("%w: rate limited", errs.ErrRateLimited)
	}
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("%w: status %d", errs.ErrDownload, resp.StatusCode)
	}
	d.governor.ReportSuccess()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return int64(len(data)), fmt.Errorf("%w: %w", errs.ErrDownload, err)
	}

	if _, err := d.filer.CreateFile(relPath, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

type fileMetadata struct {
	AccessionNumber    string             `json:"accession_number"`
	CIK                string             `json:"cik"`
	FormType           string             `json:"form_type"`
	FilingDate         string             `json:"filing_date"`
	PrimaryDocument    string             `json:"primary_document"`
	PrimaryDocDesc     string             `json:"primary_doc_description"`
	IsXBRL             bool               `json:"is_xbrl"`
	IsInlineXBRL       bool               `json:"is_inline_xbrl"`
	Documents          []archive.Document `json:"documents"`
	DownloadTimestamp  string             `json:"download_timestamp"`
	AcceptanceDatetime string             `json:"acceptance_datetime,omitempty"`
}

func (d *Downloader) saveMetadata(filing archive.FilingInfo, relDir string, documents []archive.Document) error {
	meta := fileMetadata{
		AccessionNumber:   filing.AccessionNumber,
		CIK:               filing.CIK,
		FormType:          filing.FormType,
		FilingDate:        filing.FilingDate.Format("2006-01-02"),
		PrimaryDocument:   filing.PrimaryDocument,
		PrimaryDocDesc:    filing.PrimaryDocDesc,
		IsXBRL:            filing.IsXBRL,
		IsInlineXBRL:      filing.IsInlineXBRL,
		Documents:         documents,
		DownloadTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if filing.AcceptanceDateTime != nil {
		meta.AcceptanceDatetime = filing.AcceptanceDateTime.Format(time.RFC3339)
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	_, err = d.filer.CreateFile(filepath.Join(relDir, "metadata.json"), raw)
	return err
}

// DownloadCompanyFilings drives the per-company, resumable loop: if
// resume is true and a checkpoint exists, already-completed filings are
// skipped; otherwise the whole filtered filing set is fetched. The
// checkpoint is persisted after every filing so a crash resumes at
// exactly the next filing.
func (d *Downloader) DownloadCompanyFilings(ctx context.Context, cik, formType string, startYear, endYear int, resume bool) ([]Result, error) {
	logger := zerolog.Ctx(ctx)
	cikPadded := zeroPad(cik, 10)

	var cp *Checkpoint
	if resume {
		loaded, err := loadCheckpoint(d.checkpointDir, cikPadded)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load checkpoint")
		} else {
			cp = loaded
		}
	}

	start := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, 12, 31, 0, 0, 0, 0, time.UTC)

	filings, err := d.client.GetCompanyFilings(ctx, cik, formType, &start, &end)
	if err != nil {
		return nil, err
	}

	done := completedSet(cp)
	if cp != nil {
		var remaining []archive.FilingInfo
		for _, f := range filings {
			if !done[f.AccessionNumber] {
				remaining = append(remaining, f)
			}
		}
		logger.Info().Int("remaining", len(remaining)).Msg("resuming from checkpoint")
		filings = remaining
	}

	var completed, failed []string
	if cp != nil {
		completed = append(completed, cp.CompletedFilings...)
		failed = append(failed, cp.FailedFilings...)
	}

	var results []Result
	for i, filing := range filings {
		logger.Info().Int("index", i+1).Int("total", len(filings)).
			Str("accession", filing.AccessionNumber).Msg("processing filing")

		result := d.DownloadFiling(ctx, filing)
		results = append(results, result)

		if result.Success {
			completed = append(completed, filing.AccessionNumber)
		} else {
			failed = append(failed, filing.AccessionNumber)
		}

		if err := saveCheckpoint(d.checkpointDir, Checkpoint{
			CIK:                 cikPadded,
			LastAccessionNumber: filing.AccessionNumber,
			CompletedFilings:    completed,
			FailedFilings:       failed,
			Timestamp:           time.Now().UTC(),
		}); err != nil {
			logger.Error().Err(err).Msg("failed to save checkpoint")
		}
	}

	logger.Info().Int("completed", len(completed)).Int("failed", len(failed)).
		Str("cik", cikPadded).Msg("completed downloading company filings")

	return results, nil
}

// VerifyDownload reports whether a filing directory contains, at
// minimum, metadata.json, an HTML/HTM document, and (if the metadata
// declares XBRL) an XML document.
func VerifyDownload(filingPath string) bool {
	metaPath := filepath.Join(filingPath, "metadata.json")
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return false
	}

	entries, err := os.ReadDir(filingPath)
	if err != nil {
		return false
	}

	hasHTML := false
	hasXML := false
	for _, e := range entries {
		lower := strings.ToLower(e.Name())
		if strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html") {
			hasHTML = true
		}
		if strings.HasSuffix(lower, ".xml") {
			hasXML = true
		}
	}
	if !hasHTML {
		return false
	}

	var meta fileMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return false
	}
	if (meta.IsXBRL || meta.IsInlineXBRL) && !hasXML {
		return false
	}
	return true
}

func zeroPad(cik string, width int) string {
	for len(cik) < width {
		cik = "0" + cik
	}
	return cik
}
