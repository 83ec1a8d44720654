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

// Package archive is a typed wrapper over the filing archive's JSON
// submissions endpoint and document fetch URLs.
package archive

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gojson "github.com/goccy/go-json"
	"github.com/penny-vault/pvdata/internal/errs"
	"github.com/penny-vault/pvdata/internal/rategov"
	"github.com/rs/zerolog"
)

const (
	submissionsURLTemplate = "https://data.sec.gov/submissions/CIK%s.json"
	archiveBaseURL         = "https://www.sec.gov/Archives/edgar/data"
)

// FilingInfo is a single filing descriptor flattened out of the
// submissions response's parallel arrays.
type FilingInfo struct {
	AccessionNumber    string
	CIK                string
	FormType           string
	FilingDate         time.Time
	PrimaryDocument    string
	PrimaryDocDesc     string
	AcceptanceDateTime *time.Time
	IsXBRL             bool
	IsInlineXBRL       bool
}

// AccessionRaw returns the accession number with dashes stripped, as used
// in file paths and archive URLs.
func (f FilingInfo) AccessionRaw() string {
	return strings.ReplaceAll(f.AccessionNumber, "-", "")
}

// FilingURL is the raw URL to the filing's primary document.
func (f FilingInfo) FilingURL() string {
	cikNum := strings.TrimLeft(f.CIK, "0")
	return fmt.Sprintf("%s/%s/%s/%s", archiveBaseURL, cikNum, f.AccessionRaw(), f.PrimaryDocument)
}

// IndexURL is the URL to the filing's directory listing.
func (f FilingInfo) IndexURL() string {
	cikNum := strings.TrimLeft(f.CIK, "0")
	return fmt.Sprintf("%s/%s/%s/index.json", archiveBaseURL, cikNum, f.AccessionRaw())
}

// Document is one entry in a filing's directory listing.
type Document struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	LastModified string `json:"last-modified"`
}

// CompanyInfo is the subset of the submissions response describing the
// company itself, independent of its filing history.
type CompanyInfo struct {
	CIK               string
	Name              string
	Tickers           []string
	SICCode           string
	SICDescription    string
	FiscalYearEnd     string
	StateOfIncorp     string
	EmployerID        string
}

// Client is a rate-governed HTTP client for the filing archive.
type Client struct {
	http      *resty.Client
	governor  *rategov.Governor
	userAgent string
}

// New constructs an archive Client. userAgent must be a descriptive,
// contact-carrying string; the archive rejects requests without one.
func New(userAgent string, governor *rategov.Governor, timeout time.Duration, maxRetries int) *Client {
	http := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Encoding", "gzip, deflate").
		SetTimeout(timeout).
		SetRetryCount(maxRetries).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			switch r.StatusCode() {
			case 429, 500, 502, 503, 504:
				return true
			}
			return false
		})
	http.JSONMarshal = gojson.Marshal
	http.JSONUnmarshal = gojson.Unmarshal

	return &Client{http: http, governor: governor, userAgent: userAgent}
}

// SetTransport overrides the underlying HTTP transport. Tests use this to
// intercept requests without a live network.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.SetTransport(rt)
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	logger := zerolog.Ctx(ctx)

	if err := c.governor.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrArchiveTransport, err)
	}

	resp, err := c.http.R().SetContext(ctx).SetResult(out).Get(url)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrArchiveTransport, err)
	}

	if resp.StatusCode() == 429 {
		retryAfter := parseRetryAfter(resp.Header().Get("Retry-After"))
		c.governor.ReportRateLimit(retryAfter)
		return &errs.RateLimitError{RetryAfterSeconds: int(retryAfter.Seconds())}
	}

	if resp.IsError() {
		logger.Error().Str("url", url).Int("status", resp.StatusCode()).Msg("archive request failed")
		return fmt.Errorf("%w: status %d for %s", errs.ErrArchiveTransport, resp.StatusCode(), url)
	}

	c.governor.ReportSuccess()
	return nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 60 * time.Second
	}
	secs, err := strconv.ParseFloat(header, 64)
	if err != nil {
		return 60 * time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

// GetSubmissions returns the company's raw submissions JSON (metadata
// plus recent-filings parallel arrays and additional-file shard names).
func (c *Client) GetSubmissions(ctx context.Context, cik string) (*submissionsResponse, error) {
	padded := zeroPad(cik, 10)
	url := fmt.Sprintf(submissionsURLTemplate, padded)

	var result submissionsResponse
	if err := c.get(ctx, url, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCompanyFilings flattens the submissions response into filing
// descriptors, merging additional shard files, filtering by form and
// date range, and sorting by filing date descending.
func (c *Client) GetCompanyFilings(ctx context.Context, cik, formType string, startDate, endDate *time.Time) ([]FilingInfo, error) {
	padded := zeroPad(cik, 10)
	submissions, err := c.GetSubmissions(ctx, cik)
	if err != nil {
		return nil, err
	}

	filings := parseFilings(padded, submissions.Filings.Recent, formType, startDate, endDate)

	for _, shard := range submissions.Filings.Files {
		shardURL := fmt.Sprintf("https://data.sec.gov/submissions/%s", shard.Name)
		var additional filingsBlock
		if err := c.get(ctx, shardURL, &additional); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("shard", shard.Name).Msg("failed to fetch additional filings shard")
			continue
		}
		filings = append(filings, parseFilings(padded, additional, formType, startDate, endDate)...)
	}

	sortFilingsDescending(filings)
	return filings, nil
}

// GetFilingDocuments returns the directory listing for a filing.
func (c *Client) GetFilingDocuments(ctx context.Context, cik, accession string) ([]Document, error) {
	info := FilingInfo{CIK: zeroPad(cik, 10), AccessionNumber: accession}

	var index indexResponse
	if err := c.get(ctx, info.IndexURL(), &index); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(index.Directory.Item))
	for _, item := range index.Directory.Item {
		docs = append(docs, Document{
			Name:         item.Name,
			Type:         item.Type,
			Size:         item.Size,
			LastModified: item.LastModified,
		})
	}
	return docs, nil
}

// GetCompanyInfo extracts the company metadata subset of the submissions
// response.
func (c *Client) GetCompanyInfo(ctx context.Context, cik string) (*CompanyInfo, error) {
	submissions, err := c.GetSubmissions(ctx, cik)
	if err != nil {
		return nil, err
	}
	return &CompanyInfo{
		CIK:            zeroPad(cik, 10),
		Name:           submissions.Name,
		Tickers:        submissions.Tickers,
		SICCode:        submissions.SIC,
		SICDescription: submissions.SICDescription,
		FiscalYearEnd:  submissions.FiscalYearEnd,
		StateOfIncorp:  submissions.StateOfIncorporation,
		EmployerID:     submissions.EIN,
	}, nil
}

func zeroPad(cik string, width int) string {
	for len(cik) < width {
		cik = "0" + cik
	}
	return cik
}
