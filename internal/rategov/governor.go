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

// Package rategov implements an adaptive token-bucket rate limiter that
// drives every outbound call to the filing archive.
package rategov

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Governor is a process-wide singleton wrapping golang.org/x/time/rate
// with the archive-specific adaptive behaviors: halving the rate on a
// reported 429, honoring an explicit retry-after deadline, and
// recovering geometrically toward the original rate on sustained success.
type Governor struct {
	mu sync.Mutex

	limiter     *rate.Limiter
	originalR   rate.Limit
	minR        rate.Limit
	currentR    rate.Limit
	burst       int
	backoffUntil time.Time
}

// New constructs a Governor with steady-state rate r (requests/second),
// burst capacity b, and floor minRate.
func New(r float64, burst int, minRate float64) *Governor {
	limit := rate.Limit(r)
	return &Governor{
		limiter:   rate.NewLimiter(limit, burst),
		originalR: limit,
		minR:      rate.Limit(minRate),
		currentR:  limit,
		burst:     burst,
	}
}

// Wait blocks the caller until one token is available, or until ctx is
// done. It first honors any outstanding back-off deadline set by
// ReportRateLimit.
func (g *Governor) Wait(ctx context.Context) error {
	if d := g.backoffRemaining(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g.limiter.Wait(ctx)
}

// Acquire attempts to reserve one token within timeout, returning false
// if no token could be consumed in that window. A false result consumes
// no token.
func (g *Governor) Acquire(timeout time.Duration) bool {
	if d := g.backoffRemaining(); d > 0 {
		if d > timeout {
			return false
		}
		time.Sleep(d)
		timeout -= d
	}
	r := g.limiter.Reserve()
	if !r.OK() {
		return false
	}
	delay := r.Delay()
	if delay > timeout {
		r.Cancel()
		return false
	}
	time.Sleep(delay)
	return true
}

// ReportRateLimit is called by callers that observe a 429 from the
// archive. If retryAfter is non-zero, the governor blocks all acquirers
// until that deadline; otherwise it halves the current rate, floored at
// the configured minimum.
func (g *Governor) ReportRateLimit(retryAfter time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if retryAfter > 0 {
		deadline := time.Now().Add(retryAfter)
		if deadline.After(g.backoffUntil) {
			g.backoffUntil = deadline
		}
		return
	}

	newRate := g.currentR / 2
	if newRate < g.minR {
		newRate = g.minR
	}
	g.currentR = newRate
	g.limiter.SetLimit(newRate)
}

// ReportSuccess performs geometric recovery: the current rate increases
// by 10%, capped at the originally configured rate.
func (g *Governor) ReportSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	newRate := g.currentR * 1.1
	if newRate > g.originalR {
		newRate = g.originalR
	}
	g.currentR = newRate
	g.limiter.SetLimit(newRate)
}

// AvailableTokens approximates the current bucket level.
func (g *Governor) AvailableTokens() float64 {
	return float64(g.limiter.TokensAt(time.Now()))
}

// Reset restores the governor to its originally configured rate and
// clears any back-off deadline.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentR = g.originalR
	g.backoffUntil = time.Time{}
	g.limiter.SetLimit(g.originalR)
}

func (g *Governor) backoffRemaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.backoffUntil.IsZero() {
		return 0
	}
	d := time.Until(g.backoffUntil)
	if d <= 0 {
		g.backoffUntil = time.Time{}
		return 0
	}
	return d
}
