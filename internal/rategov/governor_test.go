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
package rategov

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernor_AdmitsAtMostBurstPlusRatePerSecond(t *testing.T) {
	g := New(1, 1, 0.1)

	admitted := 0
	deadline := time.Now().Add(1001 * time.Millisecond)
	for time.Now().Before(deadline) {
		if g.Acquire(0) {
			admitted++
		}
	}
	assert.LessOrEqual(t, admitted, 2)
}

func TestGovernor_ReportRateLimitHalvesRate(t *testing.T) {
	g := New(8, 16, 1)
	g.ReportRateLimit(0)
	assert.InDelta(t, 4.0, float64(g.currentR), 0.001)

	g.ReportRateLimit(0)
	assert.InDelta(t, 2.0, float64(g.currentR), 0.001)
}

func TestGovernor_ReportRateLimitFloorsAtMinimum(t *testing.T) {
	g := New(2, 4, 1)
	g.ReportRateLimit(0)
	g.ReportRateLimit(0)
	g.ReportRateLimit(0)
	assert.InDelta(t, 1.0, float64(g.currentR), 0.001)
}

func TestGovernor_ReportSuccessRecoversButCapsAtOriginal(t *testing.T) {
	g := New(8, 16, 1)
	g.ReportRateLimit(0) // 4
	g.ReportSuccess()    // 4.4
	assert.InDelta(t, 4.4, float64(g.currentR), 0.001)

	for i := 0; i < 20; i++ {
		g.ReportSuccess()
	}
	assert.InDelta(t, 8.0, float64(g.currentR), 0.001)
}

func TestGovernor_ReportRateLimitWithRetryAfterBlocksWait(t *testing.T) {
	g := New(100, 100, 1)
	g.ReportRateLimit(150 * time.Millisecond)

	start := time.Now()
	err := g.Wait(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func TestGovernor_ResetRestoresOriginalRate(t *testing.T) {
	g := New(8, 16, 1)
	g.ReportRateLimit(0)
	g.Reset()
	assert.InDelta(t, 8.0, float64(g.currentR), 0.001)
}
