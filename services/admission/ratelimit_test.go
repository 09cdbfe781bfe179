// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package admission

import (
	"net/http"
	"testing"
	"time"

	"github.com/crustyhub/crustyhub/modules/setting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(requests int, window time.Duration) (*Limiter, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := &Limiter{
		buckets: make(map[string]*rateBucket),
		limits: map[Category]setting.RateLimit{
			CategoryWrite: {Requests: requests, Window: window},
		},
	}
	l.now = func() time.Time { return now }
	return l, &now
}

func TestClassifyRequest(t *testing.T) {
	assert.Equal(t, CategoryGitWrite, ClassifyRequest(http.MethodPost, "/my-repo.git/git-receive-pack"))
	assert.Equal(t, CategoryGitRead, ClassifyRequest(http.MethodGet, "/my-repo.git/info/refs"))
	assert.Equal(t, CategoryGitRead, ClassifyRequest(http.MethodPost, "/my-repo.git/git-upload-pack"))
	assert.Equal(t, CategoryGitRead, ClassifyRequest(http.MethodGet, "/my-repo.git/objects/ab/cdef"))
	assert.Equal(t, CategoryWrite, ClassifyRequest(http.MethodPost, "/new"))
	assert.Equal(t, CategoryRead, ClassifyRequest(http.MethodGet, "/my-repo"))
}

func TestLimiterCeilingAndReset(t *testing.T) {
	l, now := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.Nil(t, l.Check("1.2.3.4", CategoryWrite), "request %d should pass", i+1)
	}

	denial := l.Check("1.2.3.4", CategoryWrite)
	require.NotNil(t, denial)
	assert.Equal(t, http.StatusTooManyRequests, denial.Status)
	assert.Greater(t, denial.RetryAfter, 0)
	assert.LessOrEqual(t, denial.RetryAfter, 60)

	// Other IPs and categories are unaffected.
	assert.Nil(t, l.Check("5.6.7.8", CategoryWrite))

	// After the window elapses the counter resets.
	*now = now.Add(61 * time.Second)
	assert.Nil(t, l.Check("1.2.3.4", CategoryWrite))
}

func TestLimiterSweep(t *testing.T) {
	l, now := newTestLimiter(3, time.Minute)

	l.Check("1.2.3.4", CategoryWrite)
	assert.Len(t, l.buckets, 1)

	l.Sweep()
	assert.Len(t, l.buckets, 1, "fresh bucket survives sweep")

	*now = now.Add(3 * time.Minute)
	l.Sweep()
	assert.Empty(t, l.buckets)
}
