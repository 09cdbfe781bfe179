// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package admission

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreationQuota(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := &CreationQuota{buckets: make(map[string]*rateBucket), max: 2, window: time.Hour}
	q.now = func() time.Time { return now }

	assert.Nil(t, q.Check("ip"))
	assert.Nil(t, q.Check("ip"))

	denial := q.Check("ip")
	require.NotNil(t, denial)
	assert.Equal(t, http.StatusTooManyRequests, denial.Status)

	now = now.Add(time.Hour + time.Minute)
	assert.Nil(t, q.Check("ip"), "quota window resets after an hour")

	now = now.Add(3 * time.Hour)
	q.Sweep()
	assert.Empty(t, q.buckets)
}

func TestCSRFStore(t *testing.T) {
	s := NewCSRFStore()

	token := s.GetOrCreate("sess")
	assert.Len(t, token, 64)
	assert.Equal(t, token, s.GetOrCreate("sess"), "token stable per session")
	assert.NotEqual(t, token, s.GetOrCreate("other"))

	assert.True(t, s.Validate("sess", token))
	assert.False(t, s.Validate("sess", "wrong"))
	assert.False(t, s.Validate("sess", ""))
	assert.False(t, s.Validate("unknown", token))
}

func TestCSRFSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &CSRFStore{tokens: make(map[string]*csrfEntry)}
	s.now = func() time.Time { return now }

	s.GetOrCreate("sess")
	now = now.Add(25 * time.Hour)
	s.Sweep()
	assert.Empty(t, s.tokens)
}
