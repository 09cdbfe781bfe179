// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package admission

import (
	"net/http"
	"sync"
	"time"

	"github.com/crustyhub/crustyhub/modules/setting"
)

// CreationQuota limits how many new repositories one IP may create per hour,
// independent of the general rate limits.
type CreationQuota struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewCreationQuota builds the quota guard from the admission settings.
func NewCreationQuota() *CreationQuota {
	return &CreationQuota{
		buckets: make(map[string]*rateBucket),
		max:     setting.Admission.MaxReposPerHour,
		window:  time.Hour,
		now:     time.Now,
	}
}

// Check records a repository-creation attempt for ip and denies once the
// hourly ceiling is exceeded.
func (q *CreationQuota) Check(ip string) *Denial {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	bucket := q.buckets[ip]
	if bucket == nil || now.Sub(bucket.windowStart) > q.window {
		q.buckets[ip] = &rateBucket{count: 1, windowStart: now}
		return nil
	}

	bucket.count++
	if bucket.count > q.max {
		return &Denial{
			Status:  http.StatusTooManyRequests,
			Message: "repo creation limit exceeded",
		}
	}
	return nil
}

// Sweep drops buckets stale for two windows.
func (q *CreationQuota) Sweep() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for ip, bucket := range q.buckets {
		if now.Sub(bucket.windowStart) > 2*q.window {
			delete(q.buckets, ip)
		}
	}
}
