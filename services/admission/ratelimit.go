// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package admission

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/crustyhub/crustyhub/modules/setting"
)

// Category classifies a request for rate-limiting purposes.
type Category string

const (
	CategoryRead     Category = "read"
	CategoryWrite    Category = "write"
	CategoryGitRead  Category = "git-read"
	CategoryGitWrite Category = "git-write"
)

// ClassifyRequest buckets a request: receive-pack endpoints are git-write,
// any other git-protocol path is git-read, non-git POSTs are write, the rest
// is read.
func ClassifyRequest(method, path string) Category {
	if strings.Contains(path, ".git/") {
		if strings.HasSuffix(path, "/git-receive-pack") {
			return CategoryGitWrite
		}
		return CategoryGitRead
	}
	if method == http.MethodPost {
		return CategoryWrite
	}
	return CategoryRead
}

type rateBucket struct {
	count       int
	windowStart time.Time
}

// Limiter is a fixed-window request counter keyed by (category, IP).
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	limits  map[Category]setting.RateLimit
	now     func() time.Time
}

// NewLimiter builds a limiter from the admission settings.
func NewLimiter() *Limiter {
	return &Limiter{
		buckets: make(map[string]*rateBucket),
		limits: map[Category]setting.RateLimit{
			CategoryRead:     setting.Admission.RateRead,
			CategoryWrite:    setting.Admission.RateWrite,
			CategoryGitRead:  setting.Admission.RateGitRead,
			CategoryGitWrite: setting.Admission.RateGitWrite,
		},
		now: time.Now,
	}
}

// Check records one request and returns a denial once the window's ceiling is
// exceeded. A request arriving after the window expired starts a fresh one.
func (l *Limiter) Check(ip string, category Category) *Denial {
	limit, ok := l.limits[category]
	if !ok || limit.Requests <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := string(category) + ":" + ip
	bucket := l.buckets[key]
	if bucket == nil || now.Sub(bucket.windowStart) > limit.Window {
		l.buckets[key] = &rateBucket{count: 1, windowStart: now}
		return nil
	}

	bucket.count++
	if bucket.count > limit.Requests {
		remaining := bucket.windowStart.Add(limit.Window).Sub(now)
		retry := int(remaining.Seconds())
		if remaining > time.Duration(retry)*time.Second {
			retry++
		}
		return &Denial{
			Status:     http.StatusTooManyRequests,
			Message:    "rate limit exceeded",
			RetryAfter: retry,
		}
	}
	return nil
}

// Sweep drops buckets whose window expired long enough ago that they cannot
// influence a future decision.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, bucket := range l.buckets {
		category, _, _ := strings.Cut(key, ":")
		window := time.Minute
		if limit, ok := l.limits[Category(category)]; ok {
			window = limit.Window
		}
		if now.Sub(bucket.windowStart) > 2*window {
			delete(l.buckets, key)
		}
	}
}
