// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package admission implements the guards that protect the anonymous write
// path: rate limiting, per-IP concurrency limiting, repo-creation quotas,
// disk-space checks, and spam scoring. All state is process-scoped and swept
// periodically; a restart resets it, which is acceptable for a
// defense-in-depth layer.
package admission

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/crustyhub/crustyhub/modules/log"
)

// Denial is a rejected admission decision. A nil *Denial means allowed.
type Denial struct {
	Status     int
	Message    string
	RetryAfter int // seconds; 0 means no Retry-After hint
}

// Service bundles every admission guard with its backing store.
type Service struct {
	Limiter *Limiter
	Gauge   *ConcurrencyGauge
	Quota   *CreationQuota
	Spam    *SpamDetector
	CSRF    *CSRFStore
}

// NewService builds all guards from the current settings.
func NewService() *Service {
	return &Service{
		Limiter: NewLimiter(),
		Gauge:   NewConcurrencyGauge(),
		Quota:   NewCreationQuota(),
		Spam:    NewSpamDetector(),
		CSRF:    NewCSRFStore(),
	}
}

// StartSweepers schedules the periodic pruning jobs and returns the running
// scheduler so the caller owns its lifecycle.
func (s *Service) StartSweepers() *gocron.Scheduler {
	sched := gocron.NewScheduler(time.UTC)
	mustSchedule(sched.Every(5).Minutes().Do(s.Limiter.Sweep))
	mustSchedule(sched.Every(5).Minutes().Do(s.Spam.Sweep))
	mustSchedule(sched.Every(10).Minutes().Do(s.Quota.Sweep))
	mustSchedule(sched.Every(10).Minutes().Do(s.CSRF.Sweep))
	sched.StartAsync()
	return sched
}

func mustSchedule(_ *gocron.Job, err error) {
	if err != nil {
		log.Fatal("schedule sweep job: %v", err)
	}
}

// ClientIP extracts the client address, preferring proxy headers the way the
// service is deployed (single reverse proxy in front).
func ClientIP(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := req.Header.Get("X-Real-Ip"); real != "" {
		return strings.TrimSpace(real)
	}
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}
	if req.RemoteAddr != "" {
		return req.RemoteAddr
	}
	return "unknown"
}
