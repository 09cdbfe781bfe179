// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package admission

import (
	"sync"

	"github.com/crustyhub/crustyhub/modules/setting"
)

// ConcurrencyGauge bounds the number of in-flight git operations per client
// IP. Entries are removed when they drop to zero, so the map only holds IPs
// with active operations.
type ConcurrencyGauge struct {
	mu     sync.Mutex
	counts map[string]int
	max    int
}

// NewConcurrencyGauge builds a gauge from the admission settings.
func NewConcurrencyGauge() *ConcurrencyGauge {
	return &ConcurrencyGauge{
		counts: make(map[string]int),
		max:    setting.Admission.MaxConcurrentGitOps,
	}
}

// TryAcquire reserves a slot for ip. The caller must Release on every exit
// path, including panics.
func (g *ConcurrencyGauge) TryAcquire(ip string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts[ip] >= g.max {
		return false
	}
	g.counts[ip]++
	return true
}

// Release returns a slot. The count never goes below zero.
func (g *ConcurrencyGauge) Release(ip string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts[ip] <= 1 {
		delete(g.counts, ip)
		return
	}
	g.counts[ip]--
}

// InFlight reports the current count for an IP, for tests and introspection.
func (g *ConcurrencyGauge) InFlight(ip string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[ip]
}
