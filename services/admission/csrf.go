// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package admission

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"
)

const csrfTokenTTL = 24 * time.Hour

type csrfEntry struct {
	token      string
	lastAccess time.Time
}

// CSRFStore issues one token per anonymous session, refreshed on access.
type CSRFStore struct {
	mu     sync.Mutex
	tokens map[string]*csrfEntry
	now    func() time.Time
}

// NewCSRFStore builds an empty token store.
func NewCSRFStore() *CSRFStore {
	return &CSRFStore{
		tokens: make(map[string]*csrfEntry),
		now:    time.Now,
	}
}

// GetOrCreate returns the session's token, minting one if needed.
func (s *CSRFStore) GetOrCreate(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.tokens[sessionID]; ok {
		entry.lastAccess = s.now()
		return entry.token
	}

	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)
	s.tokens[sessionID] = &csrfEntry{token: token, lastAccess: s.now()}
	return token
}

// Validate checks a submitted token against the session's stored one.
func (s *CSRFStore) Validate(sessionID, token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[sessionID]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(entry.token), []byte(token)) == 1
}

// Sweep drops tokens idle past their TTL.
func (s *CSRFStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for sessionID, entry := range s.tokens {
		if now.Sub(entry.lastAccess) > csrfTokenTTL {
			delete(s.tokens, sessionID)
		}
	}
}
