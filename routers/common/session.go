// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package common

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// SessionCookieName identifies the anonymous browser session. There are no
// accounts; the cookie only scopes stars and CSRF tokens.
const SessionCookieName = "crustyhub_session"

// SessionID returns the session identifier from the request cookie, minting
// and setting a fresh one when absent or empty.
func SessionID(w http.ResponseWriter, req *http.Request) string {
	if c, err := req.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
