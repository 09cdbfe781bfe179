// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package common holds response helpers shared by the routers.
package common

import (
	"net/http"
	"strconv"

	"github.com/crustyhub/crustyhub/modules/json"
	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/services/admission"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("write json response: %v", err)
	}
}

// WriteError writes a machine-readable error body.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteDenial writes an admission denial, including a Retry-After hint when
// the denial is time-bounded.
func WriteDenial(w http.ResponseWriter, d *admission.Denial) {
	if d.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
		WriteJSON(w, d.Status, map[string]any{"error": d.Message, "retryAfter": d.RetryAfter})
		return
	}
	WriteError(w, d.Status, d.Message)
}
