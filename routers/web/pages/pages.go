// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pages serves static sites from repositories on dedicated
// subdomains of the pages domain.
package pages

import (
	"net"
	"net/http"
	"strings"

	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/setting"
	"github.com/crustyhub/crustyhub/modules/validation"
	pages_service "github.com/crustyhub/crustyhub/services/pages"
)

// MatchHost reports whether the request host is a pages subdomain and
// returns the repository slug it addresses. The port, if any, is ignored.
func MatchHost(host string) (slug string, ok bool) {
	if !setting.Pages.Enabled {
		return "", false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	slug, found := strings.CutSuffix(host, "."+setting.Pages.Domain)
	if !found || !validation.IsValidSlug(slug) {
		return "", false
	}
	return slug, true
}

// Handler serves one request for a pages site.
type Handler struct{}

func (Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slug, ok := MatchHost(req.Host)
	if !ok {
		http.NotFound(w, req)
		return
	}

	repo, err := repo_model.GetRepositoryBySlug(req.Context(), slug)
	if err != nil {
		if repo_model.IsErrRepoNotFound(err) {
			http.NotFound(w, req)
		} else {
			log.Error("pages repository lookup %s: %v", slug, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	if !repo.IsPublic {
		http.NotFound(w, req)
		return
	}

	file, err := pages_service.ServeFile(req.Context(), slug, req.URL.Path)
	if err != nil {
		log.Error("pages serve %s%s: %v", slug, req.URL.Path, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if file == nil {
		http.NotFound(w, req)
		return
	}

	h := w.Header()
	h.Set("Content-Type", file.MimeType)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "SAMEORIGIN")
	h.Set("Cache-Control", "public, max-age=60")
	if req.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(file.Content); err != nil {
		log.Debug("pages write %s%s: %v", slug, req.URL.Path, err)
	}
}
