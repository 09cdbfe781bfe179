// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package githttp is the smart-HTTP surface: it admits, provisions, and then
// bridges git client requests onto the git-http-backend CGI subprocess.
package githttp

import (
	"errors"
	"net/http"
	"os"
	"regexp"
	"strings"

	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/setting"
	"github.com/crustyhub/crustyhub/routers/common"
	"github.com/crustyhub/crustyhub/services/admission"
	"github.com/crustyhub/crustyhub/services/pages"
	"github.com/crustyhub/crustyhub/services/repository"
)

// gitPathPattern splits /{slug}.git/{service...} without consulting the
// router, mirroring the slug rules in modules/validation.
var gitPathPattern = regexp.MustCompile(`^/([A-Za-z0-9][A-Za-z0-9._-]{0,62})\.git/(.+)$`)

// Handler serves every /{slug}.git/* request.
type Handler struct {
	svc *admission.Service
}

// NewHandler builds the git transport handler over the admission service.
func NewHandler(svc *admission.Service) *Handler {
	return &Handler{svc: svc}
}

// Match extracts (slug, service path) from a request path, reporting whether
// this is a git-protocol request at all.
func Match(path string) (slug, rest string, ok bool) {
	m := gitPathPattern.FindStringSubmatch(path)
	if m == nil || strings.Contains(m[1], "..") {
		return "", "", false
	}
	return m[1], m[2], true
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	slug, rest, ok := Match(req.URL.Path)
	if !ok {
		http.NotFound(w, req)
		return
	}

	ip := admission.ClientIP(req)

	// Concurrency guard first; the deferred release covers every exit path
	// below, panics included.
	if !h.svc.Gauge.TryAcquire(ip) {
		common.WriteError(w, http.StatusTooManyRequests, "too many concurrent git operations")
		return
	}
	defer h.svc.Gauge.Release(ip)

	isReceivePack := rest == "git-receive-pack" ||
		(rest == "info/refs" && req.URL.Query().Get("service") == "git-receive-pack")

	// New-repository quota applies only to the push endpoints, which are the
	// ones that can provision storage.
	if isReceivePack && !repoDirExists(slug) {
		if denial := h.svc.Quota.Check(ip); denial != nil {
			common.WriteDenial(w, denial)
			return
		}
	}

	if req.ContentLength > 0 && req.ContentLength > setting.Repository.MaxPushSize {
		common.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
			"error": "push payload too large",
			"maxMB": setting.Repository.MaxPushSize / (1024 * 1024),
		})
		return
	}
	if req.Method == http.MethodPost {
		req.Body = http.MaxBytesReader(w, req.Body, setting.Repository.MaxPushSize)
	}

	if req.Method == http.MethodPost {
		if denial := admission.CheckDiskSpace(); denial != nil {
			common.WriteDenial(w, denial)
			return
		}
	}

	switch {
	case rest == "info/refs" && req.Method == http.MethodGet:
		if isReceivePack {
			if !h.ensure(w, req, slug) {
				return
			}
		} else if h.missingFromDisk(w, req, slug) {
			return
		}
		serveBackend(w, req, "/"+slug+".git/info/refs")

	case rest == "git-upload-pack" && req.Method == http.MethodPost:
		if h.missingFromDisk(w, req, slug) {
			return
		}
		serveBackend(w, req, "/"+slug+".git/git-upload-pack")

	case rest == "git-receive-pack" && req.Method == http.MethodPost:
		if !h.ensure(w, req, slug) {
			return
		}
		serveBackend(w, req, "/"+slug+".git/git-receive-pack")

		// Post-push side effects are best-effort; the response has already
		// streamed to the client.
		if err := repo_model.TouchRepository(req.Context(), slug); err != nil {
			log.Warn("touch %s after push: %v", slug, err)
		}
		pages.Invalidate(slug)
		repository.QueueBundle(slug)

	case rest == "HEAD" && req.Method == http.MethodGet:
		if h.missingFromDisk(w, req, slug) {
			return
		}
		serveBackend(w, req, "/"+slug+".git/HEAD")

	case strings.HasPrefix(rest, "objects/") && req.Method == http.MethodGet:
		if h.missingFromDisk(w, req, slug) {
			return
		}
		serveBackend(w, req, req.URL.Path)

	default:
		http.NotFound(w, req)
	}
}

// ensure provisions the repository for a push, translating lifecycle errors
// into the admission taxonomy.
func (h *Handler) ensure(w http.ResponseWriter, req *http.Request, slug string) bool {
	err := repository.EnsureForPush(req.Context(), slug)
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrInvalidSlug):
		common.WriteError(w, http.StatusBadRequest, "invalid repository name")
	case errors.Is(err, repository.ErrDiskFull):
		common.WriteError(w, http.StatusServiceUnavailable, "server disk space critically low, cannot create new repos")
	default:
		log.Error("provision %s for push: %v", slug, err)
		common.WriteError(w, http.StatusInternalServerError, "failed to prepare repository")
	}
	return false
}

// missingFromDisk distinguishes "never existed" (404) from "row exists but
// the directory is gone", which is lost state requiring restore (500).
func (h *Handler) missingFromDisk(w http.ResponseWriter, req *http.Request, slug string) bool {
	if repoDirExists(slug) {
		return false
	}
	if _, err := repo_model.GetRepositoryBySlug(req.Context(), slug); err == nil {
		common.WriteError(w, http.StatusInternalServerError, "repository data missing from disk")
		return true
	}
	common.WriteError(w, http.StatusNotFound, "repository not found")
	return true
}

func repoDirExists(slug string) bool {
	_, err := os.Stat(repo_model.RepoPath(slug))
	return err == nil
}
