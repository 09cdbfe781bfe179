// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repo exposes the anonymous JSON endpoints for repository and issue
// management. Every write runs the same admission chain: ban check, banned
// content patterns, CSRF, input validation, then spam scoring.
package repo

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	issues_model "github.com/crustyhub/crustyhub/models/issues"
	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/json"
	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/timeutil"
	"github.com/crustyhub/crustyhub/modules/validation"
	"github.com/crustyhub/crustyhub/routers/common"
	"github.com/crustyhub/crustyhub/services/admission"
	repo_service "github.com/crustyhub/crustyhub/services/repository"
)

// Web carries the admission guards into the handlers.
type Web struct {
	svc *admission.Service
}

func NewWeb(svc *admission.Service) *Web {
	return &Web{svc: svc}
}

type repoResponse struct {
	Slug          string             `json:"slug"`
	Description   string             `json:"description"`
	DefaultBranch string             `json:"defaultBranch"`
	CreatedVia    string             `json:"createdVia"`
	ForkedFrom    string             `json:"forkedFrom,omitempty"`
	Stars         int                `json:"stars"`
	CreatedAt     timeutil.TimeStamp `json:"createdAt"`
	UpdatedAt     timeutil.TimeStamp `json:"updatedAt"`
}

func toRepoResponse(req *http.Request, r *repo_model.Repository) *repoResponse {
	out := &repoResponse{
		Slug:          r.Slug,
		Description:   r.Description,
		DefaultBranch: r.DefaultBranch,
		CreatedVia:    r.CreatedVia,
		Stars:         r.StarCount,
		CreatedAt:     r.CreatedUnix,
		UpdatedAt:     r.UpdatedUnix,
	}
	if r.ForkedFromID > 0 {
		if src, err := repo_model.GetRepositoryByID(req.Context(), r.ForkedFromID); err == nil {
			out.ForkedFrom = src.Slug
		}
	}
	return out
}

// decodeBody reads a small JSON request body into dst. Returns false after
// writing the error response.
func decodeBody(w http.ResponseWriter, req *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20)).Decode(dst); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// guardWrite runs the pre-validation admission chain shared by every
// anonymous write. texts are checked against the banned content patterns.
// Returns the session ID and whether the request may proceed.
func (h *Web) guardWrite(w http.ResponseWriter, req *http.Request, texts ...string) (string, bool) {
	ip := admission.ClientIP(req)
	if d := h.svc.Spam.CheckBan(ip); d != nil {
		common.WriteDenial(w, d)
		return "", false
	}
	if d := h.svc.Spam.CheckBannedPatterns(texts...); d != nil {
		common.WriteDenial(w, d)
		return "", false
	}
	sessionID := common.SessionID(w, req)
	if !h.svc.CSRF.Validate(sessionID, req.Header.Get("X-CSRF-Token")) {
		common.WriteError(w, http.StatusForbidden, "invalid csrf token")
		return "", false
	}
	return sessionID, true
}

// scoreWrite feeds the write into the spam detector after validation.
// Returns false after writing the denial.
func (h *Web) scoreWrite(w http.ResponseWriter, req *http.Request, content admission.Content) bool {
	if d := h.svc.Spam.Score(admission.ClientIP(req), content); d != nil {
		common.WriteDenial(w, d)
		return false
	}
	return true
}

// loadRepo resolves the slug URL parameter to a live repository, writing the
// error response when it cannot.
func loadRepo(w http.ResponseWriter, req *http.Request) *repo_model.Repository {
	slug := chi.URLParam(req, "slug")
	repo, err := repo_model.GetRepositoryBySlug(req.Context(), slug)
	if err != nil {
		if repo_model.IsErrRepoNotFound(err) {
			common.WriteError(w, http.StatusNotFound, "repository not found")
		} else {
			log.Error("load repository %s: %v", slug, err)
			common.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return nil
	}
	return repo
}

// List returns all live repositories, or a search when ?q= is given.
func (h *Web) List(w http.ResponseWriter, req *http.Request) {
	query, err := validation.CleanSearchQuery(req.URL.Query().Get("q"))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var repos []*repo_model.Repository
	var count int64
	if query != "" {
		repos, err = repo_model.SearchRepositories(req.Context(), query, 100)
		count = int64(len(repos))
	} else {
		repos, err = repo_model.ListRepositories(req.Context(), 100, 0)
		if err == nil {
			count, err = repo_model.CountRepositories(req.Context())
		}
	}
	if err != nil {
		log.Error("list repositories: %v", err)
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]*repoResponse, 0, len(repos))
	for _, r := range repos {
		out = append(out, toRepoResponse(req, r))
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{"repositories": out, "count": count})
}

// Get returns one repository with its issue counters and the caller's star
// state.
func (h *Web) Get(w http.ResponseWriter, req *http.Request) {
	repo := loadRepo(w, req)
	if repo == nil {
		return
	}

	sessionID := common.SessionID(w, req)
	starred, err := repo_model.IsStarred(req.Context(), repo.ID, sessionID)
	if err != nil {
		log.Error("star state for %s: %v", repo.Slug, err)
	}
	openIssues, err := issues_model.CountIssues(req.Context(), repo.ID, issues_model.StateOpen)
	if err != nil {
		log.Error("issue count for %s: %v", repo.Slug, err)
	}

	resp := struct {
		*repoResponse
		Starred    bool  `json:"starred"`
		OpenIssues int64 `json:"openIssues"`
	}{toRepoResponse(req, repo), starred, openIssues}
	common.WriteJSON(w, http.StatusOK, resp)
}

// Create provisions a repository from an explicit request.
func (h *Web) Create(w http.ResponseWriter, req *http.Request) {
	var form struct {
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if !decodeBody(w, req, &form) {
		return
	}
	if _, ok := h.guardWrite(w, req, form.Slug, form.Description); !ok {
		return
	}

	ip := admission.ClientIP(req)
	if d := h.svc.Quota.Check(ip); d != nil {
		common.WriteDenial(w, d)
		return
	}
	if !validation.IsValidSlug(form.Slug) {
		common.WriteError(w, http.StatusBadRequest,
			"invalid repository name. use letters, numbers, dots, hyphens, underscores.")
		return
	}
	description, err := validation.CleanDescription(form.Description)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.scoreWrite(w, req, admission.Content{Description: description}) {
		return
	}

	if _, err := repo_model.GetRepositoryBySlug(req.Context(), form.Slug); err == nil {
		common.WriteError(w, http.StatusConflict, "repository already exists")
		return
	} else if !repo_model.IsErrRepoNotFound(err) {
		log.Error("check repository %s: %v", form.Slug, err)
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	repo, err := repo_service.Create(req.Context(), form.Slug, description, repo_model.CreatedViaWeb)
	if err != nil {
		writeCreateError(w, form.Slug, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, toRepoResponse(req, repo))
}

// Fork clones an existing repository under a new slug.
func (h *Web) Fork(w http.ResponseWriter, req *http.Request) {
	var form struct {
		ForkName string `json:"forkName"`
	}
	if !decodeBody(w, req, &form) {
		return
	}
	if _, ok := h.guardWrite(w, req, form.ForkName); !ok {
		return
	}

	repo := loadRepo(w, req)
	if repo == nil {
		return
	}

	if d := h.svc.Quota.Check(admission.ClientIP(req)); d != nil {
		common.WriteDenial(w, d)
		return
	}
	if !validation.IsValidSlug(form.ForkName) {
		common.WriteError(w, http.StatusBadRequest, "invalid fork name")
		return
	}
	if _, err := repo_model.GetRepositoryBySlug(req.Context(), form.ForkName); err == nil {
		common.WriteError(w, http.StatusConflict, "repository already exists")
		return
	} else if !repo_model.IsErrRepoNotFound(err) {
		log.Error("check repository %s: %v", form.ForkName, err)
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fork, err := repo_service.Fork(req.Context(), repo.Slug, form.ForkName)
	if err != nil {
		writeCreateError(w, form.ForkName, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, toRepoResponse(req, fork))
}

func writeCreateError(w http.ResponseWriter, slug string, err error) {
	switch {
	case errors.Is(err, repo_service.ErrInvalidSlug):
		common.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo_service.ErrDiskFull):
		common.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error("create repository %s: %v", slug, err)
		common.WriteError(w, http.StatusInternalServerError, "failed to create repository")
	}
}

// UpdateSettings changes the description and default branch.
func (h *Web) UpdateSettings(w http.ResponseWriter, req *http.Request) {
	var form struct {
		Description   string `json:"description"`
		DefaultBranch string `json:"defaultBranch"`
	}
	if !decodeBody(w, req, &form) {
		return
	}
	if _, ok := h.guardWrite(w, req, form.Description); !ok {
		return
	}

	repo := loadRepo(w, req)
	if repo == nil {
		return
	}

	description, err := validation.CleanDescription(form.Description)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.scoreWrite(w, req, admission.Content{Description: description}) {
		return
	}

	repo.Description = description
	if form.DefaultBranch != "" {
		repo.DefaultBranch = form.DefaultBranch
	}
	if err := repo_model.UpdateRepositorySettings(req.Context(), repo); err != nil {
		log.Error("update settings for %s: %v", repo.Slug, err)
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	common.WriteJSON(w, http.StatusOK, toRepoResponse(req, repo))
}

// Delete soft-deletes the repository and moves its directory to the trash.
func (h *Web) Delete(w http.ResponseWriter, req *http.Request) {
	if _, ok := h.guardWrite(w, req); !ok {
		return
	}
	repo := loadRepo(w, req)
	if repo == nil {
		return
	}
	if err := repo_service.SoftDelete(req.Context(), repo.Slug); err != nil {
		log.Error("delete repository %s: %v", repo.Slug, err)
		common.WriteError(w, http.StatusInternalServerError, "failed to delete repository")
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleStar stars the repository for the caller's session, or unstars when
// already starred.
func (h *Web) ToggleStar(w http.ResponseWriter, req *http.Request) {
	sessionID, ok := h.guardWrite(w, req)
	if !ok {
		return
	}
	repo := loadRepo(w, req)
	if repo == nil {
		return
	}

	ctx := req.Context()
	starred, err := repo_model.IsStarred(ctx, repo.ID, sessionID)
	if err == nil {
		if starred {
			err = repo_model.UnstarRepository(ctx, repo.ID, sessionID)
		} else {
			err = repo_model.StarRepository(ctx, repo.ID, sessionID)
		}
	}
	if err != nil {
		log.Error("toggle star for %s: %v", repo.Slug, err)
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fresh, err := repo_model.GetRepositoryBySlug(ctx, repo.Slug)
	if err != nil {
		fresh = repo
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{
		"starred": !starred,
		"stars":   fresh.StarCount,
	})
}
