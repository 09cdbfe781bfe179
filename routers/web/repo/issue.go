// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	issues_model "github.com/crustyhub/crustyhub/models/issues"
	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/timeutil"
	"github.com/crustyhub/crustyhub/modules/validation"
	"github.com/crustyhub/crustyhub/routers/common"
	"github.com/crustyhub/crustyhub/services/admission"
)

type issueResponse struct {
	Number    int64              `json:"number"`
	Title     string             `json:"title"`
	Body      string             `json:"body"`
	State     string             `json:"state"`
	Author    string             `json:"author"`
	CreatedAt timeutil.TimeStamp `json:"createdAt"`
	UpdatedAt timeutil.TimeStamp `json:"updatedAt"`
}

type commentResponse struct {
	Body      string             `json:"body"`
	Author    string             `json:"author"`
	CreatedAt timeutil.TimeStamp `json:"createdAt"`
}

func toIssueResponse(issue *issues_model.Issue) *issueResponse {
	return &issueResponse{
		Number:    issue.Number,
		Title:     issue.Title,
		Body:      issue.Body,
		State:     issue.State,
		Author:    issue.AuthorName,
		CreatedAt: issue.CreatedUnix,
		UpdatedAt: issue.UpdatedUnix,
	}
}

// loadIssue resolves {slug} and {number} to an issue, writing the error
// response when it cannot.
func loadIssue(w http.ResponseWriter, req *http.Request) (*repo_model.Repository, *issues_model.Issue) {
	repo := loadRepo(w, req)
	if repo == nil {
		return nil, nil
	}
	number, err := strconv.ParseInt(chi.URLParam(req, "number"), 10, 64)
	if err != nil || number < 1 {
		common.WriteError(w, http.StatusNotFound, "issue not found")
		return nil, nil
	}
	issue, err := issues_model.GetIssue(req.Context(), repo.ID, number)
	if err != nil {
		if issues_model.IsErrIssueNotFound(err) {
			common.WriteError(w, http.StatusNotFound, "issue not found")
		} else {
			log.Error("load issue %s#%d: %v", repo.Slug, number, err)
			common.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return nil, nil
	}
	return repo, issue
}

// ListIssues returns a repository's issues, filtered by ?state=.
func (h *Web) ListIssues(w http.ResponseWriter, req *http.Request) {
	repo := loadRepo(w, req)
	if repo == nil {
		return
	}

	state := req.URL.Query().Get("state")
	switch state {
	case "", issues_model.StateOpen, issues_model.StateClosed:
	default:
		common.WriteError(w, http.StatusBadRequest, "state must be open or closed")
		return
	}

	ctx := req.Context()
	issues, err := issues_model.ListIssues(ctx, repo.ID, state)
	if err != nil {
		log.Error("list issues for %s: %v", repo.Slug, err)
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	open, err := issues_model.CountIssues(ctx, repo.ID, issues_model.StateOpen)
	if err != nil {
		log.Error("count open issues for %s: %v", repo.Slug, err)
	}
	closed, err := issues_model.CountIssues(ctx, repo.ID, issues_model.StateClosed)
	if err != nil {
		log.Error("count closed issues for %s: %v", repo.Slug, err)
	}

	out := make([]*issueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toIssueResponse(issue))
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{
		"issues": out,
		"open":   open,
		"closed": closed,
	})
}

// GetIssue returns one issue with its comments.
func (h *Web) GetIssue(w http.ResponseWriter, req *http.Request) {
	repo, issue := loadIssue(w, req)
	if issue == nil {
		return
	}

	comments, err := issues_model.ListComments(req.Context(), issue.ID)
	if err != nil {
		log.Error("list comments for %s#%d: %v", repo.Slug, issue.Number, err)
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	outComments := make([]*commentResponse, 0, len(comments))
	for _, c := range comments {
		outComments = append(outComments, &commentResponse{
			Body:      c.Body,
			Author:    c.AuthorName,
			CreatedAt: c.CreatedUnix,
		})
	}

	resp := struct {
		*issueResponse
		Comments []*commentResponse `json:"comments"`
	}{toIssueResponse(issue), outComments}
	common.WriteJSON(w, http.StatusOK, resp)
}

// CreateIssue opens a new issue on the repository.
func (h *Web) CreateIssue(w http.ResponseWriter, req *http.Request) {
	var form struct {
		Title  string `json:"title"`
		Body   string `json:"body"`
		Author string `json:"author"`
	}
	if !decodeBody(w, req, &form) {
		return
	}
	if _, ok := h.guardWrite(w, req, form.Title, form.Body); !ok {
		return
	}

	repo := loadRepo(w, req)
	if repo == nil {
		return
	}

	title, err := validation.CleanIssueTitle(form.Title)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, err := validation.CleanIssueBody(form.Body)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.scoreWrite(w, req, admission.Content{Title: title, Body: body}) {
		return
	}

	issue := &issues_model.Issue{
		RepoID:     repo.ID,
		Title:      title,
		Body:       body,
		AuthorName: validation.CleanAuthor(form.Author),
	}
	if err := issues_model.CreateIssue(req.Context(), issue); err != nil {
		log.Error("create issue on %s: %v", repo.Slug, err)
		common.WriteError(w, http.StatusInternalServerError, "failed to create issue")
		return
	}
	common.WriteJSON(w, http.StatusCreated, toIssueResponse(issue))
}

// CreateComment appends a comment to an issue.
func (h *Web) CreateComment(w http.ResponseWriter, req *http.Request) {
	var form struct {
		Body   string `json:"body"`
		Author string `json:"author"`
	}
	if !decodeBody(w, req, &form) {
		return
	}
	if _, ok := h.guardWrite(w, req, form.Body); !ok {
		return
	}

	repo, issue := loadIssue(w, req)
	if issue == nil {
		return
	}

	body, err := validation.CleanIssueBody(form.Body)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body == "" {
		common.WriteError(w, http.StatusBadRequest, "comment body is required")
		return
	}
	if !h.scoreWrite(w, req, admission.Content{Body: body}) {
		return
	}

	comment := &issues_model.Comment{
		IssueID:    issue.ID,
		Body:       body,
		AuthorName: validation.CleanAuthor(form.Author),
	}
	if err := issues_model.CreateComment(req.Context(), comment); err != nil {
		log.Error("comment on %s#%d: %v", repo.Slug, issue.Number, err)
		common.WriteError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}
	common.WriteJSON(w, http.StatusCreated, &commentResponse{
		Body:      comment.Body,
		Author:    comment.AuthorName,
		CreatedAt: comment.CreatedUnix,
	})
}

// ToggleIssue flips an issue between open and closed.
func (h *Web) ToggleIssue(w http.ResponseWriter, req *http.Request) {
	if _, ok := h.guardWrite(w, req); !ok {
		return
	}
	repo, issue := loadIssue(w, req)
	if issue == nil {
		return
	}
	if err := issues_model.ToggleIssueState(req.Context(), issue); err != nil {
		log.Error("toggle issue %s#%d: %v", repo.Slug, issue.Number, err)
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	common.WriteJSON(w, http.StatusOK, toIssueResponse(issue))
}
