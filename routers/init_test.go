// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package routers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/models/unittest"
	"github.com/crustyhub/crustyhub/modules/json"
	"github.com/crustyhub/crustyhub/modules/setting"
	"github.com/crustyhub/crustyhub/routers/common"
	"github.com/crustyhub/crustyhub/services/admission"
	repo_service "github.com/crustyhub/crustyhub/services/repository"
)

func prepareRoutes(t *testing.T) http.Handler {
	t.Helper()
	unittest.PrepareTestDatabase(t)

	base := t.TempDir()
	setting.Repository.Root = filepath.Join(base, "repos")
	setting.Repository.TrashRoot = filepath.Join(base, "trash")
	setting.Pages.CacheRoot = filepath.Join(base, "pages-cache")
	setting.Repository.MinFreeDisk = 0
	setting.Admission.RateRead = setting.RateLimit{Requests: 10000, Window: time.Minute}
	setting.Admission.RateWrite = setting.RateLimit{Requests: 10000, Window: time.Minute}
	setting.Admission.RateGitRead = setting.RateLimit{Requests: 10000, Window: time.Minute}
	setting.Admission.RateGitWrite = setting.RateLimit{Requests: 10000, Window: time.Minute}
	require.NoError(t, repo_service.EnsureDirectories())

	return NormalRoutes(admission.NewService())
}

// client drives the handler as one anonymous browser session: it carries the
// session cookie and the CSRF token between requests.
type client struct {
	t       *testing.T
	handler http.Handler
	cookie  string
	csrf    string
}

func newClient(t *testing.T, handler http.Handler) *client {
	c := &client{t: t, handler: handler}
	c.get("/") // establishes the session and fetches the token
	return c
}

func (c *client) do(method, target, body string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	if sc := w.Header().Get("Set-Cookie"); sc != "" && strings.HasPrefix(sc, common.SessionCookieName+"=") {
		c.cookie, _, _ = strings.Cut(sc, ";")
	}
	if token := w.Header().Get("X-CSRF-Token"); token != "" {
		c.csrf = token
	}
	return w
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, target, "", nil)
}

func (c *client) post(target, body string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, target, body, func(req *http.Request) {
		req.Header.Set("X-CSRF-Token", c.csrf)
	})
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func skipWithoutGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestWriteWithoutCSRFToken(t *testing.T) {
	handler := prepareRoutes(t)
	c := newClient(t, handler)
	c.csrf = "forged"
	w := c.post("/new", `{"slug":"x"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRepoLifecycleOverHTTP(t *testing.T) {
	skipWithoutGit(t)
	handler := prepareRoutes(t)
	c := newClient(t, handler)

	w := c.post("/new", `{"slug":"demo","description":"a demo repo"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.post("/new", `{"slug":"demo"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.post("/new", `{"slug":"..bad"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.get("/demo")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Slug          string `json:"slug"`
		Description   string `json:"description"`
		DefaultBranch string `json:"defaultBranch"`
		Starred       bool   `json:"starred"`
	}
	decode(t, w, &detail)
	assert.Equal(t, "demo", detail.Slug)
	assert.Equal(t, "a demo repo", detail.Description)
	assert.Equal(t, "main", detail.DefaultBranch)
	assert.False(t, detail.Starred)

	w = c.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Count int64 `json:"count"`
	}
	decode(t, w, &listing)
	assert.EqualValues(t, 1, listing.Count)

	w = c.post("/demo/settings", `{"description":"updated","defaultBranch":"trunk"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = c.post("/demo/delete", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = c.get("/demo")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStarToggle(t *testing.T) {
	handler := prepareRoutes(t)
	require.NoError(t, repo_model.CreateRepository(t.Context(), &repo_model.Repository{Slug: "starme"}))

	c := newClient(t, handler)
	var state struct {
		Starred bool `json:"starred"`
		Stars   int  `json:"stars"`
	}

	w := c.post("/starme/star", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &state)
	assert.True(t, state.Starred)
	assert.Equal(t, 1, state.Stars)

	w = c.post("/starme/star", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &state)
	assert.False(t, state.Starred)
	assert.Equal(t, 0, state.Stars)
}

func TestIssueLifecycleOverHTTP(t *testing.T) {
	handler := prepareRoutes(t)
	require.NoError(t, repo_model.CreateRepository(t.Context(), &repo_model.Repository{Slug: "tracker"}))

	c := newClient(t, handler)

	w := c.post("/tracker/issues", `{"title":"","body":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.post("/tracker/issues", `{"title":"First bug","body":"it breaks","author":"alice"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var issue struct {
		Number int64  `json:"number"`
		State  string `json:"state"`
		Author string `json:"author"`
	}
	decode(t, w, &issue)
	assert.EqualValues(t, 1, issue.Number)
	assert.Equal(t, "open", issue.State)
	assert.Equal(t, "alice", issue.Author)

	w = c.post("/tracker/issues/1/comment", `{"body":"same here"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = c.get("/tracker/issues/1")
	require.Equal(t, http.StatusOK, w.Code)
	var withComments struct {
		Comments []struct {
			Body   string `json:"body"`
			Author string `json:"author"`
		} `json:"comments"`
	}
	decode(t, w, &withComments)
	require.Len(t, withComments.Comments, 1)
	assert.Equal(t, "anonymous", withComments.Comments[0].Author)

	w = c.post("/tracker/issues/1/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &issue)
	assert.Equal(t, "closed", issue.State)

	w = c.get("/tracker/issues?state=open")
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Issues []any `json:"issues"`
		Open   int64 `json:"open"`
		Closed int64 `json:"closed"`
	}
	decode(t, w, &listing)
	assert.Empty(t, listing.Issues)
	assert.EqualValues(t, 0, listing.Open)
	assert.EqualValues(t, 1, listing.Closed)

	w = c.get("/tracker/issues/99")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGitPathRouting(t *testing.T) {
	handler := prepareRoutes(t)
	c := newClient(t, handler)

	// Fetching refs of a repository that neither the database nor the disk
	// knows about is a plain 404.
	w := c.get("/ghost.git/info/refs?service=git-upload-pack")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// A row without a directory is a distinct server-side condition.
	require.NoError(t, repo_model.CreateRepository(t.Context(), &repo_model.Repository{Slug: "hollow"}))
	w = c.get("/hollow.git/info/refs?service=git-upload-pack")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDiskFloorOnlyGatesWrites(t *testing.T) {
	handler := prepareRoutes(t)
	setting.Repository.MinFreeDisk = math.MaxUint64
	c := newClient(t, handler)

	// Reads never hit the disk guard, even with nothing free: a missing
	// repository stays a 404 rather than turning into a 503.
	w := c.get("/ghost.git/info/refs?service=git-upload-pack")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodPost, "/ghost.git/git-upload-pack", "0000", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPushAdvertisementProvisions(t *testing.T) {
	skipWithoutGit(t)
	if _, err := os.Stat(setting.Repository.HTTPBackendPath); err != nil {
		t.Skipf("git-http-backend not found at %s", setting.Repository.HTTPBackendPath)
	}
	handler := prepareRoutes(t)
	c := newClient(t, handler)

	w := c.get("/fresh.git/info/refs?service=git-receive-pack")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "git-receive-pack-advertisement")

	repo, err := repo_model.GetRepositoryBySlug(t.Context(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, repo_model.CreatedViaPush, repo.CreatedVia)
	assert.DirExists(t, filepath.Join(setting.Repository.Root, "fresh.git"))
}

func TestRateLimitExhaustion(t *testing.T) {
	prepareRoutes(t)
	setting.Admission.RateRead = setting.RateLimit{Requests: 2, Window: time.Minute}
	limited := NormalRoutes(admission.NewService())

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.7")
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
