// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repository

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/models/unittest"
	"github.com/crustyhub/crustyhub/modules/setting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepareEnv(t *testing.T) {
	t.Helper()
	unittest.PrepareTestDatabase(t)

	base := t.TempDir()
	setting.Repository.Root = filepath.Join(base, "repos")
	setting.Repository.TrashRoot = filepath.Join(base, "trash")
	setting.Pages.CacheRoot = filepath.Join(base, "pages-cache")
	setting.Repository.MinFreeDisk = 0
	require.NoError(t, EnsureDirectories())
}

func skipWithoutGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestEnsureForPushInvalidSlug(t *testing.T) {
	prepareEnv(t)
	assert.ErrorIs(t, EnsureForPush(context.Background(), "../../etc"), ErrInvalidSlug)
	assert.ErrorIs(t, EnsureForPush(context.Background(), ""), ErrInvalidSlug)
}

func TestEnsureForPushConcurrent(t *testing.T) {
	prepareEnv(t)
	skipWithoutGit(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = EnsureForPush(ctx, "fresh-repo")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.DirExists(t, repo_model.RepoPath("fresh-repo"))

	repos, err := repo_model.ListRepositories(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, repo_model.CreatedViaPush, repos[0].CreatedVia)
}

func TestCreateIdempotent(t *testing.T) {
	prepareEnv(t)
	skipWithoutGit(t)
	ctx := context.Background()

	first, err := Create(ctx, "explicit", "a description", repo_model.CreatedViaWeb)
	require.NoError(t, err)

	second, err := Create(ctx, "explicit", "ignored", repo_model.CreatedViaWeb)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "a description", second.Description)

	count, err := repo_model.CountRepositories(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSoftDeleteMovesToTrash(t *testing.T) {
	prepareEnv(t)
	skipWithoutGit(t)
	ctx := context.Background()

	_, err := Create(ctx, "doomed", "", repo_model.CreatedViaWeb)
	require.NoError(t, err)

	require.NoError(t, SoftDelete(ctx, "doomed"))

	_, err = repo_model.GetRepositoryBySlug(ctx, "doomed")
	assert.True(t, repo_model.IsErrRepoNotFound(err))
	assert.NoDirExists(t, repo_model.RepoPath("doomed"))

	entries, err := os.ReadDir(setting.Repository.TrashRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "doomed-")

	assert.True(t, repo_model.IsErrRepoNotFound(SoftDelete(ctx, "doomed")), "second delete fails on missing row")
}

func TestFork(t *testing.T) {
	prepareEnv(t)
	skipWithoutGit(t)
	ctx := context.Background()

	source, err := Create(ctx, "origin-repo", "", repo_model.CreatedViaWeb)
	require.NoError(t, err)

	forked, err := Fork(ctx, "origin-repo", "my-fork")
	require.NoError(t, err)
	assert.Equal(t, source.ID, forked.ForkedFromID)
	assert.Equal(t, repo_model.CreatedViaFork, forked.CreatedVia)
	assert.DirExists(t, repo_model.RepoPath("my-fork"))

	_, err = Fork(ctx, "origin-repo", "bad/slug")
	assert.ErrorIs(t, err, ErrInvalidSlug)

	_, err = Fork(ctx, "no-such-source", "other-fork")
	assert.True(t, repo_model.IsErrRepoNotFound(err))
}

func TestForkCloneFailureInsertsNoRow(t *testing.T) {
	prepareEnv(t)
	skipWithoutGit(t)
	ctx := context.Background()

	// Row exists but the directory is gone, so the clone subprocess fails.
	require.NoError(t, repo_model.CreateRepository(ctx, &repo_model.Repository{Slug: "ghost"}))

	_, err := Fork(ctx, "ghost", "ghost-fork")
	require.Error(t, err)

	_, err = repo_model.GetRepositoryBySlug(ctx, "ghost-fork")
	assert.True(t, repo_model.IsErrRepoNotFound(err))
}

func TestBundleRestoreRoundTrip(t *testing.T) {
	prepareEnv(t)
	ctx := context.Background()

	require.NoError(t, repo_model.CreateRepository(ctx, &repo_model.Repository{Slug: "backed-up"}))
	dir := repo_model.RepoPath("backed-up")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "refs", "heads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refs", "heads", "main"), []byte("abc123\n"), 0o644))

	require.NoError(t, Bundle(ctx, "backed-up"))
	require.NoError(t, os.RemoveAll(dir))

	restored, err := RestoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	head, err := os.ReadFile(filepath.Join(dir, "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/main\n", string(head))
	ref, err := os.ReadFile(filepath.Join(dir, "refs", "heads", "main"))
	require.NoError(t, err)
	assert.Equal(t, "abc123\n", string(ref))

	// A second pass finds the directory present and restores nothing.
	restored, err = RestoreAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, restored)
}
