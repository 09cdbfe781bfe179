// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package issues_test

import (
	"context"
	"testing"

	"github.com/crustyhub/crustyhub/models/issues"
	"github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/models/unittest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueNumbering(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()

	r := &repo.Repository{Slug: "tracked"}
	require.NoError(t, repo.CreateRepository(ctx, r))

	first := &issues.Issue{RepoID: r.ID, Title: "first"}
	second := &issues.Issue{RepoID: r.ID, Title: "second"}
	require.NoError(t, issues.CreateIssue(ctx, first))
	require.NoError(t, issues.CreateIssue(ctx, second))
	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)

	got, err := issues.GetIssue(ctx, r.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Title)
	assert.Equal(t, issues.StateOpen, got.State)

	_, err = issues.GetIssue(ctx, r.ID, 99)
	assert.True(t, issues.IsErrIssueNotFound(err))
}

func TestToggleIssueState(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()

	r := &repo.Repository{Slug: "tracked"}
	require.NoError(t, repo.CreateRepository(ctx, r))
	issue := &issues.Issue{RepoID: r.ID, Title: "flappy"}
	require.NoError(t, issues.CreateIssue(ctx, issue))

	require.NoError(t, issues.ToggleIssueState(ctx, issue))
	got, err := issues.GetIssue(ctx, r.ID, issue.Number)
	require.NoError(t, err)
	assert.Equal(t, issues.StateClosed, got.State)
	assert.NotZero(t, got.ClosedUnix)

	require.NoError(t, issues.ToggleIssueState(ctx, got))
	got, err = issues.GetIssue(ctx, r.ID, issue.Number)
	require.NoError(t, err)
	assert.Equal(t, issues.StateOpen, got.State)
}

func TestComments(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()

	r := &repo.Repository{Slug: "tracked"}
	require.NoError(t, repo.CreateRepository(ctx, r))
	issue := &issues.Issue{RepoID: r.ID, Title: "discussed"}
	require.NoError(t, issues.CreateIssue(ctx, issue))

	require.NoError(t, issues.CreateComment(ctx, &issues.Comment{IssueID: issue.ID, Body: "one"}))
	require.NoError(t, issues.CreateComment(ctx, &issues.Comment{IssueID: issue.ID, Body: "two"}))

	comments, err := issues.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "one", comments[0].Body)
	assert.Equal(t, "anonymous", comments[0].AuthorName)
}
