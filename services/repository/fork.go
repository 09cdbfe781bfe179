// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repository

import (
	"context"
	"fmt"

	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/gitcmd"
	"github.com/crustyhub/crustyhub/modules/setting"
	"github.com/crustyhub/crustyhub/modules/validation"
)

// Fork clones the source repository into a new slug. A failed clone surfaces
// before any row insert, so lookups never see a half-forked repository.
func Fork(ctx context.Context, sourceSlug, newSlug string) (*repo_model.Repository, error) {
	if !validation.IsValidSlug(newSlug) {
		return nil, ErrInvalidSlug
	}

	source, err := repo_model.GetRepositoryBySlug(ctx, sourceSlug)
	if err != nil {
		return nil, err
	}

	if err := gitcmd.CloneBare(ctx, repo_model.RepoPath(sourceSlug), repo_model.RepoPath(newSlug)); err != nil {
		return nil, err
	}

	repo := &repo_model.Repository{
		Slug:          newSlug,
		Description:   fmt.Sprintf("Fork of %s", sourceSlug),
		DefaultBranch: setting.Repository.DefaultBranch,
		CreatedVia:    repo_model.CreatedViaFork,
		ForkedFromID:  source.ID,
	}
	if err := repo_model.CreateRepository(ctx, repo); err != nil {
		return nil, err
	}
	return repo, nil
}
