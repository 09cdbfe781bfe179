// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/setting"
)

// SoftDelete moves the bare directory into trash and stamps the row deleted.
// The directory move happens first: if the row update then fails we are left
// with an orphaned trash directory and a live row, which is recoverable by
// hand, whereas the reverse order could lose the directory reference.
func SoftDelete(ctx context.Context, slug string) error {
	repo, err := repo_model.GetRepositoryBySlug(ctx, slug)
	if err != nil {
		return err
	}

	src := repo_model.RepoPath(slug)
	if _, err := os.Stat(src); err == nil {
		if err := os.MkdirAll(setting.Repository.TrashRoot, 0o755); err != nil {
			return fmt.Errorf("create trash root: %w", err)
		}
		if err := os.Rename(src, repo_model.TrashPath(slug, time.Now())); err != nil {
			return fmt.Errorf("move repository to trash: %w", err)
		}
	}

	return repo_model.SoftDeleteRepository(ctx, repo.ID)
}
