// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/crustyhub/crustyhub/modules/setting"
)

// RepoPath is the on-disk location of a repository's bare directory, a pure
// function of the slug and the configured root.
func RepoPath(slug string) string {
	return filepath.Join(setting.Repository.Root, slug+".git")
}

// TrashPath is where a soft-deleted repository's directory is moved. The
// epoch-millis suffix avoids collisions when the same slug is deleted,
// recreated, and deleted again.
func TrashPath(slug string, when time.Time) string {
	return filepath.Join(setting.Repository.TrashRoot, fmt.Sprintf("%s-%d.git", slug, when.UnixMilli()))
}
