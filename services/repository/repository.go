// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repository orchestrates bare-repository lifecycle: creation on
// first push, explicit creation, soft deletion into trash, forking, and the
// backup/restore path through the relational store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/singleflight"

	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/gitcmd"
	"github.com/crustyhub/crustyhub/modules/setting"
	"github.com/crustyhub/crustyhub/modules/validation"
	"github.com/crustyhub/crustyhub/services/admission"
)

var (
	// ErrInvalidSlug rejects malformed repository identifiers before any
	// side effect.
	ErrInvalidSlug = errors.New("invalid repository name")

	// ErrDiskFull rejects writes when free space is below the floor.
	ErrDiskFull = errors.New("server disk space critically low")
)

// ensureGroup collapses concurrent first-pushes to the same slug into a
// single initialization.
var ensureGroup singleflight.Group

// EnsureDirectories creates the data roots at startup.
func EnsureDirectories() error {
	for _, dir := range []string{setting.Repository.Root, setting.Repository.TrashRoot, setting.Pages.CacheRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %q: %w", dir, err)
		}
	}
	return nil
}

// EnsureForPush makes sure the bare directory and row exist before a push
// touches the slug. Idempotent, including under concurrent first-pushes.
func EnsureForPush(ctx context.Context, slug string) error {
	if !validation.IsValidSlug(slug) {
		return ErrInvalidSlug
	}
	if denial := admission.CheckDiskSpace(); denial != nil {
		return ErrDiskFull
	}

	_, err, _ := ensureGroup.Do(slug, func() (any, error) {
		path := repo_model.RepoPath(slug)
		if _, err := os.Stat(path); err == nil {
			return nil, nil
		}

		if err := gitcmd.InitBare(ctx, path, setting.Repository.DefaultBranch); err != nil {
			return nil, err
		}

		if _, err := repo_model.GetRepositoryBySlug(ctx, slug); err != nil {
			if !repo_model.IsErrRepoNotFound(err) {
				return nil, err
			}
			return nil, repo_model.CreateRepository(ctx, &repo_model.Repository{
				Slug:          slug,
				DefaultBranch: setting.Repository.DefaultBranch,
				CreatedVia:    repo_model.CreatedViaPush,
			})
		}
		return nil, nil
	})
	return err
}

// Create makes a repository from an explicit request. When the directory and
// a matching row already exist the existing repository is returned.
func Create(ctx context.Context, slug, description, via string) (*repo_model.Repository, error) {
	if !validation.IsValidSlug(slug) {
		return nil, ErrInvalidSlug
	}
	if denial := admission.CheckDiskSpace(); denial != nil {
		return nil, ErrDiskFull
	}

	path := repo_model.RepoPath(slug)
	if _, err := os.Stat(path); err == nil {
		existing, err := repo_model.GetRepositoryBySlug(ctx, slug)
		if err == nil {
			return existing, nil
		}
		if !repo_model.IsErrRepoNotFound(err) {
			return nil, err
		}
	}

	if err := gitcmd.InitBare(ctx, path, setting.Repository.DefaultBranch); err != nil {
		return nil, err
	}

	repo := &repo_model.Repository{
		Slug:          slug,
		Description:   description,
		DefaultBranch: setting.Repository.DefaultBranch,
		CreatedVia:    via,
	}
	if err := repo_model.CreateRepository(ctx, repo); err != nil {
		return nil, err
	}
	return repo, nil
}
