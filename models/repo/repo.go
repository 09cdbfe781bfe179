// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"
	"fmt"

	"github.com/crustyhub/crustyhub/models/db"
	"github.com/crustyhub/crustyhub/modules/timeutil"

	"xorm.io/builder"
)

// Creation provenance values for Repository.CreatedVia.
const (
	CreatedViaWeb  = "web"
	CreatedViaPush = "push"
	CreatedViaFork = "fork"
)

func init() {
	db.RegisterModel(new(Repository))
}

// Repository is a hosted bare repository. The row is the durable record of
// existence; the on-disk directory is reconstructable from the backup blob.
type Repository struct {
	ID            int64              `xorm:"pk autoincr"`
	Slug          string             `xorm:"VARCHAR(64) UNIQUE NOT NULL"`
	Description   string             `xorm:"TEXT"`
	IsPublic      bool               `xorm:"NOT NULL DEFAULT true"`
	DefaultBranch string             `xorm:"VARCHAR(100) NOT NULL DEFAULT 'main'"`
	CreatedVia    string             `xorm:"VARCHAR(10) NOT NULL DEFAULT 'web'"`
	ForkedFromID  int64              `xorm:"INDEX"`
	StarCount     int                `xorm:"NOT NULL DEFAULT 0"`
	CreatedUnix   timeutil.TimeStamp `xorm:"created"`
	UpdatedUnix   timeutil.TimeStamp `xorm:"updated INDEX"`
	DeletedUnix   timeutil.TimeStamp `xorm:"INDEX"`
}

func (Repository) TableName() string {
	return "repository"
}

// ErrRepoNotFound is returned when a slug has no live repository row.
type ErrRepoNotFound struct {
	Slug string
}

func (e ErrRepoNotFound) Error() string {
	return fmt.Sprintf("repository not found: %s", e.Slug)
}

// IsErrRepoNotFound reports whether err is an ErrRepoNotFound.
func IsErrRepoNotFound(err error) bool {
	_, ok := err.(ErrRepoNotFound)
	return ok
}

// GetRepositoryBySlug fetches a live (not soft-deleted) repository.
func GetRepositoryBySlug(ctx context.Context, slug string) (*Repository, error) {
	repo := new(Repository)
	has, err := db.GetEngine(ctx).Where("slug = ? AND deleted_unix = 0", slug).Get(repo)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrRepoNotFound{Slug: slug}
	}
	return repo, nil
}

// GetRepositoryByID fetches a repository by row ID, including soft-deleted
// ones so fork origins stay resolvable after the source is removed.
func GetRepositoryByID(ctx context.Context, id int64) (*Repository, error) {
	repo := new(Repository)
	has, err := db.GetEngine(ctx).ID(id).Get(repo)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrRepoNotFound{}
	}
	return repo, nil
}

// CreateRepository inserts a new repository row.
func CreateRepository(ctx context.Context, repo *Repository) error {
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = "main"
	}
	if repo.CreatedVia == "" {
		repo.CreatedVia = CreatedViaWeb
	}
	repo.IsPublic = true
	return db.Insert(ctx, repo)
}

// ListRepositories returns live repositories, most recently updated first.
func ListRepositories(ctx context.Context, limit, offset int) ([]*Repository, error) {
	repos := make([]*Repository, 0, limit)
	return repos, db.GetEngine(ctx).
		Where("deleted_unix = 0").
		Desc("updated_unix").
		Limit(limit, offset).
		Find(&repos)
}

// SearchRepositories matches the query against slug and description.
func SearchRepositories(ctx context.Context, query string, limit int) ([]*Repository, error) {
	repos := make([]*Repository, 0, limit)
	return repos, db.GetEngine(ctx).
		Where(builder.Eq{"deleted_unix": 0}.And(
			builder.Like{"slug", query}.Or(builder.Like{"description", query}))).
		Desc("star_count").Desc("updated_unix").
		Limit(limit).
		Find(&repos)
}

// CountRepositories counts live repositories.
func CountRepositories(ctx context.Context) (int64, error) {
	return db.GetEngine(ctx).Where("deleted_unix = 0").Count(new(Repository))
}

// TouchRepository bumps the updated timestamp after a push.
func TouchRepository(ctx context.Context, slug string) error {
	_, err := db.GetEngine(ctx).
		Exec("UPDATE repository SET updated_unix = ? WHERE slug = ? AND deleted_unix = 0",
			timeutil.TimeStampNow(), slug)
	return err
}

// UpdateRepositorySettings updates the mutable settings columns.
func UpdateRepositorySettings(ctx context.Context, repo *Repository) error {
	_, err := db.GetEngine(ctx).ID(repo.ID).
		Cols("description", "default_branch").
		Update(repo)
	return err
}

// SoftDeleteRepository stamps the row as deleted. The directory move happens
// first, in the lifecycle service.
func SoftDeleteRepository(ctx context.Context, id int64) error {
	_, err := db.GetEngine(ctx).ID(id).
		Cols("deleted_unix").
		Update(&Repository{DeletedUnix: timeutil.TimeStampNow()})
	return err
}
