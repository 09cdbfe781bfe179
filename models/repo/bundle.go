// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"

	"github.com/crustyhub/crustyhub/models/db"
	"github.com/crustyhub/crustyhub/modules/timeutil"
)

func init() {
	db.RegisterModel(new(Bundle))
}

// Bundle is the latest backup archive of a repository's bare directory.
// Latest-wins: each write replaces the prior blob, there is no history.
type Bundle struct {
	RepoID      int64              `xorm:"pk"`
	Data        []byte             `xorm:"BLOB NOT NULL"`
	UpdatedUnix timeutil.TimeStamp `xorm:"updated"`
}

func (Bundle) TableName() string {
	return "repo_bundle"
}

// SetBundle upserts the backup blob for a repository.
func SetBundle(ctx context.Context, repoID int64, data []byte) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		has, err := db.GetEngine(ctx).ID(repoID).Exist(new(Bundle))
		if err != nil {
			return err
		}
		if has {
			_, err = db.GetEngine(ctx).ID(repoID).Cols("data", "updated_unix").
				Update(&Bundle{Data: data, UpdatedUnix: timeutil.TimeStampNow()})
			return err
		}
		return db.Insert(ctx, &Bundle{RepoID: repoID, Data: data})
	})
}

// GetBundle fetches the backup blob for a repository, or nil when absent.
func GetBundle(ctx context.Context, repoID int64) ([]byte, error) {
	bundle := new(Bundle)
	has, err := db.GetEngine(ctx).ID(repoID).Get(bundle)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return bundle.Data, nil
}

// DeleteBundle removes a repository's backup blob.
func DeleteBundle(ctx context.Context, repoID int64) error {
	_, err := db.GetEngine(ctx).ID(repoID).Delete(new(Bundle))
	return err
}

// BundledRepo pairs a live repository slug with its stored archive.
type BundledRepo struct {
	Slug string
	Data []byte
}

// ListBundledRepos returns the backup blobs of all live repositories, for the
// startup restore pass.
func ListBundledRepos(ctx context.Context) ([]*BundledRepo, error) {
	var out []*BundledRepo
	return out, db.GetEngine(ctx).
		Table("repo_bundle").
		Join("INNER", "repository", "repository.id = repo_bundle.repo_id").
		Where("repository.deleted_unix = 0").
		Select("repository.slug AS slug, repo_bundle.data AS data").
		Find(&out)
}
