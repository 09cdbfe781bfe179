// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"

	"github.com/crustyhub/crustyhub/models/db"
	"github.com/crustyhub/crustyhub/modules/timeutil"
)

func init() {
	db.RegisterModel(new(Star))
}

// Star records that an anonymous session starred a repository.
type Star struct {
	ID          int64              `xorm:"pk autoincr"`
	RepoID      int64              `xorm:"UNIQUE(s) NOT NULL"`
	SessionID   string             `xorm:"VARCHAR(64) UNIQUE(s) NOT NULL"`
	CreatedUnix timeutil.TimeStamp `xorm:"created"`
}

func (Star) TableName() string {
	return "repo_star"
}

// StarRepository stars a repository for a session. Starring twice is a no-op;
// concurrent toggles resolve through the insert-if-absent check inside one
// transaction.
func StarRepository(ctx context.Context, repoID int64, sessionID string) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		has, err := db.GetEngine(ctx).
			Where("repo_id = ? AND session_id = ?", repoID, sessionID).
			Exist(new(Star))
		if err != nil {
			return err
		}
		if !has {
			if err := db.Insert(ctx, &Star{RepoID: repoID, SessionID: sessionID}); err != nil {
				return err
			}
		}
		return refreshStarCount(ctx, repoID)
	})
}

// UnstarRepository removes a session's star.
func UnstarRepository(ctx context.Context, repoID int64, sessionID string) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := db.GetEngine(ctx).
			Where("repo_id = ? AND session_id = ?", repoID, sessionID).
			Delete(new(Star)); err != nil {
			return err
		}
		return refreshStarCount(ctx, repoID)
	})
}

// IsStarred reports whether a session has starred the repository.
func IsStarred(ctx context.Context, repoID int64, sessionID string) (bool, error) {
	return db.GetEngine(ctx).
		Where("repo_id = ? AND session_id = ?", repoID, sessionID).
		Exist(new(Star))
}

// refreshStarCount recomputes the derived aggregate from the star table.
func refreshStarCount(ctx context.Context, repoID int64) error {
	_, err := db.GetEngine(ctx).
		Exec("UPDATE repository SET star_count = (SELECT count(*) FROM repo_star WHERE repo_id = ?) WHERE id = ?",
			repoID, repoID)
	return err
}
