// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package issues holds the minimal anonymous issue tracker rows.
package issues

import (
	"context"
	"fmt"

	"github.com/crustyhub/crustyhub/models/db"
	"github.com/crustyhub/crustyhub/modules/timeutil"
)

// Issue states.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

func init() {
	db.RegisterModel(new(Issue))
	db.RegisterModel(new(Comment))
}

// Issue is an anonymous issue, numbered sequentially per repository.
type Issue struct {
	ID          int64              `xorm:"pk autoincr"`
	RepoID      int64              `xorm:"UNIQUE(n) NOT NULL"`
	Number      int64              `xorm:"UNIQUE(n) NOT NULL"`
	Title       string             `xorm:"TEXT NOT NULL"`
	Body        string             `xorm:"TEXT"`
	State       string             `xorm:"VARCHAR(10) NOT NULL DEFAULT 'open'"`
	AuthorName  string             `xorm:"VARCHAR(100) NOT NULL DEFAULT 'anonymous'"`
	CreatedUnix timeutil.TimeStamp `xorm:"created"`
	UpdatedUnix timeutil.TimeStamp `xorm:"updated"`
	ClosedUnix  timeutil.TimeStamp
}

func (Issue) TableName() string {
	return "issue"
}

// Comment is a reply on an issue.
type Comment struct {
	ID          int64              `xorm:"pk autoincr"`
	IssueID     int64              `xorm:"INDEX NOT NULL"`
	Body        string             `xorm:"TEXT NOT NULL"`
	AuthorName  string             `xorm:"VARCHAR(100) NOT NULL DEFAULT 'anonymous'"`
	CreatedUnix timeutil.TimeStamp `xorm:"created"`
}

func (Comment) TableName() string {
	return "issue_comment"
}

// ErrIssueNotFound is returned when a repo has no issue with the number.
type ErrIssueNotFound struct {
	RepoID int64
	Number int64
}

func (e ErrIssueNotFound) Error() string {
	return fmt.Sprintf("issue #%d not found in repository %d", e.Number, e.RepoID)
}

// IsErrIssueNotFound reports whether err is an ErrIssueNotFound.
func IsErrIssueNotFound(err error) bool {
	_, ok := err.(ErrIssueNotFound)
	return ok
}

// CreateIssue inserts a new issue, assigning the next per-repo number inside
// one transaction.
func CreateIssue(ctx context.Context, issue *Issue) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		var max int64
		if _, err := db.GetEngine(ctx).
			SQL("SELECT COALESCE(MAX(number), 0) FROM issue WHERE repo_id = ?", issue.RepoID).
			Get(&max); err != nil {
			return err
		}
		issue.Number = max + 1
		if issue.State == "" {
			issue.State = StateOpen
		}
		if issue.AuthorName == "" {
			issue.AuthorName = "anonymous"
		}
		return db.Insert(ctx, issue)
	})
}

// GetIssue fetches an issue by repository and number.
func GetIssue(ctx context.Context, repoID, number int64) (*Issue, error) {
	issue := new(Issue)
	has, err := db.GetEngine(ctx).
		Where("repo_id = ? AND number = ?", repoID, number).
		Get(issue)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrIssueNotFound{RepoID: repoID, Number: number}
	}
	return issue, nil
}

// ListIssues returns a repository's issues, newest first.
func ListIssues(ctx context.Context, repoID int64, state string) ([]*Issue, error) {
	sess := db.GetEngine(ctx).Where("repo_id = ?", repoID)
	if state != "" {
		sess = sess.And("state = ?", state)
	}
	var out []*Issue
	return out, sess.Desc("number").Find(&out)
}

// CountIssues counts a repository's issues in the given state, or all of
// them when state is empty.
func CountIssues(ctx context.Context, repoID int64, state string) (int64, error) {
	sess := db.GetEngine(ctx).Where("repo_id = ?", repoID)
	if state != "" {
		sess = sess.And("state = ?", state)
	}
	return sess.Count(new(Issue))
}

// ToggleIssueState flips the issue between open and closed.
func ToggleIssueState(ctx context.Context, issue *Issue) error {
	if issue.State == StateOpen {
		issue.State = StateClosed
		issue.ClosedUnix = timeutil.TimeStampNow()
	} else {
		issue.State = StateOpen
		issue.ClosedUnix = 0
	}
	_, err := db.GetEngine(ctx).ID(issue.ID).
		Cols("state", "closed_unix").
		Update(issue)
	return err
}

// CreateComment inserts a comment and bumps the issue's updated timestamp.
func CreateComment(ctx context.Context, comment *Comment) error {
	if comment.AuthorName == "" {
		comment.AuthorName = "anonymous"
	}
	return db.WithTx(ctx, func(ctx context.Context) error {
		if err := db.Insert(ctx, comment); err != nil {
			return err
		}
		_, err := db.GetEngine(ctx).
			Exec("UPDATE issue SET updated_unix = ? WHERE id = ?",
				timeutil.TimeStampNow(), comment.IssueID)
		return err
	})
}

// ListComments returns an issue's comments, oldest first.
func ListComments(ctx context.Context, issueID int64) ([]*Comment, error) {
	var out []*Comment
	return out, db.GetEngine(ctx).
		Where("issue_id = ?", issueID).
		Asc("id").
		Find(&out)
}
