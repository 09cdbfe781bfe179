// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/crustyhub/crustyhub/models/db"
	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/gitcmd"
	"github.com/crustyhub/crustyhub/modules/json"
	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/setting"
	repo_service "github.com/crustyhub/crustyhub/services/repository"
)

const (
	seedCommitName  = "crustyhub"
	seedCommitEmail = "seed@crustyhub.invalid"
)

type seedRepoConfig struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

func cmdSeed() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Create repositories from a JSON manifest, optionally importing content",
		ArgsUsage: "<manifest.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "stop at the first failed entry instead of continuing",
			},
		},
		Action: runSeed,
	}
}

func runSeed(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one manifest path")
	}
	if err := initEnv(ctx, cmd); err != nil {
		return err
	}
	defer func() {
		if err := db.CloseEngine(); err != nil {
			log.Error("close database: %v", err)
		}
	}()
	if err := repo_service.EnsureDirectories(); err != nil {
		return err
	}

	manifestPath := cmd.Args().First()
	repos, err := loadSeedManifest(manifestPath)
	if err != nil {
		return err
	}

	log.Info("seeding %d repositories", len(repos))
	hadFailure := false
	for _, entry := range repos {
		if err := seedOne(ctx, manifestPath, entry); err != nil {
			if cmd.Bool("strict") {
				return err
			}
			hadFailure = true
			log.Error("seed %s: %v", entry.Slug, err)
		}
	}
	if hadFailure {
		return fmt.Errorf("seed completed with failures")
	}
	return nil
}

func loadSeedManifest(path string) ([]seedRepoConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var repos []seedRepoConfig
	if err := json.Unmarshal(raw, &repos); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return repos, nil
}

func seedOne(ctx context.Context, manifestPath string, entry seedRepoConfig) error {
	if entry.Slug == "" {
		return fmt.Errorf("manifest entry missing slug")
	}

	// Idempotent: an existing repository is left alone so re-running the
	// seed never clobbers pushed history.
	if _, err := repo_model.GetRepositoryBySlug(ctx, entry.Slug); err == nil {
		log.Info("repository %s already exists, skipping", entry.Slug)
		return nil
	} else if !repo_model.IsErrRepoNotFound(err) {
		return err
	}

	repo, err := repo_service.Create(ctx, entry.Slug, entry.Description, repo_model.CreatedViaWeb)
	if err != nil {
		return err
	}

	if entry.Path == "" {
		return nil
	}
	sourceDir := entry.Path
	if !filepath.IsAbs(sourceDir) {
		sourceDir = filepath.Join(filepath.Dir(manifestPath), sourceDir)
	}
	if err := importContent(ctx, repo.Slug, sourceDir); err != nil {
		return fmt.Errorf("import content for %s: %w", entry.Slug, err)
	}
	log.Info("seeded %s from %s", entry.Slug, sourceDir)
	return nil
}

// importContent commits the source directory into the bare repository as a
// single initial commit, through a throwaway clone.
func importContent(ctx context.Context, slug, sourceDir string) error {
	if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
		return fmt.Errorf("content directory not found at %s", sourceDir)
	}

	work, err := os.MkdirTemp("", "crustyhub-seed-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	// The clone inherits the bare repository's HEAD, so the commit lands on
	// the default branch without any checkout.
	if err := runSeedGit(ctx, work, []string{"clone", repo_model.RepoPath(slug), "."}); err != nil {
		return err
	}
	if err := copyTree(sourceDir, work); err != nil {
		return err
	}
	steps := [][]string{
		{"add", "-A"},
		{"-c", "user.name=" + seedCommitName, "-c", "user.email=" + seedCommitEmail, "commit", "-m", "Initial import"},
		{"push", "origin", setting.Repository.DefaultBranch},
	}
	for _, args := range steps {
		if err := runSeedGit(ctx, work, args); err != nil {
			return err
		}
	}
	return nil
}

// runSeedGit runs git inside the throwaway worktree. gitcmd targets bare
// repositories via --git-dir, so the worktree is addressed with -C instead.
func runSeedGit(ctx context.Context, dir string, args []string) error {
	res, err := gitcmd.Run(ctx, gitcmd.RunOpts{Args: append([]string{"-C", dir}, args...)})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(res.Stderr))
	}
	return nil
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
