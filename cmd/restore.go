// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/crustyhub/crustyhub/models/db"
	"github.com/crustyhub/crustyhub/modules/log"
	repo_service "github.com/crustyhub/crustyhub/services/repository"
)

func cmdRestore() *cli.Command {
	return &cli.Command{
		Name:   "restore",
		Usage:  "Recreate missing repository directories from their backup blobs and exit",
		Action: runRestore,
	}
}

func runRestore(ctx context.Context, cmd *cli.Command) error {
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
	restored, err := repo_service.RestoreAll(ctx)
	if err != nil {
		return fmt.Errorf("restore repositories: %w", err)
	}
	fmt.Printf("restored %d repositories\n", restored)
	return nil
}
