// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd provides the subcommands of the crustyhub binary.
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/crustyhub/crustyhub/models/db"
	"github.com/crustyhub/crustyhub/modules/setting"
)

// NewMainApp builds the root command.
func NewMainApp() *cli.Command {
	return &cli.Command{
		Name:        "crustyhub",
		Usage:       "Anonymous git hosting",
		Description: "Accountless git hosting over smart HTTP, with issues, forks, stars and pages.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "app.ini",
				Usage:   "configuration file path",
			},
		},
		DefaultCommand: "web",
		Commands: []*cli.Command{
			cmdWeb(),
			cmdRestore(),
			cmdSeed(),
		},
	}
}

// initEnv loads settings and connects the database, shared by every
// subcommand.
func initEnv(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setting.NewConfigProviderFromFile(cmd.String("config"))
	if err != nil {
		return err
	}
	setting.LoadCommonSettings(cfg)

	if err := db.InitEngine(ctx); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	return nil
}
