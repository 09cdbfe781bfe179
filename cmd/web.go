// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/crustyhub/crustyhub/models/db"
	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/setting"
	"github.com/crustyhub/crustyhub/routers"
	"github.com/crustyhub/crustyhub/services/admission"
	repo_service "github.com/crustyhub/crustyhub/services/repository"
)

func cmdWeb() *cli.Command {
	return &cli.Command{
		Name:   "web",
		Usage:  "Start the server",
		Action: runWeb,
	}
}

func runWeb(ctx context.Context, cmd *cli.Command) error {
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

	// Reconcile disk state with the database before accepting traffic: any
	// repository whose directory is gone comes back from its backup blob.
	restored, err := repo_service.RestoreAll(ctx)
	if err != nil {
		return fmt.Errorf("restore repositories: %w", err)
	}
	if restored > 0 {
		log.Info("restored %d repositories from backup", restored)
	}

	svc := admission.NewService()
	sched := svc.StartSweepers()
	defer sched.Stop()

	addr := net.JoinHostPort(setting.Server.HTTPAddr, strconv.Itoa(setting.Server.HTTPPort))
	srv := &http.Server{
		Addr:        addr,
		Handler:     routers.NormalRoutes(svc),
		ReadTimeout: 5 * time.Minute,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-shutdownCtx.Done()
		graceCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(graceCtx); err != nil {
			log.Error("shutdown: %v", err)
		}
	}()

	log.Info("listening on %s (pages domain %s)", addr, setting.Pages.Domain)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
