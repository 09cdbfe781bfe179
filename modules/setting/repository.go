// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// Repository holds bare-repository storage and git subprocess settings.
var Repository = struct {
	Root            string
	TrashRoot       string
	DefaultBranch   string
	HTTPBackendPath string
	BackendTimeout  time.Duration
	CommandTimeout  time.Duration
	MaxCommandOut   int64
	MaxPushSize     int64
	MinFreeDisk     uint64
}{
	DefaultBranch:   "main",
	HTTPBackendPath: "/usr/lib/git-core/git-http-backend",
	BackendTimeout:  60 * time.Second,
	CommandTimeout:  30 * time.Second,
	MaxCommandOut:   10 * 1024 * 1024,
	MaxPushSize:     64 * 1024 * 1024,
	MinFreeDisk:     1024 * 1024 * 1024,
}

func loadRepositoryFrom(rootCfg ConfigProvider) {
	sec := rootCfg.Section("repository")
	dataDir := rootCfg.Section("").Key("DATA_DIR").MustString(filepath.Join(AppWorkPath, "data"))
	Repository.Root = sec.Key("ROOT").MustString(filepath.Join(dataDir, "repos"))
	Repository.TrashRoot = sec.Key("TRASH_ROOT").MustString(filepath.Join(dataDir, "trash"))
	Repository.DefaultBranch = sec.Key("DEFAULT_BRANCH").MustString("main")
	Repository.HTTPBackendPath = sec.Key("HTTP_BACKEND_PATH").MustString("/usr/lib/git-core/git-http-backend")
	Repository.BackendTimeout = sec.Key("HTTP_BACKEND_TIMEOUT").MustDuration(60 * time.Second)
	Repository.CommandTimeout = sec.Key("COMMAND_TIMEOUT").MustDuration(30 * time.Second)
	Repository.MaxCommandOut = mustBytes(sec.Key("MAX_COMMAND_OUTPUT").MustString("10MiB"), 10*1024*1024)
	Repository.MaxPushSize = mustBytes(sec.Key("MAX_PUSH_SIZE").MustString("64MiB"), 64*1024*1024)
	Repository.MinFreeDisk = uint64(mustBytes(sec.Key("MIN_FREE_DISK").MustString("1GiB"), 1024*1024*1024))
}

func mustBytes(s string, def int64) int64 {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return def
	}
	return int64(n)
}
