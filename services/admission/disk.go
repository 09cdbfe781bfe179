// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package admission

import (
	"net/http"

	"golang.org/x/sys/unix"

	"github.com/crustyhub/crustyhub/modules/setting"
)

// statfsFree is swapped in tests.
var statfsFree = func(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// CheckDiskSpace denies writes when free space on the repository volume is
// below the configured floor. A statfs failure allows the request: a broken
// monitoring call must not take down all traffic (fail open).
func CheckDiskSpace() *Denial {
	free, err := statfsFree(setting.Repository.Root)
	if err != nil {
		return nil
	}
	if free < setting.Repository.MinFreeDisk {
		return &Denial{
			Status:  http.StatusServiceUnavailable,
			Message: "server disk space critically low, cannot accept new data",
		}
	}
	return nil
}
