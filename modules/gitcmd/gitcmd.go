// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package gitcmd runs the git command-line tool against bare repositories.
package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/crustyhub/crustyhub/modules/setting"
)

// RunOpts controls a single git invocation.
type RunOpts struct {
	// Dir is the bare repository directory passed as --git-dir. Empty means
	// the command does not target an existing repository (e.g. init, clone).
	Dir string
	// Args are the git arguments after --git-dir.
	Args []string
	// Timeout bounds wall-clock execution; zero uses the configured default.
	Timeout time.Duration
	// MaxStdoutSize truncates captured stdout; zero uses the configured default.
	// Stderr is never truncated, it is small and carries error detail.
	MaxStdoutSize int64
}

// Result captures a finished git invocation.
type Result struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// limitedBuffer keeps at most max bytes and silently drops the rest, so a
// pathological repository cannot balloon process memory.
type limitedBuffer struct {
	buf bytes.Buffer
	max int64
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if remaining := b.max - int64(b.buf.Len()); remaining > 0 {
		if int64(n) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return n, nil
}

// Run executes git with the given options. A non-zero exit is not an error at
// this level; callers inspect Result.ExitCode. Run never retries.
func Run(ctx context.Context, opts RunOpts) (*Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = setting.Repository.CommandTimeout
	}
	maxOut := opts.MaxStdoutSize
	if maxOut <= 0 {
		maxOut = setting.Repository.MaxCommandOut
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := opts.Args
	if opts.Dir != "" {
		args = append([]string{"--git-dir", opts.Dir}, args...)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	stdout := &limitedBuffer{max: maxOut}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.buf.Bytes(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, nil
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("git %s: %w", strings.Join(opts.Args, " "), ctx.Err())
		}
		return res, fmt.Errorf("git %s: %w", strings.Join(opts.Args, " "), err)
	}
	return res, nil
}

// InitBare creates a bare repository at path accepting pushes over HTTP, with
// HEAD pointing at the configured default branch.
func InitBare(ctx context.Context, path, defaultBranch string) error {
	res, err := Run(ctx, RunOpts{Args: []string{"init", "--bare", path}})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git init failed: %s", strings.TrimSpace(res.Stderr))
	}

	if res, err = Run(ctx, RunOpts{Dir: path, Args: []string{"config", "http.receivepack", "true"}}); err != nil {
		return err
	} else if res.ExitCode != 0 {
		return fmt.Errorf("git config failed: %s", strings.TrimSpace(res.Stderr))
	}

	if res, err = Run(ctx, RunOpts{Dir: path, Args: []string{"symbolic-ref", "HEAD", "refs/heads/" + defaultBranch}}); err != nil {
		return err
	} else if res.ExitCode != 0 {
		return fmt.Errorf("git symbolic-ref failed: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// CloneBare performs a full bare clone of src into dst.
func CloneBare(ctx context.Context, src, dst string) error {
	res, err := Run(ctx, RunOpts{Args: []string{"clone", "--bare", src, dst}})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git clone failed: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// RevParseShort resolves a revision to its short hash, or "" when the
// repository has no such revision (e.g. no commits yet).
func RevParseShort(ctx context.Context, dir, rev string) (string, error) {
	res, err := Run(ctx, RunOpts{Dir: dir, Args: []string{"rev-parse", "--short=7", rev}})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// ShowFile reads a file's content at the given revision. The boolean reports
// whether the path exists at that revision.
func ShowFile(ctx context.Context, dir, rev, path string) ([]byte, bool, error) {
	res, err := Run(ctx, RunOpts{Dir: dir, Args: []string{"show", rev + ":" + path}})
	if err != nil {
		return nil, false, err
	}
	if res.ExitCode != 0 {
		return nil, false, nil
	}
	return res.Stdout, true, nil
}
