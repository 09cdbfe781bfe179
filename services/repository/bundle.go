// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repository

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/crustyhub/crustyhub/models/db"
	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/log"
)

// Bundle archives the repository's bare directory into the relational store,
// replacing any prior blob. This is the only durability mechanism against
// disk loss.
func Bundle(ctx context.Context, slug string) error {
	repo, err := repo_model.GetRepositoryBySlug(ctx, slug)
	if err != nil {
		return err
	}
	data, err := tarGzDir(repo_model.RepoPath(slug))
	if err != nil {
		return fmt.Errorf("archive %s: %w", slug, err)
	}
	return repo_model.SetBundle(ctx, repo.ID, data)
}

// QueueBundle snapshots the repository in the background after a push.
// Best-effort: the push response has already been sent, so failures are
// logged and dropped.
func QueueBundle(slug string) {
	go func() {
		if err := Bundle(db.DefaultContext, slug); err != nil {
			log.Error("post-push bundle of %s failed: %v", slug, err)
		}
	}()
}

// RestoreAll reconstructs missing bare directories from stored blobs. Run
// once at startup; returns the number of repositories recovered.
func RestoreAll(ctx context.Context) (int, error) {
	bundles, err := repo_model.ListBundledRepos(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, b := range bundles {
		path := repo_model.RepoPath(b.Slug)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := untarGz(b.Data, path); err != nil {
			log.Error("restore of %s failed: %v", b.Slug, err)
			continue
		}
		restored++
	}
	return restored, nil
}

// tarGzDir serializes a directory tree into a gzipped tar with paths relative
// to root.
func tarGzDir(root string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// untarGz unpacks an archive produced by tarGzDir into dest, refusing entries
// that would escape it.
func untarGz(data []byte, dest string) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer gz.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.FromSlash(hdr.Name)
		if strings.Contains(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("archive entry escapes destination: %q", hdr.Name)
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		default:
			// Bare repositories hold only directories and regular files;
			// anything else in a blob is suspect.
			return fmt.Errorf("unsupported archive entry type %d: %q", hdr.Typeflag, hdr.Name)
		}
	}
}
