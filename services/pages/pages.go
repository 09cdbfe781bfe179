// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pages serves static files out of a repository's tree through a
// per-revision disk cache.
package pages

import (
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	repo_model "github.com/crustyhub/crustyhub/models/repo"
	"github.com/crustyhub/crustyhub/modules/gitcmd"
	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/setting"
	"github.com/crustyhub/crustyhub/modules/typesniffer"
)

// configFileName is the manifest a repository commits to enable pages.
const configFileName = ".pages"

// Config is a repository's pages manifest.
type Config struct {
	Directory string
	Entry     string
}

// ParseConfig reads a `.pages` manifest. Returns nil when the content has no
// [pages] section or configures a traversal.
func ParseConfig(raw []byte) *Config {
	f, err := ini.Load(raw)
	if err != nil {
		return nil
	}
	sec, err := f.GetSection("pages")
	if err != nil {
		return nil
	}

	cfg := &Config{
		Directory: sec.Key("directory").MustString("."),
		Entry:     sec.Key("entry").MustString("index.html"),
	}
	if strings.Contains(cfg.Directory, "..") || strings.Contains(cfg.Entry, "..") {
		return nil
	}
	return cfg
}

// GetConfig loads the manifest from the repository HEAD, or nil when pages
// are not enabled for the repository.
func GetConfig(ctx context.Context, slug string) (*Config, error) {
	raw, ok, err := gitcmd.ShowFile(ctx, repo_model.RepoPath(slug), "HEAD", configFileName)
	if err != nil || !ok {
		return nil, err
	}
	return ParseConfig(raw), nil
}

// File is a resolved pages response.
type File struct {
	Content  []byte
	MimeType string
}

// ServeFile resolves urlPath within the repository's pages directory at HEAD,
// through the disk cache. Returns nil when pages are disabled or the path
// does not resolve.
func ServeFile(ctx context.Context, slug, urlPath string) (*File, error) {
	cfg, err := GetConfig(ctx, slug)
	if err != nil || cfg == nil {
		return nil, err
	}

	sha, err := gitcmd.RevParseShort(ctx, repo_model.RepoPath(slug), "HEAD")
	if err != nil || sha == "" {
		return nil, err
	}

	filePath := strings.TrimLeft(urlPath, "/")
	if filePath == "" || strings.HasSuffix(filePath, "/") {
		filePath += cfg.Entry
	}
	if strings.Contains(filePath, "..") {
		return nil, nil
	}

	cached := cachePath(slug, sha, filePath)
	if content, err := os.ReadFile(cached); err == nil {
		return &File{Content: content, MimeType: mimeType(filePath, content)}, nil
	}

	content, ok, err := gitcmd.ShowFile(ctx, repo_model.RepoPath(slug), "HEAD", gitPath(cfg, filePath))
	if err != nil {
		return nil, err
	}
	if !ok {
		// SPA fallback: extensionless paths retry as a directory index.
		if strings.Contains(path.Base(filePath), ".") {
			return nil, nil
		}
		spaPath := filePath + "/" + cfg.Entry
		content, ok, err = gitcmd.ShowFile(ctx, repo_model.RepoPath(slug), "HEAD", gitPath(cfg, spaPath))
		if err != nil || !ok {
			return nil, err
		}
		writeCache(cachePath(slug, sha, spaPath), content)
		return &File{Content: content, MimeType: mimeType(spaPath, content)}, nil
	}

	writeCache(cached, content)
	return &File{Content: content, MimeType: mimeType(filePath, content)}, nil
}

// Invalidate drops the repository's whole cache tree, called on every push.
// Best-effort: a failed cleanup only means stale cache until the next push.
func Invalidate(slug string) {
	if err := os.RemoveAll(filepath.Join(setting.Pages.CacheRoot, slug)); err != nil {
		log.Warn("pages cache invalidation for %s: %v", slug, err)
	}
}

func cachePath(slug, sha, filePath string) string {
	return filepath.Join(setting.Pages.CacheRoot, slug, sha, filepath.FromSlash(filePath))
}

func gitPath(cfg *Config, filePath string) string {
	if cfg.Directory == "." || cfg.Directory == "" {
		return filePath
	}
	return cfg.Directory + "/" + filePath
}

func writeCache(target string, content []byte) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(target, content, 0o644)
}

// extraMimeTypes covers extensions the platform mime database may miss.
var extraMimeTypes = map[string]string{
	".md":    "text/markdown; charset=utf-8",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".wasm":  "application/wasm",
	".map":   "application/json",
}

// mimeType resolves the response content type from the extension, falling
// back to sniffing the content when the extension is unknown.
func mimeType(filePath string, content []byte) string {
	ext := strings.ToLower(path.Ext(filePath))
	if mt, ok := extraMimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return typesniffer.DetectContentType(content)
}
