// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := ParseConfig([]byte("[pages]\n"))
		require.NotNil(t, cfg)
		assert.Equal(t, ".", cfg.Directory)
		assert.Equal(t, "index.html", cfg.Entry)
	})

	t.Run("Explicit", func(t *testing.T) {
		cfg := ParseConfig([]byte("[pages]\ndirectory = \"dist\"\nentry = \"app.html\"\n"))
		require.NotNil(t, cfg)
		assert.Equal(t, "dist", cfg.Directory)
		assert.Equal(t, "app.html", cfg.Entry)
	})

	t.Run("NoSection", func(t *testing.T) {
		assert.Nil(t, ParseConfig([]byte("directory = \"dist\"\n")))
		assert.Nil(t, ParseConfig(nil))
	})

	t.Run("Traversal", func(t *testing.T) {
		assert.Nil(t, ParseConfig([]byte("[pages]\ndirectory = \"../secrets\"\n")))
		assert.Nil(t, ParseConfig([]byte("[pages]\nentry = \"../../etc/passwd\"\n")))
	})

	t.Run("OtherSectionIgnored", func(t *testing.T) {
		cfg := ParseConfig([]byte("[pages]\ndirectory = \"site\"\n[other]\ndirectory = \"nope\"\n"))
		require.NotNil(t, cfg)
		assert.Equal(t, "site", cfg.Directory)
	})
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "text/markdown; charset=utf-8", mimeType("README.md", nil))
	assert.Equal(t, "font/woff2", mimeType("fonts/a.woff2", nil))
	assert.Contains(t, mimeType("index.html", nil), "text/html")
	assert.Equal(t, "application/octet-stream", mimeType("blob.unknownext", []byte{0x00, 0x01}))
	assert.Equal(t, "image/svg+xml", mimeType("logo.unknownext", []byte("<svg></svg>")))
}

func TestGitPath(t *testing.T) {
	assert.Equal(t, "index.html", gitPath(&Config{Directory: "."}, "index.html"))
	assert.Equal(t, "dist/index.html", gitPath(&Config{Directory: "dist"}, "index.html"))
}
