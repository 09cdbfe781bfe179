// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package typesniffer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	t.Run("Svg", func(t *testing.T) {
		assert.Equal(t, "image/svg+xml", DetectContentType([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)))
		assert.Equal(t, "image/svg+xml", DetectContentType([]byte("<!-- header -->\n<svg></svg>")))
		assert.Equal(t, "image/svg+xml", DetectContentType([]byte(`<?xml version="1.0"?><svg></svg>`)))
	})

	t.Run("SvgLookalikes", func(t *testing.T) {
		for _, content := range []string{
			`<svgfoo></svgfoo>`,
			`x <svg></svg>`,
			`<html><body><svg></svg></body></html>`,
		} {
			assert.NotEqual(t, "image/svg+xml", DetectContentType([]byte(content)), content)
		}
	})

	t.Run("Xml", func(t *testing.T) {
		assert.Equal(t, "text/xml; charset=utf-8", DetectContentType([]byte(`<?xml version="1.0"?><feed></feed>`)))
	})

	t.Run("Html", func(t *testing.T) {
		assert.Contains(t, DetectContentType([]byte("<!DOCTYPE html><html></html>")), "text/html")
	})

	t.Run("Binary", func(t *testing.T) {
		assert.Equal(t, "application/octet-stream", DetectContentType([]byte{0x00, 0x01, 0x02, 0x03}))
	})

	t.Run("LongInputTruncates", func(t *testing.T) {
		content := "<svg>" + strings.Repeat("x", SniffLimit*2)
		assert.Equal(t, "image/svg+xml", DetectContentType([]byte(content)))
	})
}
