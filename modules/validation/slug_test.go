// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSlug(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		for _, s := range []string{
			"my-repo_1.0",
			"a",
			"0day",
			"repo.name",
			"A" + strings.Repeat("b", 62),
		} {
			assert.True(t, IsValidSlug(s), "expected %q to be valid", s)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, s := range []string{
			"",
			".",
			"..",
			"../../etc",
			"-leading-dash",
			".hidden",
			"has space",
			"slash/inside",
			"dots..inside",
			"A" + strings.Repeat("b", 63),
			"emojié",
		} {
			assert.False(t, IsValidSlug(s), "expected %q to be invalid", s)
		}
	})
}
