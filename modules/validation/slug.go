// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package validation

import (
	"regexp"
	"strings"
)

// slugPattern restricts repository identifiers to a leading alphanumeric
// followed by at most 63 characters of [A-Za-z0-9._-].
var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,62}$`)

// IsValidSlug reports whether s is an acceptable repository identifier.
// The `..` substring is rejected explicitly even though the character class
// already excludes path separators; slugs end up in filesystem paths.
func IsValidSlug(s string) bool {
	if s == "." || s == ".." {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	return slugPattern.MatchString(s)
}
