// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxDescriptionLength = 500
	MaxIssueTitleLength  = 300
	MaxIssueBodyLength   = 10000
	MaxAuthorLength      = 100
	MaxSearchQueryLength = 200
)

// controlChars matches C0 control characters except tab, LF and CR, plus DEL.
var (
	controlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	innerSpaces  = regexp.MustCompile(`\s+`)
)

func stripControlChars(s string) string {
	s = controlChars.ReplaceAllString(s, "")
	return strings.TrimSpace(innerSpaces.ReplaceAllString(s, " "))
}

// CleanDescription trims a repository description and enforces the length cap.
func CleanDescription(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if len(clean) > MaxDescriptionLength {
		return clean, fmt.Errorf("description must be %d characters or less", MaxDescriptionLength)
	}
	return clean, nil
}

// CleanIssueTitle requires a non-empty title within the length cap.
func CleanIssueTitle(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("title is required")
	}
	if len(clean) > MaxIssueTitleLength {
		return clean, fmt.Errorf("title must be %d characters or less", MaxIssueTitleLength)
	}
	return clean, nil
}

// CleanIssueBody trims an issue or comment body and enforces the length cap.
func CleanIssueBody(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if len(clean) > MaxIssueBodyLength {
		return clean, fmt.Errorf("body must be %d characters or less", MaxIssueBodyLength)
	}
	return clean, nil
}

// CleanAuthor normalizes a display name. Control characters are stripped,
// runs of whitespace collapse to a single space, overlong names truncate,
// and an empty result falls back to "anonymous". Never errors.
func CleanAuthor(value string) string {
	clean := stripControlChars(value)
	if clean == "" {
		return "anonymous"
	}
	if len(clean) > MaxAuthorLength {
		return clean[:MaxAuthorLength]
	}
	return clean
}

// CleanSearchQuery trims a search query and enforces the length cap.
func CleanSearchQuery(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if len(clean) > MaxSearchQueryLength {
		return clean, fmt.Errorf("search query must be %d characters or less", MaxSearchQueryLength)
	}
	return clean, nil
}
