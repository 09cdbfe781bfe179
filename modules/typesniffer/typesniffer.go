// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package typesniffer detects a content type from file bytes, for responses
// whose path gives no usable extension.
package typesniffer

import (
	"bytes"
	"encoding/xml"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// SniffLimit caps how many bytes are inspected.
const SniffLimit = 1024

var svgTagRegex = regexp.MustCompile(`(?si)\A\s*(?:(<!--.*?-->|<\?xml.*?\?>|<!DOCTYPE\s+svg([\s:]+.*?>|>))\s*)*<svg\b`)

// DetectContentType returns the MIME type sniffed from the first bytes of
// content. It refines http.DetectContentType for types the standard sniffer
// reports too broadly: SVG served as generic XML would not render, and XML
// with a prolog sniffs as plain text.
func DetectContentType(content []byte) string {
	if len(content) > SniffLimit {
		content = content[:SniffLimit]
	}

	ct := http.DetectContentType(content)

	if strings.Contains(ct, "text/plain") || strings.Contains(ct, "text/xml") {
		if svgTagRegex.Match(content) {
			return "image/svg+xml"
		}
		if strings.Contains(ct, "text/plain") && looksLikeXML(content) {
			return "text/xml; charset=utf-8"
		}
	}
	return ct
}

// looksLikeXML reports whether content parses as at least one XML token
// ending in a start element.
func looksLikeXML(content []byte) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), []byte("<?xml")) {
		return false
	}
	decoder := xml.NewDecoder(bytes.NewReader(content))
	decoder.Strict = false
	for {
		token, err := decoder.Token()
		if err != nil {
			return err == io.EOF
		}
		if _, ok := token.(xml.StartElement); ok {
			return true
		}
	}
}
