// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package githttp

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = "Status: 404 Not Found\r\n" +
	"Content-Type: text/plain\r\n" +
	"Expires: Fri, 01 Jan 1980 00:00:00 GMT\r\n" +
	"\r\n" +
	"body bytes follow"

func TestReadCGIResponse(t *testing.T) {
	resp, err := readCGIResponse(strings.NewReader(sampleResponse))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "text/plain", resp.header.Get("Content-Type"))
	assert.Equal(t, "Fri, 01 Jan 1980 00:00:00 GMT", resp.header.Get("Expires"))
	assert.Equal(t, "body bytes follow", string(resp.bodyPrefix))
}

func TestReadCGIResponseBoundarySplitAcrossReads(t *testing.T) {
	// One byte per read forces the CRLFCRLF boundary to straddle chunks.
	// How many body bytes land in the prefix depends on chunking; what must
	// hold is that prefix plus the remaining stream is the exact body.
	r := iotest.OneByteReader(strings.NewReader(sampleResponse))
	resp, err := readCGIResponse(r)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.status)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "body bytes follow", string(resp.bodyPrefix)+string(rest))
}

func TestReadCGIResponseDefaultStatus(t *testing.T) {
	resp, err := readCGIResponse(strings.NewReader("Content-Type: application/x-git-upload-pack-advertisement\r\n\r\n0000"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "0000", string(resp.bodyPrefix))
}

func TestReadCGIResponseEmptyBodyAfterBoundary(t *testing.T) {
	resp, err := readCGIResponse(strings.NewReader("Status: 200\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, resp.bodyPrefix)
}

func TestReadCGIResponseNoOutput(t *testing.T) {
	_, err := readCGIResponse(bytes.NewReader(nil))
	assert.Error(t, err)

	_, err = readCGIResponse(io.LimitReader(strings.NewReader("Status: 200\r\n"), 13))
	assert.Error(t, err, "stream ending before the boundary is an error")
}

func TestReadCGIResponseUnboundedHeaderBails(t *testing.T) {
	// A backend that streams header-shaped bytes forever must fail fast
	// instead of accumulating until the request timeout.
	endless := strings.NewReader(strings.Repeat("X-Filler: aaaaaaaaaaaaaaaa\r\n", 8192))
	_, err := readCGIResponse(endless)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a header boundary")
}

func TestParseCGIHeaderBlockMalformedLines(t *testing.T) {
	resp := parseCGIHeaderBlock([]byte("garbage without colon\r\nX-Ok: yes\r\nStatus: not-a-number"))
	assert.Equal(t, http.StatusOK, resp.status, "unparsable status keeps the default")
	assert.Equal(t, "yes", resp.header.Get("X-Ok"))
}

func TestMatch(t *testing.T) {
	slug, rest, ok := Match("/my-repo.git/info/refs")
	require.True(t, ok)
	assert.Equal(t, "my-repo", slug)
	assert.Equal(t, "info/refs", rest)

	slug, rest, ok = Match("/a.b.git/objects/ab/cdef0123")
	require.True(t, ok)
	assert.Equal(t, "a.b", slug)
	assert.Equal(t, "objects/ab/cdef0123", rest)

	for _, path := range []string{
		"/notgit/info/refs",
		"/.git/info/refs",
		"/my-repo.git",
		"/my-repo.git/",
		"/..%2f.git/info/refs",
	} {
		_, _, ok := Match(path)
		assert.False(t, ok, "path %q must not match", path)
	}
}
