// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package githttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/setting"
)

// cgiResponse is the parsed pseudo-HTTP header block of a CGI response.
type cgiResponse struct {
	status     int
	header     http.Header
	bodyPrefix []byte
}

// maxCGIHeaderSize bounds the accumulated header block; a backend that
// streams forever without a CRLFCRLF boundary is broken, not slow.
const maxCGIHeaderSize = 64 * 1024

// readCGIResponse consumes r until the CRLFCRLF header/body boundary is
// found, accumulating partial reads: the boundary routinely splits across
// chunks. Whatever followed the boundary in the final chunk is returned as
// the body prefix.
func readCGIResponse(r io.Reader) (*cgiResponse, error) {
	var buf []byte
	chunk := make([]byte, 8192)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if i := bytes.Index(buf, []byte("\r\n\r\n")); i >= 0 {
				resp := parseCGIHeaderBlock(buf[:i])
				resp.bodyPrefix = buf[i+4:]
				return resp, nil
			}
			if len(buf) > maxCGIHeaderSize {
				return nil, fmt.Errorf("backend emitted %d bytes without a header boundary", len(buf))
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("backend closed stream before header boundary (%d bytes read)", len(buf))
			}
			return nil, err
		}
	}
}

// parseCGIHeaderBlock interprets `Status:` as the HTTP status override and
// every other `Key: Value` line as a response header.
func parseCGIHeaderBlock(block []byte) *cgiResponse {
	resp := &cgiResponse{status: http.StatusOK, header: make(http.Header)}
	for _, line := range strings.Split(string(block), "\r\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if strings.EqualFold(key, "Status") {
			code, _, _ := strings.Cut(value, " ")
			if n, err := strconv.Atoi(code); err == nil {
				resp.status = n
			}
			continue
		}
		if key = strings.TrimSpace(key); key != "" {
			resp.header.Set(key, value)
		}
	}
	return resp
}

// serveBackend bridges the request onto git-http-backend's CGI contract and
// streams the response back without buffering either direction.
func serveBackend(w http.ResponseWriter, req *http.Request, pathInfo string) {
	ctx, cancel := context.WithTimeout(req.Context(), setting.Repository.BackendTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, setting.Repository.HTTPBackendPath)
	cmd.Env = []string{
		"GIT_PROJECT_ROOT=" + setting.Repository.Root,
		"GIT_HTTP_EXPORT_ALL=1",
		"PATH_INFO=" + pathInfo,
		"QUERY_STRING=" + req.URL.RawQuery,
		"REQUEST_METHOD=" + req.Method,
		"SERVER_PROTOCOL=HTTP/1.1",
		"PATH=" + os.Getenv("PATH"),
	}
	if ct := req.Header.Get("Content-Type"); ct != "" {
		cmd.Env = append(cmd.Env, "CONTENT_TYPE="+ct)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		http.Error(w, "git backend failed", http.StatusInternalServerError)
		return
	}

	hasBody := req.Method == http.MethodPost
	var stdin io.WriteCloser
	if hasBody {
		if stdin, err = cmd.StdinPipe(); err != nil {
			http.Error(w, "git backend failed", http.StatusInternalServerError)
			return
		}
	}

	if err := cmd.Start(); err != nil {
		log.Error("start %s: %v", setting.Repository.HTTPBackendPath, err)
		http.Error(w, "git backend failed", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Debug("git backend %s exited: %v", pathInfo, err)
		}
	}()

	// The body write and the output read must run concurrently: both streams
	// can exceed pipe buffers, and the backend interleaves reading the pack
	// with writing progress. Serializing them deadlocks.
	var g errgroup.Group
	if hasBody {
		g.Go(func() error {
			defer stdin.Close()
			if _, err := io.Copy(stdin, req.Body); err != nil {
				log.Debug("copy request body to git backend: %v", err)
			}
			return nil
		})
	}
	defer func() { _ = g.Wait() }()

	resp, err := readCGIResponse(stdout)
	if err != nil {
		log.Error("git backend produced no parsable response for %s: %v", pathInfo, err)
		http.Error(w, "git backend failed", http.StatusInternalServerError)
		return
	}

	header := w.Header()
	for key, values := range resp.header {
		header[key] = values
	}
	w.WriteHeader(resp.status)

	flusher, _ := w.(http.Flusher)
	if len(resp.bodyPrefix) > 0 {
		if _, err := w.Write(resp.bodyPrefix); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Stream the remaining subprocess output. A timeout kill surfaces here
	// as a read error and simply truncates the stream; bytes already sent
	// are valid and the client sees a legitimate streaming error.
	buf := make([]byte, 32*1024)
	for {
		n, rerr := stdout.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr != nil {
			return
		}
	}
}
