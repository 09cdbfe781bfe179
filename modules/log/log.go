// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is a logging severity level.
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// LevelFromString parses a level name, defaulting to INFO.
func LevelFromString(s string) Level {
	for l, name := range levelNames {
		if name == s {
			return l
		}
	}
	return INFO
}

var (
	mu       sync.Mutex
	out      io.Writer = os.Stderr
	minLevel           = INFO
)

// SetLevel sets the minimum level that will be emitted.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < minLevel {
		return
	}
	fmt.Fprintf(out, "%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), levelNames[l], fmt.Sprintf(format, args...))
}

func Trace(format string, args ...any) { logf(TRACE, format, args...) }
func Debug(format string, args ...any) { logf(DEBUG, format, args...) }
func Info(format string, args ...any)  { logf(INFO, format, args...) }
func Warn(format string, args ...any)  { logf(WARN, format, args...) }
func Error(format string, args ...any) { logf(ERROR, format, args...) }

// Fatal logs at FATAL level and exits the process.
func Fatal(format string, args ...any) {
	logf(FATAL, format, args...)
	os.Exit(1)
}
