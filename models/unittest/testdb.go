// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package unittest prepares an in-memory database for model tests.
package unittest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/crustyhub/crustyhub/models/db"

	"github.com/stretchr/testify/require"
	"xorm.io/xorm"
	"xorm.io/xorm/names"
)

var dbCounter int64

// PrepareTestDatabase gives the test a fresh sqlite in-memory engine.
func PrepareTestDatabase(t *testing.T) {
	t.Helper()

	// A unique shared-cache name per test keeps databases isolated while
	// letting the pool reuse the same memory store.
	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	engine, err := xorm.NewEngine("sqlite3", name)
	require.NoError(t, err)
	engine.SetMaxOpenConns(1)
	engine.SetMapper(names.GonicMapper{})
	require.NoError(t, db.SetEngine(engine))

	t.Cleanup(func() {
		_ = db.CloseEngine()
	})
}
