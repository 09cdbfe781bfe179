// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package db owns the xorm engine shared by all models.
package db

import (
	"context"
	"fmt"

	"github.com/crustyhub/crustyhub/modules/setting"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"xorm.io/xorm"
	"xorm.io/xorm/names"
)

var (
	x      *xorm.Engine
	tables []any
)

// DefaultContext is the root context for database operations outside a
// request scope.
var DefaultContext = context.Background()

// RegisterModel adds a model to the set synced by SyncAllTables. Called from
// model package init functions.
func RegisterModel(bean any) {
	tables = append(tables, bean)
}

// InitEngine creates the engine from settings and syncs the table schema.
func InitEngine(ctx context.Context) error {
	var (
		engine *xorm.Engine
		err    error
	)
	switch setting.Database.Type {
	case "postgres":
		engine, err = xorm.NewEngine("postgres", setting.Database.ConnStr)
	case "sqlite3":
		engine, err = xorm.NewEngine("sqlite3", fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", setting.Database.Path))
		if engine != nil {
			engine.SetMaxOpenConns(1)
		}
	default:
		return fmt.Errorf("unsupported database type: %q", setting.Database.Type)
	}
	if err != nil {
		return fmt.Errorf("create xorm engine: %w", err)
	}
	engine.SetMapper(names.GonicMapper{})
	engine.SetDefaultContext(ctx)
	return SetEngine(engine)
}

// SetEngine replaces the default engine and syncs tables. Exposed for tests.
func SetEngine(engine *xorm.Engine) error {
	x = engine
	return SyncAllTables()
}

// SyncAllTables creates or migrates every registered table.
func SyncAllTables() error {
	return x.Sync(tables...)
}

// CloseEngine closes the default engine.
func CloseEngine() error {
	if x == nil {
		return nil
	}
	return x.Close()
}

type contextKey struct{}

// GetEngine returns the transaction session carried by ctx, or the default
// engine bound to ctx.
func GetEngine(ctx context.Context) xorm.Interface {
	if sess, ok := ctx.Value(contextKey{}).(*xorm.Session); ok {
		return sess
	}
	return x.Context(ctx)
}

// Insert inserts the beans through the engine bound to ctx.
func Insert(ctx context.Context, beans ...any) error {
	_, err := GetEngine(ctx).Insert(beans...)
	return err
}

// WithTx runs f inside a transaction. Nested calls join the outer transaction.
func WithTx(parentCtx context.Context, f func(ctx context.Context) error) error {
	if _, ok := parentCtx.Value(contextKey{}).(*xorm.Session); ok {
		return f(parentCtx)
	}
	sess := x.NewSession()
	defer sess.Close()
	if err := sess.Begin(); err != nil {
		return err
	}
	if err := f(context.WithValue(parentCtx, contextKey{}, sess)); err != nil {
		return err
	}
	return sess.Commit()
}
