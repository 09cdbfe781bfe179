// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import "path/filepath"

// Database holds relational store settings. Type is "postgres" or "sqlite3".
var Database = struct {
	Type    string
	ConnStr string
	Path    string
}{
	Type: "sqlite3",
}

func loadDatabaseFrom(rootCfg ConfigProvider) {
	sec := rootCfg.Section("database")
	Database.Type = sec.Key("DB_TYPE").MustString("sqlite3")
	Database.ConnStr = sec.Key("CONN_STR").MustString("")
	Database.Path = sec.Key("PATH").MustString(filepath.Join(AppWorkPath, "data", "crustyhub.db"))
}
