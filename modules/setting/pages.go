// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import "path/filepath"

// Pages holds the static-pages serving settings.
var Pages = struct {
	Enabled   bool
	Domain    string
	CacheRoot string
}{
	Enabled: true,
	Domain:  "pages.localhost",
}

func loadPagesFrom(rootCfg ConfigProvider) {
	sec := rootCfg.Section("pages")
	dataDir := rootCfg.Section("").Key("DATA_DIR").MustString(filepath.Join(AppWorkPath, "data"))
	Pages.Enabled = sec.Key("ENABLED").MustBool(true)
	Pages.Domain = sec.Key("DOMAIN").MustString("pages.localhost")
	Pages.CacheRoot = sec.Key("CACHE_ROOT").MustString(filepath.Join(dataDir, "pages-cache"))
}
