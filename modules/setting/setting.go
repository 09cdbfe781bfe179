// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// ConfigProvider abstracts the ini file so settings loaders are testable.
type ConfigProvider interface {
	Section(name string) *ini.Section
}

// AppWorkPath is the base directory for relative data paths.
var AppWorkPath = "."

func init() {
	if wd, err := os.Getwd(); err == nil {
		AppWorkPath = wd
	}
}

// NewConfigProviderFromFile loads an ini file; a missing path yields an empty
// provider so every setting falls back to its default.
func NewConfigProviderFromFile(path string) (ConfigProvider, error) {
	if path == "" {
		return ini.Empty(), nil
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		if os.IsNotExist(err) {
			return ini.Empty(), nil
		}
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

// NewConfigProviderFromData parses ini content from a string, for tests.
func NewConfigProviderFromData(data string) (ConfigProvider, error) {
	return ini.Load([]byte(data))
}

// LoadCommonSettings populates every settings group from the provider.
func LoadCommonSettings(rootCfg ConfigProvider) {
	loadServerFrom(rootCfg)
	loadLogFrom(rootCfg)
	loadDatabaseFrom(rootCfg)
	loadRepositoryFrom(rootCfg)
	loadAdmissionFrom(rootCfg)
	loadPagesFrom(rootCfg)
}
