// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import "github.com/crustyhub/crustyhub/modules/log"

// Server holds the HTTP listener settings.
var Server = struct {
	HTTPAddr string
	HTTPPort int
	Domain   string
}{
	HTTPAddr: "0.0.0.0",
	HTTPPort: 3000,
	Domain:   "localhost",
}

func loadServerFrom(rootCfg ConfigProvider) {
	sec := rootCfg.Section("server")
	Server.HTTPAddr = sec.Key("HTTP_ADDR").MustString("0.0.0.0")
	Server.HTTPPort = sec.Key("HTTP_PORT").MustInt(3000)
	Server.Domain = sec.Key("DOMAIN").MustString("localhost")
}

func loadLogFrom(rootCfg ConfigProvider) {
	sec := rootCfg.Section("log")
	log.SetLevel(log.LevelFromString(sec.Key("LEVEL").MustString("INFO")))
}
