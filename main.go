// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"

	"github.com/crustyhub/crustyhub/cmd"
	"github.com/crustyhub/crustyhub/modules/log"
)

func main() {
	app := cmd.NewMainApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal("%v", err)
	}
}
