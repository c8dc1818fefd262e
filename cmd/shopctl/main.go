// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command shopctl runs the shopfront server and its administration tasks.
//
// No business logic lives here; see internal/cli for the command tree.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/taibuivan/shopfront/internal/cli"
	"github.com/taibuivan/shopfront/internal/platform/constants"
)

// Set via ldflags at build time.
var version = constants.AppVersion

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
