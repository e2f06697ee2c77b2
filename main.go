// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Walletkeeper.
//
// Usage:
//
//	go run . [command] [flags]
//	./walletkeeper [command] [flags]
//
// See --help for commands and options.
package main

import (
	"os"

	"github.com/toeirei/walletkeeper/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
