// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Command walletkeeper manages custodial Stellar wallet keys.
package main

import (
	"os"

	"github.com/toeirei/walletkeeper/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		// cobra has already printed the error.
		os.Exit(1)
	}
}
