// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"os/user"
	"strings"

	"github.com/toeirei/walletkeeper/internal/logging"
)

func dbLogf(format string, v ...any) {
	logging.Debugf(format, v...)
}

// currentUsername returns the OS user recorded in audit entries. Windows
// DOMAIN\user names are reduced to the user part.
func currentUsername() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	if parts := strings.Split(u.Username, `\`); len(parts) > 1 {
		return parts[1]
	}
	return u.Username
}
