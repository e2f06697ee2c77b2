// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "time"

// BackupSchemaVersion is written into every backup and checked on restore.
const BackupSchemaVersion = 1

// BackupData is the content of a backup file. Wallet keys stay encrypted;
// a backup is useless without the installation master secret.
type BackupData struct {
	SchemaVersion   int             `json:"schema_version"`
	CreatedAt       time.Time       `json:"created_at"`
	WalletKeys      []WalletKey     `json:"wallet_keys"`
	AuditLogEntries []AuditLogEntry `json:"audit_log_entries"`
}
