// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the records Walletkeeper persists.
package model

import (
	"fmt"
	"time"
)

// WalletKey is the stored record for one user's wallet. EncryptedPrivateKey
// holds the serialized crypto.EncryptedSecret and is opaque to every store.
// Records are written once and never updated.
type WalletKey struct {
	UserID              string    `json:"user_id"`
	PublicKey           string    `json:"public_key"`
	EncryptedPrivateKey string    `json:"encrypted_private_key"`
	CreatedAt           time.Time `json:"created_at"`
}

// String identifies the record without exposing the encrypted blob.
func (w WalletKey) String() string {
	return fmt.Sprintf("%s (%s)", w.UserID, w.PublicKey)
}

// AuditLogEntry is one row of the audit trail. Details never contain key
// material, encrypted or not.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// Audit actions written by the coordinator and the CLI.
const (
	ActionProvisionWallet = "PROVISION_WALLET"
	ActionSignTransaction = "SIGN_TRANSACTION"
	ActionRestoreBackup   = "RESTORE_BACKUP"
)
