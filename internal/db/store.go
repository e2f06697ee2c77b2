// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/toeirei/walletkeeper/internal/model"
)

// KeyStore is the minimal persistence contract the signing coordinator needs.
type KeyStore interface {
	// Put inserts a new record. It fails with ErrDuplicate when a record for
	// rec.UserID already exists and never overwrites it.
	Put(ctx context.Context, rec model.WalletKey) error
	// Get returns the record for userID or ErrNotFound.
	Get(ctx context.Context, userID string) (*model.WalletKey, error)
}

// AuditWriter records audit trail events.
type AuditWriter interface {
	LogAction(ctx context.Context, action, details string) error
}

// Store is the full backend surface used by the CLI, the backup tooling and
// the HTTP server.
type Store interface {
	KeyStore
	AuditWriter

	// ListWalletKeys returns every record ordered by creation time.
	ListWalletKeys(ctx context.Context) ([]model.WalletKey, error)
	// GetAuditLog returns up to limit entries, most recent first. A limit of
	// zero or less returns everything.
	GetAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
	Ping(ctx context.Context) error
	Close() error
}
