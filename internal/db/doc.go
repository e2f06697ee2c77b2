// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db is the key store gateway. It persists encrypted wallet key
// records and the audit trail behind the KeyStore and Store interfaces.
//
// Backends:
//   - sqlite, postgres, mysql: uptrace/bun over database/sql with embedded
//     migrations (see migrations/).
//   - couchdb: go-kivik, one document per wallet.
//   - mongodb: the official mongo driver, one document per wallet.
//   - memory: an in-process map used by tests and dry runs.
//
// Every backend is insert-only for wallet keys. A second Put for the same
// user fails with ErrDuplicate and never replaces the stored record.
// Backend-specific failures are mapped onto the sentinels in errors.go so
// callers can use errors.Is without importing driver packages.
package db
