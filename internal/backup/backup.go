// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package backup exports and restores wallet key records as zstd-compressed
// JSON. Records stay encrypted; a backup can only be used together with the
// master secret of the installation that wrote it.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/toeirei/walletkeeper/internal/core"
	"github.com/toeirei/walletkeeper/internal/crypto"
	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/model"
)

var (
	// ErrSchemaVersion is returned for backups written by a newer version.
	ErrSchemaVersion = errors.New("unsupported backup schema version")
	// ErrInvalidRecord is returned when a wallet key in the backup could
	// never be used: bad user id, missing public key or a malformed
	// encrypted secret.
	ErrInvalidRecord = errors.New("invalid wallet key record")
)

// Source is what Export reads from.
type Source interface {
	ListWalletKeys(ctx context.Context) ([]model.WalletKey, error)
	GetAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
}

// Sink is what Import writes to.
type Sink interface {
	db.KeyStore
	db.AuditWriter
}

// Result counts the records handled by Import.
type Result struct {
	Imported int
	Skipped  int
}

// Collect reads every wallet key and the complete audit log into a
// BackupData.
func Collect(ctx context.Context, src Source, now time.Time) (*model.BackupData, error) {
	keys, err := src.ListWalletKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wallet keys: %w", err)
	}
	audit, err := src.GetAuditLog(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return &model.BackupData{
		SchemaVersion:   model.BackupSchemaVersion,
		CreatedAt:       now.UTC(),
		WalletKeys:      keys,
		AuditLogEntries: audit,
	}, nil
}

// Write encodes data as zstd-compressed JSON.
func Write(data *model.BackupData, w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	return zw.Close()
}

// Read decodes a backup written by Write.
func Read(r io.Reader) (*model.BackupData, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	if data.SchemaVersion < 1 || data.SchemaVersion > model.BackupSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchemaVersion, data.SchemaVersion)
	}
	return &data, nil
}

// Export collects src and writes it to w.
func Export(ctx context.Context, src Source, w io.Writer) (*model.BackupData, error) {
	data, err := Collect(ctx, src, time.Now())
	if err != nil {
		return nil, err
	}
	if err := Write(data, w); err != nil {
		return nil, err
	}
	return data, nil
}

// Import restores the wallet keys in r. Every record is checked before the
// first write; one invalid record rejects the whole backup. Existing users
// are never overwritten; their records count as skipped. Audit entries from
// the backup are not replayed, a single RESTORE_BACKUP entry is written
// instead.
func Import(ctx context.Context, dst Sink, r io.Reader) (Result, error) {
	var res Result
	data, err := Read(r)
	if err != nil {
		return res, err
	}
	for i, k := range data.WalletKeys {
		if err := validateRecord(k); err != nil {
			return res, fmt.Errorf("%w: record %d: %w", ErrInvalidRecord, i, err)
		}
	}
	for _, k := range data.WalletKeys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := dst.Put(ctx, k)
		switch {
		case err == nil:
			res.Imported++
		case errors.Is(err, db.ErrDuplicate):
			res.Skipped++
		default:
			return res, fmt.Errorf("import %s: %w", k.UserID, err)
		}
	}
	details := fmt.Sprintf("imported: %d, skipped: %d, backup_created_at: %s",
		res.Imported, res.Skipped, data.CreatedAt.Format(time.RFC3339))
	if err := dst.LogAction(ctx, model.ActionRestoreBackup, details); err != nil {
		return res, fmt.Errorf("write audit entry: %w", err)
	}
	return res, nil
}

func validateRecord(k model.WalletKey) error {
	if err := core.ValidateUserID(k.UserID); err != nil {
		return err
	}
	if k.PublicKey == "" {
		return fmt.Errorf("user %s: missing public key", k.UserID)
	}
	if _, err := crypto.ParseEncryptedSecret(k.EncryptedPrivateKey); err != nil {
		return fmt.Errorf("user %s: %w", k.UserID, err)
	}
	return nil
}
