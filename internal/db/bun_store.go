// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/uptrace/bun"
)

// WalletKeyModel maps the wallet_keys table for Bun queries.
type WalletKeyModel struct {
	bun.BaseModel       `bun:"table:wallet_keys"`
	UserID              string    `bun:"user_id,pk"`
	PublicKey           string    `bun:"public_key,notnull"`
	EncryptedPrivateKey string    `bun:"encrypted_private_key,notnull"`
	CreatedAt           time.Time `bun:"created_at,notnull"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

func walletKeyToModel(m WalletKeyModel) model.WalletKey {
	return model.WalletKey{
		UserID:              m.UserID,
		PublicKey:           m.PublicKey,
		EncryptedPrivateKey: m.EncryptedPrivateKey,
		CreatedAt:           m.CreatedAt.UTC(),
	}
}

func walletKeyFromModel(rec model.WalletKey) WalletKeyModel {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return WalletKeyModel{
		UserID:              rec.UserID,
		PublicKey:           rec.PublicKey,
		EncryptedPrivateKey: rec.EncryptedPrivateKey,
		CreatedAt:           created.UTC(),
	}
}

// BunStore is the SQL implementation of Store shared by the sqlite,
// postgres and mysql backends.
type BunStore struct {
	bun *bun.DB
}

// Put inserts rec. The primary key on user_id turns a second insert for the
// same user into ErrDuplicate.
func (s *BunStore) Put(ctx context.Context, rec model.WalletKey) error {
	m := walletKeyFromModel(rec)
	_, err := s.bun.NewInsert().Model(&m).Exec(ctx)
	return mapCtxError(ctx, err)
}

// Get loads the record for userID.
func (s *BunStore) Get(ctx context.Context, userID string) (*model.WalletKey, error) {
	var m WalletKeyModel
	if err := s.bun.NewSelect().Model(&m).Where("user_id = ?", userID).Limit(1).Scan(ctx); err != nil {
		return nil, mapCtxError(ctx, err)
	}
	rec := walletKeyToModel(m)
	return &rec, nil
}

// ListWalletKeys returns all records, oldest first.
func (s *BunStore) ListWalletKeys(ctx context.Context) ([]model.WalletKey, error) {
	var ms []WalletKeyModel
	if err := s.bun.NewSelect().Model(&ms).OrderExpr("created_at ASC, user_id ASC").Scan(ctx); err != nil {
		return nil, mapCtxError(ctx, err)
	}
	out := make([]model.WalletKey, 0, len(ms))
	for _, m := range ms {
		out = append(out, walletKeyToModel(m))
	}
	return out, nil
}

// LogAction inserts an audit log entry attributed to the current OS user.
func (s *BunStore) LogAction(ctx context.Context, action, details string) error {
	m := AuditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  currentUsername(),
		Action:    action,
		Details:   details,
	}
	_, err := s.bun.NewInsert().Model(&m).Exec(ctx)
	return mapCtxError(ctx, err)
}

// GetAuditLog retrieves audit log entries, most recent first.
func (s *BunStore) GetAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	var am []AuditLogModel
	q := s.bun.NewSelect().Model(&am).OrderExpr("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, mapCtxError(ctx, err)
	}
	out := make([]model.AuditLogEntry, 0, len(am))
	for _, a := range am {
		out = append(out, model.AuditLogEntry{ID: a.ID, Timestamp: a.Timestamp, Username: a.Username, Action: a.Action, Details: a.Details})
	}
	return out, nil
}

// Ping checks the database connection.
func (s *BunStore) Ping(ctx context.Context) error {
	return mapCtxError(ctx, s.bun.PingContext(ctx))
}

// Close releases the connection pool.
func (s *BunStore) Close() error {
	return s.bun.Close()
}
