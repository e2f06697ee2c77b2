// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // CouchDB driver
	"github.com/google/uuid"

	"github.com/toeirei/walletkeeper/internal/model"
)

const (
	couchWalletKeyType = "wallet_key"
	couchAuditType     = "audit"
	// Mango queries default to 25 rows; listing needs everything.
	couchListLimit = 1 << 20
)

type couchWalletKey struct {
	ID                  string    `json:"_id,omitempty"`
	Rev                 string    `json:"_rev,omitempty"`
	Type                string    `json:"type"`
	UserID              string    `json:"user_id"`
	PublicKey           string    `json:"public_key"`
	EncryptedPrivateKey string    `json:"encrypted_private_key"`
	CreatedAt           time.Time `json:"created_at"`
}

type couchAuditEntry struct {
	ID        string    `json:"_id,omitempty"`
	Rev       string    `json:"_rev,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

func couchWalletKeyID(userID string) string {
	return fmt.Sprintf("%s:%s", couchWalletKeyType, userID)
}

// CouchStore keeps one CouchDB document per wallet.
type CouchStore struct {
	client *kivik.Client
	db     *kivik.DB
}

// NewCouchStore connects to the CouchDB server at url and creates the
// database when it does not exist yet.
func NewCouchStore(ctx context.Context, url, dbName string) (*CouchStore, error) {
	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to couchdb: %w", err)
	}
	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to check database existence: %w", mapCouchError(ctx, err))
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil && kivik.HTTPStatus(err) != http.StatusPreconditionFailed {
			_ = client.Close()
			return nil, fmt.Errorf("failed to create database: %w", mapCouchError(ctx, err))
		}
		dbLogf("db: created couchdb database %s", dbName)
	}
	return &CouchStore{client: client, db: client.DB(dbName)}, nil
}

// mapCouchError translates kivik HTTP statuses to the package sentinels.
func mapCouchError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch kivik.HTTPStatus(err) {
	case http.StatusConflict:
		return ErrDuplicate
	case http.StatusNotFound:
		return ErrNotFound
	}
	return mapCtxError(ctx, err)
}

// Put creates the wallet document. The document is written without a _rev,
// so CouchDB answers 409 when it already exists.
func (s *CouchStore) Put(ctx context.Context, rec model.WalletKey) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	doc := couchWalletKey{
		Type:                couchWalletKeyType,
		UserID:              rec.UserID,
		PublicKey:           rec.PublicKey,
		EncryptedPrivateKey: rec.EncryptedPrivateKey,
		CreatedAt:           created.UTC(),
	}
	_, err := s.db.Put(ctx, couchWalletKeyID(rec.UserID), doc)
	return mapCouchError(ctx, err)
}

// Get fetches the wallet document for userID.
func (s *CouchStore) Get(ctx context.Context, userID string) (*model.WalletKey, error) {
	var doc couchWalletKey
	if err := s.db.Get(ctx, couchWalletKeyID(userID)).ScanDoc(&doc); err != nil {
		return nil, mapCouchError(ctx, err)
	}
	return &model.WalletKey{
		UserID:              doc.UserID,
		PublicKey:           doc.PublicKey,
		EncryptedPrivateKey: doc.EncryptedPrivateKey,
		CreatedAt:           doc.CreatedAt.UTC(),
	}, nil
}

// ListWalletKeys returns every wallet document, oldest first.
func (s *CouchStore) ListWalletKeys(ctx context.Context) ([]model.WalletKey, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{"type": couchWalletKeyType},
		"limit":    couchListLimit,
	}
	rows := s.db.Find(ctx, query)
	defer func() { _ = rows.Close() }()

	var out []model.WalletKey
	for rows.Next() {
		var doc couchWalletKey
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode wallet document: %w", err)
		}
		out = append(out, model.WalletKey{
			UserID:              doc.UserID,
			PublicKey:           doc.PublicKey,
			EncryptedPrivateKey: doc.EncryptedPrivateKey,
			CreatedAt:           doc.CreatedAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, mapCouchError(ctx, err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// LogAction stores an audit document.
func (s *CouchStore) LogAction(ctx context.Context, action, details string) error {
	doc := couchAuditEntry{
		Type:      couchAuditType,
		Timestamp: time.Now().UTC(),
		Username:  currentUsername(),
		Action:    action,
		Details:   details,
	}
	_, err := s.db.Put(ctx, fmt.Sprintf("%s:%s", couchAuditType, uuid.NewString()), doc)
	return mapCouchError(ctx, err)
}

// GetAuditLog returns audit documents, most recent first. Documents carry no
// sequence number, so IDs are assigned by position in the oldest-first order.
func (s *CouchStore) GetAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{"type": couchAuditType},
		"limit":    couchListLimit,
	}
	rows := s.db.Find(ctx, query)
	defer func() { _ = rows.Close() }()

	var docs []couchAuditEntry
	for rows.Next() {
		var doc couchAuditEntry
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode audit document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapCouchError(ctx, err)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Timestamp.Before(docs[j].Timestamp) })

	out := make([]model.AuditLogEntry, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		d := docs[i]
		out = append(out, model.AuditLogEntry{
			ID:        i + 1,
			Timestamp: d.Timestamp.Format(time.RFC3339),
			Username:  d.Username,
			Action:    d.Action,
			Details:   d.Details,
		})
	}
	return out, nil
}

// Ping checks that the server answers.
func (s *CouchStore) Ping(ctx context.Context) error {
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return mapCouchError(ctx, err)
	}
	if !ok {
		return fmt.Errorf("%w: couchdb ping failed", ErrUnavailable)
	}
	return nil
}

// Close releases the database handle and the client.
func (s *CouchStore) Close() error {
	return errors.Join(s.db.Close(), s.client.Close())
}

func compactCouch(ctx context.Context, url, dbName string) error {
	client, err := kivik.New("couch", url)
	if err != nil {
		return fmt.Errorf("failed to connect to couchdb: %w", err)
	}
	defer func() { _ = client.Close() }()
	db := client.DB(dbName)
	defer func() { _ = db.Close() }()
	if err := db.Compact(ctx); err != nil {
		return fmt.Errorf("couchdb compaction failed: %w", err)
	}
	return nil
}
