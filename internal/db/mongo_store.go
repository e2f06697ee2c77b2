// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/toeirei/walletkeeper/internal/model"
)

const (
	mongoWalletKeys = "wallet_keys"
	mongoAuditLog   = "audit_log"
	mongoCounters   = "counters"
)

type mongoWalletKey struct {
	UserID              string    `bson:"_id"`
	PublicKey           string    `bson:"public_key"`
	EncryptedPrivateKey string    `bson:"encrypted_private_key"`
	CreatedAt           time.Time `bson:"created_at"`
}

type mongoAuditEntry struct {
	ID        int    `bson:"_id"`
	Timestamp string `bson:"timestamp"`
	Username  string `bson:"username"`
	Action    string `bson:"action"`
	Details   string `bson:"details"`
}

// MongoStore keeps wallets in a collection keyed by user id.
type MongoStore struct {
	cli      *mongo.Client
	keys     *mongo.Collection
	audit    *mongo.Collection
	counters *mongo.Collection
}

// NewMongoStore connects to uri and prepares the collections in dbName.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	cli, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := cli.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongodb: %w", mapMongoError(dialCtx, err))
	}
	database := cli.Database(dbName)
	audit := database.Collection(mongoAuditLog)
	_, _ = audit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "action", Value: 1}},
	})
	return &MongoStore{
		cli:      cli,
		keys:     database.Collection(mongoWalletKeys),
		audit:    audit,
		counters: database.Collection(mongoCounters),
	}, nil
}

func mapMongoError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return mapCtxError(ctx, err)
}

// Put inserts the record with _id set to the user id; the implicit unique
// _id index rejects a second insert.
func (s *MongoStore) Put(ctx context.Context, rec model.WalletKey) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	doc := mongoWalletKey{
		UserID:              rec.UserID,
		PublicKey:           rec.PublicKey,
		EncryptedPrivateKey: rec.EncryptedPrivateKey,
		CreatedAt:           created.UTC(),
	}
	_, err := s.keys.InsertOne(ctx, doc)
	return mapMongoError(ctx, err)
}

// Get loads the record for userID.
func (s *MongoStore) Get(ctx context.Context, userID string) (*model.WalletKey, error) {
	var doc mongoWalletKey
	if err := s.keys.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		return nil, mapMongoError(ctx, err)
	}
	return &model.WalletKey{
		UserID:              doc.UserID,
		PublicKey:           doc.PublicKey,
		EncryptedPrivateKey: doc.EncryptedPrivateKey,
		CreatedAt:           doc.CreatedAt.UTC(),
	}, nil
}

// ListWalletKeys returns every record, oldest first.
func (s *MongoStore) ListWalletKeys(ctx context.Context) ([]model.WalletKey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.keys.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapMongoError(ctx, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []mongoWalletKey
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapMongoError(ctx, err)
	}
	out := make([]model.WalletKey, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.WalletKey{
			UserID:              d.UserID,
			PublicKey:           d.PublicKey,
			EncryptedPrivateKey: d.EncryptedPrivateKey,
			CreatedAt:           d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// nextAuditID atomically increments the audit_log counter document.
func (s *MongoStore) nextAuditID(ctx context.Context) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": mongoAuditLog},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, mapMongoError(ctx, err)
	}
	return counter.Seq, nil
}

// LogAction inserts an audit entry with a sequential id.
func (s *MongoStore) LogAction(ctx context.Context, action, details string) error {
	id, err := s.nextAuditID(ctx)
	if err != nil {
		return err
	}
	_, err = s.audit.InsertOne(ctx, mongoAuditEntry{
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  currentUsername(),
		Action:    action,
		Details:   details,
	})
	return mapMongoError(ctx, err)
}

// GetAuditLog returns audit entries, most recent first.
func (s *MongoStore) GetAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.audit.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapMongoError(ctx, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []mongoAuditEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapMongoError(ctx, err)
	}
	out := make([]model.AuditLogEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.AuditLogEntry{ID: d.ID, Timestamp: d.Timestamp, Username: d.Username, Action: d.Action, Details: d.Details})
	}
	return out, nil
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return mapMongoError(ctx, s.cli.Ping(ctx, readpref.Primary()))
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.cli.Disconnect(ctx)
}
