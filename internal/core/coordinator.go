// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core coordinates wallet provisioning and signing. It is the only
// place where a decrypted secret key exists, and only for the duration of a
// single SignTransaction call.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	clog "github.com/charmbracelet/log"

	"github.com/toeirei/walletkeeper/internal/crypto"
	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/metrics"
	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/toeirei/walletkeeper/internal/ratelimit"
	"github.com/toeirei/walletkeeper/internal/security"
	"github.com/toeirei/walletkeeper/internal/signer"
	"github.com/toeirei/walletkeeper/internal/wallet"
)

const (
	DefaultStoreTimeout = 5 * time.Second
	DefaultReadRetries  = 2
	defaultRetryBackoff = 100 * time.Millisecond
)

// WalletManager creates wallets and seals or opens their secret keys.
// *wallet.Manager satisfies it.
type WalletManager interface {
	CreateWallet() (*wallet.Keypair, error)
	EncryptSecretKey(secret security.Secret, userID string) (*crypto.EncryptedSecret, error)
	DecryptSecretKey(enc *crypto.EncryptedSecret, userID string) (security.Secret, error)
}

// keyVerifier is implemented by managers that can check a decrypted seed
// against the stored public key.
type keyVerifier interface {
	VerifySecretKey(secret security.Secret, publicKey string) error
}

// WalletInfo is the public view of a provisioned wallet.
type WalletInfo struct {
	UserID    string    `json:"user_id"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStoreTimeout bounds every store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithReadRetries sets how many times a failed read is retried. Zero
// disables retries.
func WithReadRetries(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.readRetries = n
		}
	}
}

// WithRetryBackoff sets the first retry delay; later delays grow
// exponentially.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.retryBackoff = d
		}
	}
}

// WithSignLimiter limits SignTransaction per user.
func WithSignLimiter(l *ratelimit.MapLimiter) Option {
	return func(c *Coordinator) { c.limiter = l }
}

// WithMetrics records operation outcomes.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Coordinator) { c.metrics = r }
}

// WithAuditWriter overrides the audit sink. By default the store is used
// when it implements db.AuditWriter.
func WithAuditWriter(w db.AuditWriter) Option {
	return func(c *Coordinator) { c.audit = w }
}

// WithLogger replaces the component logger.
func WithLogger(l *clog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator runs provisioning and signing against injected collaborators.
// It is safe for concurrent use.
type Coordinator struct {
	wallets WalletManager
	store   db.KeyStore
	signer  signer.Signer

	audit        db.AuditWriter
	limiter      *ratelimit.MapLimiter
	metrics      *metrics.Recorder
	log          *clog.Logger
	timeout      time.Duration
	readRetries  int
	retryBackoff time.Duration
	now          func() time.Time
}

// NewCoordinator wires the collaborators together.
func NewCoordinator(wallets WalletManager, store db.KeyStore, sig signer.Signer, opts ...Option) *Coordinator {
	c := &Coordinator{
		wallets:      wallets,
		store:        store,
		signer:       sig,
		log:          logging.With("component", "coordinator"),
		timeout:      DefaultStoreTimeout,
		readRetries:  DefaultReadRetries,
		retryBackoff: defaultRetryBackoff,
		now:          time.Now,
	}
	if w, ok := store.(db.AuditWriter); ok {
		c.audit = w
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProvisionWallet creates a wallet for userID, stores its sealed secret and
// returns the public part. Provisioning happens at most once per user; a
// second call fails with KindDuplicate. The write is never retried.
func (c *Coordinator) ProvisionWallet(ctx context.Context, userID string) (info *WalletInfo, err error) {
	defer c.observe(OpProvisionWallet, userID, c.now(), &err)

	if err := validateUserID(userID); err != nil {
		return nil, wrap(OpProvisionWallet, userID, err, KindInvalidInput)
	}

	kp, err := c.wallets.CreateWallet()
	if err != nil {
		return nil, wrap(OpProvisionWallet, userID, err, KindInternal)
	}
	defer kp.Destroy()

	enc, err := c.wallets.EncryptSecretKey(kp.SecretKey, userID)
	if err != nil {
		return nil, wrap(OpProvisionWallet, userID, err, KindInternal)
	}
	blob, err := enc.Encode()
	if err != nil {
		return nil, wrap(OpProvisionWallet, userID, err, KindInternal)
	}

	rec := model.WalletKey{
		UserID:              userID,
		PublicKey:           kp.PublicKey,
		EncryptedPrivateKey: blob,
		CreatedAt:           c.now().UTC(),
	}
	putCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err = c.store.Put(putCtx, rec)
	cancel()
	if err != nil {
		return nil, wrap(OpProvisionWallet, userID, err, KindStorage)
	}

	c.logAction(ctx, model.ActionProvisionWallet, fmt.Sprintf("user: %s, public_key: %s", userID, rec.PublicKey))
	return &WalletInfo{UserID: userID, PublicKey: rec.PublicKey, CreatedAt: rec.CreatedAt}, nil
}

// GetPublicKey returns the stored public key. It never decrypts anything.
func (c *Coordinator) GetPublicKey(ctx context.Context, userID string) (info *WalletInfo, err error) {
	defer c.observe(OpGetPublicKey, userID, c.now(), &err)

	if err := validateUserID(userID); err != nil {
		return nil, wrap(OpGetPublicKey, userID, err, KindInvalidInput)
	}
	rec, err := c.fetch(ctx, userID)
	if err != nil {
		return nil, wrap(OpGetPublicKey, userID, err, KindStorage)
	}
	return &WalletInfo{UserID: rec.UserID, PublicKey: rec.PublicKey, CreatedAt: rec.CreatedAt}, nil
}

// SignTransaction signs tx with userID's secret key. The decrypted key is
// zeroed before the call returns, whatever the outcome.
func (c *Coordinator) SignTransaction(ctx context.Context, userID, tx string) (signed string, err error) {
	defer c.observe(OpSignTransaction, userID, c.now(), &err)

	if err := validateUserID(userID); err != nil {
		return "", wrap(OpSignTransaction, userID, err, KindInvalidInput)
	}
	if err := validateTransaction(tx); err != nil {
		return "", wrap(OpSignTransaction, userID, err, KindInvalidInput)
	}
	if !c.limiter.Allow(userID, c.now()) {
		return "", wrap(OpSignTransaction, userID, ErrRateLimited, KindRateLimited)
	}

	rec, err := c.fetch(ctx, userID)
	if err != nil {
		return "", wrap(OpSignTransaction, userID, err, KindStorage)
	}
	enc, err := crypto.ParseEncryptedSecret(rec.EncryptedPrivateKey)
	if err != nil {
		return "", wrap(OpSignTransaction, userID, err, KindDecoding)
	}

	secret, err := c.wallets.DecryptSecretKey(enc, userID)
	if err != nil {
		return "", wrap(OpSignTransaction, userID, err, KindInternal)
	}
	defer secret.Zero()

	if v, ok := c.wallets.(keyVerifier); ok {
		if err := v.VerifySecretKey(secret, rec.PublicKey); err != nil {
			return "", wrap(OpSignTransaction, userID, err, KindDecoding)
		}
	}

	signed, err = c.signer.Sign(ctx, secret, tx)
	if err != nil {
		return "", wrap(OpSignTransaction, userID, err, KindSigning)
	}

	c.logAction(ctx, model.ActionSignTransaction, fmt.Sprintf("user: %s, public_key: %s", userID, rec.PublicKey))
	return signed, nil
}

// fetch reads the record for userID, retrying timeouts and unavailable
// stores with exponential backoff. Every attempt gets its own deadline.
func (c *Coordinator) fetch(ctx context.Context, userID string) (*model.WalletKey, error) {
	var rec *model.WalletKey
	attempt := 0
	operation := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		r, err := c.store.Get(callCtx, userID)
		if err == nil {
			rec = r
			return nil
		}
		if errors.Is(err, db.ErrTimeout) || errors.Is(err, db.ErrUnavailable) {
			c.log.Debug("store read failed", "user", userID, "attempt", attempt, "err", err)
			return err
		}
		return backoff.Permanent(err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryBackoff
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.readRetries)), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return rec, nil
}

// logAction writes a best-effort audit entry. Audit failures are logged and
// do not fail the operation.
func (c *Coordinator) logAction(ctx context.Context, action, details string) {
	if c.audit == nil {
		return
	}
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	if err := c.audit.LogAction(auditCtx, action, details); err != nil {
		c.log.Warn("audit write failed", "action", action, "err", err)
	}
}

func (c *Coordinator) observe(op, userID string, start time.Time, errp *error) {
	result := metrics.ResultOK
	if *errp != nil {
		kind := KindOf(*errp)
		result = string(kind)
		c.log.Warn("operation failed", "op", op, "user", userID, "kind", kind)
	}
	c.metrics.Observe(op, result, c.now().Sub(start))
}
