// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package wallet generates Stellar keypairs and seals their seeds to a user.
package wallet

import (
	"errors"
	"fmt"

	"github.com/stellar/go/keypair"

	"github.com/toeirei/walletkeeper/internal/crypto"
	"github.com/toeirei/walletkeeper/internal/security"
)

// ErrKeyMismatch is returned when a decrypted seed does not belong to the
// public key stored next to it.
var ErrKeyMismatch = errors.New("wallet: secret key does not match public key")

// Encrypter is the part of crypto.CipherService the manager needs.
type Encrypter interface {
	Encrypt(plaintext []byte, context string) (*crypto.EncryptedSecret, error)
	Decrypt(enc *crypto.EncryptedSecret, context string) (security.Secret, error)
}

// Keypair is a freshly generated wallet. Callers must Destroy it once the
// secret has been encrypted.
type Keypair struct {
	PublicKey string
	SecretKey security.Secret
}

// Destroy zeroes the secret key.
func (k *Keypair) Destroy() {
	if k == nil {
		return
	}
	k.SecretKey.Zero()
}

// String never includes the secret key.
func (k Keypair) String() string {
	return fmt.Sprintf("Keypair{PublicKey: %s, SecretKey: %s}", k.PublicKey, k.SecretKey)
}

// Option configures a Manager.
type Option func(*Manager)

// WithGenerator replaces keypair.Random.
func WithGenerator(gen func() (*keypair.Full, error)) Option {
	return func(m *Manager) { m.generate = gen }
}

// Manager creates wallets and binds their secrets to a user id through the
// injected Encrypter.
type Manager struct {
	cipher   Encrypter
	generate func() (*keypair.Full, error)
}

// NewManager returns a Manager that seals secrets with c.
func NewManager(c Encrypter, opts ...Option) *Manager {
	m := &Manager{cipher: c, generate: keypair.Random}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateWallet generates a new random Stellar keypair.
func (m *Manager) CreateWallet() (*Keypair, error) {
	full, err := m.generate()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{
		PublicKey: full.Address(),
		SecretKey: security.FromString(full.Seed()),
	}, nil
}

// EncryptSecretKey seals secret with userID as associated data.
func (m *Manager) EncryptSecretKey(secret security.Secret, userID string) (*crypto.EncryptedSecret, error) {
	var enc *crypto.EncryptedSecret
	err := secret.Use(func(b []byte) error {
		var err error
		enc, err = m.cipher.Encrypt(b, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("encrypt wallet key: %w", err)
	}
	return enc, nil
}

// DecryptSecretKey opens enc for userID. A record sealed for another user
// fails with crypto.ErrAuthentication.
func (m *Manager) DecryptSecretKey(enc *crypto.EncryptedSecret, userID string) (security.Secret, error) {
	secret, err := m.cipher.Decrypt(enc, userID)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet key: %w", err)
	}
	return secret, nil
}

// VerifySecretKey checks that secret is the seed of publicKey.
func (m *Manager) VerifySecretKey(secret security.Secret, publicKey string) error {
	return secret.UseString(func(seed string) error {
		full, err := keypair.ParseFull(seed)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrKeyMismatch, err)
		}
		if full.Address() != publicKey {
			return ErrKeyMismatch
		}
		return nil
	})
}
