// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/toeirei/walletkeeper/internal/security"
)

const (
	// KeySize is the AES-256 key length produced by the KDF.
	KeySize = 32
	// NonceSize is the GCM nonce ("iv") length stored with every record.
	NonceSize = 16
	// TagSize is the GCM authentication tag length.
	TagSize = 16

	// maxSealsPerKey bounds random-nonce GCM invocations under one key
	// (NIST SP 800-38D, section 8.3).
	maxSealsPerKey = uint64(1) << 32
)

var (
	ErrKeyDerivation  = errors.New("crypto: key derivation failed")
	ErrAuthentication = errors.New("crypto: message authentication failed")
	ErrDecoding       = errors.New("crypto: malformed encrypted secret")
	ErrNonceBudget    = errors.New("crypto: nonce budget for this key exhausted")
	ErrClosed         = errors.New("crypto: cipher service closed")
)

// CipherService performs AES-256-GCM encryption under a key derived once from
// the master secret. It is safe for concurrent use; nothing on the
// encrypt/decrypt path is mutated apart from the seal counter.
type CipherService struct {
	aead   cipher.AEAD
	rand   io.Reader
	kdf    KDF
	seals  atomic.Uint64
	closed atomic.Bool
}

// Option configures a CipherService.
type Option func(*CipherService)

// WithKDF selects the master-secret derivation function.
func WithKDF(k KDF) Option {
	return func(s *CipherService) { s.kdf = k }
}

// WithRandom overrides the nonce source. Tests only.
func WithRandom(r io.Reader) Option {
	return func(s *CipherService) { s.rand = r }
}

// NewCipherService derives the symmetric key from master and returns a
// service bound to it. master is zeroed before returning, successful or not.
func NewCipherService(master security.Secret, opts ...Option) (*CipherService, error) {
	defer master.Zero()

	s := &CipherService{rand: rand.Reader, kdf: KDFScrypt}
	for _, opt := range opts {
		opt(s)
	}
	if master.IsEmpty() {
		return nil, fmt.Errorf("%w: master secret is empty", ErrKeyDerivation)
	}

	key, err := deriveKey(s.kdf, master)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	s.aead = aead
	return s, nil
}

// KDF reports which derivation function produced the key.
func (s *CipherService) KDF() KDF { return s.kdf }

// Encrypt seals plaintext under a fresh random nonce with context as AAD.
func (s *CipherService) Encrypt(plaintext []byte, context string) (*EncryptedSecret, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.seals.Add(1) > maxSealsPerKey {
		return nil, ErrNonceBudget
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return nil, fmt.Errorf("crypto: reading nonce: %w", err)
	}

	sealed := s.aead.Seal(nil, nonce, plaintext, []byte(context))
	split := len(sealed) - TagSize
	return &EncryptedSecret{
		IV:         nonce,
		Ciphertext: sealed[:split:split],
		AuthTag:    sealed[split:],
	}, nil
}

// Decrypt verifies the tag against context and returns the plaintext. No
// plaintext is released when verification fails.
func (s *CipherService) Decrypt(enc *EncryptedSecret, context string) (security.Secret, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := enc.Validate(); err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(enc.Ciphertext)+TagSize)
	sealed = append(sealed, enc.Ciphertext...)
	sealed = append(sealed, enc.AuthTag...)

	plaintext, err := s.aead.Open(nil, enc.IV, sealed, []byte(context))
	if err != nil {
		return nil, ErrAuthentication
	}
	return security.Secret(plaintext), nil
}

// Close makes the service refuse further work.
func (s *CipherService) Close() {
	s.closed.Store(true)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
