// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package signer applies a wallet's secret key to a Stellar transaction.
package signer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"

	"github.com/toeirei/walletkeeper/internal/security"
)

var (
	// ErrInvalidTransaction is returned for input that is not a base64 XDR
	// transaction envelope.
	ErrInvalidTransaction = errors.New("signer: invalid transaction envelope")
	// ErrInvalidSecret is returned when the secret is not a Stellar seed.
	ErrInvalidSecret = errors.New("signer: invalid secret seed")
)

// Signer signs a serialized transaction with secret and returns the signed
// serialization. Implementations must not retain secret.
type Signer interface {
	Sign(ctx context.Context, secret security.Secret, tx string) (string, error)
}

// ResolvePassphrase maps "testnet"/"public" to their network passphrases.
// Anything else is taken as a literal passphrase; empty means testnet.
func ResolvePassphrase(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "testnet", "test":
		return network.TestNetworkPassphrase
	case "public", "pubnet", "mainnet":
		return network.PublicNetworkPassphrase
	default:
		return name
	}
}

// StellarSigner signs base64 XDR envelopes for one network.
type StellarSigner struct {
	NetworkPassphrase string
}

// NewStellarSigner returns a signer for the named network (see
// ResolvePassphrase).
func NewStellarSigner(networkName string) *StellarSigner {
	return &StellarSigner{NetworkPassphrase: ResolvePassphrase(networkName)}
}

// Sign adds a signature from secret to tx. Regular and fee-bump envelopes
// are both accepted.
func (s *StellarSigner) Sign(ctx context.Context, secret security.Secret, tx string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	generic, err := txnbuild.TransactionFromXDR(strings.TrimSpace(tx))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}

	var signed string
	err = secret.UseString(func(seed string) error {
		kp, err := keypair.ParseFull(seed)
		if err != nil {
			return ErrInvalidSecret
		}
		if inner, ok := generic.Transaction(); ok {
			out, err := inner.Sign(s.NetworkPassphrase, kp)
			if err != nil {
				return fmt.Errorf("sign transaction: %w", err)
			}
			signed, err = out.Base64()
			return err
		}
		if bump, ok := generic.FeeBump(); ok {
			out, err := bump.Sign(s.NetworkPassphrase, kp)
			if err != nil {
				return fmt.Errorf("sign fee bump transaction: %w", err)
			}
			signed, err = out.Base64()
			return err
		}
		return ErrInvalidTransaction
	})
	if err != nil {
		return "", err
	}
	return signed, nil
}
