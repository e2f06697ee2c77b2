// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/toeirei/walletkeeper/internal/crypto"
	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/signer"
	"github.com/toeirei/walletkeeper/internal/wallet"
)

// Kind classifies coordinator failures. The set is closed.
type Kind string

const (
	KindKeyDerivation  Kind = "key_derivation"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindDuplicate      Kind = "duplicate"
	KindTimeout        Kind = "timeout"
	KindStorage        Kind = "storage"
	KindDecoding       Kind = "decoding"
	KindSigning        Kind = "signing"
	KindInvalidInput   Kind = "invalid_input"
	KindRateLimited    Kind = "rate_limited"
	KindInternal       Kind = "internal"
)

// Operation names used in errors, logs and metrics.
const (
	OpProvisionWallet = "provision_wallet"
	OpGetPublicKey    = "get_public_key"
	OpSignTransaction = "sign_transaction"
)

// ErrRateLimited is wrapped when a user exceeds the signing rate.
var ErrRateLimited = errors.New("signing rate exceeded")

// Error is returned by every Coordinator operation. Its message carries the
// operation, the user id and the kind; it never carries key material.
type Error struct {
	Op     string
	UserID string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Op, e.UserID, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a coordinator error. Errors that did not come
// from the coordinator are KindInternal; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// Retryable reports whether repeating the same call may succeed. Only
// storage and timeout failures of read operations qualify; a timed-out
// provisioning has an unknown outcome and must be checked with
// GetPublicKey instead.
func Retryable(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	if ce.Op != OpGetPublicKey && ce.Op != OpSignTransaction {
		return false
	}
	return ce.Kind == KindTimeout || ce.Kind == KindStorage
}

// classify maps a failure from a collaborator onto a Kind. fallback is used
// when nothing more specific matches.
func classify(err error, fallback Kind) Kind {
	switch {
	case errors.Is(err, crypto.ErrKeyDerivation):
		return KindKeyDerivation
	case errors.Is(err, crypto.ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, crypto.ErrDecoding), errors.Is(err, wallet.ErrKeyMismatch),
		errors.Is(err, signer.ErrInvalidSecret):
		return KindDecoding
	case errors.Is(err, db.ErrNotFound):
		return KindNotFound
	case errors.Is(err, db.ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, db.ErrTimeout), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindTimeout
	case errors.Is(err, db.ErrUnavailable):
		return KindStorage
	case errors.Is(err, signer.ErrInvalidTransaction):
		return KindInvalidInput
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	}
	return fallback
}

func wrap(op, userID string, err error, fallback Kind) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, UserID: userID, Kind: classify(err, fallback), Err: err}
}
