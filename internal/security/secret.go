// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const redacted = "[SECRET]"

// ErrReleased is returned by Use when the secret has already been zeroed.
var ErrReleased = errors.New("security: secret already released")

// Secret wraps sensitive bytes (wallet seeds, the master secret). It never
// prints its content and refuses to be serialized.
type Secret []byte

// FromString creates a Secret from a string. The string itself cannot be
// wiped, so callers should prefer FromBytes when they own a byte buffer.
func FromString(in string) Secret { return Secret([]byte(in)) }

// FromBytes creates a Secret holding a copy of in.
func FromBytes(in []byte) Secret {
	out := make([]byte, len(in))
	copy(out, in)
	return Secret(out)
}

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// GoString redacts the secret for %#v.
func (s Secret) GoString() string { return redacted }

// Format implements fmt.Formatter so every verb is redacted.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

// MarshalJSON redacts secrets in JSON marshaling.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoding.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// UnmarshalJSON rejects decoding into a Secret; secrets enter the process
// only through explicit constructors.
func (s *Secret) UnmarshalJSON([]byte) error {
	return errors.New("security: refusing to decode secret from JSON")
}

// Len reports the number of bytes held.
func (s Secret) Len() int { return len(s) }

// IsEmpty reports whether the secret holds only zero bytes or has been
// released.
func (s Secret) IsEmpty() bool {
	for _, b := range s {
		if b != 0 {
			return false
		}
	}
	return true
}

// Zero overwrites the underlying bytes and drops the reference.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
	*s = nil
}

// Use runs fn with the underlying bytes (not a copy). fn must not retain
// the slice past its return.
func (s Secret) Use(fn func([]byte) error) error {
	if s == nil {
		return ErrReleased
	}
	return fn([]byte(s))
}

// UseString is Use for callers whose API only accepts strings, such as the
// Stellar keypair parser. The string copy is unavoidable there.
func (s Secret) UseString(fn func(string) error) error {
	return s.Use(func(b []byte) error { return fn(string(b)) })
}
