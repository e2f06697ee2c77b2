// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// EncryptedSecret is one sealed payload. It is immutable once produced.
type EncryptedSecret struct {
	IV         []byte
	Ciphertext []byte
	AuthTag    []byte
}

// encryptedSecretJSON is the stored shape. Field order is part of the
// contract: records must round-trip byte for byte.
type encryptedSecretJSON struct {
	IV            *string `json:"iv"`
	EncryptedData *string `json:"encryptedData"`
	AuthTag       *string `json:"authTag"`
}

// Validate checks field lengths. It returns an error wrapping ErrDecoding.
func (e *EncryptedSecret) Validate() error {
	switch {
	case e == nil:
		return fmt.Errorf("%w: nil", ErrDecoding)
	case len(e.IV) != NonceSize:
		return fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecoding, NonceSize, len(e.IV))
	case len(e.AuthTag) != TagSize:
		return fmt.Errorf("%w: authTag must be %d bytes, got %d", ErrDecoding, TagSize, len(e.AuthTag))
	}
	return nil
}

// MarshalJSON encodes the record as lowercase hex fields.
func (e EncryptedSecret) MarshalJSON() ([]byte, error) {
	iv := hex.EncodeToString(e.IV)
	data := hex.EncodeToString(e.Ciphertext)
	tag := hex.EncodeToString(e.AuthTag)
	return json.Marshal(encryptedSecretJSON{IV: &iv, EncryptedData: &data, AuthTag: &tag})
}

// UnmarshalJSON decodes the stored shape. Unknown or missing fields, bad
// hex, and wrong lengths all yield ErrDecoding.
func (e *EncryptedSecret) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var raw encryptedSecretJSON
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	if raw.IV == nil || raw.EncryptedData == nil || raw.AuthTag == nil {
		return fmt.Errorf("%w: iv, encryptedData and authTag are required", ErrDecoding)
	}

	iv, err := hex.DecodeString(*raw.IV)
	if err != nil {
		return fmt.Errorf("%w: iv: %v", ErrDecoding, err)
	}
	data, err := hex.DecodeString(*raw.EncryptedData)
	if err != nil {
		return fmt.Errorf("%w: encryptedData: %v", ErrDecoding, err)
	}
	tag, err := hex.DecodeString(*raw.AuthTag)
	if err != nil {
		return fmt.Errorf("%w: authTag: %v", ErrDecoding, err)
	}

	out := EncryptedSecret{IV: iv, Ciphertext: data, AuthTag: tag}
	if err := out.Validate(); err != nil {
		return err
	}
	*e = out
	return nil
}

// Encode returns the JSON text stored in the encrypted_private_key column.
func (e *EncryptedSecret) Encode() (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseEncryptedSecret decodes the encrypted_private_key column. Any failure,
// including text that is not JSON at all, wraps ErrDecoding.
func ParseEncryptedSecret(s string) (*EncryptedSecret, error) {
	var e EncryptedSecret
	if err := e.UnmarshalJSON([]byte(s)); err != nil {
		return nil, err
	}
	return &e, nil
}
