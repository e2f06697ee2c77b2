// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"fmt"

	"github.com/toeirei/walletkeeper/internal/security"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// KDF names the master-secret derivation function.
type KDF string

const (
	// KDFScrypt matches the parameters existing wallet records were written
	// with (N=16384, r=8, p=1).
	KDFScrypt KDF = "scrypt"
	// KDFArgon2id is available for new installations.
	KDFArgon2id KDF = "argon2id"
)

const (
	scryptN = 16384
	scryptR = 8
	scryptP = 1

	argonTime    = uint32(3)
	argonMemKB   = uint32(64 * 1024)
	argonThreads = uint8(4)
)

// kdfSalt is constant and public. The derived key must be reproducible from
// the master secret alone, the cost parameters carry the brute-force margin.
var kdfSalt = []byte("salt")

// ParseKDF maps a config value to a KDF. The empty string selects scrypt.
func ParseKDF(name string) (KDF, error) {
	switch KDF(name) {
	case "", KDFScrypt:
		return KDFScrypt, nil
	case KDFArgon2id:
		return KDFArgon2id, nil
	default:
		return "", fmt.Errorf("unsupported kdf %q", name)
	}
}

// deriveKey returns KeySize bytes. The caller owns and must zero the result.
func deriveKey(kdf KDF, master security.Secret) ([]byte, error) {
	var key []byte
	err := master.Use(func(b []byte) error {
		switch kdf {
		case KDFScrypt:
			k, err := scrypt.Key(b, kdfSalt, scryptN, scryptR, scryptP, KeySize)
			if err != nil {
				return err
			}
			key = k
		case KDFArgon2id:
			key = argon2.IDKey(b, kdfSalt, argonTime, argonMemKB, argonThreads, KeySize)
		default:
			return fmt.Errorf("unsupported kdf %q", kdf)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}
