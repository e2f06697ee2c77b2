// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package crypto implements the cipher service that protects wallet seeds at
// rest.
//
// A CipherService derives one 32-byte AES key from the installation master
// secret when it is created and keeps only the resulting AEAD for the rest of
// its life. Every Encrypt call draws a fresh 16-byte nonce and binds the
// caller's context string (the owning user id) as additional authenticated
// data, so an encrypted seed copied into another user's record fails to open
// instead of yielding the wrong key.
//
// The serialized form of an EncryptedSecret is the storage contract:
//
//	{"iv":"<32 hex>","encryptedData":"<hex>","authTag":"<32 hex>"}
package crypto
