// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds the Secret type used for every value that carries
// signing or master-key material. A Secret redacts itself in fmt, JSON and
// text encodings and is zeroed by its owner once consumed, so a wallet seed
// cannot leak through a log line or a response body by accident.
package security
