// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
)

var hex32 = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestEncryptedSecret_WireShape(t *testing.T) {
	enc := &EncryptedSecret{
		IV:         bytes.Repeat([]byte{0xab}, NonceSize),
		Ciphertext: []byte{0x01, 0x02, 0xff},
		AuthTag:    bytes.Repeat([]byte{0x0c}, TagSize),
	}
	got, err := enc.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"iv":"abababababababababababababababab","encryptedData":"0102ff","authTag":"0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c"}`
	if got != want {
		t.Fatalf("Encode()\n got %s\nwant %s", got, want)
	}
}

func TestEncryptedSecret_RoundTripsByteForByte(t *testing.T) {
	svc := newTestService(t, "m")
	enc, err := svc.Encrypt([]byte("SDSEED"), "alice")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	first, err := enc.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(first), &fields); err != nil {
		t.Fatalf("stored form is not a flat JSON object: %v", err)
	}
	if !hex32.MatchString(fields["iv"]) || !hex32.MatchString(fields["authTag"]) {
		t.Fatalf("iv/authTag must be 32 lowercase hex chars: %v", fields)
	}

	parsed, err := ParseEncryptedSecret(first)
	if err != nil {
		t.Fatalf("ParseEncryptedSecret: %v", err)
	}
	second, err := parsed.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if first != second {
		t.Fatalf("round trip changed bytes:\n%s\n%s", first, second)
	}
}

func TestParseEncryptedSecret_Errors(t *testing.T) {
	iv := `"00000000000000000000000000000000"`
	tag := `"11111111111111111111111111111111"`
	tests := []struct {
		name string
		in   string
	}{
		{name: "not json", in: "not-json"},
		{name: "empty", in: ""},
		{name: "missing iv", in: `{"encryptedData":"00","authTag":` + tag + `}`},
		{name: "missing data", in: `{"iv":` + iv + `,"authTag":` + tag + `}`},
		{name: "missing tag", in: `{"iv":` + iv + `,"encryptedData":"00"}`},
		{name: "bad hex", in: `{"iv":"zz","encryptedData":"00","authTag":` + tag + `}`},
		{name: "short iv", in: `{"iv":"0000","encryptedData":"00","authTag":` + tag + `}`},
		{name: "long tag", in: `{"iv":` + iv + `,"encryptedData":"00","authTag":"` + "11" + tag[1:] + `}`},
		{name: "unknown field", in: `{"iv":` + iv + `,"encryptedData":"00","authTag":` + tag + `,"alg":"x"}`},
		{name: "wrong type", in: `{"iv":1,"encryptedData":"00","authTag":` + tag + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEncryptedSecret(tt.in); !errors.Is(err, ErrDecoding) {
				t.Fatalf("expected ErrDecoding, got %v", err)
			}
		})
	}
}

func TestEncryptedSecret_EmbeddedInJSON(t *testing.T) {
	in := `{"blob":{"iv":"00000000000000000000000000000000","encryptedData":"","authTag":"11111111111111111111111111111111"}}`
	var v struct {
		Blob EncryptedSecret `json:"blob"`
	}
	if err := json.Unmarshal([]byte(in), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(v.Blob.Ciphertext) != 0 || len(v.Blob.IV) != NonceSize {
		t.Fatalf("unexpected decode: %+v", v.Blob)
	}
}
