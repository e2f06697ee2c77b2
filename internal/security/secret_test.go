// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestSecretRedactionAndJSON(t *testing.T) {
	s := FromString("SBQWY3DNPFWGSZTFNZTGS3TFNZ2GKZDMMFWWC3DPNZXGKZDM")
	for _, verb := range []string{"%v", "%s", "%q", "%x", "%#v", "%+v"} {
		if got := fmt.Sprintf(verb, s); got != "[SECRET]" {
			t.Fatalf("%s: unexpected fmt output: %q", verb, got)
		}
	}
	b, err := json.Marshal(struct {
		Seed Secret `json:"seed"`
	}{Seed: s})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if string(b) != `{"seed":"[SECRET]"}` {
		t.Fatalf("unexpected json marshal: %s", string(b))
	}
}

func TestSecretRefusesJSONDecode(t *testing.T) {
	var v struct {
		Seed Secret `json:"seed"`
	}
	if err := json.Unmarshal([]byte(`{"seed":"abc"}`), &v); err == nil {
		t.Fatal("expected decode into Secret to fail")
	}
}

func TestSecretZero(t *testing.T) {
	raw := []byte("abc123")
	s := Secret(raw)
	(&s).Zero()
	for i, b := range raw {
		if b != 0 {
			t.Fatalf("expected zeroed byte at index %d, got %d", i, b)
		}
	}
	if s != nil {
		t.Fatal("expected reference to be dropped")
	}
	if !s.IsEmpty() {
		t.Fatal("expected released secret to be empty")
	}
	if err := s.Use(func([]byte) error { return nil }); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
}

func TestSecretFromBytesCopies(t *testing.T) {
	in := []byte("sensitive")
	s := FromBytes(in)
	in[0] = 'X'
	if err := s.UseString(func(v string) error {
		if v != "sensitive" {
			return fmt.Errorf("got %q", v)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestSecretUsePropagatesError(t *testing.T) {
	s := FromString("testdata")
	testErr := errors.New("callback error")
	if err := s.Use(func([]byte) error { return testErr }); err != testErr {
		t.Fatalf("expected %v, got %v", testErr, err)
	}
}
