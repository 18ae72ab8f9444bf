// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package scram

import (
	"strings"
	"testing"
)

// TestRFC5802Vector drives a Client through the exact exchange in RFC 5802
// §5 and checks the resulting ClientProof against the published vector.
func TestRFC5802Vector(t *testing.T) {
	c, err := NewClient(SHA1, "user", PlainPassword("pencil"), CBNone, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	c.clientNonce = "fyko+d2lbbFgONRv9qkxdawL"

	first := c.ClientFirst()
	if want := "n,,n=user,r=fyko+d2lbbFgONRv9qkxdawL"; first != want {
		t.Fatalf("ClientFirst() = %q, want %q", first, want)
	}

	serverFirst := "r=fyko+d2lbbFgONRv9qkxdawL3rfcNHYJY1ZVvWVs7j,s=QSXCR+Q6sek8bf92,i=4096"
	if err := c.ReceiveServerFirst(serverFirst); err != nil {
		t.Fatalf("ReceiveServerFirst: %v", err)
	}

	final := c.ClientFinal()
	wantProof := "p=v0X8v3Bz2T0CJGbJQyF0X+HI4Ts="
	if !strings.HasSuffix(final, ","+wantProof) {
		t.Fatalf("ClientFinal() = %q, want suffix ,%s", final, wantProof)
	}
	if want := "c=biws,r=fyko+d2lbbFgONRv9qkxdawL3rfcNHYJY1ZVvWVs7j,"; !strings.HasPrefix(final, want) {
		t.Fatalf("ClientFinal() = %q, want prefix %s", final, want)
	}

	serverFinal := "v=rmF9pqV8S7suAoZWja4dJRkFsKQ="
	if err := c.ReceiveServerFinal(serverFinal); err != nil {
		t.Fatalf("ReceiveServerFinal: %v", err)
	}
	if !c.Done() {
		t.Fatal("Client should be Done after a successful server-final verification")
	}
}

func TestReceiveServerFinalRejectsBadSignature(t *testing.T) {
	c, err := NewClient(SHA1, "user", PlainPassword("pencil"), CBNone, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	c.clientNonce = "fyko+d2lbbFgONRv9qkxdawL"
	c.ClientFirst()
	if err := c.ReceiveServerFirst("r=fyko+d2lbbFgONRv9qkxdawL3rfcNHYJY1ZVvWVs7j,s=QSXCR+Q6sek8bf92,i=4096"); err != nil {
		t.Fatal(err)
	}
	c.ClientFinal()

	if err := c.ReceiveServerFinal("v=" + strings.Repeat("A", 28)); err != ErrBadServerSignature {
		t.Fatalf("got %v, want ErrBadServerSignature", err)
	}
	if c.Done() {
		t.Fatal("Client should not be Done after a failed server-final verification")
	}
}

func TestReceiveServerFirstRejectsBadNonce(t *testing.T) {
	c, err := NewClient(SHA1, "user", PlainPassword("pencil"), CBNone, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	c.clientNonce = "fyko+d2lbbFgONRv9qkxdawL"
	c.ClientFirst()

	err = c.ReceiveServerFirst("r=totally-different-nonce,s=QSXCR+Q6sek8bf92,i=4096")
	if err != ErrBadNonce {
		t.Fatalf("got %v, want ErrBadNonce", err)
	}
}

func TestReceiveServerFirstRejectsMalformed(t *testing.T) {
	c, err := NewClient(SHA1, "user", PlainPassword("pencil"), CBNone, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	c.ClientFirst()
	if err := c.ReceiveServerFirst("garbage"); err != ErrMalformedMessage {
		t.Fatalf("got %v, want ErrMalformedMessage", err)
	}
}

func TestDeriveWithPbkdf2Password(t *testing.T) {
	salt := []byte("salt")
	key := []byte("precomputed-key-bytes")

	good := Pbkdf2Password("SHA-1", salt, 4096, key)
	got, err := Derive(SHA1, good, salt, 4096)
	if err != nil {
		t.Fatalf("Derive with matching params: %v", err)
	}
	if string(got) != string(key) {
		t.Fatalf("Derive returned %x, want the stored key %x", got, key)
	}

	if _, err := Derive(SHA256, good, salt, 4096); err == nil {
		t.Fatal("expected a hash-method mismatch to fail")
	} else if _, ok := err.(*IncompatibleHashingMethodError); !ok {
		t.Fatalf("got %T, want *IncompatibleHashingMethodError", err)
	}

	if _, err := Derive(SHA1, good, []byte("different-salt"), 4096); err != ErrIncorrectSalt {
		t.Fatalf("got %v, want ErrIncorrectSalt", err)
	}

	if _, err := Derive(SHA1, good, salt, 8192); err == nil {
		t.Fatal("expected an iteration-count mismatch to fail")
	} else if _, ok := err.(*IncompatibleIterationCountError); !ok {
		t.Fatalf("got %T, want *IncompatibleIterationCountError", err)
	}
}

func TestEscapeUsername(t *testing.T) {
	got, err := escapeUsername("a,b=c")
	if err != nil {
		t.Fatal(err)
	}
	if want := "a=2Cb=3Dc"; got != want {
		t.Fatalf("escapeUsername() = %q, want %q", got, want)
	}
}

func TestChannelBindingGS2Header(t *testing.T) {
	for _, tc := range []struct {
		cb                 ChannelBinding
		serverSupportsPlus bool
		want               string
	}{
		{CBNone, false, "n,,"},
		{CBNone, true, "n,,"},
		{CBUnsupported, false, "y,,"},
		{CBTLSUnique, false, "y,,"},
		{CBTLSUnique, true, "p=tls-unique,,"},
	} {
		if got := tc.cb.gs2Header(tc.serverSupportsPlus); got != tc.want {
			t.Errorf("ChannelBinding(%d).gs2Header(%v) = %q, want %q", tc.cb, tc.serverSupportsPlus, got, tc.want)
		}
	}
}
