// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package sasl_test

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"n0desplit.dev/xmppcore/sasl"
	"n0desplit.dev/xmppcore/scram"
	"n0desplit.dev/xmppcore/stream"
)

type rw struct {
	io.Reader
	io.Writer
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestNegotiateScramHappyPath(t *testing.T) {
	serverFirst := "r=fyko+d2lbbFgONRv9qkxdawL3rfcNHYJY1ZVvWVs7j,s=QSXCR+Q6sek8bf92,i=4096"
	serverFinal := "v=rmF9pqV8S7suAoZWja4dJRkFsKQ="

	script := `<challenge xmlns="urn:ietf:params:xml:ns:xmpp-sasl">` + b64(serverFirst) + `</challenge>` +
		`<success xmlns="urn:ietf:params:xml:ns:xmpp-sasl">` + b64(serverFinal) + `</success>`

	in := strings.NewReader(script)
	var out bytes.Buffer
	codec := stream.NewCodec(&rw{in, &out})

	creds := sasl.Credentials{
		Username: "user",
		Password: scram.PlainPassword("pencil"),
	}

	err := sasl.Negotiate(codec, []string{sasl.ScramSHA1}, true, creds)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}

	if !strings.Contains(out.String(), `mechanism="SCRAM-SHA-1"`) {
		t.Fatalf("expected an auth element naming SCRAM-SHA-1, got %s", out.String())
	}
	if !strings.Contains(out.String(), `p=v0X8v3Bz2T0CJGbJQyF0X+HI4Ts=`) {
		t.Fatalf("expected the RFC 5802 client proof in the response, got %s", out.String())
	}
}

func TestNegotiateScramFailure(t *testing.T) {
	script := `<failure xmlns="urn:ietf:params:xml:ns:xmpp-sasl"><not-authorized/></failure>`
	in := strings.NewReader(script)
	var out bytes.Buffer
	codec := stream.NewCodec(&rw{in, &out})

	creds := sasl.Credentials{Username: "user", Password: scram.PlainPassword("wrong")}
	err := sasl.Negotiate(codec, []string{sasl.ScramSHA1}, true, creds)
	fail, ok := err.(*sasl.FailureError)
	if !ok {
		t.Fatalf("got %T (%v), want *sasl.FailureError", err, err)
	}
	if fail.Condition != "not-authorized" {
		t.Fatalf("got condition %q, want not-authorized", fail.Condition)
	}
}

func TestNegotiatePlain(t *testing.T) {
	script := `<success xmlns="urn:ietf:params:xml:ns:xmpp-sasl"/>`
	in := strings.NewReader(script)
	var out bytes.Buffer
	codec := stream.NewCodec(&rw{in, &out})

	creds := sasl.Credentials{Username: "user", Password: scram.PlainPassword("pencil")}
	if err := sasl.Negotiate(codec, []string{sasl.Plain}, true, creds); err != nil {
		t.Fatalf("Negotiate: %v", err)
	}

	want := b64("\x00user\x00pencil")
	if !strings.Contains(out.String(), want) {
		t.Fatalf("expected PLAIN initial response %q in %s", want, out.String())
	}
}

func TestNegotiatePlainRejectsPbkdf2Password(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	codec := stream.NewCodec(&rw{in, &out})

	creds := sasl.Credentials{Username: "user", Password: scram.Pbkdf2Password("SHA-1", []byte("salt"), 4096, []byte("key"))}
	err := sasl.Negotiate(codec, []string{sasl.Plain}, true, creds)
	if err != sasl.ErrPlainRequiresPlaintext {
		t.Fatalf("got %v, want ErrPlainRequiresPlaintext", err)
	}
}
