// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package scram implements the SCRAM computation engine used during SASL
// authentication: salted password derivation, the HMAC and hash
// primitives, and the four-message client state machine described in
// RFC 5802.
package scram // import "n0desplit.dev/xmppcore/scram"

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
)

// Hash parameterizes the engine over a digest algorithm. Only the two
// algorithms XMPP servers commonly advertise, SHA-1 and SHA-256, have
// package-level values below, but the type itself is generic so additional
// algorithms can be added without touching the engine.
type Hash struct {
	// Name is the SASL mechanism suffix, eg. "SHA-1" or "SHA-256", and the
	// value compared against a Pbkdf2 Password's stored method.
	Name string
	Size int
	New  func() hash.Hash
}

// SHA1 is the SCRAM-SHA-1 hash parameterization.
var SHA1 = Hash{Name: "SHA-1", Size: sha1.Size, New: sha1.New}

// SHA256 is the SCRAM-SHA-256 hash parameterization.
var SHA256 = Hash{Name: "SHA-256", Size: sha256.Size, New: sha256.New}

// HMAC computes HMAC-H(key, data).
func (h Hash) HMAC(key, data []byte) []byte {
	mac := hmac.New(h.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// Sum computes H(data).
func (h Hash) Sum(data []byte) []byte {
	d := h.New()
	d.Write(data)
	return d.Sum(nil)
}
