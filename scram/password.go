// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package scram

// passwordKind discriminates the two Password variants.
type passwordKind int

const (
	passwordPlain passwordKind = iota
	passwordPbkdf2
)

// Password is a sum type: either a plaintext password, or a precomputed
// PBKDF2 key a server stored instead of plaintext so it never has to see
// the real password again.
type Password struct {
	kind       passwordKind
	plain      string
	method     string
	salt       []byte
	iterations int
	key        []byte
}

// PlainPassword wraps a plaintext password.
func PlainPassword(s string) Password {
	return Password{kind: passwordPlain, plain: s}
}

// Pbkdf2Password wraps a precomputed PBKDF2 output: the hash method name
// ("SHA-1" or "SHA-256"), the salt and iteration count it was derived
// with, and the derived key itself.
func Pbkdf2Password(method string, salt []byte, iterations int, key []byte) Password {
	return Password{kind: passwordPbkdf2, method: method, salt: salt, iterations: iterations, key: key}
}

// PlainString returns the plaintext password and true if p wraps one.
// Mechanisms that need the plaintext (eg. PLAIN) use this instead of
// Derive, which only ever returns salted key material.
func (p Password) PlainString() (string, bool) {
	return p.plain, p.kind == passwordPlain
}
