// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package scram

import (
	"bytes"

	"golang.org/x/crypto/pbkdf2"
)

// Derive computes the salted password used as the root of the rest of the
// SCRAM computation.
//
// For a plaintext password this runs PBKDF2-HMAC-H(password, salt,
// iterations, H.Size). For a precomputed Pbkdf2 password, the server
// already has the salted password and does not need to see the plaintext
// again; Derive returns it directly, but only once the Pbkdf2 Password's
// own method, salt, and iteration count are confirmed to match what this
// negotiation asked for — an attacker who swaps the salt or iteration
// count on the wire must not be able to make the client accept a stale
// key.
func Derive(h Hash, password Password, salt []byte, iterations int) ([]byte, error) {
	switch password.kind {
	case passwordPlain:
		return pbkdf2.Key([]byte(password.plain), salt, iterations, h.Size, h.New), nil
	case passwordPbkdf2:
		if password.method != h.Name {
			return nil, &IncompatibleHashingMethodError{Got: password.method, Want: h.Name}
		}
		if !bytes.Equal(password.salt, salt) {
			return nil, ErrIncorrectSalt
		}
		if password.iterations != iterations {
			return nil, &IncompatibleIterationCountError{Got: password.iterations, Want: iterations}
		}
		return password.key, nil
	default:
		panic("scram: Password constructed outside this package")
	}
}
