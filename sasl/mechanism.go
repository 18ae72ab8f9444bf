// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package sasl selects a SASL mechanism from a server's advertised list
// and drives the <auth>/<challenge>/<response>/<success>/<failure> wire
// exchange described in RFC 6120 §6, consuming the scram package for the
// SCRAM family of mechanisms.
package sasl // import "n0desplit.dev/xmppcore/sasl"

import (
	"errors"
	"strings"
)

// The mechanism names this package knows how to negotiate, in selection
// preference order (highest first).
const (
	ScramSHA256Plus = "SCRAM-SHA-256-PLUS"
	ScramSHA256     = "SCRAM-SHA-256"
	ScramSHA1Plus   = "SCRAM-SHA-1-PLUS"
	ScramSHA1       = "SCRAM-SHA-1"
	Plain           = "PLAIN"
	Anonymous       = "ANONYMOUS"
)

var preference = []string{ScramSHA256Plus, ScramSHA256, ScramSHA1Plus, ScramSHA1, Plain, Anonymous}

// ErrNoSupportedMechanism is returned by Select when none of the server's
// advertised mechanisms can be negotiated: this package implements none of
// them, or the only implemented ones are PLAIN without an active
// TLS-protected stream or "-PLUS" variants without channel-binding
// material.
var ErrNoSupportedMechanism = errors.New("sasl: no supported mechanism")

// Select picks the best mechanism from serverMechanisms according to the
// fixed preference order: SCRAM-SHA-256-PLUS, SCRAM-SHA-256,
// SCRAM-SHA-1-PLUS, SCRAM-SHA-1, PLAIN (only when tlsActive), ANONYMOUS.
// canBind must be true for a "-PLUS" mechanism to be eligible: selecting one
// without real channel-binding material behind it would commit the GS2
// header to a binding the client never performs, which the server has no
// way to detect but which silently defeats the point of "-PLUS".
func Select(serverMechanisms []string, tlsActive, canBind bool) (string, error) {
	offered := make(map[string]bool, len(serverMechanisms))
	for _, m := range serverMechanisms {
		offered[m] = true
	}
	for _, m := range preference {
		if m == Plain && !tlsActive {
			continue
		}
		if !canBind && strings.HasSuffix(m, "-PLUS") {
			continue
		}
		if offered[m] {
			return m, nil
		}
	}
	return "", ErrNoSupportedMechanism
}
