// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package sasl

import "n0desplit.dev/xmppcore/scram"

// Credentials is everything a SASL negotiation needs from the caller:
// the authentication identity, the password (plain or a precomputed
// PBKDF2 key), and what channel-binding material, if any, is available.
type Credentials struct {
	Username           string
	Password           scram.Password
	ChannelBinding     scram.ChannelBinding
	ChannelBindingData []byte
}
