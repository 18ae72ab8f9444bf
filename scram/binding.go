// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package scram

// ChannelBinding describes what channel-binding material, if any, a client
// can offer the server as part of the GS2 header.
type ChannelBinding int

const (
	// CBNone means the client does not support channel binding at all
	// (GS2 header "n,,").
	CBNone ChannelBinding = iota
	// CBUnsupported means the client supports channel binding in general
	// but the server did not advertise a "-PLUS" mechanism for this
	// negotiation (GS2 header "y,,").
	CBUnsupported
	// CBTLSUnique means the client supports and intends to use the
	// "tls-unique" channel-binding type (GS2 header "p=tls-unique,,").
	CBTLSUnique
)

// gs2Header returns the GS2 header to use for this binding mode, given
// whether the server advertised a "-PLUS" variant of the mechanism.
func (cb ChannelBinding) gs2Header(serverSupportsPlus bool) string {
	if cb == CBTLSUnique && serverSupportsPlus {
		return "p=tls-unique,,"
	}
	if cb == CBTLSUnique || cb == CBUnsupported {
		// The client supports channel binding but either the server did
		// not advertise it, or the caller chose not to use it for this
		// negotiation: advertise support without invoking it, per
		// RFC 5802 §6.
		return "y,,"
	}
	return "n,,"
}

// usesChannelBinding reports whether cbindInput should include the actual
// binding data rather than just the GS2 header.
func (cb ChannelBinding) usesChannelBinding(serverSupportsPlus bool) bool {
	return cb == CBTLSUnique && serverSupportsPlus
}
