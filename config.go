// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"n0desplit.dev/xmppcore/jid"
	"n0desplit.dev/xmppcore/scram"
)

// Password is the Password sum type of the data model: either a plaintext
// secret or a precomputed PBKDF2 key, the same type the scram and sasl
// packages negotiate with directly.
type Password = scram.Password

// PlainPassword wraps a plaintext secret.
func PlainPassword(s string) Password { return scram.PlainPassword(s) }

// Pbkdf2Password wraps a precomputed salted key, allowing the caller to
// avoid holding the plaintext password in memory.
func Pbkdf2Password(method string, salt []byte, iterations int, key []byte) Password {
	return scram.Pbkdf2Password(method, salt, iterations, key)
}

// ServerConfig selects how the Client locates the server to connect to.
type ServerConfig interface {
	isServerConfig()
}

// UseSRV discovers the server via DNS SRV records (the default).
type UseSRV struct{}

func (UseSRV) isServerConfig() {}

// Manual connects directly to Host:Port, skipping SRV discovery.
type Manual struct {
	Host string
	Port string
}

func (Manual) isServerConfig() {}

// Config is the caller-supplied description of an XMPP session: an
// identity to authenticate as, how to reach the server, and whether to
// reconnect automatically on failure. Config and the Credentials derived
// from it are cloned into each connect attempt; the Client never mutates
// the Config it was constructed with.
type Config struct {
	// JID is the identity to authenticate as. Required; its domainpart
	// names the server, and its resourcepart (if any) is requested during
	// binding but the server may assign a different one.
	JID *jid.JID

	// Password authenticates JID. Required unless the ANONYMOUS mechanism
	// is negotiated.
	Password Password

	// ChannelBinding requests SCRAM channel binding to the TLS session.
	// The zero value, scram.CBNone, means the client does not support it.
	ChannelBinding scram.ChannelBinding

	// Server selects SRV discovery or a manual host/port. The nil value is
	// equivalent to UseSRV{}.
	Server ServerConfig

	// Reconnect controls whether a Disconnected state re-enters Connecting
	// automatically. See Client.SetReconnect.
	Reconnect bool
}

func (c Config) server() ServerConfig {
	if c.Server == nil {
		return UseSRV{}
	}
	return c.Server
}
